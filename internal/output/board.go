package output

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type row struct {
	label     string
	status    string
	message   string
	percent   float64
	showBar   bool
	startTime time.Time
	endTime   time.Time
	err       error
}

// Board redraws one line per batch entry (plus a progress line for active
// entries) until Stop is called, then prints a summary.
type Board struct {
	mu       sync.Mutex
	rows     []*row
	numLines int
	tick     time.Duration
	doneCh   chan struct{}
	wg       sync.WaitGroup
}

func NewBoard() *Board {
	return &Board{
		tick:   300 * time.Millisecond,
		doneCh: make(chan struct{}),
	}
}

func (b *Board) Register(label string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = append(b.rows, &row{label: label, status: "pending", startTime: time.Now()})
	return len(b.rows) - 1
}

func (b *Board) update(id int, fn func(r *row)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id >= 0 && id < len(b.rows) {
		fn(b.rows[id])
	}
}

func (b *Board) SetMessage(id int, message string) {
	b.update(id, func(r *row) {
		r.status = "active"
		r.message = message
	})
}

func (b *Board) SetProgress(id int, percent float64) {
	b.update(id, func(r *row) {
		r.showBar = true
		r.percent = percent
	})
}

func (b *Board) Complete(id int, message string) {
	b.update(id, func(r *row) {
		r.status = "success"
		r.message = message
		r.showBar = false
		r.endTime = time.Now()
	})
}

func (b *Board) Fail(id int, err error) {
	b.update(id, func(r *row) {
		r.status = "error"
		r.err = err
		r.message = fmt.Sprintf("Failed %s", r.label)
		r.showBar = false
		r.endTime = time.Now()
	})
}

func indicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "active":
		return infoStyle.Render(StyleSymbols["arrow"])
	default:
		return pendingStyle.Render(StyleSymbols["pending"])
	}
}

func (b *Board) render() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, height := getTerminalSize()
	available := height - 3
	if b.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", b.numLines)
	}
	lines := 0
	for _, r := range b.rows {
		if lines >= available {
			break
		}
		elapsed := time.Since(r.startTime)
		if !r.endTime.IsZero() {
			elapsed = r.endTime.Sub(r.startTime)
		}
		message := r.message
		if message == "" {
			message = "Waiting..."
		}
		switch r.status {
		case "success":
			message = successStyle.Render(message)
		case "error":
			message = errorStyle.Render(message)
		default:
			message = pendingStyle.Render(message)
		}
		fmt.Printf("  %s %s %s\n", indicator(r.status), FDebug(elapsed.Round(time.Second).String()), message)
		lines++
		if r.showBar && lines < available {
			fmt.Printf("      %s\n", ProgressLine(r.percent, 30))
			lines++
		}
	}
	b.numLines = lines
}

func (b *Board) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.render()
			case <-b.doneCh:
				b.render()
				b.summary()
				return
			}
		}
	}()
}

func (b *Board) Stop() {
	close(b.doneCh)
	b.wg.Wait()
}

func (b *Board) summary() {
	b.mu.Lock()
	defer b.mu.Unlock()
	var succeeded, failed []*row
	for _, r := range b.rows {
		switch r.status {
		case "success":
			succeeded = append(succeeded, r)
		case "error":
			failed = append(failed, r)
		}
	}
	fmt.Println()
	fmt.Println("  " + successStyle.Render(fmt.Sprintf("Completed %d of %d", len(succeeded), len(b.rows))))
	if len(failed) == 0 {
		fmt.Println()
		return
	}
	fmt.Println("  " + errorStyle.Render(fmt.Sprintf("Failed %d of %d", len(failed), len(b.rows))))
	fmt.Println()
	fmt.Println("  " + errorStyle.Bold(true).Render("Errors:"))
	for i, r := range failed {
		fmt.Printf("    %s %s\n", errorStyle.Render(fmt.Sprintf("%d.", i+1)), errorStyle.Render(r.label))
		fmt.Printf("      %s\n", errorStyle.Render(strings.TrimSpace(fmt.Sprintf("Error: %v", r.err))))
	}
	fmt.Println()
}
