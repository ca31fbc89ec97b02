package scheduler

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tanq16/vodkit/internal/utils"
)

func TestRunCollectsErrorsInOrder(t *testing.T) {
	jobs := NewJobs([]utils.BatchEntry{
		{Link: "https://www.twitch.tv/videos/1"},
		{Link: "bad"},
		{Link: "https://www.twitch.tv/videos/3"},
		{Link: "bad"},
	})
	errs := Run(jobs, 2, func(j Job) error {
		if j.Entry.Link == "bad" {
			return fmt.Errorf("job %d failed", j.ID)
		}
		return nil
	})
	if len(errs) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(errs), len(jobs))
	}
	for i, err := range errs {
		wantErr := jobs[i].Entry.Link == "bad"
		if (err != nil) != wantErr {
			t.Errorf("job %d error = %v, wantErr %v", i, err, wantErr)
		}
	}
	if errs[3] == nil || errs[3].Error() != "job 3 failed" {
		t.Errorf("errs[3] = %v", errs[3])
	}
}

func TestRunRespectsWorkerLimit(t *testing.T) {
	var running, peak atomic.Int32
	jobs := NewJobs(make([]utils.BatchEntry, 12))
	Run(jobs, 3, func(Job) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return nil
	})
	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestRunNoJobs(t *testing.T) {
	errs := Run(nil, 4, func(Job) error { return errors.New("unreachable") })
	if len(errs) != 0 {
		t.Errorf("got %d results for empty batch", len(errs))
	}
}
