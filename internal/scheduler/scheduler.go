package scheduler

import (
	"sync"

	"github.com/tanq16/vodkit/internal/utils"
)

// Job is one batch entry together with its position in the batch file.
type Job struct {
	ID    int
	Entry utils.BatchEntry
}

func NewJobs(entries []utils.BatchEntry) []Job {
	jobs := make([]Job, len(entries))
	for i, entry := range entries {
		jobs[i] = Job{ID: i, Entry: entry}
	}
	return jobs
}

// Run feeds jobs to numWorkers workers and returns one error slot per job,
// in job order. A failing job does not stop the others.
func Run(jobs []Job, numWorkers int, fn func(Job) error) []error {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	errs := make([]error, len(jobs))
	jobCh := make(chan int, len(jobs))
	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)

	var wg sync.WaitGroup
	for w, n := 0, min(numWorkers, len(jobs)); w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				errs[i] = fn(jobs[i])
			}
		}()
	}
	wg.Wait()
	return errs
}
