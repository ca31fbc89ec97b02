package downloader

import "github.com/tanq16/vodkit/internal/types"

// Listener receives lifecycle events from a VideoDownloader. Progress events
// for one download are delivered serially, from the goroutine that called
// Download.
type Listener interface {
	DownloadStarted(job types.JobInfo)
	DownloadProgress(percent float64)
	TranscodeStarted(video types.HLSVideo)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnDownloadStarted  func(job types.JobInfo)
	OnDownloadProgress func(percent float64)
	OnTranscodeStarted func(video types.HLSVideo)
}

func (l ListenerFuncs) DownloadStarted(job types.JobInfo) {
	if l.OnDownloadStarted != nil {
		l.OnDownloadStarted(job)
	}
}

func (l ListenerFuncs) DownloadProgress(percent float64) {
	if l.OnDownloadProgress != nil {
		l.OnDownloadProgress(percent)
	}
}

func (l ListenerFuncs) TranscodeStarted(video types.HLSVideo) {
	if l.OnTranscodeStarted != nil {
		l.OnTranscodeStarted(video)
	}
}

type NopListener struct{}

func (NopListener) DownloadStarted(types.JobInfo)   {}
func (NopListener) DownloadProgress(float64)        {}
func (NopListener) TranscodeStarted(types.HLSVideo) {}
