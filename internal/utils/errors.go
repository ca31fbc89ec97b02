package utils

import "errors"

var (
	ErrInvalidVideoURL        = errors.New("could not find a video id in url")
	ErrAuthDenied             = errors.New("cannot generate playback access token")
	ErrManifestRestricted     = errors.New("video manifest is restricted")
	ErrManifestParse          = errors.New("unexpected variant playlist layout")
	ErrManifestURLRequired    = errors.New("rendition playlist url is required")
	ErrInvalidVideoMetadata   = errors.New("rendition must have quality, resolution and url")
	ErrNoFragmentsFound       = errors.New("no fragments found in playlist")
	ErrFragmentDownloadFailed = errors.New("failed to download fragment")
	ErrTranscodeSourceMissing = errors.New("hls playlist does not exist")
	ErrTranscodeFailed        = errors.New("transcode failed")
	ErrRenditionNotFound      = errors.New("no rendition matches the requested quality")
)
