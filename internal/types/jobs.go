package types

import (
	"encoding/json"
	"time"
)

// VideoID is the numeric identifier of a recorded stream.
type VideoID string

// Credential is the signed playback token pair returned by the GQL endpoint.
// It authorizes a single manifest resolution and is never written to disk.
type Credential struct {
	Signature string
	Token     string
}

type Rendition struct {
	Quality    string `json:"quality" yaml:"quality"`
	Resolution string `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	URL        string `json:"url" yaml:"url"`
}

type Fragment struct {
	Name string
	URL  string
}

// JobInfo describes one download invocation. It is what listeners receive
// when a download starts.
type JobInfo struct {
	ID             string
	VideoID        VideoID
	Quality        string
	FolderPath     string
	TotalFragments int
	StartTime      time.Time
}

type HLSVideo struct {
	VideoID    VideoID `json:"vodID"`
	Quality    string  `json:"quality"`
	FolderPath string  `json:"folderPath"`
}

type MKVVideo struct {
	VideoID  VideoID `json:"vodID"`
	Quality  string  `json:"quality"`
	FilePath string  `json:"filePath"`
}

type Comment struct {
	ID                   string          `json:"_id"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	ChannelID            string          `json:"channel_id"`
	ContentType          string          `json:"content_type"`
	ContentID            string          `json:"content_id"`
	ContentOffsetSeconds float64         `json:"content_offset_seconds"`
	Commenter            json.RawMessage `json:"commenter,omitempty"`
	Source               string          `json:"source"`
	State                string          `json:"state"`
	Message              json.RawMessage `json:"message,omitempty"`
	MoreReplies          bool            `json:"more_replies"`
}

type ChatPage struct {
	Comments []Comment `json:"comments"`
	Next     string    `json:"_next,omitempty"`
	Prev     string    `json:"_prev,omitempty"`
}

// ChatExport keeps the pages as they were returned; comments are not flattened.
type ChatExport struct {
	VideoID VideoID    `json:"vodID"`
	Pages   []ChatPage `json:"content"`
}
