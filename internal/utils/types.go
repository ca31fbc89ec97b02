package utils

// Config is the on-disk YAML configuration. Command line flags override it.
type Config struct {
	ClientID        string           `yaml:"client_id"`
	OAuthToken      string           `yaml:"oauth_token"`
	TokenFile       string           `yaml:"token_file"`
	DownloadFolder  string           `yaml:"download_folder"`
	PoolLimit       int              `yaml:"pool_limit"`
	MaxAttempts     int              `yaml:"max_attempts"`
	CancelOnFailure bool             `yaml:"cancel_on_failure"`
	Parser          string           `yaml:"parser"`
	FFmpegPath      string           `yaml:"ffmpeg"`
	Debug           bool             `yaml:"debug"`
	HTTP            HTTPClientConfig `yaml:"http"`
}

// BatchEntry is one VOD in a batch file.
type BatchEntry struct {
	Link      string `yaml:"link"`
	Quality   string `yaml:"quality,omitempty"`
	Chat      bool   `yaml:"chat,omitempty"`
	Transcode bool   `yaml:"transcode,omitempty"`
}

type BatchFile struct {
	Videos []BatchEntry `yaml:"videos"`
}
