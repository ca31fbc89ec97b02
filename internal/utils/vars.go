package utils

import "time"

const (
	DefaultClientID    = "kimne78kx3ncx6brgo4mv6wki5h1ko"
	DefaultPoolLimit   = 20
	DefaultMaxAttempts = 4
	ProgressSuffix     = ".progress"
	PlaylistFileName   = "index.m3u8"
	ToolUserAgent      = "vodkit/1.0"
	DefaultConfigFile  = ".vodkit.yaml"
	DefaultTokenFile   = ".vodkit-token.json"
)

const (
	GQLEndpoint      = "https://gql.twitch.tv/gql"
	UsherEndpoint    = "https://usher.ttvnw.net/vod/%s.m3u8"
	CommentsEndpoint = "https://api.twitch.tv/v5/videos/%s/comments"
	PassportEndpoint = "https://passport.twitch.tv/login"
)

// Rename retry shape for finalizing fragment files.
const (
	RenameInitialDelay = 500 * time.Millisecond
	RenameFactor       = 4
	RenameMaxDelay     = time.Second
	RenameAttempts     = 3
)

// Browser user agents for --user-agent randomize
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:136.0) Gecko/20100101 Firefox/136.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36 Edg/132.0.0.0",
}
