package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/vodkit/internal/downloader"
	"github.com/tanq16/vodkit/internal/utils"
)

var (
	configFile      string
	downloadFolder  string
	clientID        string
	oauthToken      string
	tokenFile       string
	poolLimit       int
	maxAttempts     int
	cancelOnFailure bool
	parser          string
	ffmpegPath      string
	timeout         time.Duration
	kaTimeout       time.Duration
	userAgent       string
	proxyURL        string
	proxyUsername   string
	proxyPassword   string
	headers         []string
	debug           bool
)

var VodkitVersion = "dev"

// globalOptions is built once per invocation from the config file and flags.
var globalOptions downloader.Options

var rootCmd = &cobra.Command{
	Use:     "vodkit",
	Short:   "vodkit downloads twitch VODs and their chat",
	Version: VodkitVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts, err := buildOptions(cmd)
		if err != nil {
			return err
		}
		utils.InitLogger(opts.Debug)
		globalOptions = opts
		log.Debug().Str("op", "cmd/root").Msgf("download folder %s, pool limit %d, parser %q", opts.DownloadFolder, opts.PoolLimit, opts.Parser)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", utils.DefaultConfigFile, "YAML config file (flags override its values)")
	flags.StringVarP(&downloadFolder, "folder", "f", ".", "Root folder for downloads/")
	flags.StringVar(&clientID, "client-id", utils.DefaultClientID, "Twitch client id")
	flags.StringVar(&oauthToken, "oauth-token", "", "Twitch OAuth token for subscriber-only videos")
	flags.StringVar(&tokenFile, "token-file", utils.DefaultTokenFile, "File holding the token saved by login")
	flags.IntVarP(&poolLimit, "pool-limit", "c", utils.DefaultPoolLimit, "Number of fragments downloaded in parallel")
	flags.IntVar(&maxAttempts, "max-attempts", utils.DefaultMaxAttempts, "Attempts per fragment before the download fails")
	flags.BoolVar(&cancelOnFailure, "cancel-on-failure", false, "Abort in-flight fragments once one fragment fails")
	flags.StringVar(&parser, "parser", "positional", "Variant playlist parser (positional or strict)")
	flags.StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	flags.DurationVarP(&timeout, "timeout", "t", 60*time.Second, "Connection timeout (eg. 5s, 10m)")
	flags.DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 60*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	flags.StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent (use 'randomize' for a browser agent)")
	flags.StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	flags.StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	flags.StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	flags.StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Referer: https://www.twitch.tv/'); can be specified multiple times")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newTranscodeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newCleanCmd())
}

// buildOptions layers explicitly set flags over the config file, and the
// config file over flag defaults.
func buildOptions(cmd *cobra.Command) (downloader.Options, error) {
	cfg, err := utils.LoadConfig(configFile)
	if err != nil {
		return downloader.Options{}, err
	}
	changed := cmd.Flags().Changed
	pickString := func(name, flagValue, cfgValue string) string {
		if changed(name) || cfgValue == "" {
			return flagValue
		}
		return cfgValue
	}
	pickInt := func(name string, flagValue, cfgValue int) int {
		if changed(name) || cfgValue == 0 {
			return flagValue
		}
		return cfgValue
	}
	pickDuration := func(name string, flagValue, cfgValue time.Duration) time.Duration {
		if changed(name) || cfgValue == 0 {
			return flagValue
		}
		return cfgValue
	}

	agent := pickString("user-agent", userAgent, cfg.HTTP.UserAgent)
	if agent == "randomize" {
		agent = utils.GetRandomUserAgent()
	}
	proxy := pickString("proxy", proxyURL, cfg.HTTP.ProxyURL)
	proxyUser := pickString("proxy-username", proxyUsername, cfg.HTTP.ProxyUsername)
	proxyPass := pickString("proxy-password", proxyPassword, cfg.HTTP.ProxyPassword)
	// Check if proxy URL contains auth
	parsedProxy, err := u.Parse(proxy)
	if proxy != "" && err == nil && parsedProxy.User != nil && proxyUser == "" {
		proxyUser = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			proxyPass = password
		}
		parsedProxy.User = nil
		proxy = parsedProxy.String()
	}
	headerMap := cfg.HTTP.Headers
	if headerMap == nil {
		headerMap = map[string]string{}
	}
	for k, v := range utils.ParseHeaderArgs(headers) {
		headerMap[k] = v
	}

	return downloader.Options{
		ClientID:        pickString("client-id", clientID, cfg.ClientID),
		OAuthToken:      pickString("oauth-token", oauthToken, cfg.OAuthToken),
		TokenFile:       pickString("token-file", tokenFile, cfg.TokenFile),
		DownloadFolder:  pickString("folder", downloadFolder, cfg.DownloadFolder),
		PoolLimit:       pickInt("pool-limit", poolLimit, cfg.PoolLimit),
		MaxAttempts:     pickInt("max-attempts", maxAttempts, cfg.MaxAttempts),
		CancelOnFailure: cancelOnFailure || (!changed("cancel-on-failure") && cfg.CancelOnFailure),
		Parser:          pickString("parser", parser, cfg.Parser),
		FFmpegPath:      pickString("ffmpeg", ffmpegPath, cfg.FFmpegPath),
		Debug:           debug || cfg.Debug,
		HTTP: utils.HTTPClientConfig{
			Timeout:       pickDuration("timeout", timeout, cfg.HTTP.Timeout),
			KATimeout:     pickDuration("keep-alive-timeout", kaTimeout, cfg.HTTP.KATimeout),
			ProxyURL:      proxy,
			ProxyUsername: proxyUser,
			ProxyPassword: proxyPass,
			UserAgent:     agent,
			Headers:       headerMap,
		},
	}, nil
}

func newVideoDownloader(link string, listener downloader.Listener) (*downloader.VideoDownloader, error) {
	return downloader.New(link, globalOptions, listener)
}
