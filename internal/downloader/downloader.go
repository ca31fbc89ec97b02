package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tanq16/vodkit/internal/pool"
	"github.com/tanq16/vodkit/internal/remux"
	"github.com/tanq16/vodkit/internal/twitch"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

type Options struct {
	ClientID        string
	OAuthToken      string
	TokenFile       string
	DownloadFolder  string
	PoolLimit       int
	MaxAttempts     int
	CancelOnFailure bool
	// Parser selects the variant playlist parser: "positional" (default) or "strict".
	Parser     string
	FFmpegPath string
	HTTP       utils.HTTPClientConfig
	// Client replaces the client built from HTTP when set.
	Client utils.HTTPDoer
	Debug  bool
}

type TranscodeOptions struct {
	OutputPath     string
	DeleteHLSFiles bool
}

// VideoDownloader drives every operation for a single video.
type VideoDownloader struct {
	videoID   types.VideoID
	opts      Options
	listener  Listener
	tokens    *twitch.TokenNegotiator
	manifests *twitch.ManifestResolver
	planner   *twitch.FragmentPlanner
	chat      *twitch.ChatPager
	pool      *pool.Pool
	remuxer   *remux.Transcoder
	log       zerolog.Logger
}

func New(videoURL string, opts Options, listener Listener) (*VideoDownloader, error) {
	videoID, err := twitch.ParseVideoID(videoURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.ClientID = utils.DefaultClientID
	}
	if opts.DownloadFolder == "" {
		opts.DownloadFolder = "."
	}
	if listener == nil {
		listener = NopListener{}
	}
	client := opts.Client
	if client == nil {
		client = utils.NewVODHTTPClient(opts.HTTP)
	}
	var parser twitch.VariantParser
	switch strings.ToLower(opts.Parser) {
	case "", "positional":
	case "strict":
		parser = twitch.StrictParser{}
	default:
		return nil, fmt.Errorf("unknown playlist parser %q", opts.Parser)
	}

	return &VideoDownloader{
		videoID:   videoID,
		opts:      opts,
		listener:  listener,
		tokens:    twitch.NewTokenNegotiator(client, opts.ClientID, twitch.TokenSource(opts.OAuthToken, opts.TokenFile), opts.Debug),
		manifests: twitch.NewManifestResolver(client, parser, opts.Debug),
		planner:   twitch.NewFragmentPlanner(client, opts.Debug),
		chat:      twitch.NewChatPager(client, opts.ClientID, opts.Debug),
		pool: pool.New(client, pool.Config{
			Concurrency:     opts.PoolLimit,
			MaxAttempts:     opts.MaxAttempts,
			CancelOnFailure: opts.CancelOnFailure,
			Debug:           opts.Debug,
		}),
		remuxer: remux.New(opts.FFmpegPath, opts.Debug),
		log:     utils.GetLogger("downloader", opts.Debug),
	}, nil
}

func (d *VideoDownloader) VideoID() types.VideoID {
	return d.videoID
}

// ListRenditions negotiates a fresh credential and returns the renditions
// in playlist order.
func (d *VideoDownloader) ListRenditions(ctx context.Context) ([]types.Rendition, error) {
	cred, err := d.tokens.RequestCredential(ctx, d.videoID)
	if err != nil {
		return nil, err
	}
	return d.manifests.ResolveVariants(ctx, d.videoID, cred)
}

func (d *VideoDownloader) Download(ctx context.Context, rendition types.Rendition) (types.HLSVideo, error) {
	if rendition.Quality == "" || rendition.Resolution == "" || rendition.URL == "" {
		return types.HLSVideo{}, fmt.Errorf("%w: %+v", utils.ErrInvalidVideoMetadata, rendition)
	}
	playlist, fragments, err := d.planner.PlanFragments(ctx, rendition.URL)
	if err != nil {
		return types.HLSVideo{}, err
	}
	if len(fragments) == 0 {
		return types.HLSVideo{}, fmt.Errorf("%w: %s", utils.ErrNoFragmentsFound, rendition.URL)
	}

	folder := utils.VideoFolder(d.opts.DownloadFolder, string(d.videoID), rendition.Quality)
	if err := utils.EnsureDirectoryExists(folder); err != nil {
		return types.HLSVideo{}, fmt.Errorf("error creating video folder: %v", err)
	}
	if err := os.WriteFile(filepath.Join(folder, utils.PlaylistFileName), []byte(playlist), 0644); err != nil {
		return types.HLSVideo{}, fmt.Errorf("error writing playlist: %v", err)
	}

	job := types.JobInfo{
		ID:             uuid.NewString(),
		VideoID:        d.videoID,
		Quality:        rendition.Quality,
		FolderPath:     folder,
		TotalFragments: len(fragments),
		StartTime:      time.Now(),
	}
	d.log.Debug().Str("job", job.ID).Str("vod", string(d.videoID)).Str("quality", job.Quality).Int("fragments", job.TotalFragments).Msg("download started")
	d.listener.DownloadStarted(job)

	if err := d.pool.DownloadAll(ctx, fragments, folder, d.listener.DownloadProgress); err != nil {
		return types.HLSVideo{}, err
	}
	d.log.Debug().Str("job", job.ID).Dur("elapsed", time.Since(job.StartTime)).Msg("download finished")
	return types.HLSVideo{
		VideoID:    d.videoID,
		Quality:    rendition.Quality,
		FolderPath: folder,
	}, nil
}

func (d *VideoDownloader) DownloadChat(ctx context.Context) (types.ChatExport, error) {
	return d.chat.Download(ctx, d.videoID)
}

// SaveChat downloads the chat and writes it as JSON to the chats folder.
func (d *VideoDownloader) SaveChat(ctx context.Context) (string, error) {
	export, err := d.DownloadChat(ctx)
	if err != nil {
		return "", err
	}
	path := utils.ChatFile(d.opts.DownloadFolder, string(d.videoID))
	if err := utils.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("error creating chat folder: %v", err)
	}
	data, err := json.Marshal(export)
	if err != nil {
		return "", fmt.Errorf("error encoding chat: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("error writing chat file: %v", err)
	}
	return path, nil
}

func (d *VideoDownloader) Transcode(ctx context.Context, video types.HLSVideo, opts TranscodeOptions) (types.MKVVideo, error) {
	d.listener.TranscodeStarted(video)
	return d.remuxer.Transcode(ctx, video, remux.Options{
		Root:           d.opts.DownloadFolder,
		OutputPath:     opts.OutputPath,
		DeleteHLSFiles: opts.DeleteHLSFiles,
	})
}

// HLSVideoFor describes an already downloaded rendition folder.
func (d *VideoDownloader) HLSVideoFor(quality string) types.HLSVideo {
	return types.HLSVideo{
		VideoID:    d.videoID,
		Quality:    quality,
		FolderPath: utils.VideoFolder(d.opts.DownloadFolder, string(d.videoID), quality),
	}
}

// SelectRendition picks a rendition by quality name. An empty name or "best"
// means the first one listed, "worst" the last.
func SelectRendition(renditions []types.Rendition, quality string) (types.Rendition, error) {
	if len(renditions) == 0 {
		return types.Rendition{}, utils.ErrRenditionNotFound
	}
	switch strings.ToLower(quality) {
	case "", "best":
		return renditions[0], nil
	case "worst":
		return renditions[len(renditions)-1], nil
	}
	for _, r := range renditions {
		if strings.EqualFold(r.Quality, quality) || strings.EqualFold(r.Resolution, quality) {
			return r, nil
		}
	}
	return types.Rendition{}, fmt.Errorf("%w: %s", utils.ErrRenditionNotFound, quality)
}
