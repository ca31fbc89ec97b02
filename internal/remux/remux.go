package remux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

type Options struct {
	// Root is the download root used when OutputPath is empty.
	Root string
	// OutputPath, when set, receives <id>-<quality>.mkv directly.
	OutputPath     string
	DeleteHLSFiles bool
}

// Transcoder copies the streams of a downloaded HLS folder into a single
// mkv container with ffmpeg.
type Transcoder struct {
	ffmpeg string
	log    zerolog.Logger
}

func New(ffmpegPath string, debug bool) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpeg: ffmpegPath,
		log:    utils.GetLogger("remux", debug),
	}
}

func OutputFile(video types.HLSVideo, opts Options) string {
	if opts.OutputPath != "" {
		return filepath.Join(opts.OutputPath, fmt.Sprintf("%s-%s.mkv", video.VideoID, video.Quality))
	}
	return filepath.Join(opts.Root, "downloads", "videos", string(video.VideoID), "mkv", video.Quality+".mkv")
}

func (t *Transcoder) Transcode(ctx context.Context, video types.HLSVideo, opts Options) (types.MKVVideo, error) {
	playlist := filepath.Join(video.FolderPath, utils.PlaylistFileName)
	if _, err := os.Stat(playlist); err != nil {
		return types.MKVVideo{}, fmt.Errorf("%w: %s", utils.ErrTranscodeSourceMissing, playlist)
	}

	outputPath := OutputFile(video, opts)
	if err := utils.EnsureDirectoryExists(filepath.Dir(outputPath)); err != nil {
		return types.MKVVideo{}, fmt.Errorf("error creating output directory: %v", err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, t.ffmpeg,
		"-i", playlist,
		"-codec", "copy",
		"-preset", "ultrafast",
		"-y",
		outputPath,
	)
	t.log.Debug().Str("op", "remux/transcode").Msgf("running %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		return types.MKVVideo{}, fmt.Errorf("%w: %v\nOutput: %s", utils.ErrTranscodeFailed, err, string(output))
	}
	t.log.Debug().Str("op", "remux/transcode").Msgf("wrote %s in %s", outputPath, time.Since(start).Round(time.Millisecond))

	if opts.DeleteHLSFiles {
		if err := os.RemoveAll(video.FolderPath); err != nil {
			t.log.Warn().Err(err).Str("folder", video.FolderPath).Msg("could not delete hls files")
		}
	}
	return types.MKVVideo{
		VideoID:  video.VideoID,
		Quality:  video.Quality,
		FilePath: outputPath,
	}, nil
}
