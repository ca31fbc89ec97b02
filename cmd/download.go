package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/tanq16/vodkit/internal/downloader"
	"github.com/tanq16/vodkit/internal/output"
	"github.com/tanq16/vodkit/internal/types"
)

// barListener drives a terminal progress bar sized to the fragment count.
func barListener() downloader.Listener {
	var bar *progressbar.ProgressBar
	var total int
	return downloader.ListenerFuncs{
		OnDownloadStarted: func(job types.JobInfo) {
			total = job.TotalFragments
			output.PrintInfo(fmt.Sprintf("Downloading %d fragments of %s to %s", total, job.Quality, job.FolderPath))
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(job.Quality),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetRenderBlankState(!debug),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
			)
		},
		OnDownloadProgress: func(percent float64) {
			if bar != nil {
				bar.Set(int(math.Round(percent / 100 * float64(total))))
			}
		},
		OnTranscodeStarted: func(video types.HLSVideo) {
			output.PrintInfo(fmt.Sprintf("Remuxing %s %s with ffmpeg", video.VideoID, video.Quality))
		},
	}
}

func newDownloadCmd() *cobra.Command {
	var quality string
	var withChat bool
	var transcode bool
	var outputPath string
	var deleteHLS bool

	cmd := &cobra.Command{
		Use:     "download [URL] [--quality QUALITY] [--chat] [--transcode]",
		Short:   "Download a VOD rendition as HLS fragments",
		Aliases: []string{"dl", "get"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			d, err := newVideoDownloader(args[0], barListener())
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			renditions, err := d.ListRenditions(ctx)
			if err != nil {
				output.PrintError(fmt.Sprintf("Could not list renditions: %v", err))
				os.Exit(1)
			}
			rendition, err := downloader.SelectRendition(renditions, quality)
			if err != nil {
				output.PrintError(err.Error())
				fmt.Println(output.RenditionTable(renditions, false))
				os.Exit(1)
			}
			log.Debug().Str("op", "cmd/download").Msgf("selected %s (%s)", rendition.Quality, rendition.Resolution)

			video, err := d.Download(ctx, rendition)
			if err != nil {
				output.PrintError(fmt.Sprintf("Download failed: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Downloaded %s %s to %s", video.VideoID, video.Quality, video.FolderPath))

			if withChat {
				path, err := d.SaveChat(ctx)
				if err != nil {
					output.PrintError(fmt.Sprintf("Chat download failed: %v", err))
					os.Exit(1)
				}
				output.PrintSuccess(fmt.Sprintf("Chat saved to %s", path))
			}
			if transcode {
				mkv, err := d.Transcode(ctx, video, downloader.TranscodeOptions{OutputPath: outputPath, DeleteHLSFiles: deleteHLS})
				if err != nil {
					output.PrintError(fmt.Sprintf("Transcode failed: %v", err))
					os.Exit(1)
				}
				output.PrintSuccess(fmt.Sprintf("Remuxed to %s", mkv.FilePath))
			}
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "best", "Quality name or resolution (best, worst, 720p60, 1280x720)")
	cmd.Flags().BoolVar(&withChat, "chat", false, "Also download the chat replay")
	cmd.Flags().BoolVar(&transcode, "transcode", false, "Remux the fragments into an mkv file with ffmpeg")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Folder for the mkv file (default: <folder>/downloads/videos/<id>/mkv)")
	cmd.Flags().BoolVar(&deleteHLS, "delete-hls", false, "Delete the HLS fragments after a successful remux")
	return cmd
}
