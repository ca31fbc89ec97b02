package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/vodkit/internal/downloader"
	"github.com/tanq16/vodkit/internal/output"
	"github.com/tanq16/vodkit/internal/scheduler"
	"github.com/tanq16/vodkit/internal/types"
	"github.com/tanq16/vodkit/internal/utils"
)

// maxConnections caps fragment downloads across all parallel VODs.
const maxConnections = 64

func newBatchCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [--workers N]",
		Short: "Download several VODs listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			batch, err := utils.ReadBatchFile(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			var entries []utils.BatchEntry
			for _, entry := range batch.Videos {
				if entry.Link == "" {
					output.PrintWarning("Empty link found in batch file, skipping...")
					continue
				}
				entries = append(entries, entry)
			}
			if len(entries) == 0 {
				output.PrintError("No valid videos found in the batch file")
				os.Exit(1)
			}

			workers = max(workers, 1)
			opts := globalOptions
			if workers*opts.PoolLimit > maxConnections {
				opts.PoolLimit = max(maxConnections/workers, 1)
			}
			log.Debug().Str("op", "cmd/batch").Msgf("%d videos, %d workers, pool limit %d", len(entries), workers, opts.PoolLimit)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			board := output.NewBoard()
			jobs := scheduler.NewJobs(entries)
			rows := make([]int, len(jobs))
			for i, job := range jobs {
				rows[i] = board.Register(job.Entry.Link)
			}
			board.Start()
			errs := scheduler.Run(jobs, workers, func(job scheduler.Job) error {
				row := rows[job.ID]
				err := processEntry(ctx, job.Entry, opts, board, row)
				if err != nil {
					board.Fail(row, err)
				}
				return err
			})
			board.Stop()

			for _, err := range errs {
				if err != nil {
					output.PrintError("Encountered failed operation(s)")
					os.Exit(1)
				}
			}
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of VODs to download in parallel")
	return cmd
}

func processEntry(ctx context.Context, entry utils.BatchEntry, opts downloader.Options, board *output.Board, row int) error {
	listener := downloader.ListenerFuncs{
		OnDownloadStarted: func(job types.JobInfo) {
			board.SetMessage(row, fmt.Sprintf("Downloading %s %s (%d fragments)", job.VideoID, job.Quality, job.TotalFragments))
		},
		OnDownloadProgress: func(percent float64) {
			board.SetProgress(row, percent)
		},
		OnTranscodeStarted: func(video types.HLSVideo) {
			board.SetMessage(row, fmt.Sprintf("Remuxing %s %s", video.VideoID, video.Quality))
		},
	}
	d, err := downloader.New(entry.Link, opts, listener)
	if err != nil {
		return err
	}
	board.SetMessage(row, fmt.Sprintf("Resolving renditions of %s", d.VideoID()))
	renditions, err := d.ListRenditions(ctx)
	if err != nil {
		return err
	}
	rendition, err := downloader.SelectRendition(renditions, entry.Quality)
	if err != nil {
		return err
	}
	video, err := d.Download(ctx, rendition)
	if err != nil {
		return err
	}
	if entry.Chat {
		board.SetMessage(row, fmt.Sprintf("Downloading chat of %s", d.VideoID()))
		if _, err := d.SaveChat(ctx); err != nil {
			return err
		}
	}
	if entry.Transcode {
		if _, err := d.Transcode(ctx, video, downloader.TranscodeOptions{}); err != nil {
			return err
		}
	}
	board.Complete(row, fmt.Sprintf("Completed %s %s", video.VideoID, video.Quality))
	return nil
}
