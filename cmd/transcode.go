package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/vodkit/internal/downloader"
	"github.com/tanq16/vodkit/internal/output"
)

func newTranscodeCmd() *cobra.Command {
	var outputPath string
	var deleteHLS bool

	cmd := &cobra.Command{
		Use:     "transcode [URL] [QUALITY] [--output OUTPUT_FOLDER]",
		Short:   "Remux an already downloaded rendition into an mkv file",
		Aliases: []string{"remux"},
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			d, err := newVideoDownloader(args[0], barListener())
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			mkv, err := d.Transcode(context.Background(), d.HLSVideoFor(args[1]), downloader.TranscodeOptions{
				OutputPath:     outputPath,
				DeleteHLSFiles: deleteHLS,
			})
			if err != nil {
				output.PrintError(fmt.Sprintf("Transcode failed: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Remuxed to %s", mkv.FilePath))
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Folder for the mkv file (default: <folder>/downloads/videos/<id>/mkv)")
	cmd.Flags().BoolVar(&deleteHLS, "delete-hls", false, "Delete the HLS fragments after a successful remux")
	return cmd
}
