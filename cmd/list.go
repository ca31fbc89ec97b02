package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/vodkit/internal/output"
)

func newListCmd() *cobra.Command {
	var markdown bool
	var showURLs bool

	cmd := &cobra.Command{
		Use:     "list [URL] [--markdown]",
		Short:   "List the renditions available for a VOD",
		Aliases: []string{"ls", "qualities"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			d, err := newVideoDownloader(args[0], nil)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			renditions, err := d.ListRenditions(context.Background())
			if err != nil {
				output.PrintError(fmt.Sprintf("Could not list renditions: %v", err))
				os.Exit(1)
			}
			output.PrintHeader(fmt.Sprintf("VOD %s", d.VideoID()))
			fmt.Println(output.RenditionTable(renditions, markdown))
			if showURLs {
				for _, r := range renditions {
					fmt.Printf("%s %s\n", output.FInfo(r.Quality), output.FDebug(r.URL))
				}
			}
			output.PrintDetail(fmt.Sprintf("Download one with: vodkit download %s --quality <QUALITY>", d.VideoID()))
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the table with markdown borders")
	cmd.Flags().BoolVar(&showURLs, "urls", false, "Also print the full playlist URL of every rendition")
	return cmd
}
