package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/vodkit/internal/output"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [URL]",
		Short: "Download the chat replay of a VOD",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			d, err := newVideoDownloader(args[0], nil)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			path, err := d.SaveChat(context.Background())
			if err != nil {
				output.PrintError(fmt.Sprintf("Chat download failed: %v", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Chat saved to %s", path))
		},
	}
}
