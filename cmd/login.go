package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tanq16/vodkit/internal/output"
	"github.com/tanq16/vodkit/internal/twitch"
	"github.com/tanq16/vodkit/internal/utils"
	"golang.org/x/term"
)

func prompt(label string, secret bool) (string, error) {
	fmt.Fprint(os.Stderr, output.FDetail(label))
	if secret && term.IsTerminal(int(os.Stdin.Fd())) {
		value, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		return string(value), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line), err
}

func newLoginCmd() *cobra.Command {
	var username string
	var authyToken string

	cmd := &cobra.Command{
		Use:   "login [--username USER] [--authy TOKEN]",
		Short: "Log in to twitch and save an OAuth token for subscriber-only VODs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			var err error
			if username == "" {
				if username, err = prompt("Username: ", false); err != nil {
					output.PrintError(fmt.Sprintf("Could not read username: %v", err))
					os.Exit(1)
				}
			}
			password, err := prompt("Password: ", true)
			if err != nil {
				output.PrintError(fmt.Sprintf("Could not read password: %v", err))
				os.Exit(1)
			}
			client := utils.NewVODHTTPClient(globalOptions.HTTP)
			token, err := twitch.Login(context.Background(), client, username, password, twitch.LoginOptions{
				AuthyToken: authyToken,
				ClientID:   globalOptions.ClientID,
			})
			if err != nil {
				output.PrintError(fmt.Sprintf("Login failed: %v", err))
				os.Exit(1)
			}
			if err := twitch.SaveToken(globalOptions.TokenFile, token); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Token saved to %s", globalOptions.TokenFile))
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Twitch username (prompted when empty)")
	cmd.Flags().StringVar(&authyToken, "authy", "", "Two-factor code, if the account requires one")
	return cmd
}
