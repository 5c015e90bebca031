package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginToken string

// loginCmd stores the bearer token issued by the web sign-in.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the bearer token used for marketplace requests",
	Long: `Store the bearer token issued when signing in on the Digital Tumana website.

The token is read from --token, or from standard input when the flag is omitted.`,
	RunE: runLogin,
}

// logoutCmd forgets the stored token.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored bearer token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := sessionStore().Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

// whoamiCmd shows what the stored token says about the shopper.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		subject := s.Subject()
		if subject == "" {
			subject = "(opaque token)"
		}
		fmt.Fprintf(out, "Subject: %s\n", subject)
		if exp, ok := s.ExpiresAt(); ok {
			fmt.Fprintf(out, "Expires: %s\n", exp.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Bearer token")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	token := loginToken
	if token == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Token: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.Wrap(err, "read token")
		}
		token = strings.TrimSpace(line)
	}

	if err := sessionStore().Save(token); err != nil {
		return err
	}
	logger.Debug("Session saved", zap.String("path", sessionFile))
	fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
	return nil
}

