// Command tumana is the terminal storefront for Digital Tumana shoppers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digitaltumana/storefront/internal/marketplace"
	"github.com/digitaltumana/storefront/internal/session"
)

const (
	defaultAPIURL  = "http://localhost:5000/api"
	defaultTimeout = 30 * time.Second
)

var (
	apiURL      string
	sessionFile string
	shippingFee string
	timeout     time.Duration
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "tumana",
	Short:         "Digital Tumana storefront in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !verbose {
			logger = zap.NewNop()
			return nil
		}
		lg, err := zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "create logger")
		}
		logger = lg
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

func init() {
	envURL := os.Getenv("TUMANA_API_URL")
	if envURL == "" {
		envURL = defaultAPIURL
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiURL, "api-url", envURL, "Marketplace API base URL (or set TUMANA_API_URL)")
	flags.StringVar(&sessionFile, "session-file", "", "Session file (default: user config dir)")
	flags.StringVar(&shippingFee, "shipping-fee", "50", "Shipping fee charged per seller")
	flags.DurationVar(&timeout, "timeout", defaultTimeout, "Timeout of each marketplace request")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(previewCmd, checkoutCmd)
	rootCmd.AddCommand(statusCmd, productsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// commandContext bounds cmd's context by --timeout and carries the logger.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(interactiveContext(cmd), timeout)
}

// interactiveContext carries the logger without a deadline, for commands
// that wait on the shopper and bound each request themselves.
func interactiveContext(cmd *cobra.Command) context.Context {
	return zctx.Base(cmd.Context(), logger)
}

func sessionStore() session.Store {
	path := sessionFile
	if path == "" {
		path = session.DefaultPath()
	}
	return session.NewFileStore(path)
}

func loadSession() (*session.Session, error) {
	s, err := sessionStore().Load()
	if errors.Is(err, session.ErrNoToken) {
		return nil, errors.Wrap(err, "not logged in, run tumana login")
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(time.Now()) {
		return nil, errors.New("session expired, run tumana login")
	}
	return s, nil
}

func newClient() (*marketplace.Client, error) {
	return marketplace.New(marketplace.Config{BaseURL: apiURL, Timeout: timeout})
}

func feePerSeller() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(shippingFee)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse --shipping-fee %q", shippingFee)
	}
	if fee.IsNegative() {
		return decimal.Zero, errors.New("--shipping-fee must not be negative")
	}
	return fee, nil
}
