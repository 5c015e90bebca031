package main

import (
	"github.com/spf13/cobra"

	"github.com/digitaltumana/storefront/internal/cli"
	"github.com/digitaltumana/storefront/internal/domain/checkout"
)

var acceptTerms bool

// previewCmd prints the cart grouped by seller with shipping and totals.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the order preview of the current cart",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		flow, err := newFlow()
		if err != nil {
			return err
		}
		sum, err := flow.Load(ctx)
		if err != nil {
			return err
		}
		return cli.RenderSummary(cmd.OutOrStdout(), sum)
	},
}

// checkoutCmd places the order after the shopper accepts the terms.
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Review the cart and place the order",
	Long: `Review the cart and place the order.

The order is only submitted after the terms and conditions are accepted,
either interactively or with --yes. A failed submission can be retried
without accepting the terms again.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flow, err := newFlow()
		if err != nil {
			return err
		}
		_, err = cli.RunCheckout(interactiveContext(cmd), flow, cli.CheckoutOptions{
			AcceptTerms:    acceptTerms,
			Prompter:       cli.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
			Out:            cmd.OutOrStdout(),
			RequestTimeout: timeout,
		})
		return err
	},
}

func init() {
	checkoutCmd.Flags().BoolVarP(&acceptTerms, "yes", "y", false, "Accept the terms and conditions without prompting")
}

func newFlow() (*checkout.Flow, error) {
	s, err := loadSession()
	if err != nil {
		return nil, err
	}
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	fee, err := feePerSeller()
	if err != nil {
		return nil, err
	}
	return checkout.NewFlow(client, s, checkout.FlowConfig{ShippingFeePerSeller: fee}), nil
}
