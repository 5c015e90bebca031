package main

import (
	"math/rand/v2"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/digitaltumana/storefront/internal/cli"
	"github.com/digitaltumana/storefront/internal/domain/catalog"
	"github.com/digitaltumana/storefront/internal/domain/registration"
)

var (
	productQuery   catalog.Query
	productShuffle bool
)

// statusCmd shows the review state of the seller, worker and employer
// applications.
var statusCmd = &cobra.Command{
	Use:   "status [role]",
	Short: "Show registration status for marketplace roles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roles := registration.Roles
		if len(args) == 1 {
			role, err := registration.ParseRole(args[0])
			if err != nil {
				return err
			}
			roles = []registration.Role{role}
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		s, err := loadSession()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		statuses := make([]registration.Status, len(roles))
		g, ctx := errgroup.WithContext(ctx)
		for i, role := range roles {
			g.Go(func() error {
				st, err := client.RegistrationStatus(ctx, s, role)
				if err != nil {
					return errors.Wrapf(err, "%s status", role)
				}
				statuses[i] = st
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		return cli.RenderRegistrations(cmd.OutOrStdout(), roles, statuses)
	},
}

// productsCmd lists the marketplace catalog.
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List marketplace products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		s, err := loadSession()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		all, err := client.Products(ctx, s)
		if err != nil {
			return err
		}

		products := catalog.Filter(all, productQuery)
		if productShuffle {
			products = catalog.Shuffle(products, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
		}
		return cli.RenderProducts(cmd.OutOrStdout(), products)
	},
}

func init() {
	f := productsCmd.Flags()
	f.StringVarP(&productQuery.Text, "query", "q", "", "Match product or store name")
	f.StringVar(&productQuery.Type, "type", "", "Product type, e.g. grain")
	f.StringVar(&productQuery.Region, "region", "", "Seller region")
	f.BoolVar(&productShuffle, "shuffle", false, "Randomize the listing order")
}
