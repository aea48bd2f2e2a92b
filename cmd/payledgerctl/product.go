package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polkiloo/payledger/internal/usecase"
)

func newProductCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the checkout catalog",
	}

	var in usecase.ProductInput
	upsert := &cobra.Command{
		Use:   "upsert",
		Short: "Create or update a catalog product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := usecase.Validate(in); err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			var products *usecase.ProductUseCase
			stop, err := startCore(cmd.Context(), cfg, &products)
			if err != nil {
				return err
			}
			defer stop()

			product, err := products.Upsert(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "product %s: %d %s active=%t\n", product.ID, product.AmountCents, product.Currency, product.Active)
			return nil
		},
	}

	flags := upsert.Flags()
	flags.StringVar(&in.ID, "id", "", "product id")
	flags.StringVar(&in.Name, "name", "", "display name")
	flags.Int64Var(&in.AmountCents, "amount", 0, "price in minor units")
	flags.StringVar(&in.Currency, "currency", "usd", "ISO 4217 currency code")
	flags.BoolVar(&in.Active, "active", true, "whether the product can be bought")
	_ = upsert.MarkFlagRequired("id")
	_ = upsert.MarkFlagRequired("name")
	_ = upsert.MarkFlagRequired("amount")

	cmd.AddCommand(upsert)
	return cmd
}
