package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polkiloo/payledger/internal/usecase"
)

var errOrderIDRequired = errors.New("order id is required: pass it as argument or set ORDER_ID")

func newReconcileCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [orderId]",
		Short: "Settle one pending order from its provider checkout session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, err := reconcileTarget(args, v.GetString("ORDER_ID"))
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			var reconcile *usecase.ReconcileUseCase
			stop, err := startCore(cmd.Context(), cfg, &reconcile)
			if err != nil {
				return err
			}
			defer stop()

			outcome, err := reconcile.Reconcile(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s: %s\n", orderID, outcome)
			return nil
		},
	}
}

func reconcileTarget(args []string, fromEnv string) (string, error) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	id := firstNonEmpty(arg, fromEnv)
	if id == "" {
		return "", errOrderIDRequired
	}
	return id, nil
}
