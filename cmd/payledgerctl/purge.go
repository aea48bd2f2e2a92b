package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/usecase"
)

func newPurgeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored payment events",
		Long: `Delete stored payment events.

  retain        delete events received more than PAYMENT_EVENT_RETENTION_DAYS ago
  erase <user>  delete every event tied to the user's orders (requires PURGE_CONFIRM=YES)

Without a subcommand the PAYMENT_EVENT_RETENTION_MODE default is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPurge(cmd, v, usecase.PurgeRequest{
				UserID:  v.GetString("PURGE_USER_ID"),
				Confirm: v.GetString("PURGE_CONFIRM"),
			})
		},
	}

	cmd.PersistentFlags().String("confirm", "", "confirmation for erase mode, must be YES (PURGE_CONFIRM)")
	_ = v.BindPFlag("PURGE_CONFIRM", cmd.PersistentFlags().Lookup("confirm"))

	cmd.AddCommand(
		&cobra.Command{
			Use:   "retain",
			Short: "Delete events older than the retention window",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runPurge(cmd, v, usecase.PurgeRequest{Mode: config.RetentionRetain})
			},
		},
		&cobra.Command{
			Use:   "erase <userId>",
			Short: "Delete every event of one user",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var userID string
				if len(args) == 1 {
					userID = args[0]
				}
				return runPurge(cmd, v, usecase.PurgeRequest{
					Mode:    config.RetentionErase,
					UserID:  firstNonEmpty(userID, v.GetString("PURGE_USER_ID")),
					Confirm: v.GetString("PURGE_CONFIRM"),
				})
			},
		},
	)
	return cmd
}

func runPurge(cmd *cobra.Command, v *viper.Viper, req usecase.PurgeRequest) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	var purge *usecase.PurgeUseCase
	stop, err := startCore(cmd.Context(), cfg, &purge)
	if err != nil {
		return err
	}
	defer stop()

	deleted, err := purge.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d payment events\n", deleted)
	return nil
}
