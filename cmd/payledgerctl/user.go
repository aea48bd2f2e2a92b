package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/usecase"
)

func newUserCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage service accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "role <login> <user|admin>",
		Short: "Change the role of an existing account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := parseRole(args[1])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			var auth *usecase.AuthUseCase
			stop, err := startCore(cmd.Context(), cfg, &auth)
			if err != nil {
				return err
			}
			defer stop()

			if err := auth.AssignRole(cmd.Context(), args[0], role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s: %s\n", strings.TrimSpace(args[0]), role)
			return nil
		},
	})
	return cmd
}

func parseRole(raw string) (model.Role, error) {
	switch role := model.Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case model.RoleUser, model.RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q: want user or admin", raw)
	}
}
