package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/saucecodee/praise/internal/adapter/httpserver"
	"github.com/saucecodee/praise/internal/domain"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		cfg := configFrom(cmd.Context())

		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = cfg.TokenTTL
		}
		token, err := httpserver.SignToken([]byte(cfg.JWTSecret), userID, clockwork.NewRealClock().Now(), ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a user with the given roles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roleNames, _ := cmd.Flags().GetStringSlice("role")
		roles := make([]domain.Role, 0, len(roleNames))
		for _, name := range roleNames {
			role, ok := domain.ParseRole(name)
			if !ok {
				return fmt.Errorf("unknown role %q", name)
			}
			roles = append(roles, role)
		}

		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		user, err := svc.CreateUser(cmd.Context(), args[0], roles)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), user.ID)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to TOKEN_TTL)")

	userCreateCmd.Flags().StringSlice("role", nil, "role to grant (repeatable): ADMIN, QUANTIFIER, FORWARDER, USER")
	userCmd.AddCommand(userCreateCmd)
}
