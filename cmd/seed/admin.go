package main

import (
	"fmt"
	"strings"

	"github.com/mansoorceksport/bluefin/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func adminCmd() *cobra.Command {
	var (
		email string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Provision an admin account, linked to Firebase on first login",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			ctx := cmd.Context()
			db, closeFn, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			user, err := repository.NewMongoUserRepository(db).EnsureAdmin(ctx, email, name)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("[Seed] admin ready")
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "admin@bluefin.isp", "admin email address")
	cmd.Flags().StringVarP(&name, "name", "n", "Admin", "display name for a new account")
	return cmd
}
