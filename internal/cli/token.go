package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/lib/jwt"
)

func newTokenCommand(a *app) *cobra.Command {
	var (
		userUID string
		role    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed identity token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := authz.ParseRole(role); !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			if userUID == "" {
				userUID = uuid.NewString()
			} else if _, err := uuid.Parse(userUID); err != nil {
				return fmt.Errorf("uid must be a uuid: %w", err)
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			token, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(userUID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userUID, "uid", "", "subject uid (random when empty)")
	cmd.Flags().StringVar(&role, "role", string(authz.RoleVolunteer), "volunteer, verifier or municipal_admin")
	return cmd
}
