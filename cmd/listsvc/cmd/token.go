package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "listmgmt/internal/jwt_token"
)

func newTokenCmd(a *app) *cobra.Command {
	var subject, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token",
		Long:  "Issue a signed access token for a subject and role. Intended for operators and local testing.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = a.cfg.Auth.TokenTTL
			}
			jwt := jwttoken.NewJWTService(a.cfg.Auth.JWTSigningKey, a.cfg.Auth.Issuer, a.cfg.Auth.Audience)
			token, err := jwt.IssueToken(subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "identity placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", "", "role claim (admin, editor, viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
