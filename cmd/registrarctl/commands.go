package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	jwttoken "namereg/internal/jwt_token"
	"namereg/internal/platform/config"
	"namereg/internal/registrar/models"
	"namereg/pkg/domain"
)

type cli struct {
	out        io.Writer
	jsonOutput bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "registrarctl",
		Short:         "Offline helpers for the name registrar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "output in JSON format")
	root.AddCommand(c.secretCommand(), c.commitCommand(), c.feeCommand(), c.tokenCommand())
	return root
}

func (c *cli) print(v any, text string) error {
	if c.jsonOutput {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(c.out, text)
	return err
}

func (c *cli) secretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Generate a random 32-byte claim secret",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var secret domain.Secret
			if _, err := rand.Read(secret[:]); err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			return c.print(map[string]string{"secret": secret.String()}, secret.String())
		},
	}
}

func (c *cli) commitCommand() *cobra.Command {
	var claimant, secret string
	cmd := &cobra.Command{
		Use:   "commit <name>",
		Short: "Compute the commitment hash to submit as a claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			account, err := domain.ParseAccount(claimant)
			if err != nil {
				return fmt.Errorf("--claimant: %w", err)
			}
			s, err := domain.ParseSecret(secret)
			if err != nil {
				return fmt.Errorf("--secret: %w", err)
			}
			hash := models.ComputeCommitment(args[0], account, s)
			return c.print(map[string]string{
				"name":       args[0],
				"claimant":   account.String(),
				"commitment": hash.String(),
			}, hash.String())
		},
	}
	cmd.Flags().StringVar(&claimant, "claimant", "", "account that will reveal the claim")
	cmd.Flags().StringVar(&secret, "secret", "", "32-byte hex secret")
	_ = cmd.MarkFlagRequired("claimant")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func (c *cli) feeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fee <name>",
		Short: "Show validity and the stake fee of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]
			if !models.ValidName(name) {
				return fmt.Errorf("%q is not a valid name: length must be %d to %d characters",
					name, models.MinNameLength, models.MaxNameLength)
			}
			fee, err := models.StakeFee(name)
			if err != nil {
				return err
			}
			return c.print(map[string]any{"name": name, "length": models.NameLength(name), "stake_fee": fee},
				fmt.Sprintf("%s: %d", name, fee))
		},
	}
}

func (c *cli) tokenCommand() *cobra.Command {
	var account string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for account using the server configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			parsed, err := domain.ParseAccount(account)
			if err != nil {
				return fmt.Errorf("--account: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := svc.GenerateAccessToken(parsed, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			return c.print(map[string]any{"access_token": token, "expires_in": int(ttl.Seconds())}, token)
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account the token authenticates")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
