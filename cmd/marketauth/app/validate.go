package app

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tradepost/marketauth"
	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

type validateResult struct {
	Subject       string      `json:"subject"`
	Issuer        string      `json:"issuer"`
	Sellers       []string    `json:"sellers"`
	Admin         bool        `json:"admin"`
	RealmRoles    []string    `json:"realm_roles,omitempty"`
	CorrelationID string      `json:"correlation_id"`
	Claims        core.Claims `json:"claims,omitempty"`
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	var (
		correlationID string
		showClaims    bool
		seller        string
		requireAdmin  bool
	)

	cmd := &cobra.Command{
		Use:   "validate [token]",
		Short: "Validate an access token and print the caller's permissions",
		Long: `Validate an access token against the configured identity provider and print
the resulting caller identity, seller scopes and admin flag as JSON.
The token is read from stdin when no argument is given or the argument is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			cfg, err := root.load()
			if err != nil {
				return err
			}
			zl, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx := cmd.Context()
			st, err := buildStack(ctx, cfg, marketauth.NewZapLogger(zl), core.NoopMetrics{})
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			ctx = core.SetCorrelationID(ctx, correlationID)

			claims, err := st.validator.ValidateToken(ctx, token)
			if err != nil {
				return fmt.Errorf("token rejected (%s): %w", core.Code(err), err)
			}

			ac := authz.Build(claims, correlationID)
			if seller != "" {
				if err := authz.RequireSeller(ac, seller); err != nil {
					return err
				}
			}
			if requireAdmin {
				if err := authz.RequireAdmin(ac); err != nil {
					return err
				}
			}

			return writeResult(cmd.OutOrStdout(), ac, showClaims)
		},
	}

	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "correlation id to attach (generated when empty)")
	cmd.Flags().BoolVar(&showClaims, "claims", false, "include the full verified claim set")
	cmd.Flags().StringVar(&seller, "seller", "", "also require the caller to hold this seller scope")
	cmd.Flags().BoolVar(&requireAdmin, "admin", false, "also require the caller to be a realm administrator")

	return cmd
}

func readToken(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("no token given")
	}
	return token, nil
}

func writeResult(w io.Writer, ac *authz.AuthContext, withClaims bool) error {
	result := validateResult{
		Subject:       ac.Identity.Subject,
		Issuer:        ac.Identity.Issuer,
		Sellers:       ac.SellerIDs(),
		Admin:         ac.IsAdmin(),
		RealmRoles:    ac.RealmRoles(),
		CorrelationID: ac.CorrelationID,
	}
	if withClaims {
		result.Claims = ac.Claims()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
