package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradepost/marketauth"
	"github.com/tradepost/marketauth/core"
	"github.com/tradepost/marketauth/jwks"
)

func newKeysCmd(root *rootOptions) *cobra.Command {
	var (
		refresh bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List the identity provider's current signing keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			zl, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			st, err := buildStack(cmd.Context(), cfg, marketauth.NewZapLogger(zl), core.NoopMetrics{})
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			get := st.keys.KeySet
			if refresh {
				get = st.keys.Refresh
			}
			set, err := get(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load key set: %w", err)
			}

			if asJSON {
				return writeKeysJSON(cmd.OutOrStdout(), st, set)
			}
			return writeKeysTable(cmd.OutOrStdout(), st, set)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the shared cache and fetch from the identity provider")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func writeKeysTable(w io.Writer, st *stack, set *jwks.KeySet) error {
	fmt.Fprintf(w, "JWKS:   %s\nIssuer: %s\nSource: %s\n\n", st.source.JWKSURI(), st.issuer, set.Source)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KID\tKTY\tALG")
	for _, k := range set.Keys() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.KeyID, k.KeyType, k.Algorithm)
	}
	return tw.Flush()
}

func writeKeysJSON(w io.Writer, st *stack, set *jwks.KeySet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		JWKSURI string         `json:"jwks_uri"`
		Issuer  string         `json:"issuer"`
		Source  string         `json:"source"`
		Keys    []jwks.KeyInfo `json:"keys"`
	}{st.source.JWKSURI(), st.issuer, set.Source.String(), set.Keys()})
}
