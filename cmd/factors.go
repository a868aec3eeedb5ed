package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lca-cli/internal/factor"
	"github.com/sells-group/lca-cli/internal/model"
)

var (
	factorsImportPostgres bool
	factorsKeysPrefix     string
)

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "Manage and inspect impact factors",
}

var factorsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a YAML or CSV factor table into the local store",
	Long: `Reads a factor table (YAML with a factors list, or long-format CSV with
key,category,value columns) and upserts it into the local SQLite store, or into
the shared Postgres table with --postgres.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		entries, err := factor.ReadTable(args[0])
		if err != nil {
			return err
		}

		var n int
		if factorsImportPostgres {
			pg, err := factor.NewPostgresSource(ctx, cfg.Factors.PostgresURL)
			if err != nil {
				return err
			}
			defer pg.Close()
			n, err = pg.Import(ctx, entries)
			if err != nil {
				return err
			}
		} else {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			n, err = st.UpsertFactors(ctx, entries)
			if err != nil {
				return err
			}
		}

		zap.L().Info("factors imported",
			zap.String("file", args[0]),
			zap.Int("keys", len(entries)),
			zap.Int("values", n),
			zap.Bool("postgres", factorsImportPostgres),
		)
		fmt.Fprintf(os.Stderr, "imported %d keys (%d values)\n", len(entries), n)
		return nil
	},
}

type factorLookup struct {
	Key      model.LookupKey    `json:"key"`
	UsedKey  model.LookupKey    `json:"usedKey"`
	Fallback bool               `json:"fallback"`
	Values   model.FactorVector `json:"values"`
}

var factorsGetCmd = &cobra.Command{
	Use:     "get <key>",
	Short:   "Resolve a lookup key through the configured factor source",
	Example: `  lca factors get transport/truck/china`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		key := model.LookupKey(strings.ToLower(strings.TrimSpace(args[0])))

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		src, closeSrc, err := buildSource(ctx, cfg.Factors, st)
		if err != nil {
			return err
		}
		defer closeSrc()

		vec, used, err := factor.NewCache(src).Resolve(ctx, key)
		if err != nil {
			return err
		}
		return writeJSON("", factorLookup{Key: key, UsedKey: used, Fallback: used != key, Values: vec})
	},
}

var factorsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List keys held in the local factor store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		keys, err := st.ListFactorKeys(ctx, factorsKeysPrefix)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

func init() {
	factorsImportCmd.Flags().BoolVar(&factorsImportPostgres, "postgres", false, "import into factors.postgres_url instead of the local store")
	factorsKeysCmd.Flags().StringVar(&factorsKeysPrefix, "prefix", "", "only list keys with this prefix")
	factorsCmd.AddCommand(factorsImportCmd, factorsGetCmd, factorsKeysCmd)
	rootCmd.AddCommand(factorsCmd)
}
