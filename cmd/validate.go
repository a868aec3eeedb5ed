package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/ingest"
	"github.com/sells-group/lca-cli/internal/validate"
)

var (
	validateOutput string
	validateStrict bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <industry> <file>",
	Short: "Validate a CSV or XLSX batch without calculating impacts",
	Example: `  lca validate textile products.csv
  lca validate footwear shoes.xlsx --output report.json --strict`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		s, err := reg.GetSchema(args[0])
		if err != nil {
			return err
		}
		tbl, err := ingest.ReadFile(args[1])
		if err != nil {
			return err
		}

		report, _, err := validate.ValidateBatch(s, tbl.Headers, tbl.Records)
		if err != nil {
			return err
		}
		if err := writeJSON(validateOutput, report); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "%s: %d rows, %d valid, %d invalid\n",
			report.Industry, report.Total, report.Valid, report.Invalid)
		if validateStrict && report.Invalid > 0 {
			return eris.Errorf("%d invalid row(s)", report.Invalid)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "write the JSON report to this file")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "exit non-zero when any row is invalid")
	rootCmd.AddCommand(validateCmd)
}
