package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/ingest"
	"github.com/sells-group/lca-cli/internal/model"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Inspect industry schemas",
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available industries",
	RunE: func(*cobra.Command, []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		var schemas []*model.Schema
		for _, id := range reg.Industries() {
			s, err := reg.GetSchema(id)
			if err != nil {
				return err
			}
			schemas = append(schemas, s)
		}
		formatSchemaList(os.Stdout, schemas)
		return nil
	},
}

var schemasShowCmd = &cobra.Command{
	Use:   "show <industry>",
	Short: "Print a schema as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		s, err := reg.GetSchema(args[0])
		if err != nil {
			return err
		}
		return writeJSON("", s)
	},
}

var schemasTemplateCmd = &cobra.Command{
	Use:   "template <industry>",
	Short: "Print a blank CSV batch header for an industry",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		s, err := reg.GetSchema(args[0])
		if err != nil {
			return err
		}
		return ingest.WriteTemplate(os.Stdout, s)
	},
}

func formatSchemaList(out io.Writer, schemas []*model.Schema) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INDUSTRY\tNAME\tSCOPE\tSECTIONS\tCOLUMNS")
	for _, s := range schemas {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			s.Industry, s.Name, s.DefaultScope, len(s.Sections), len(s.Columns()))
	}
	_ = w.Flush()
}

func init() {
	schemasCmd.AddCommand(schemasListCmd, schemasShowCmd, schemasTemplateCmd)
	rootCmd.AddCommand(schemasCmd)
}
