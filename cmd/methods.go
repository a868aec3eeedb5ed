package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/lca-cli/internal/model"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "Inspect impact assessment methods",
}

var methodsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported methods",
	RunE: func(*cobra.Command, []string) error {
		formatMethodList(os.Stdout, model.Methods())
		return nil
	},
}

var methodsShowCmd = &cobra.Command{
	Use:     "show <method>",
	Short:   "List the impact categories a method reports",
	Example: `  lca methods show recipe`,
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		m, err := model.ParseMethod(args[0])
		if err != nil {
			return err
		}
		formatCategoryList(os.Stdout, m.Categories())
		return nil
	},
}

func formatMethodList(out io.Writer, methods []model.Method) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "METHOD\tCATEGORIES\tDEFAULT")
	for _, m := range methods {
		def := ""
		if m == model.DefaultMethod {
			def = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", m, len(m.Categories()), def)
	}
	_ = w.Flush()
}

func formatCategoryList(out io.Writer, cats []model.Category) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tINDICATOR\tUNIT\tNAME")
	for _, c := range cats {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Indicator, c.Unit, c.Name)
	}
	_ = w.Flush()
}

func init() {
	methodsCmd.AddCommand(methodsListCmd, methodsShowCmd)
	rootCmd.AddCommand(methodsCmd)
}
