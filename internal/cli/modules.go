package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/pvlayout/internal/importer"
	"github.com/piwi3910/pvlayout/internal/logger"
)

func newModulesCmd(root *rootOptions) *cobra.Command {
	var catalog string
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the panels of a module catalog (CSV or XLSX)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := root.configureLogging(defaultLogging()); err != nil {
				return err
			}
			res := importer.LoadModuleCatalog(catalog)
			log := logger.New("modules")
			for _, w := range res.Warnings {
				log.Warnf("%s", w)
			}
			if err := res.Err(); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODEL\tLENGTH (m)\tWIDTH (m)\tSTC (W)")
			for _, m := range res.Catalog {
				fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.0f\n", m.ID, m.Model, m.Length, m.Width, m.STC)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&catalog, "catalog", "", "module catalog file")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}
