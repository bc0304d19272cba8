package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/pvlayout/internal/geometry"
	"github.com/piwi3910/pvlayout/internal/logger"
	"github.com/piwi3910/pvlayout/internal/model"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the zones and report geometry problems without packing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			zones, err := cfg.Zones.LoadZones()
			if err != nil {
				return err
			}
			log := logger.New("validate")
			for _, w := range zones.Warnings {
				log.Warnf("%s", w)
			}
			problems := reportZones(cmd.OutOrStdout(), zones.Set, cfg.Layout.FencedDistance)
			if problems > 0 {
				return fmt.Errorf("%d zone(s) cannot be packed", problems)
			}
			return nil
		},
	}
}

// reportZones prints one line per zone and returns the number of enabled
// zones that would be skipped by the optimizer.
func reportZones(w io.Writer, zones model.ZoneSet, clearance float64) int {
	problems := 0
	for i, p := range zones.Enabled {
		fz, err := geometry.Fence(p, clearance)
		switch {
		case err != nil:
			fmt.Fprintf(w, "enabled %d: invalid: %v\n", i+1, err)
			problems++
		case fz.Empty():
			fmt.Fprintf(w, "enabled %d: empty after %.2f m fencing (area %.1f m²)\n", i+1, clearance, fz.SourceArea())
			problems++
		default:
			b := fz.Bounds()
			fmt.Fprintf(w, "enabled %d: ok, area %.1f m², fenced extent %.1f x %.1f m\n", i+1, fz.SourceArea(), b.Width(), b.Height())
		}
	}
	for i, p := range zones.Restricted {
		if err := geometry.Validate(p); err != nil {
			fmt.Fprintf(w, "restricted %d: invalid: %v\n", i+1, err)
			continue
		}
		fmt.Fprintf(w, "restricted %d: ok\n", i+1)
	}
	u := geometry.NewRestrictedUnion(zones.Restricted)
	fmt.Fprintf(w, "restricted union: %d polygon(s), %.1f m²\n", u.Len(), u.Area())
	return problems
}
