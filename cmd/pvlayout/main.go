// pvlayout: PV table layout optimizer
//
// Packs fixed-size PV tables into enabled land parcels, keeps them clear of
// restricted areas and fence clearances, inserts access streets and sweeps
// the row pitch for the highest installed capacity.
//
// Build:
//   go build -o pvlayout ./cmd/pvlayout
//
// Run:
//   pvlayout optimize -c project.yaml
//   pvlayout optimize -c project.yaml --compare
//   pvlayout validate -c project.yaml
//   pvlayout modules --catalog modules.csv

package main

import (
	"fmt"
	"os"

	"github.com/piwi3910/pvlayout/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
