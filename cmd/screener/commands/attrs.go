package commands

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/screener"
)

// attrsCmd represents the attrs command
var attrsCmd = &cobra.Command{
	Use:   "attrs",
	Short: "List the criterion schema",
	Long: `Print every screening attribute with its kind, periods and
positions. The same data the API serves on GET /api/attributes.

Example:
  go run ./cmd/screener attrs`,
	RunE: runAttrs,
}

func init() {
	rootCmd.AddCommand(attrsCmd)
}

func runAttrs(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ATTRIBUTE\tKIND\tPERIODS\tPOSITIONS")

	for _, at := range screener.Attributes() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			at.Name, at.Kind, sortedKeys(at.Periods), sortedKeys(at.Positions))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nReset categories: %s\n",
		strings.Join(screener.Categories(), ", "))
	return nil
}

func sortedKeys[V any](m map[string]V) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
