package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func dialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "Print the effective dialect field map",
		Long: `Print the field map the normalizer will use: for each logical field, the
candidate element paths in priority order and the normalizer applied to the
resolved value. Includes any overrides from the config file.`,
		RunE: runDialects,
	}
}

func runDialects(_ *cobra.Command, _ []string) error {
	fieldMap, err := fieldMapFromConfig()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tNORMALIZER\tCANDIDATE PATHS (priority order)")
	for _, field := range fieldMap.Fields() {
		entry := fieldMap[field]
		normalizer := string(entry.Normalizer)
		if normalizer == "" {
			normalizer = "-"
		}
		for i, path := range entry.Paths {
			if i == 0 {
				fmt.Fprintf(w, "%s\t%s\t%s\n", field, normalizer, path)
			} else {
				fmt.Fprintf(w, "\t\t%s\n", path)
			}
		}
	}
	return w.Flush()
}
