package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sflowg/blotato/plugins/blotato"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the node description (UI form schema)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			return writeDescription(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	return cmd
}

func writeDescription(w io.Writer, format string) error {
	d := (&blotato.BlotatoPlugin{}).Describe()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(d)
	default:
		return fmt.Errorf("unknown format %q (valid: json, yaml)", format)
	}
}
