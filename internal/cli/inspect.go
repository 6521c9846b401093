package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/maxent"
)

func (c *CLI) newInspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "inspect <modelfile>",
		Short:   "Print a model's type, outcomes and size",
		Args:    cobra.ExactArgs(1),
		Example: `  maxent inspect model.bin.gz --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := maxent.Load(args[0])
			if err != nil {
				return err
			}
			s := cl.Summary()
			if asJSON {
				output, _ := json.MarshalIndent(s, "", "  ")
				fmt.Fprintln(c.stdout, string(output))
				return nil
			}
			fmt.Fprintf(c.stdout, "Type:       %s\n", s.Type)
			fmt.Fprintf(c.stdout, "Outcomes:   %d (%s)\n", len(s.Outcomes), strings.Join(s.Outcomes, " "))
			fmt.Fprintf(c.stdout, "Predicates: %d\n", s.Predicates)
			fmt.Fprintf(c.stdout, "Parameters: %d\n", s.Parameters)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
