package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/maxent"
)

func (c *CLI) newConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Re-encode a model between the text, binary and gzip formats",
		Long: `Re-encode a model. The format of each file follows its name: a ".gz"
suffix selects gzip, then ".bin" selects the binary encoding; anything
else is plain text.`,
		Args: cobra.ExactArgs(2),
		Example: `  maxent convert model.txt model.bin.gz
  maxent convert model.bin model.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := maxent.Load(args[0])
			if err != nil {
				return err
			}
			if err := cl.Save(args[1]); err != nil {
				return err
			}
			slog.Info("Model converted", "from", args[0], "to", args[1])
			return nil
		},
	}
}
