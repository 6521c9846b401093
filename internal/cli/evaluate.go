package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/maxent"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:     "evaluate <events>",
		Short:   "Evaluate model accuracy on a held-out events file",
		Args:    cobra.ExactArgs(1),
		Example: `  maxent evaluate test.txt --model model.bin.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := maxent.Load(modelPath)
			if err != nil {
				return err
			}
			slog.Info("Evaluating", "events", args[0], "model", modelPath)
			start := time.Now()
			result, err := maxent.Evaluate(args[0], cl)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Fprintf(c.stdout, "Accuracy: %.1f%% (%d/%d)\n",
				result.Accuracy*100, result.Correct, result.Total)
			printConfusionMatrix(c.stdout, result.Confusion, result.Classes)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "model.bin.gz", "Path to model file")
	return cmd
}

func printConfusionMatrix(w io.Writer, confusion map[string]map[string]int, classes []string) {
	if len(confusion) == 0 {
		return
	}

	sort.SliceStable(classes, func(i, j int) bool {
		ti, tj := 0, 0
		for _, v := range confusion[classes[i]] {
			ti += v
		}
		for _, v := range confusion[classes[j]] {
			tj += v
		}
		return ti > tj
	})

	fmt.Fprintf(w, "\nConfusion matrix (rows=true, cols=predicted):\n")
	fmt.Fprintf(w, "%8s", "")
	for _, c := range classes {
		fmt.Fprintf(w, " %5s", c)
	}
	fmt.Fprintf(w, "  total  acc%%\n")

	for _, trueClass := range classes {
		fmt.Fprintf(w, "%8s", trueClass)
		total := 0
		correct := 0
		for _, predClass := range classes {
			count := confusion[trueClass][predClass]
			total += count
			if trueClass == predClass {
				correct = count
			}
			if count == 0 {
				fmt.Fprintf(w, " %5s", ".")
			} else {
				fmt.Fprintf(w, " %5d", count)
			}
		}
		acc := 0.0
		if total > 0 {
			acc = float64(correct) / float64(total) * 100
		}
		fmt.Fprintf(w, "  %5d %5.1f\n", total, acc)
	}
}
