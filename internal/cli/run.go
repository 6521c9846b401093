package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/maxent"
	"github.com/happyhackingspace/maxent/event"
)

func (c *CLI) newRunCommand() *cobra.Command {
	var modelPath string
	var threshold float64
	var proba bool

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Classify feature lines from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Classify every line of a file
  maxent run features.txt --model model.bin.gz

  # Pipe features from stdin
  echo "w=the prev=<s>" | maxent run --model model.bin.gz

  # Show probability scores above a threshold
  maxent run features.txt --proba --threshold 0.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader
			if len(args) == 0 {
				if c.stdin == os.Stdin && isStdinTerminal() {
					return cmd.Help()
				}
				in = c.stdin
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			start := time.Now()
			cl, err := maxent.Load(modelPath)
			if err != nil {
				return err
			}
			slog.Debug("Model loaded", "path", modelPath, "duration", time.Since(start))

			results, err := classifyLines(cl, in, proba, threshold)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(c.stdout, "No input.")
				return nil
			}
			output, _ := json.MarshalIndent(results, "", "  ")
			fmt.Fprintln(c.stdout, string(output))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "model.bin.gz", "Path to model file")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.05, "Minimum probability threshold")
	cmd.Flags().BoolVar(&proba, "proba", false, "Show probabilities")
	return cmd
}

func classifyLines(cl *maxent.Classifier, in io.Reader, proba bool, threshold float64) ([]maxent.Result, error) {
	var results []maxent.Result
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		features, values, err := event.ParseContext(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var r maxent.Result
		if proba {
			r, err = cl.ClassifyProba(features, values, threshold)
		} else {
			r.Outcome, err = cl.ClassifyValues(features, values)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		results = append(results, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return results, nil
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
