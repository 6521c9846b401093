package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/happyhackingspace/maxent"
	"github.com/happyhackingspace/maxent/trainer"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var paramsPath string
	var algorithm string
	var cutoff, iterations int
	var twoPass, realValued bool

	cmd := &cobra.Command{
		Use:   "train <events> <modelfile>",
		Short: "Train a model on an events file",
		Args:  cobra.ExactArgs(2),
		Example: `  maxent train events.txt model.bin.gz
  maxent train events.txt model.txt --algorithm QN --cutoff 1
  maxent train events.txt model.bin --params params.yaml -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eventsPath, modelPath := args[0], args[1]

			params := trainer.DefaultParams()
			if paramsPath != "" {
				var err error
				if params, err = trainer.LoadParams(paramsPath); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("algorithm") {
				params.Algorithm = algorithm
			}
			if flags.Changed("cutoff") {
				params.Cutoff = cutoff
			}
			if flags.Changed("iterations") {
				params.Iterations = iterations
			}
			if flags.Changed("two-pass") {
				params.DataIndexer = trainer.OnePass
				if twoPass {
					params.DataIndexer = trainer.TwoPass
				}
			}
			if flags.Changed("real-valued") {
				params.RealValued = realValued
			}

			slog.Info("Training model", "events", eventsPath, "output", modelPath, "algorithm", params.Algorithm)
			start := time.Now()
			cl, err := maxent.Train(eventsPath, &maxent.TrainConfig{Params: params})
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))
			if err := cl.Save(modelPath); err != nil {
				return err
			}
			slog.Info("Model saved", "path", modelPath)
			return nil
		},
	}

	defaults := trainer.DefaultParams()
	cmd.Flags().StringVar(&paramsPath, "params", "", "YAML training parameters file")
	cmd.Flags().StringVar(&algorithm, "algorithm", defaults.Algorithm, "Training algorithm: GIS, Perceptron, QN or NaiveBayes")
	cmd.Flags().IntVar(&cutoff, "cutoff", defaults.Cutoff, "Minimum feature occurrences")
	cmd.Flags().IntVar(&iterations, "iterations", defaults.Iterations, "Training iterations")
	cmd.Flags().BoolVar(&twoPass, "two-pass", defaults.DataIndexer == trainer.TwoPass, "Spill events to a temporary file while indexing")
	cmd.Flags().BoolVar(&realValued, "real-valued", defaults.RealValued, "Use feature values written as name=value")
	return cmd
}
