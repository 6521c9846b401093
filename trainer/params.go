// Package trainer estimates model parameters from indexed events.
package trainer

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/maxent/index"
	"github.com/happyhackingspace/maxent/model"
)

// Indexing strategies accepted in Params.DataIndexer.
const (
	OnePass = "OnePass"
	TwoPass = "TwoPass"
)

// Params holds training parameters. Fields not used by the chosen
// algorithm are ignored.
type Params struct {
	Algorithm   string `yaml:"algorithm"`
	Iterations  int    `yaml:"iterations"`
	Cutoff      int    `yaml:"cutoff"`
	Sort        bool   `yaml:"sort"`
	DataIndexer string `yaml:"data_indexer"`
	RealValued  bool   `yaml:"real_valued"`
	TempDir     string `yaml:"temp_dir"`

	// GIS
	Smoothing float64 `yaml:"smoothing"`

	// QN
	L1     float64 `yaml:"l1"`
	L2     float64 `yaml:"l2"`
	Memory int     `yaml:"memory"`

	// Perceptron
	StepSize float64 `yaml:"step_size"`
	Averaged bool    `yaml:"averaged"`

	// Tolerance stops iterative training once the per-iteration change of
	// the tracked quantity falls below it.
	Tolerance float64 `yaml:"tolerance"`

	// BeamSize is used to decode sequences during sequence training.
	BeamSize int `yaml:"beam_size"`
}

// DefaultParams returns the default training parameters.
func DefaultParams() Params {
	return Params{
		Algorithm:   model.GIS.String(),
		Iterations:  100,
		Cutoff:      5,
		Sort:        true,
		DataIndexer: TwoPass,
		L1:          0.1,
		L2:          0.1,
		Memory:      15,
		StepSize:    1.0,
		Averaged:    true,
		Tolerance:   1e-5,
		BeamSize:    3,
	}
}

// LoadParams reads YAML parameters from path on top of DefaultParams.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("trainer: read params: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("trainer: parse params %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate reports every invalid field.
func (p Params) Validate() error {
	var errs []error
	if _, ok := model.ParseType(p.Algorithm); !ok {
		errs = append(errs, fmt.Errorf("unknown algorithm %q", p.Algorithm))
	}
	if p.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", p.Iterations))
	}
	if p.Cutoff < 0 {
		errs = append(errs, fmt.Errorf("cutoff must not be negative, got %d", p.Cutoff))
	}
	if p.DataIndexer != OnePass && p.DataIndexer != TwoPass {
		errs = append(errs, fmt.Errorf("data_indexer must be %s or %s, got %q", OnePass, TwoPass, p.DataIndexer))
	}
	if p.Smoothing < 0 {
		errs = append(errs, fmt.Errorf("smoothing must not be negative, got %g", p.Smoothing))
	}
	if p.L1 < 0 || p.L2 < 0 {
		errs = append(errs, fmt.Errorf("l1 and l2 must not be negative, got %g and %g", p.L1, p.L2))
	}
	if p.Memory <= 0 {
		errs = append(errs, fmt.Errorf("memory must be positive, got %d", p.Memory))
	}
	if p.StepSize <= 0 {
		errs = append(errs, fmt.Errorf("step_size must be positive, got %g", p.StepSize))
	}
	if p.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must not be negative, got %g", p.Tolerance))
	}
	if p.BeamSize <= 0 {
		errs = append(errs, fmt.Errorf("beam_size must be positive, got %d", p.BeamSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("trainer: invalid params: %w", err)
	}
	return nil
}

// Type returns the model family named by Algorithm.
func (p Params) Type() (model.Type, error) {
	t, ok := model.ParseType(p.Algorithm)
	if !ok {
		return 0, fmt.Errorf("trainer: unknown algorithm %q", p.Algorithm)
	}
	return t, nil
}

// Indexer returns the indexer selected by DataIndexer and RealValued.
func (p Params) Indexer() *index.Indexer {
	cfg := index.Config{Cutoff: p.Cutoff, Sort: p.Sort, TempDir: p.TempDir}
	switch {
	case p.RealValued && p.DataIndexer == TwoPass:
		return index.NewTwoPassRealValued(cfg)
	case p.RealValued:
		return index.NewOnePassRealValued(cfg)
	case p.DataIndexer == TwoPass:
		return index.NewTwoPass(cfg)
	default:
		return index.NewOnePass(cfg)
	}
}
