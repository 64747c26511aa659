// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/gpdist/distributions"
	"github.com/katalvlaran/gpdist/linop"
	"github.com/katalvlaran/gpdist/tensor"
)

var errModel = errors.New("invalid model file")

// modelFile is either a joint description (mean, covariance, interleaved) or
// a list of independent tasks.
type modelFile struct {
	Mean        [][]float64 `yaml:"mean"`
	Covariance  [][]float64 `yaml:"covariance"`
	Interleaved *bool       `yaml:"interleaved"`
	Tasks       []taskFile  `yaml:"tasks"`
}

type taskFile struct {
	Mean       []float64   `yaml:"mean"`
	Covariance [][]float64 `yaml:"covariance"`
}

type valueFile struct {
	Value [][]float64 `yaml:"value"`
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

func loadModel(path string, src rand.Source) (*distributions.MultitaskNormal, error) {
	var m modelFile
	if err := readYAML(path, &m); err != nil {
		return nil, err
	}
	d, err := m.build(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return d, nil
}

func (m *modelFile) build(src rand.Source) (*distributions.MultitaskNormal, error) {
	opts := []distributions.Option{distributions.WithValidateArgs(), distributions.WithSource(src)}
	switch {
	case len(m.Tasks) > 0 && m.Mean != nil:
		return nil, fmt.Errorf("both tasks and a joint mean given: %w", errModel)
	case len(m.Tasks) > 0:
		return m.buildIndependent(opts)
	case m.Mean == nil || m.Covariance == nil:
		return nil, fmt.Errorf("need mean and covariance, or tasks: %w", errModel)
	}

	mean, err := tensor.FromRows(m.Mean)
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	cov, err := tensor.FromRows(m.Covariance)
	if err != nil {
		return nil, fmt.Errorf("covariance: %w", err)
	}
	interleaved := distributions.DefaultInterleaved
	if m.Interleaved != nil {
		interleaved = *m.Interleaved
	}

	return distributions.NewMultitaskNormal(mean, cov, append(opts, distributions.WithInterleaved(interleaved))...)
}

func (m *modelFile) buildIndependent(opts []distributions.Option) (*distributions.MultitaskNormal, error) {
	tasks := make([]*distributions.Normal, len(m.Tasks))
	for i, tf := range m.Tasks {
		loc, err := tensor.FromSlice(tf.Mean, len(tf.Mean))
		if err != nil {
			return nil, fmt.Errorf("task %d mean: %w", i, err)
		}
		rows, err := tensor.FromRows(tf.Covariance)
		if err != nil {
			return nil, fmt.Errorf("task %d covariance: %w", i, err)
		}
		cov, err := linop.Wrap(rows)
		if err != nil {
			return nil, fmt.Errorf("task %d covariance: %w", i, err)
		}
		if tasks[i], err = distributions.NewNormal(loc, cov, opts...); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
	}

	return distributions.FromIndependent(tasks, opts...)
}

func loadValue(path string) (*tensor.Dense, error) {
	var v valueFile
	if err := readYAML(path, &v); err != nil {
		return nil, err
	}
	if len(v.Value) == 0 {
		return nil, fmt.Errorf("%s: empty value: %w", path, errModel)
	}

	return tensor.FromRows(v.Value)
}
