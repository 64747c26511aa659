// SPDX-License-Identifier: MIT

// Package distributions - flatten/unflatten between (..., n, t) and (..., n·t).
//
// Layouts:
//   - interleaved (task-minor): flat = obs·t + task; a plain reshape.
//   - task-major:               flat = task·n + obs; transpose then reshape.
//
// Every result is a fresh contiguous tensor; nothing aliases its input.

package distributions

import (
	"fmt"

	"github.com/katalvlaran/gpdist/tensor"
)

// flatten maps a (..., n, t) tensor to (..., n·t) under the given layout.
func flatten(x *tensor.Dense, interleaved bool) (*tensor.Dense, error) {
	s := x.Shape()
	if len(s) < 2 {
		return nil, fmt.Errorf("flatten: shape %v has rank < 2: %w", s, ErrShape)
	}
	lead := s[:len(s)-2]
	flat := append(append([]int(nil), lead...), s[len(s)-2]*s[len(s)-1])
	src := x
	if !interleaved {
		tr, err := x.TransposeLast()
		if err != nil {
			return nil, fmt.Errorf("flatten: %w", err)
		}
		src = tr.Contiguous()
	} else if !x.IsContiguous() {
		src = x.Contiguous()
	}
	out, err := src.Reshape(flat...)
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}

	return out, nil
}

// unflatten maps a (..., n·t) tensor back to (..., n, t).
func unflatten(x *tensor.Dense, n, t int, interleaved bool) (*tensor.Dense, error) {
	s := x.Shape()
	if len(s) < 1 || s[len(s)-1] != n*t {
		return nil, fmt.Errorf("unflatten: shape %v, expected trailing %d: %w", s, n*t, ErrShape)
	}
	lead := s[:len(s)-1]
	if interleaved {
		out, err := x.Reshape(append(append([]int(nil), lead...), n, t)...)
		if err != nil {
			return nil, fmt.Errorf("unflatten: %w", err)
		}

		return out, nil
	}
	tn, err := x.Reshape(append(append([]int(nil), lead...), t, n)...)
	if err != nil {
		return nil, fmt.Errorf("unflatten: %w", err)
	}
	tr, err := tn.TransposeLast()
	if err != nil {
		return nil, fmt.Errorf("unflatten: %w", err)
	}

	return tr.Contiguous(), nil
}
