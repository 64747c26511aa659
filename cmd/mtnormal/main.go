// SPDX-License-Identifier: MIT

// Command mtnormal inspects multitask normal distributions described in YAML.
//
//	mtnormal summary model.yaml             mean and variance per (observation, task)
//	mtnormal sample model.yaml -n 3         draws samples
//	mtnormal logprob model.yaml value.yaml  joint log-density of an n×t value
//	mtnormal grid --size 20 0.1 0.5 0.9     exact additive-grid GP prior at inputs
//	mtnormal env                            effective environment settings
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := NewCLI().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
