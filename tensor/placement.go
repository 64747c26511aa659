// SPDX-License-Identifier: MIT

package tensor

import "fmt"

// DType names the element type carried by a tensor or operator.
type DType string

// Float64 is the only element type gpdist computes with.
const Float64 DType = "float64"

// DefaultDevice is the placement of every tensor built without WithPlacement.
const DefaultDevice = "cpu"

// Placement tags a value with its element type and device. Values entering a
// distribution must agree on placement; nothing is converted implicitly.
type Placement struct {
	DType  DType
	Device string
}

// DefaultPlacement returns {Float64, "cpu"}.
func DefaultPlacement() Placement {
	return Placement{DType: Float64, Device: DefaultDevice}
}

// String renders the placement as "dtype@device".
func (p Placement) String() string {
	return fmt.Sprintf("%s@%s", p.DType, p.Device)
}
