// Package model holds the plain value types that describe demand and stock
// panels before they enter the optimization engine.
package model

import "fmt"

// DefaultMaterial is the material tag implied when a panel omits one.
const DefaultMaterial = "DEFAULT_MATERIAL"

// Orientation constrains which way a panel's grain may run.
type Orientation int

const (
	// OrientationAny allows the panel to be placed or rotated freely.
	OrientationAny Orientation = 0
	// OrientationHorizontal means the grain runs along the width.
	OrientationHorizontal Orientation = 1
	// OrientationVertical means the grain runs along the height.
	OrientationVertical Orientation = 2
)

// CutOrientationPreference restricts which guillotine cut direction a worker
// is allowed to try first.
type CutOrientationPreference int

const (
	CutOrientationBoth       CutOrientationPreference = 0
	CutOrientationHorizontal CutOrientationPreference = 1
	CutOrientationVertical   CutOrientationPreference = 2
)

// EdgeSpec names the edge-banding tag applied to each side of a panel, if any.
type EdgeSpec struct {
	Top    string
	Left   string
	Bottom string
	Right  string
}

// IsZero reports whether no edge band was requested on any side.
func (e EdgeSpec) IsZero() bool {
	return e.Top == "" && e.Left == "" && e.Bottom == "" && e.Right == ""
}

// TileDimensions is an immutable demand or stock panel, already scaled to
// the engine's integer coordinate system (the task's scaling factor).
type TileDimensions struct {
	ID          int
	Width       int
	Height      int
	Material    string
	Orientation Orientation
	Label       string
	IsRotated   bool
	Edge        EdgeSpec
}

// WithDefaults returns t with Material defaulted when empty.
func (t TileDimensions) WithDefaults() TileDimensions {
	if t.Material == "" {
		t.Material = DefaultMaterial
	}
	return t
}

// Rotate90 returns a copy of t with width/height swapped, orientation
// flipped between horizontal and vertical, and IsRotated toggled (so two
// rotations restore the original flag).
func (t TileDimensions) Rotate90() TileDimensions {
	r := t
	r.Width, r.Height = t.Height, t.Width
	switch t.Orientation {
	case OrientationHorizontal:
		r.Orientation = OrientationVertical
	case OrientationVertical:
		r.Orientation = OrientationHorizontal
	}
	r.IsRotated = !t.IsRotated
	return r
}

// IsSquare reports whether rotating t would produce an identical rectangle.
func (t TileDimensions) IsSquare() bool {
	return t.Width == t.Height
}

// Area returns width*height.
func (t TileDimensions) Area() int64 {
	return int64(t.Width) * int64(t.Height)
}

// Equal compares id, width, and height.
func (t TileDimensions) Equal(o TileDimensions) bool {
	return t.ID == o.ID && t.Width == o.Width && t.Height == o.Height
}

// DimensionKey returns the (width, height) pair used for "dimension-based"
// hashing, where two panels of the same size are interchangeable regardless
// of id.
func (t TileDimensions) DimensionKey() [2]int {
	return [2]int{t.Width, t.Height}
}

func (t TileDimensions) String() string {
	return fmt.Sprintf("%dx%d[%s]", t.Width, t.Height, t.Material)
}

// GroupedTileDimensions is a TileDimensions annotated with a group tag used
// to bound the permutation explosion: identical panels are split across at
// most two groups once they grow frequent.
type GroupedTileDimensions struct {
	TileDimensions
	Group int
}
