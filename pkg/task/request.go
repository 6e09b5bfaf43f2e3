// Package task implements the Task, per-material driver, and process-wide
// task registry.
package task

import (
	"time"

	"github.com/cutlistopt/engine/pkg/model"
)

// Panel is one demand or stock panel as accepted by the core: scaling from
// decimal input to the integer coordinate system happens at the input
// boundary, so Panel already carries integer dimensions.
type Panel struct {
	ID          int
	Width       int
	Height      int
	Count       int
	Material    string
	Orientation model.Orientation
	Label       string
	Enabled     bool
	Edge        model.EdgeSpec
}

// Valid reports whether p would count toward submitTask's panel validation:
// enabled, count>0, width and height positive. Decimal parsing already
// happened at the input boundary.
func (p Panel) Valid() bool {
	return p.Enabled && p.Count > 0 && p.Width > 0 && p.Height > 0
}

// Expand duplicates each valid panel Count times into individual
// TileDimensions sharing the same id, the unit the optimization engine
// operates on.
func Expand(panels []Panel) []model.TileDimensions {
	var out []model.TileDimensions
	for _, p := range panels {
		if !p.Valid() {
			continue
		}
		t := model.TileDimensions{
			ID: p.ID, Width: p.Width, Height: p.Height,
			Material: p.Material, Orientation: p.Orientation,
			Label: p.Label, Edge: p.Edge,
		}.WithDefaults()
		for i := 0; i < p.Count; i++ {
			out = append(out, t)
		}
	}
	return out
}

// PerformanceThresholds mirrors the request-level performance override
// shape.
type PerformanceThresholds struct {
	MaxSimultaneousThreads int
	ThreadCheckInterval    time.Duration
	MaxSimultaneousTasks   int
}

// Configuration mirrors the request-level configuration shape.
type Configuration struct {
	CutThickness             int
	MinTrimDimension         int
	UseSingleStockUnit       bool
	OptimizationFactor       float64
	OptimizationPriority     int
	CutOrientationPreference model.CutOrientationPreference
	ConsiderOrientation      bool
	Units                    int
	PerformanceThresholds    *PerformanceThresholds
}

// ClientInfo mirrors the request-level clientInfo shape.
type ClientInfo struct {
	ID string
}

// CalculationRequest is the core-facing request shape, after DTO/JSON
// decoding and decimal scaling, both out of scope for this engine.
type CalculationRequest struct {
	Panels        []Panel
	StockPanels   []Panel
	Configuration Configuration
	ClientInfo    ClientInfo
}

// EnabledPanelCount sums Count across valid panels, the same validity
// Expand filters on, so submitTask's demand/stock counts can't diverge
// from what the optimization engine actually receives.
func EnabledPanelCount(panels []Panel) int {
	var total int
	for _, p := range panels {
		if p.Valid() {
			total += p.Count
		}
	}
	return total
}

// MaterialsOf returns the distinct set of materials present across panels,
// demand defaulted the same way TileDimensions.WithDefaults does.
func MaterialsOf(panels []Panel) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range panels {
		m := p.Material
		if m == "" {
			m = model.DefaultMaterial
		}
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
