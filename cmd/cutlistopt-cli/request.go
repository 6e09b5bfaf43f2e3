package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/task"
)

// requestFile is the on-disk YAML shape cutlistopt-cli reads calculation
// requests from. DTO<->domain conversion is the transport layer's job
// (out of scope for the core), so this lives in cmd/, not pkg/task.
type requestFile struct {
	Panels        []panelFile `yaml:"panels"`
	StockPanels   []panelFile `yaml:"stockPanels"`
	Configuration struct {
		CutThickness             int     `yaml:"cutThickness"`
		MinTrimDimension         int     `yaml:"minTrimDimension"`
		UseSingleStockUnit       bool    `yaml:"useSingleStockUnit"`
		OptimizationFactor       float64 `yaml:"optimizationFactor"`
		OptimizationPriority     int     `yaml:"optimizationPriority"`
		CutOrientationPreference int     `yaml:"cutOrientationPreference"`
		ConsiderOrientation      bool    `yaml:"considerOrientation"`
		Units                    int     `yaml:"units"`
		PerformanceThresholds    *struct {
			MaxSimultaneousThreads int           `yaml:"maxSimultaneousThreads"`
			ThreadCheckInterval    time.Duration `yaml:"threadCheckInterval"`
			MaxSimultaneousTasks   int           `yaml:"maxSimultaneousTasks"`
		} `yaml:"performanceThresholds"`
	} `yaml:"configuration"`
	ClientID string `yaml:"clientId"`
}

type panelFile struct {
	ID       int    `yaml:"id"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Count    int    `yaml:"count"`
	Material string `yaml:"material"`
	Label    string `yaml:"label"`
	Enabled  bool   `yaml:"enabled"`
	Edge     struct {
		Top    string `yaml:"top"`
		Bottom string `yaml:"bottom"`
		Left   string `yaml:"left"`
		Right  string `yaml:"right"`
	} `yaml:"edge"`
}

func (p panelFile) toPanel() task.Panel {
	return task.Panel{
		ID: p.ID, Width: p.Width, Height: p.Height, Count: p.Count,
		Material: p.Material, Label: p.Label, Enabled: p.Enabled,
		Edge: model.EdgeSpec{Top: p.Edge.Top, Bottom: p.Edge.Bottom, Left: p.Edge.Left, Right: p.Edge.Right},
	}
}

// loadRequest reads a YAML calculation request file and converts it to the
// core's CalculationRequest shape.
func loadRequest(path string) (*task.CalculationRequest, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read request file: %w", err)
	}

	var rf requestFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, "", fmt.Errorf("parse request file: %w", err)
	}

	req := &task.CalculationRequest{
		Configuration: task.Configuration{
			CutThickness:             rf.Configuration.CutThickness,
			MinTrimDimension:         rf.Configuration.MinTrimDimension,
			UseSingleStockUnit:       rf.Configuration.UseSingleStockUnit,
			OptimizationFactor:       rf.Configuration.OptimizationFactor,
			OptimizationPriority:     rf.Configuration.OptimizationPriority,
			CutOrientationPreference: model.CutOrientationPreference(rf.Configuration.CutOrientationPreference),
			ConsiderOrientation:      rf.Configuration.ConsiderOrientation,
			Units:                    rf.Configuration.Units,
		},
	}
	if rf.Configuration.PerformanceThresholds != nil {
		req.Configuration.PerformanceThresholds = &task.PerformanceThresholds{
			MaxSimultaneousThreads: rf.Configuration.PerformanceThresholds.MaxSimultaneousThreads,
			ThreadCheckInterval:    rf.Configuration.PerformanceThresholds.ThreadCheckInterval,
			MaxSimultaneousTasks:   rf.Configuration.PerformanceThresholds.MaxSimultaneousTasks,
		}
	}
	for _, p := range rf.Panels {
		req.Panels = append(req.Panels, p.toPanel())
	}
	for _, p := range rf.StockPanels {
		req.StockPanels = append(req.StockPanels, p.toPanel())
	}

	return req, rf.ClientID, nil
}
