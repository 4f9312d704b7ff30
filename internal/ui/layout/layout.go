// Package layout declares the dashboard page: title, report dropdown, output
// region and the two chart regions. The declaration is embedded YAML so the
// page structure lives in one place.
package layout

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"autosales-dashboard/internal/models"
)

//go:embed layout.yaml
var defaultLayout []byte

type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

type Dropdown struct {
	ID          string   `yaml:"id"`
	Label       string   `yaml:"label"`
	Placeholder string   `yaml:"placeholder"`
	Default     string   `yaml:"default"`
	Options     []Option `yaml:"options"`
}

type Region struct {
	ID string `yaml:"id"`
}

type Layout struct {
	Title    string   `yaml:"title"`
	Dropdown Dropdown `yaml:"dropdown"`
	Output   Region   `yaml:"output"`
	Graphs   []Region `yaml:"graphs"`
}

// Parse decodes and validates a layout document.
func Parse(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	if err := l.validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout: %w", err)
	}
	return l, nil
}

// Default returns the embedded layout. It panics if the embedded document is
// invalid, which only a broken build can cause.
func Default() Layout {
	l, err := Parse(defaultLayout)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Layout) validate() error {
	if l.Title == "" {
		return fmt.Errorf("title is required")
	}
	if l.Dropdown.ID == "" || l.Output.ID == "" {
		return fmt.Errorf("dropdown and output regions need ids")
	}
	if len(l.Graphs) != 2 {
		return fmt.Errorf("expected 2 graph regions, got %d", len(l.Graphs))
	}
	if len(l.Dropdown.Options) == 0 {
		return fmt.Errorf("dropdown has no options")
	}

	hasDefault := false
	for _, opt := range l.Dropdown.Options {
		if _, err := models.ParseReportSelection(opt.Value); err != nil {
			return fmt.Errorf("option %q: %w", opt.Label, err)
		}
		if opt.Value == l.Dropdown.Default {
			hasDefault = true
		}
	}
	if !hasDefault {
		return fmt.Errorf("default %q is not one of the dropdown options", l.Dropdown.Default)
	}
	return nil
}

// DefaultSelection is the report shown before the user touches the dropdown.
func (l Layout) DefaultSelection() models.ReportSelection {
	sel, err := models.ParseReportSelection(l.Dropdown.Default)
	if err != nil {
		return models.ReportRecession
	}
	return sel
}

// InitialSignals is the client-side signal state the page starts with.
// The charts stay empty until the first report update arrives.
func (l Layout) InitialSignals() map[string]any {
	return map[string]any{
		"report": l.Dropdown.Default,
		"chart1": nil,
		"chart2": nil,
	}
}
