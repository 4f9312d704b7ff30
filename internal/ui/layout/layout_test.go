package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosales-dashboard/internal/models"
)

func TestDefault(t *testing.T) {
	l := Default()

	assert.Equal(t, "Automobile Sales Dashboard", l.Title)
	assert.Equal(t, "report-dropdown", l.Dropdown.ID)
	assert.Equal(t, "Select Report Type:", l.Dropdown.Label)
	assert.Equal(t, []Option{
		{Label: "Recession Report", Value: "recession"},
		{Label: "Yearly Report", Value: "yearly"},
	}, l.Dropdown.Options)
	assert.Equal(t, "output-container", l.Output.ID)
	require.Len(t, l.Graphs, 2)
	assert.Equal(t, "main-graph-1", l.Graphs[0].ID)
	assert.Equal(t, "main-graph-2", l.Graphs[1].ID)
	assert.Equal(t, models.ReportRecession, l.DefaultSelection())
}

func TestInitialSignals(t *testing.T) {
	signals := Default().InitialSignals()
	assert.Equal(t, "recession", signals["report"])
	assert.Contains(t, signals, "chart1")
	assert.Contains(t, signals, "chart2")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "title: [unclosed"},
		{"missing title", `
dropdown: {id: d, default: yearly, options: [{label: Y, value: yearly}]}
output: {id: o}
graphs: [{id: a}, {id: b}]`},
		{"one graph", `
title: T
dropdown: {id: d, default: yearly, options: [{label: Y, value: yearly}]}
output: {id: o}
graphs: [{id: a}]`},
		{"unknown option", `
title: T
dropdown: {id: d, default: quarterly, options: [{label: Q, value: quarterly}]}
output: {id: o}
graphs: [{id: a}, {id: b}]`},
		{"default not offered", `
title: T
dropdown: {id: d, default: recession, options: [{label: Y, value: yearly}]}
output: {id: o}
graphs: [{id: a}, {id: b}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
