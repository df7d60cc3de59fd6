// Package catalog holds the static display configuration for the
// dashboard: competency code to display name, and enrolled grade to
// chart color. Both tables are embedded JSON assets; lookups report
// found/fallback explicitly so callers decide what an unknown code
// means.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
)

//go:embed competencies.json grade_colors.json
var assetFS embed.FS

// Table provides code and grade lookups against the embedded assets.
type Table struct {
	names  map[string]string
	colors map[string]string
}

// Load parses the embedded assets into a lookup table.
func Load() (*Table, error) {
	t := &Table{}

	data, err := assetFS.ReadFile("competencies.json")
	if err != nil {
		return nil, fmt.Errorf("read competencies asset: %w", err)
	}
	if err := json.Unmarshal(data, &t.names); err != nil {
		return nil, fmt.Errorf("parse competencies asset: %w", err)
	}

	data, err = assetFS.ReadFile("grade_colors.json")
	if err != nil {
		return nil, fmt.Errorf("read grade colors asset: %w", err)
	}
	if err := json.Unmarshal(data, &t.colors); err != nil {
		return nil, fmt.Errorf("parse grade colors asset: %w", err)
	}

	return t, nil
}

// DisplayName returns the display name for a competency code. The
// second return reports whether the code is known; unknown codes are
// expected and callers fall back to the raw code.
func (t *Table) DisplayName(code string) (string, bool) {
	name, ok := t.names[code]
	return name, ok
}

// GradeColor returns the chart color assigned to an enrolled grade.
func (t *Table) GradeColor(grade int) (string, bool) {
	c, ok := t.colors[strconv.Itoa(grade)]
	return c, ok
}
