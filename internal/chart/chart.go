// Package chart projects computed statistics into the ordered,
// labeled series shape the dashboard's radar renderer consumes.
package chart

import (
	"fmt"

	"github.com/apexmaths/radar/internal/model"
	"github.com/apexmaths/radar/internal/stats"
)

// Namer resolves a competency code to a display name. The second
// return reports whether the code is known.
type Namer interface {
	DisplayName(code string) (string, bool)
}

// RadarData is the projection of one student's statistics, optionally
// overlaid with a grade cohort, in spiral order. Series[0] is always
// the student; Series[1], when present, is the cohort aligned to the
// same keys with 0 filling keys the cohort never attempted.
// CohortCoverage tells those filler zeros apart from a true 0% cohort
// score.
type RadarData struct {
	OrderedKeys    []string    `json:"ordered_keys"`
	Labels         []string    `json:"labels"`
	Series         [][]float64 `json:"series"`
	CohortCoverage []bool      `json:"cohort_coverage,omitempty"`
}

// Project orders and labels a student's competency statistics for
// display. Keys sort by ascending grade, then by the full composite
// key. Labels render as "G{grade}: {display name}" with unknown codes
// falling back to the raw code. Pure function: it never mutates its
// inputs and identical inputs produce identical output.
func Project(sum model.StudentSummary, cohort *model.CohortStats, names Namer) RadarData {
	ordered := stats.Ordered(sum.ByCompetency)

	rd := RadarData{
		OrderedKeys: make([]string, len(ordered)),
		Labels:      make([]string, len(ordered)),
		Series:      make([][]float64, 1, 2),
	}
	student := make([]float64, len(ordered))
	for i, cs := range ordered {
		rd.OrderedKeys[i] = cs.Key
		rd.Labels[i] = label(cs, names)
		student[i] = cs.Percentage
	}
	rd.Series[0] = student

	if cohort != nil {
		overlay := make([]float64, len(ordered))
		coverage := make([]bool, len(ordered))
		for i, cs := range ordered {
			if agg, ok := cohort.ByCompetency[cs.Key]; ok {
				overlay[i] = agg.Percentage
				coverage[i] = true
			}
		}
		rd.Series = append(rd.Series, overlay)
		rd.CohortCoverage = coverage
	}

	return rd
}

func label(cs model.CompetencyStat, names Namer) string {
	display := cs.Competency
	if names != nil {
		if name, ok := names.DisplayName(cs.Competency); ok {
			display = name
		}
	}
	return fmt.Sprintf("G%d: %s", cs.Grade, display)
}
