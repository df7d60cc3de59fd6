// Package report builds export-ready views of a loaded snapshot and
// writes them out as JSON or as an XLSX workbook.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/apexmaths/radar/internal/model"
	"github.com/apexmaths/radar/internal/roster"
	"github.com/apexmaths/radar/internal/stats"
)

// Namer resolves a competency code to a human-readable name.
type Namer interface {
	DisplayName(code string) (string, bool)
}

// Report is the top-level structure for a results export.
type Report struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Source       string          `json:"source"`
	SourceSHA256 string          `json:"source_sha256"`
	Rows         int             `json:"rows"`
	Students     []StudentReport `json:"students"`
	Cohorts      []CohortReport  `json:"cohorts,omitempty"`
}

// StudentReport holds one student's aggregated results for export.
type StudentReport struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	GradeLevel        int              `json:"grade_level"`
	TotalCorrect      int              `json:"total_correct"`
	TotalAnswered     int              `json:"total_answered"`
	OverallPercentage float64          `json:"overall_percentage"`
	MaxGradeReached   int              `json:"max_grade_reached"`
	Competencies      []CompetencyRow  `json:"competencies"`
	Types             []model.TypeStat `json:"types,omitempty"`
}

// CohortReport holds one grade cohort's pooled results.
type CohortReport struct {
	Grade        int             `json:"grade"`
	Students     int             `json:"students"`
	Competencies []CompetencyRow `json:"competencies"`
}

// CompetencyRow is one competency line with its resolved display name.
type CompetencyRow struct {
	Key        string  `json:"key"`
	Grade      int     `json:"grade"`
	Competency string  `json:"competency"`
	Name       string  `json:"name"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Build assembles a report from the snapshot. Students keep their load
// order; competency lines within each section follow chart order.
// names may be nil, in which case raw codes stand in for display names.
func Build(snap *roster.Snapshot, names Namer, includeCohorts bool) Report {
	rep := Report{
		GeneratedAt:  time.Now().UTC(),
		Source:       snap.SourcePath,
		SourceSHA256: snap.SourceSHA256,
		Rows:         snap.Rows,
	}

	for _, st := range snap.Students() {
		sum := stats.Summarize(st)
		rep.Students = append(rep.Students, StudentReport{
			ID:                st.ID,
			Name:              st.Name,
			GradeLevel:        st.GradeLevel,
			TotalCorrect:      sum.TotalCorrect,
			TotalAnswered:     sum.TotalAnswered,
			OverallPercentage: sum.OverallPercentage,
			MaxGradeReached:   sum.MaxGradeReached,
			Competencies:      competencyRows(sum.ByCompetency, names),
			Types:             stats.OrderedTypes(sum.ByType),
		})
	}

	if includeCohorts {
		students := snap.Students()
		for _, grade := range snap.Grades() {
			cohort, ok := stats.SummarizeCohort(students, grade)
			if !ok {
				continue
			}
			rep.Cohorts = append(rep.Cohorts, CohortReport{
				Grade:        cohort.Grade,
				Students:     cohort.Students,
				Competencies: competencyRows(cohort.ByCompetency, names),
			})
		}
	}

	return rep
}

func competencyRows(byKey map[string]model.CompetencyStat, names Namer) []CompetencyRow {
	ordered := stats.Ordered(byKey)
	rows := make([]CompetencyRow, 0, len(ordered))
	for _, cs := range ordered {
		name := cs.Competency
		if names != nil {
			if n, ok := names.DisplayName(cs.Competency); ok {
				name = n
			}
		}
		rows = append(rows, CompetencyRow{
			Key:        cs.Key,
			Grade:      cs.Grade,
			Competency: cs.Competency,
			Name:       name,
			Correct:    cs.Correct,
			Total:      cs.Total,
			Percentage: cs.Percentage,
		})
	}
	return rows
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteXLSX writes the report as a workbook with an Overview sheet, a
// per-student Competencies sheet, and one sheet per cohort.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const overview = "Overview"
	if err := f.SetSheetName(f.GetSheetName(0), overview); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	writeRow(f, overview, 1, []any{"student_id", "student_name", "grade_level", "answered", "correct", "overall_pct", "max_grade_reached"})
	for i, st := range rep.Students {
		writeRow(f, overview, i+2, []any{st.ID, st.Name, st.GradeLevel, st.TotalAnswered, st.TotalCorrect, st.OverallPercentage, st.MaxGradeReached})
	}
	_ = f.SetColWidth(overview, "A", "G", 18)

	const competencies = "Competencies"
	if _, err := f.NewSheet(competencies); err != nil {
		return fmt.Errorf("add sheet %s: %w", competencies, err)
	}
	writeRow(f, competencies, 1, []any{"student_id", "student_name", "key", "grade", "competency", "competency_name", "correct", "total", "percentage"})
	row := 2
	for _, st := range rep.Students {
		for _, cr := range st.Competencies {
			writeRow(f, competencies, row, []any{st.ID, st.Name, cr.Key, cr.Grade, cr.Competency, cr.Name, cr.Correct, cr.Total, cr.Percentage})
			row++
		}
	}
	_ = f.SetColWidth(competencies, "A", "I", 18)

	for _, cohort := range rep.Cohorts {
		sheet := fmt.Sprintf("Grade %d", cohort.Grade)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}
		writeRow(f, sheet, 1, []any{"key", "grade", "competency", "competency_name", "correct", "total", "percentage"})
		for i, cr := range cohort.Competencies {
			writeRow(f, sheet, i+2, []any{cr.Key, cr.Grade, cr.Competency, cr.Name, cr.Correct, cr.Total, cr.Percentage})
		}
		_ = f.SetColWidth(sheet, "A", "G", 18)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write excel: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
