// Package stats computes per-student and per-cohort competency
// accuracy from response records. All results are derived values:
// recomputed from scratch on every call, never cached or updated
// incrementally.
package stats

import (
	"fmt"
	"sort"

	"github.com/apexmaths/radar/internal/model"
)

// Key returns the composite statistics key for a grade/competency pair.
func Key(grade int, competency string) string {
	return fmt.Sprintf("G%d-%s", grade, competency)
}

// Percentage returns 100*correct/total, or 0 when total is zero.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

// Summarize folds a student's responses into per-competency and
// per-type accuracy. Percentages are computed only after the whole fold
// so the result is identical for any arrival order of the same
// responses. A student with no responses reports an overall percentage
// of 0 and a max grade reached of 4, the assessment floor.
func Summarize(st model.Student) model.StudentSummary {
	sum := model.StudentSummary{
		ByCompetency:    make(map[string]model.CompetencyStat),
		ByType:          make(map[string]model.TypeStat),
		MaxGradeReached: 4,
	}

	for _, r := range st.Responses {
		k := Key(r.Grade, r.Competency)
		cs, ok := sum.ByCompetency[k]
		if !ok {
			cs = model.CompetencyStat{Key: k, Grade: r.Grade, Competency: r.Competency}
		}
		cs.Total++
		if r.Correct {
			cs.Correct++
		}
		sum.ByCompetency[k] = cs

		if r.TypeTag != "" {
			ts, ok := sum.ByType[r.TypeTag]
			if !ok {
				ts = model.TypeStat{TypeTag: r.TypeTag}
			}
			ts.Total++
			if r.Correct {
				ts.Correct++
			}
			sum.ByType[r.TypeTag] = ts
		}

		sum.TotalAnswered++
		if r.Correct {
			sum.TotalCorrect++
		}
		if r.Grade > sum.MaxGradeReached {
			sum.MaxGradeReached = r.Grade
		}
	}

	for k, cs := range sum.ByCompetency {
		cs.Percentage = Percentage(cs.Correct, cs.Total)
		sum.ByCompetency[k] = cs
	}
	for tag, ts := range sum.ByType {
		ts.Percentage = Percentage(ts.Correct, ts.Total)
		sum.ByType[tag] = ts
	}
	sum.OverallPercentage = Percentage(sum.TotalCorrect, sum.TotalAnswered)

	return sum
}

// SummarizeCohort aggregates competency accuracy across every student
// enrolled at the given grade. Per-key correct and total counts are
// summed across students and percentages recomputed from the sums, so
// students weigh in by attempt count; percentages are never averaged.
// The second return is false when no student matches the grade: an
// empty cohort is absent, not a zero-filled result.
func SummarizeCohort(students []model.Student, grade int) (model.CohortStats, bool) {
	cohort := model.CohortStats{
		Grade:        grade,
		ByCompetency: make(map[string]model.CompetencyStat),
	}

	for _, st := range students {
		if st.GradeLevel != grade {
			continue
		}
		cohort.Students++

		sum := Summarize(st)
		for k, cs := range sum.ByCompetency {
			agg, ok := cohort.ByCompetency[k]
			if !ok {
				agg = model.CompetencyStat{Key: k, Grade: cs.Grade, Competency: cs.Competency}
			}
			agg.Correct += cs.Correct
			agg.Total += cs.Total
			cohort.ByCompetency[k] = agg
		}
	}

	if cohort.Students == 0 {
		return model.CohortStats{}, false
	}

	for k, agg := range cohort.ByCompetency {
		agg.Percentage = Percentage(agg.Correct, agg.Total)
		cohort.ByCompetency[k] = agg
	}
	return cohort, true
}

// Ordered returns competency stats in spiral display order: ascending
// grade first, then the full composite key lexicographically.
func Ordered(byCompetency map[string]model.CompetencyStat) []model.CompetencyStat {
	out := make([]model.CompetencyStat, 0, len(byCompetency))
	for _, cs := range byCompetency {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Grade != out[j].Grade {
			return out[i].Grade < out[j].Grade
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// OrderedTypes returns type stats sorted by type tag.
func OrderedTypes(byType map[string]model.TypeStat) []model.TypeStat {
	out := make([]model.TypeStat, 0, len(byType))
	for _, ts := range byType {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeTag < out[j].TypeTag })
	return out
}
