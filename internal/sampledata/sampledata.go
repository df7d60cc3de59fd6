// Package sampledata generates synthetic quiz-response CSV data for
// local development and demos. Students walk the full assessment from
// grade 4 to grade 12 under a 90-minute limit, with accuracy that
// degrades as question grades rise past their own level.
package sampledata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// Competencies assessed per grade level, four per grade, with overlap
// between adjacent grades.
var gradeCompetencies = map[int][]string{
	4:  {"NUM-MultiDigit", "COMP-Advanced", "MEAS-Standard", "GEOM-Reasoning"},
	5:  {"COMP-Advanced", "NUM-Large", "NUM-FracDec", "MEAS-Advanced"},
	6:  {"NUM-FracDec", "DATA-Represent", "NUM-Theory", "RATIO-Proportion"},
	7:  {"RATIO-Proportion", "ALG-PreAlg", "GEOM-Advanced", "NUM-Theory"},
	8:  {"ALG-PreAlg", "GEOM-Advanced", "NUM-AdvSystems", "GEOM-Coord"},
	9:  {"ALG-Manipulation", "FUNC-Relationships", "GEOM-Coord", "GEOM-Advanced"},
	10: {"ALG-Manipulation", "FUNC-Relationships", "NUM-AdvSystems", "GEOM-Trig"},
	11: {"FUNC-Advanced", "CALC-Foundations", "GEOM-Trig", "DATA-Stats"},
	12: {"FUNC-Advanced", "CALC-Foundations", "DATA-Stats", "GEOM-Trig"},
}

var firstNames = []string{
	"Thabo", "Lerato", "Sipho", "Naledi", "Johan", "Fatima", "Ayesha",
	"Pieter", "Zanele", "Mandla", "Caitlin", "Ravi", "Lindiwe", "James",
	"Precious", "David", "Neo", "Palesa", "Mohammed", "Sarah",
}

var lastNames = []string{
	"Nkosi", "Dlamini", "Van der Merwe", "Pillay", "Mokoena", "Smith",
	"Ndlovu", "Botha", "Govender", "Molefe", "Williams", "Tshabalala",
}

const (
	minGrade  = 4
	maxGrade  = 12
	timeLimit = 90 * time.Minute
)

// Options controls a generation run. Zero values fall back to 30
// students starting at 2026-02-01 09:00; the seed is used as given.
type Options struct {
	Students int
	Seed     int64
	Start    time.Time
}

// Write generates quiz-response rows for opts.Students students and
// writes them as CSV. The same options always produce the same bytes.
// It returns the number of data rows written.
func Write(w io.Writer, opts Options) (int, error) {
	if opts.Students <= 0 {
		opts.Students = 30
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	cw := csv.NewWriter(w)
	header := []string{
		"student_id", "student_name", "student_grade_level",
		"question_id", "grade_tag", "competency_tag", "type_tag",
		"is_correct", "timestamp",
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	rows := 0
	for i := 0; i < opts.Students; i++ {
		id := fmt.Sprintf("STU%03d", i+1)
		name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
		grade := minGrade + rng.Intn(maxGrade-minGrade+1)
		skill := 0.5 + 0.4*rng.Float64()

		for _, resp := range simulate(rng, opts.Start, grade, skill) {
			row := []string{
				id, name, strconv.Itoa(grade),
				resp.questionID, resp.gradeTag, resp.competencyTag, resp.typeTag,
				resp.isCorrect, resp.timestamp,
			}
			if err := cw.Write(row); err != nil {
				return rows, fmt.Errorf("write row: %w", err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}
	return rows, nil
}

type response struct {
	questionID    string
	gradeTag      string
	competencyTag string
	typeTag       string
	isCorrect     string
	timestamp     string
}

// simulate walks one student through every grade's competencies, three
// question types with two questions each, until the time limit runs
// out. The limit is checked before each competency block, so a block
// that has started always finishes.
func simulate(rng *rand.Rand, start time.Time, studentGrade int, skill float64) []response {
	var out []response
	current := start

	for grade := minGrade; grade <= maxGrade; grade++ {
		for _, comp := range gradeCompetencies[grade] {
			if current.Sub(start) >= timeLimit {
				break
			}
			for qType := 1; qType <= 3; qType++ {
				for seq := 1; seq <= 2; seq++ {
					correct := "0"
					if rng.Float64() < correctProbability(grade-studentGrade, skill, qType) {
						correct = "1"
					}

					// Questions take longer at higher grades.
					current = current.Add(time.Duration(15+rng.Intn(16)+(grade-minGrade)*3) * time.Second)

					out = append(out, response{
						questionID:    fmt.Sprintf("G%d_%s_T%d_%02d", grade, comp, qType, seq),
						gradeTag:      fmt.Sprintf("Grade-%d", grade),
						competencyTag: comp,
						typeTag:       fmt.Sprintf("Type-%d", qType),
						isCorrect:     correct,
						timestamp:     current.Format("2006-01-02T15:04:05"),
					})
				}
			}
		}
	}
	return out
}

// correctProbability models how likely the student answers correctly
// given the gap between the question's grade and their own. Type 3
// questions run slightly harder.
func correctProbability(gradeDiff int, skill float64, qType int) float64 {
	var p float64
	switch {
	case gradeDiff <= -2:
		p = 0.95
	case gradeDiff <= 0:
		p = skill + 0.1
	case gradeDiff == 1:
		p = skill - 0.05
	case gradeDiff == 2:
		p = skill - 0.15
	default:
		p = math.Max(0.25, skill-float64(gradeDiff)*0.1)
	}
	if qType == 3 {
		p -= 0.05
	}
	return math.Max(0.15, math.Min(0.98, p))
}
