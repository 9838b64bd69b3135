package command

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/campus-ai-go/internal/storage"
)

// marksKeys are the detail keys, lower-cased, consulted in order for a representative mark.
var marksKeys = []string{"marks", "mark", "score", "grade", "cgpa", "gpa", "sgpa"}

// StudentSummary is one row of an analysis.
type StudentSummary struct {
	Name       string
	ID         string
	Present    int
	Attendance float64 // percentage, one decimal
	Marks      float64
}

// Analysis is the computed class view before filtering.
type Analysis struct {
	TotalDates int
	Students   []StudentSummary
}

// Summarize computes attendance and marks per roster entry. The denominator is
// the number of distinct dates in records.
func Summarize(roster []storage.Student, records []storage.AttendanceRecord) Analysis {
	dates := make(map[string]struct{})
	present := make(map[string]int)
	for _, rec := range records {
		dates[rec.Date] = struct{}{}
		if rec.Status == storage.AttendancePresent {
			present[rec.StudentID]++
		}
	}
	total := len(dates)

	out := Analysis{TotalDates: total, Students: make([]StudentSummary, 0, len(roster))}
	for _, s := range roster {
		p := present[s.StudentID]
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(p)/float64(total)*1000) / 10
		}
		out.Students = append(out.Students, StudentSummary{
			Name:       s.Name,
			ID:         s.StudentID,
			Present:    p,
			Attendance: pct,
			Marks:      RepresentativeMarks(s.Details),
		})
	}
	return out
}

// RepresentativeMarks picks one numeric value from a details bag: the first
// known marks key (case-insensitive) holding a number, otherwise the first
// numeric value in lexical key order, otherwise 0.
func RepresentativeMarks(details map[string]any) float64 {
	if len(details) == 0 {
		return 0
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Keys differing only in case resolve to the lexically first.
	lowered := make(map[string]any, len(details))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, dup := lowered[lk]; !dup {
			lowered[lk] = details[k]
		}
	}
	for _, k := range marksKeys {
		if v, ok := numeric(lowered[k]); ok {
			return v
		}
	}
	for _, k := range keys {
		if v, ok := numeric(details[k]); ok {
			return v
		}
	}
	return 0
}

// numeric accepts JSON numbers and strings that parse fully as a float.
func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Filter keeps summaries matching the optional name substring and comparator.
// An unknown operator or a non-numeric threshold applies no comparison.
func Filter(students []StudentSummary, cmd Command) []StudentSummary {
	name := strings.ToLower(cmd.SearchName)
	threshold, hasThreshold := cmd.Threshold()
	compare := comparator(cmd.Operator)
	useMarks := strings.EqualFold(cmd.FilterType, FilterMarks)

	var out []StudentSummary
	for _, s := range students {
		if name != "" && !strings.Contains(strings.ToLower(s.Name), name) {
			continue
		}
		if hasThreshold && compare != nil {
			target := s.Attendance
			if useMarks {
				target = s.Marks
			}
			if !compare(target, threshold) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func comparator(op string) func(a, b float64) bool {
	switch strings.TrimSpace(op) {
	case ">":
		return func(a, b float64) bool { return a > b }
	case "<":
		return func(a, b float64) bool { return a < b }
	case ">=":
		return func(a, b float64) bool { return a >= b }
	case "<=":
		return func(a, b float64) bool { return a <= b }
	case "==":
		return func(a, b float64) bool { return a == b }
	default:
		return nil
	}
}

func (r *Resolver) analyze(ctx context.Context, cmd Command, classID string) (Result, error) {
	var (
		roster  []storage.Student
		records []storage.AttendanceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = r.store.ListRosterByClass(gctx, classID)
		if err != nil {
			return fmt.Errorf("list roster: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = r.store.ListAttendanceByClass(gctx, classID)
		if err != nil {
			return fmt.Errorf("list attendance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	analysis := Summarize(roster, records)
	kept := Filter(analysis.Students, cmd)
	if len(kept) == 0 {
		return Result{Text: MsgNoMatches, Outcome: OutcomeNoMatch}, nil
	}
	return Result{Text: Report(kept, analysis.TotalDates, cmd.FilterType), Outcome: OutcomeApplied}, nil
}
