// Package surveillance turns a patient roster into the chart-ready summaries
// shown on the TB dashboard. Every aggregator here is a pure function of its
// input: it never mutates the records, never fails, and returns empty
// (non-nil) results for an empty roster.
package surveillance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/migranthealth/tbdash/internal/domain/patient"
)

const (
	// UnknownLabel buckets records whose category field is blank.
	UnknownLabel = "Unknown"

	ExtrapulmonaryLabel = "Extrapulmonary"
	PulmonaryLabel      = "Pulmonary"
)

// CategoryCount is one bar or slice of a categorical chart.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthCount is one point of the cases-by-month series.
type MonthCount struct {
	Label string `json:"label"`
	Key   string `json:"key"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Count int    `json:"count"`
}

// Selector reads the category value of a record.
type Selector func(r *patient.Record) string

// Normalizer maps a raw category value onto its canonical label.
type Normalizer func(raw string) string

// CountBy groups records by the value returned from sel, optionally passed
// through norm, and returns the counts in first-seen order. Blank values are
// counted under UnknownLabel and are not passed to norm.
func CountBy(records []patient.Record, sel Selector, norm Normalizer) []CategoryCount {
	out := []CategoryCount{}
	index := make(map[string]int)
	for i := range records {
		label := strings.TrimSpace(sel(&records[i]))
		switch {
		case label == "":
			label = UnknownLabel
		case norm != nil:
			label = norm(label)
		}
		pos, ok := index[label]
		if !ok {
			pos = len(out)
			index[label] = pos
			out = append(out, CategoryCount{Label: label})
		}
		out[pos].Count++
	}
	return out
}

// NormalizeClassification collapses TB subtypes into the two dashboard
// buckets: anything starting with "Extrapulmonary" is extrapulmonary, all
// other values are pulmonary.
func NormalizeClassification(raw string) string {
	if strings.HasPrefix(raw, ExtrapulmonaryLabel) {
		return ExtrapulmonaryLabel
	}
	return PulmonaryLabel
}

func ByClassification(records []patient.Record) []CategoryCount {
	return CountBy(records, func(r *patient.Record) string { return r.Classification }, NormalizeClassification)
}

func ByResistance(records []patient.Record) []CategoryCount {
	return CountBy(records, func(r *patient.Record) string { return r.ResistanceStatus }, nil)
}

func ByOutcome(records []patient.Record) []CategoryCount {
	return CountBy(records, func(r *patient.Record) string { return r.OutcomeStatus }, nil)
}

func ByRegion(records []patient.Record) []CategoryCount {
	return CountBy(records, func(r *patient.Record) string { return r.Region }, nil)
}

type yearMonth struct {
	year  int
	month time.Month
}

func (ym yearMonth) before(o yearMonth) bool {
	if ym.year != o.year {
		return ym.year < o.year
	}
	return ym.month < o.month
}

// CasesByMonth counts diagnoses per calendar month, ordered chronologically.
// The order comes from the (year, month) pair; labels such as "Jan 2023" are
// only derived afterwards. Records without a parseable diagnosis date are
// left out and reported in excluded.
func CasesByMonth(records []patient.Record) (series []MonthCount, excluded int) {
	counts := make(map[yearMonth]int)
	for i := range records {
		t, err := records[i].DiagnosedOn()
		if err != nil {
			excluded++
			continue
		}
		counts[yearMonth{t.Year(), t.Month()}]++
	}

	keys := make([]yearMonth, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	series = make([]MonthCount, 0, len(keys))
	for _, k := range keys {
		series = append(series, MonthCount{
			Label: monthLabel(k),
			Key:   fmt.Sprintf("%04d-%02d", k.year, int(k.month)),
			Year:  k.year,
			Month: int(k.month),
			Count: counts[k],
		})
	}
	return series, excluded
}

// monthLabel formats e.g. "Nov 2023" from the English month table in package
// time, so the result does not depend on the host locale.
func monthLabel(k yearMonth) string {
	return k.month.String()[:3] + " " + strconv.Itoa(k.year)
}

// MostRecent returns up to n records with the latest diagnosis dates, newest
// first. Equal dates keep their input order. The result is a fresh slice;
// records is not reordered. Records without a parseable date are skipped and
// reported in excluded.
func MostRecent(records []patient.Record, n int) (recent []patient.Record, excluded int) {
	type dated struct {
		rec patient.Record
		at  time.Time
	}
	candidates := make([]dated, 0, len(records))
	for i := range records {
		t, err := records[i].DiagnosedOn()
		if err != nil {
			excluded++
			continue
		}
		candidates = append(candidates, dated{rec: records[i], at: t})
	}

	if n <= 0 {
		return []patient.Record{}, excluded
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].at.After(candidates[j].at)
	})
	if n > len(candidates) {
		n = len(candidates)
	}

	recent = make([]patient.Record, n)
	for i := 0; i < n; i++ {
		recent[i] = candidates[i].rec
	}
	return recent, excluded
}
