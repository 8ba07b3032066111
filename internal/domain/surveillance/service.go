package surveillance

import (
	"time"

	"github.com/google/uuid"

	"github.com/migranthealth/tbdash/internal/domain/patient"
)

// Roster exposes the current immutable patient snapshot.
type Roster interface {
	Snapshot() *patient.Snapshot
}

// Exclusions counts records left out of individual aggregations because a
// field they need is missing or malformed.
type Exclusions struct {
	CasesByMonth   int `json:"cases_by_month"`
	RecentPatients int `json:"recent_patients"`
}

// Report is the complete dashboard payload.
type Report struct {
	ID                uuid.UUID        `json:"id"`
	GeneratedAt       time.Time        `json:"generated_at"`
	Source            string           `json:"source"`
	LoadedAt          time.Time        `json:"loaded_at"`
	Metrics           Metrics          `json:"metrics"`
	TBTypes           []CategoryCount  `json:"tb_types"`
	DrugResistance    []CategoryCount  `json:"drug_resistance"`
	TreatmentOutcomes []CategoryCount  `json:"treatment_outcomes"`
	Regions           []CategoryCount  `json:"regions"`
	CasesByMonth      []MonthCount     `json:"cases_by_month"`
	RecentPatients    []patient.Record `json:"recent_patients"`
	Excluded          Exclusions       `json:"excluded"`
	DataIssues        int              `json:"data_issues"`
}

// MeasureReport holds the result of evaluating a single measure.
type MeasureReport struct {
	MeasureID   string      `json:"measure_id"`
	MeasureName string      `json:"measure_name"`
	GeneratedAt time.Time   `json:"generated_at"`
	Results     interface{} `json:"results"`
	Excluded    int         `json:"excluded"`
}

type Service struct {
	roster      Roster
	recentLimit int
	now         func() time.Time
}

func NewService(roster Roster, recentLimit int) *Service {
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &Service{roster: roster, recentLimit: recentLimit, now: time.Now}
}

// RecentLimit is the default size of the recent-patients table.
func (s *Service) RecentLimit() int { return s.recentLimit }

// Dashboard computes every aggregate over one snapshot. A non-positive
// recent uses the configured default.
func (s *Service) Dashboard(recent int) *Report {
	if recent <= 0 {
		recent = s.recentLimit
	}
	snap := s.roster.Snapshot()
	records := snap.Records

	months, monthsExcluded := CasesByMonth(records)
	latest, latestExcluded := MostRecent(records, recent)

	return &Report{
		ID:                uuid.New(),
		GeneratedAt:       s.now().UTC(),
		Source:            snap.Source,
		LoadedAt:          snap.LoadedAt,
		Metrics:           ComputeMetrics(records),
		TBTypes:           ByClassification(records),
		DrugResistance:    ByResistance(records),
		TreatmentOutcomes: ByOutcome(records),
		Regions:           ByRegion(records),
		CasesByMonth:      months,
		RecentPatients:    latest,
		Excluded: Exclusions{
			CasesByMonth:   monthsExcluded,
			RecentPatients: latestExcluded,
		},
		DataIssues: len(snap.Issues),
	}
}

func (s *Service) Metrics() Metrics {
	return ComputeMetrics(s.roster.Snapshot().Records)
}

// EvaluateMeasure runs one catalogue measure against the current snapshot.
func (s *Service) EvaluateMeasure(id string, recent int) (*MeasureReport, error) {
	m := FindMeasure(id)
	if m == nil {
		return nil, ErrUnknownMeasure
	}
	if recent <= 0 {
		recent = s.recentLimit
	}
	results, excluded := m.eval(s.roster.Snapshot().Records, recent)
	return &MeasureReport{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: s.now().UTC(),
		Results:     results,
		Excluded:    excluded,
	}, nil
}
