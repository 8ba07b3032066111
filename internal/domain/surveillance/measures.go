package surveillance

import (
	"errors"

	"github.com/migranthealth/tbdash/internal/domain/patient"
)

// ErrUnknownMeasure is returned when a measure id is not in the catalogue.
var ErrUnknownMeasure = errors.New("measure not found")

// MeasureDefinition describes one chart or table of the dashboard.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	eval func(records []patient.Record, recent int) (results interface{}, excluded int)
}

// PredefinedMeasures is the list of available dashboard measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "tb-type-distribution",
		Name:        "TB Type Distribution",
		Description: "Patients grouped into pulmonary and extrapulmonary TB",
		eval: func(records []patient.Record, _ int) (interface{}, int) {
			return ByClassification(records), 0
		},
	},
	{
		ID:          "drug-resistance-distribution",
		Name:        "Drug Resistance Distribution",
		Description: "Patients grouped by drug resistance status",
		eval: func(records []patient.Record, _ int) (interface{}, int) {
			return ByResistance(records), 0
		},
	},
	{
		ID:          "treatment-outcomes",
		Name:        "Treatment Outcomes",
		Description: "Patients grouped by current treatment outcome",
		eval: func(records []patient.Record, _ int) (interface{}, int) {
			return ByOutcome(records), 0
		},
	},
	{
		ID:          "cases-by-month",
		Name:        "Cases by Diagnosis Month",
		Description: "New diagnoses per calendar month in chronological order",
		eval: func(records []patient.Record, _ int) (interface{}, int) {
			return CasesByMonth(records)
		},
	},
	{
		ID:          "region-distribution",
		Name:        "Region Distribution",
		Description: "Patients grouped by district of residence",
		eval: func(records []patient.Record, _ int) (interface{}, int) {
			return ByRegion(records), 0
		},
	},
	{
		ID:          "recent-patients",
		Name:        "Recent Patients",
		Description: "Most recently diagnosed patients, newest first",
		eval: func(records []patient.Record, recent int) (interface{}, int) {
			return MostRecent(records, recent)
		},
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
