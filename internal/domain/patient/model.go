package patient

import (
	"fmt"
	"strings"
	"time"
)

// Canonical category values used by the dashboard metrics.
const (
	OutcomeCured       = "Cured"
	OutcomeOnTreatment = "On treatment"
	DrugSensitive      = "Drug-sensitive"
)

// dateLayouts are tried in order when parsing diagnosis_date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Record is a single patient entry of the surveillance roster. Only the fields
// below are read by the aggregators; any other keys in the source document are
// ignored.
type Record struct {
	ID               string `json:"patient_id" db:"patient_id" validate:"required"`
	Name             string `json:"name,omitempty" db:"name"`
	Classification   string `json:"tb_type" db:"tb_type" validate:"required"`
	ResistanceStatus string `json:"drug_resistance" db:"drug_resistance" validate:"required"`
	OutcomeStatus    string `json:"treatment_outcome" db:"treatment_outcome" validate:"required"`
	DiagnosisDate    string `json:"diagnosis_date" db:"diagnosis_date" validate:"required,diagnosisdate"`
	Region           string `json:"region,omitempty" db:"region"`
}

// DiagnosedOn parses DiagnosisDate. An explicit UTC offset is kept so the
// calendar date stays the one written in the record.
func (r *Record) DiagnosedOn() (time.Time, error) {
	return ParseDate(r.DiagnosisDate)
}

// ParseDate parses a diagnosis date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("diagnosis_date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("diagnosis_date %q is not a valid date", s)
}

// IsDrugResistant reports whether the record carries any resistance other
// than the drug-sensitive baseline. A blank status is not counted.
func (r *Record) IsDrugResistant() bool {
	s := strings.TrimSpace(r.ResistanceStatus)
	return s != "" && s != DrugSensitive
}
