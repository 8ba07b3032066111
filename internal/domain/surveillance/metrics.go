package surveillance

import (
	"strings"

	"github.com/migranthealth/tbdash/internal/domain/patient"
)

// Metrics are the headline figures of the dashboard.
type Metrics struct {
	TotalPatients int `json:"total_patients"`
	Cured         int `json:"cured"`
	OnTreatment   int `json:"on_treatment"`
	DrugResistant int `json:"drug_resistant"`
}

// Total returns the number of records in the roster.
func Total(records []patient.Record) int {
	return len(records)
}

// CountWhere returns how many records satisfy pred.
func CountWhere(records []patient.Record, pred func(r *patient.Record) bool) int {
	n := 0
	for i := range records {
		if pred(&records[i]) {
			n++
		}
	}
	return n
}

// CountOutcome counts records whose outcome equals outcome exactly.
func CountOutcome(records []patient.Record, outcome string) int {
	return CountWhere(records, func(r *patient.Record) bool {
		return strings.TrimSpace(r.OutcomeStatus) == outcome
	})
}

// CountDrugResistant counts records with any resistance other than
// drug-sensitive. Records with a blank resistance status are not counted.
func CountDrugResistant(records []patient.Record) int {
	return CountWhere(records, (*patient.Record).IsDrugResistant)
}

func ComputeMetrics(records []patient.Record) Metrics {
	return Metrics{
		TotalPatients: Total(records),
		Cured:         CountOutcome(records, patient.OutcomeCured),
		OnTreatment:   CountOutcome(records, patient.OutcomeOnTreatment),
		DrugResistant: CountDrugResistant(records),
	}
}
