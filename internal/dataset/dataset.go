// Package dataset ships the sample migrant-worker TB roster with the binary.
package dataset

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/migranthealth/tbdash/internal/domain/patient"
)

//go:embed patients.json
var patientsJSON []byte

// Source serves the embedded roster as a patient.Source.
type Source struct{}

func (Source) Name() string { return "embedded" }

func (Source) Load(_ context.Context) (*patient.LoadResult, error) {
	return patient.LoadJSON(bytes.NewReader(patientsJSON))
}
