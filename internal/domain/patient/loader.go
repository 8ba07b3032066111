package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadResult is a decoded roster together with the data-quality issues found
// while checking it.
type LoadResult struct {
	Records []Record
	Issues  []Issue
}

// Skipped returns the number of distinct records that have at least one issue.
func (lr *LoadResult) Skipped() int {
	seen := make(map[int]struct{}, len(lr.Issues))
	for _, is := range lr.Issues {
		seen[is.Index] = struct{}{}
	}
	return len(seen)
}

// LoadJSON decodes a JSON array of patient records. A value of the wrong JSON
// type fails the whole load with a *FieldError naming the record and field;
// missing values or bad dates are only reported as issues.
func LoadJSON(r io.Reader) (*LoadResult, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode patient roster: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fieldError(i, msg, err)
		}
		records = append(records, rec)
	}

	return &LoadResult{Records: records, Issues: CheckAll(records)}, nil
}

// LoadFile opens path and decodes it with LoadJSON.
func LoadFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open patient roster: %w", err)
	}
	defer f.Close()
	return LoadJSON(f)
}

func fieldError(idx int, msg json.RawMessage, err error) error {
	fe := &FieldError{Index: idx, Err: err}

	var probe map[string]json.RawMessage
	if json.Unmarshal(msg, &probe) == nil {
		var id string
		if json.Unmarshal(probe["patient_id"], &id) == nil {
			fe.RecordID = id
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		fe.Field = typeErr.Field
		fe.Err = fmt.Errorf("expected %s, got %s", typeErr.Type, typeErr.Value)
	}
	return fe
}
