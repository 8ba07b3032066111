package patient

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Issue describes a data-quality problem on one record. Records with issues
// stay in the collection; each aggregator skips or buckets them on its own.
type Issue struct {
	RecordID string `json:"patient_id,omitempty"`
	Index    int    `json:"index"`
	Field    string `json:"field"`
	Problem  string `json:"problem"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("diagnosisdate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// Check validates a single record and returns one Issue per failing field.
func Check(idx int, r *Record) []Issue {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{RecordID: r.ID, Index: idx, Field: "", Problem: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			RecordID: r.ID,
			Index:    idx,
			Field:    fe.Field(),
			Problem:  problemFor(fe.Tag()),
		})
	}
	return issues
}

// CheckAll validates every record of the collection.
func CheckAll(records []Record) []Issue {
	var issues []Issue
	for i := range records {
		issues = append(issues, Check(i, &records[i])...)
	}
	return issues
}

func problemFor(tag string) string {
	switch tag {
	case "required":
		return "missing"
	case "diagnosisdate":
		return "unparseable date"
	default:
		return tag
	}
}
