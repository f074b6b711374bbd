// Package validator checks inbound reading payloads against the fixed
// five-field shape. Validation failures are ordinary results, not errors.
package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

const (
	FieldDatetime = "datetime"
	FieldLocation = "location"
	FieldPM1      = "pm1"
	FieldPM25     = "pm2_5"
	FieldPM10     = "pm10"
)

const (
	ProblemNotObject = "must be a JSON object"
	ProblemMissing   = "is required"
	ProblemString    = "must be a string"
	ProblemNumber    = "must be a number"
)

// Problem is one field-level validation failure. Field is empty when the
// payload as a whole is wrong.
type Problem struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

// Result is the outcome of Validate. Reading is only meaningful when Valid.
type Result struct {
	Reading  types.Reading
	Problems []Problem
}

func (r Result) Valid() bool { return len(r.Problems) == 0 }

var ErrEmptyBody = errors.New("request body is empty")

// Parse decodes body into an untyped JSON value with numbers kept as
// json.Number. Empty input, syntax errors and trailing data are errors.
func Parse(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode body: unexpected data after JSON value")
	}
	return v, nil
}

// Validate checks raw against the reading shape. Unknown fields are ignored.
func Validate(raw any) Result {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Result{Problems: []Problem{{Problem: ProblemNotObject}}}
	}

	var (
		res      Result
		problems []Problem
	)
	res.Reading.Datetime, problems = stringField(obj, FieldDatetime, problems)
	res.Reading.Location, problems = stringField(obj, FieldLocation, problems)
	res.Reading.PM1, problems = numberField(obj, FieldPM1, problems)
	res.Reading.PM25, problems = numberField(obj, FieldPM25, problems)
	res.Reading.PM10, problems = numberField(obj, FieldPM10, problems)

	if len(problems) > 0 {
		return Result{Problems: problems}
	}
	return res
}

func stringField(obj map[string]any, field string, problems []Problem) (string, []Problem) {
	v, ok := obj[field]
	if !ok {
		return "", append(problems, Problem{Field: field, Problem: ProblemMissing})
	}
	s, ok := v.(string)
	if !ok {
		return "", append(problems, Problem{Field: field, Problem: ProblemString})
	}
	return s, problems
}

func numberField(obj map[string]any, field string, problems []Problem) (float64, []Problem) {
	v, ok := obj[field]
	if !ok {
		return 0, append(problems, Problem{Field: field, Problem: ProblemMissing})
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, append(problems, Problem{Field: field, Problem: ProblemNumber})
	}
	return f, problems
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
