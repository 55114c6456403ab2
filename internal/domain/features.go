package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// NumFeatures is the arity of every feature vector the models accept.
const NumFeatures = 9

// Feature indexes in training order.
const (
	FeatureTemperature = iota
	FeatureRH
	FeatureWs
	FeatureRain
	FeatureFFMC
	FeatureDMC
	FeatureISI
	FeatureClasses
	FeatureRegion
)

// FeatureNames is the column order the scaler and all models were fitted on.
// Artifact loading rejects any artifact whose feature_names differ from it.
var FeatureNames = [NumFeatures]string{
	"Temperature", "RH", "Ws", "Rain", "FFMC", "DMC", "ISI", "Classes", "Region",
}

// Bounds is the closed physical range accepted for a numeric field.
type Bounds struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the bounds.
func (b Bounds) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

// FieldSpec describes one input column.
type FieldSpec struct {
	Name        string
	Label       string
	Aliases     []string
	Bounds      Bounds
	Categorical bool // accepts exactly 0 or 1
}

// Schema lists every input column in training order.
var Schema = [NumFeatures]FieldSpec{
	{Name: "Temperature", Label: "Temperature (°C)", Bounds: Bounds{-60, 60}},
	{Name: "RH", Label: "Relative Humidity (%)", Aliases: []string{"RelativeHumidity", "Humidity"}, Bounds: Bounds{0, 100}},
	{Name: "Ws", Label: "Wind Speed (km/h)", Aliases: []string{"WindSpeed", "Wind"}, Bounds: Bounds{0, 200}},
	{Name: "Rain", Label: "Rain (mm)", Bounds: Bounds{0, 500}},
	{Name: "FFMC", Label: "Fine Fuel Moisture Code", Bounds: Bounds{0, 101}},
	{Name: "DMC", Label: "Duff Moisture Code", Bounds: Bounds{0, 1000}},
	{Name: "ISI", Label: "Initial Spread Index", Bounds: Bounds{0, 200}},
	{Name: "Classes", Label: "Fire class (0 = not fire, 1 = fire)", Aliases: []string{"FireClassFlag", "FireClass", "Class"}, Bounds: Bounds{0, 1}, Categorical: true},
	{Name: "Region", Label: "Region (0 = Bejaia, 1 = Sidi Bel-abbes)", Bounds: Bounds{0, 1}, Categorical: true},
}

// fieldIndex maps lowercased names and aliases to schema positions.
var fieldIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, f := range Schema {
		idx[strings.ToLower(f.Name)] = i
		for _, a := range f.Aliases {
			idx[strings.ToLower(a)] = i
		}
	}
	return idx
}()

// FeatureVector holds the nine validated model inputs.
type FeatureVector struct {
	Temperature float64 `json:"Temperature"`
	RH          float64 `json:"RH"`
	Ws          float64 `json:"Ws"`
	Rain        float64 `json:"Rain"`
	FFMC        float64 `json:"FFMC"`
	DMC         float64 `json:"DMC"`
	ISI         float64 `json:"ISI"`
	Classes     float64 `json:"Classes"`
	Region      float64 `json:"Region"`
}

// Values returns the vector in FeatureNames order.
func (v FeatureVector) Values() [NumFeatures]float64 {
	return [NumFeatures]float64{
		FeatureTemperature: v.Temperature,
		FeatureRH:          v.RH,
		FeatureWs:          v.Ws,
		FeatureRain:        v.Rain,
		FeatureFFMC:        v.FFMC,
		FeatureDMC:         v.DMC,
		FeatureISI:         v.ISI,
		FeatureClasses:     v.Classes,
		FeatureRegion:      v.Region,
	}
}

// FeatureVectorFromValues is the inverse of Values. It does not validate.
func FeatureVectorFromValues(vals [NumFeatures]float64) FeatureVector {
	return FeatureVector{
		Temperature: vals[FeatureTemperature],
		RH:          vals[FeatureRH],
		Ws:          vals[FeatureWs],
		Rain:        vals[FeatureRain],
		FFMC:        vals[FeatureFFMC],
		DMC:         vals[FeatureDMC],
		ISI:         vals[FeatureISI],
		Classes:     vals[FeatureClasses],
		Region:      vals[FeatureRegion],
	}
}

// Validate checks an already-numeric vector against the schema bounds.
func (v FeatureVector) Validate() error {
	var problems []FieldError
	for i, val := range v.Values() {
		if fe, ok := checkValue(Schema[i], val); !ok {
			problems = append(problems, fe)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}

// NormalizedVector is a FeatureVector after scaling, in FeatureNames order.
type NormalizedVector [NumFeatures]float64

// DefaultInputs returns the form defaults used when a caller supplies no value.
func DefaultInputs() FeatureVector {
	return FeatureVector{
		Temperature: 20,
		RH:          50,
		Ws:          10,
		Rain:        0,
		FFMC:        80,
		DMC:         20,
		ISI:         5,
		Classes:     0,
		Region:      0,
	}
}

// ParseFeatures builds a validated FeatureVector from loosely typed inputs,
// e.g. decoded JSON or form values. Keys are matched case-insensitively
// against the canonical names and their aliases. Every problem found is
// reported in a single *ValidationError.
func ParseFeatures(raw map[string]any) (FeatureVector, error) {
	var (
		vals     [NumFeatures]float64
		seen     [NumFeatures]string
		problems []FieldError
	)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		i, ok := fieldIndex[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			problems = append(problems, FieldError{Field: key, Reason: "unknown field"})
			continue
		}
		spec := Schema[i]
		if seen[i] != "" {
			problems = append(problems, FieldError{Field: spec.Name, Reason: fmt.Sprintf("given more than once (%q and %q)", seen[i], key)})
			continue
		}
		seen[i] = key

		v, reason := toFloat(raw[key])
		if reason != "" {
			problems = append(problems, FieldError{Field: spec.Name, Reason: reason})
			continue
		}
		if fe, ok := checkValue(spec, v); !ok {
			problems = append(problems, fe)
			continue
		}
		vals[i] = v
	}

	for i, spec := range Schema {
		if seen[i] == "" {
			problems = append(problems, FieldError{Field: spec.Name, Reason: "is required"})
		}
	}

	if len(problems) > 0 {
		return FeatureVector{}, &ValidationError{Fields: problems}
	}
	return FeatureVectorFromValues(vals), nil
}

func checkValue(spec FieldSpec, v float64) (FieldError, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return FieldError{Field: spec.Name, Reason: "must be a finite number"}, false
	}
	if spec.Categorical {
		if v != 0 && v != 1 {
			return FieldError{Field: spec.Name, Reason: fmt.Sprintf("must be 0 or 1, got %g", v)}, false
		}
		return FieldError{}, true
	}
	if !spec.Bounds.Contains(v) {
		return FieldError{Field: spec.Name, Reason: fmt.Sprintf("must be between %g and %g, got %g", spec.Bounds.Min, spec.Bounds.Max, v)}, false
	}
	return FieldError{}, true
}

// toFloat converts a decoded value to float64. A non-empty reason means the
// value could not be used; it is never silently coerced to zero.
func toFloat(v any) (float64, string) {
	switch n := v.(type) {
	case nil:
		return 0, "is required"
	case float64:
		return n, ""
	case float32:
		return float64(n), ""
	case int:
		return float64(n), ""
	case int8:
		return float64(n), ""
	case int16:
		return float64(n), ""
	case int32:
		return float64(n), ""
	case int64:
		return float64(n), ""
	case uint:
		return float64(n), ""
	case uint8:
		return float64(n), ""
	case uint16:
		return float64(n), ""
	case uint32:
		return float64(n), ""
	case uint64:
		return float64(n), ""
	case json.Number:
		return parseNumeric(string(n))
	case string:
		return parseNumeric(n)
	default:
		return 0, fmt.Sprintf("must be numeric, got %T", v)
	}
}

func parseNumeric(s string) (float64, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "is required"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("must be numeric, got %q", s)
	}
	return f, ""
}
