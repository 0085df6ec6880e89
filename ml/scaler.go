package ml

import (
	"math"

	"github.com/pkg/errors"
)

// StandardScaler applies (x - mean) / scale per column.
type StandardScaler struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if err := checkWidth(x); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x[i] - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) != FeatureCount || len(s.Scale) != FeatureCount {
		return errors.Errorf("expected %d mean and scale values, got %d and %d", FeatureCount, len(s.Mean), len(s.Scale))
	}
	if err := checkFinite(s.Mean, s.Scale); err != nil {
		return err
	}
	return checkFeatureNames(s.FeatureNames)
}

// MinMaxScaler maps every column onto [0, 1] using the fitted bounds.
type MinMaxScaler struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Min          []float64 `json:"min"`
	Max          []float64 `json:"max"`
}

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if err := checkWidth(x); err != nil {
		return nil, err
	}
	return NormalizeVector(x, s.Min, s.Max)
}

func (s *MinMaxScaler) validate() error {
	if len(s.Min) != FeatureCount || len(s.Max) != FeatureCount {
		return errors.Errorf("expected %d min and max values, got %d and %d", FeatureCount, len(s.Min), len(s.Max))
	}
	if err := checkFinite(s.Min, s.Max); err != nil {
		return err
	}
	return checkFeatureNames(s.FeatureNames)
}

func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, errors.New("values/mins/maxs length mismatch")
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}

// checkFeatureNames accepts an empty list; otherwise it must equal the schema exactly.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != FeatureCount {
		return errors.Errorf("scaler was fitted on %d features, expected %d", len(names), FeatureCount)
	}
	for i, name := range names {
		if name != featureNames[i] {
			return errors.Errorf("scaler column %d is %s, expected %s", i, name, featureNames[i])
		}
	}
	return nil
}

func checkFinite(columns ...[]float64) error {
	for _, column := range columns {
		for _, v := range column {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.New("scaler parameters must be finite")
			}
		}
	}
	return nil
}
