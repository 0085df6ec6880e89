package ml

import (
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// FeatureCount is the width of every vector handed to a Scaler or Classifier.
const FeatureCount = 11

// featureNames must match X.columns of the training frame, in order.
var featureNames = [FeatureCount]string{
	"CreditScore",
	"Gender",
	"Age",
	"Tenure",
	"Balance",
	"NumOfProducts",
	"HasCrCard",
	"IsActiveMember",
	"EstimatedSalary",
	"Geography_Germany",
	"Geography_Spain",
}

// FeatureNames returns a copy of the ordered feature schema.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

// MissingFeatures returns the schema names absent from record, in schema order.
func MissingFeatures(record map[string]interface{}) []string {
	var missing []string
	for _, name := range featureNames {
		if _, ok := record[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// FeatureVector reads record in schema order and coerces every value to float64.
// Keys outside the schema are ignored.
func FeatureVector(record map[string]interface{}) ([]float64, error) {
	vector := make([]float64, FeatureCount)
	for i, name := range featureNames {
		raw, ok := record[name]
		if !ok {
			return nil, errors.Errorf("missing feature %s", name)
		}
		value, err := CoerceFloat(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %s", name)
		}
		vector[i] = value
	}
	return vector, nil
}

// CoerceFloat converts JSON numbers, numeric strings and booleans to float64.
func CoerceFloat(raw interface{}) (float64, error) {
	if raw == nil {
		return 0, errors.New("value is null")
	}
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		// mapstructure reads "" as 0
		if s == "" {
			return 0, errors.New("value is empty")
		}
		raw = s
	}

	var value float64
	if err := mapstructure.WeakDecode(raw, &value); err != nil {
		return 0, errors.Wrapf(err, "cannot convert %v to a number", raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.Errorf("value %v is not finite", raw)
	}
	return value, nil
}

func checkWidth(x []float64) error {
	if len(x) != FeatureCount {
		return errors.Errorf("expected %d features, got %d", FeatureCount, len(x))
	}
	return nil
}
