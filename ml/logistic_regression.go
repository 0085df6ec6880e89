package ml

import (
	"math"

	"github.com/pkg/errors"
)

type LogisticRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func (lr *LogisticRegression) PredictClass(features []float64) (int, error) {
	proba, err := lr.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	return classFromProbability(proba), nil
}

func (lr *LogisticRegression) PredictProbability(features []float64) (float64, error) {
	if err := checkWidth(features); err != nil {
		return 0, err
	}
	if len(lr.Coefficients) != len(features) {
		return 0, errors.New("coefficients and features size mismatch")
	}
	z := lr.Intercept
	for i, w := range lr.Coefficients {
		z += w * features[i]
	}
	return sigmoid(z), nil
}

func (lr *LogisticRegression) validate() error {
	if len(lr.Coefficients) != FeatureCount {
		return errors.Errorf("expected %d coefficients, got %d", FeatureCount, len(lr.Coefficients))
	}
	for _, w := range append([]float64{lr.Intercept}, lr.Coefficients...) {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.New("coefficients must be finite")
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
