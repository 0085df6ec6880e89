package ml

// Classifier is a fitted binary model over FeatureCount-wide scaled vectors.
type Classifier interface {
	PredictClass(x []float64) (int, error)
	// PredictProbability returns the estimated probability of class 1.
	PredictProbability(x []float64) (float64, error)
}

// Scaler is the preprocessing transform fitted alongside the classifier.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

const (
	ModelTypeDecisionTree       = "decision_tree"
	ModelTypeRandomForest       = "random_forest"
	ModelTypeLogisticRegression = "logistic_regression"

	ScalerTypeStandard = "standard"
	ScalerTypeMinMax   = "minmax"
)
