// Package dashboard serves the static statistics shown on the frontend cards and charts.
package dashboard

import "churnapi/ml"

// Snapshot keeps the JSON keys the frontend was built against.
type Snapshot struct {
	Global         GlobalStats    `json:"global" yaml:"global"`
	ModelsBaseline []ModelMetrics `json:"models_baseline" yaml:"models_baseline"`
	BestModel      ModelMetrics   `json:"best_model" yaml:"best_model"`
	TopFeatures    []FeatureScore `json:"top_features" yaml:"top_features"`
}

type GlobalStats struct {
	Customers int `json:"nb_clients" yaml:"nb_clients"`
	Features  int `json:"nb_features" yaml:"nb_features"`
	// ChurnRate is a percentage.
	ChurnRate float64 `json:"taux_churn" yaml:"taux_churn"`
}

type ModelMetrics struct {
	Name     string  `json:"nom" yaml:"nom"`
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
	F1       float64 `json:"f1" yaml:"f1"`
	RocAUC   float64 `json:"roc_auc" yaml:"roc_auc"`
}

type FeatureScore struct {
	Feature string  `json:"feature" yaml:"feature"`
	Score   float64 `json:"score" yaml:"score"`
}

// Default is the evaluation summary of the offline notebook run.
func Default() Snapshot {
	return Snapshot{
		Global: GlobalStats{
			Customers: 10000,
			Features:  ml.FeatureCount,
			ChurnRate: 20.35,
		},
		ModelsBaseline: []ModelMetrics{
			{Name: "Logistic Regression", Accuracy: 0.84, F1: 0.56, RocAUC: 0.88},
			{Name: "Random Forest", Accuracy: 0.86, F1: 0.58, RocAUC: 0.90},
			{Name: "XGBoost", Accuracy: 0.87, F1: 0.59, RocAUC: 0.91},
		},
		BestModel: ModelMetrics{Name: "Random Forest (Tuned)", Accuracy: 0.89, F1: 0.60, RocAUC: 0.93},
		TopFeatures: []FeatureScore{
			{Feature: "Age", Score: 25.3},
			{Feature: "NumOfProducts", Score: 18.7},
			{Feature: "IsActiveMember", Score: 16.2},
			{Feature: "Balance", Score: 14.9},
			{Feature: "CreditScore", Score: 12.4},
		},
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.ModelsBaseline = append([]ModelMetrics(nil), s.ModelsBaseline...)
	out.TopFeatures = append([]FeatureScore(nil), s.TopFeatures...)
	return out
}

// Provider hands out the same snapshot for the whole process lifetime.
type Provider struct {
	snapshot Snapshot
}

func NewProvider(snapshot Snapshot) *Provider {
	return &Provider{snapshot: snapshot.Clone()}
}

// Stats returns a copy so callers cannot alter what later calls see.
func (p *Provider) Stats() Snapshot {
	return p.snapshot.Clone()
}
