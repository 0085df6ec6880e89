package churn

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnapi/ml"
)

type fakeScaler struct {
	calls int
	err   error
	short bool
}

func (f *fakeScaler) Transform(x []float64) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.short {
		return x[:1], nil
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / 100
	}
	return out, nil
}

type fakeModel struct {
	class       int
	probability float64
	err         error
	seen        []float64
}

func (f *fakeModel) PredictClass(x []float64) (int, error) {
	f.seen = append([]float64(nil), x...)
	return f.class, f.err
}

func (f *fakeModel) PredictProbability(x []float64) (float64, error) {
	return f.probability, f.err
}

func sampleRecord() map[string]interface{} {
	return map[string]interface{}{
		"CreditScore":       650.0,
		"Gender":            0.0,
		"Age":               40.0,
		"Tenure":            5.0,
		"Balance":           60000.0,
		"NumOfProducts":     2.0,
		"HasCrCard":         1.0,
		"IsActiveMember":    1.0,
		"EstimatedSalary":   80000.0,
		"Geography_Germany": 0.0,
		"Geography_Spain":   1.0,
	}
}

func newTestService(t *testing.T, model ml.Classifier, scaler ml.Scaler, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(NewArtifacts(model, scaler), opts...)
	require.NoError(t, err)
	return svc
}

func TestPredictLabels(t *testing.T) {
	tests := []struct {
		class int
		proba float64
		label string
	}{
		{class: 1, proba: 0.72, label: LabelChurn},
		{class: 0, proba: 0.13, label: LabelNoChurn},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			svc := newTestService(t, &fakeModel{class: tc.class, probability: tc.proba}, &fakeScaler{})
			result, err := svc.Predict(sampleRecord())
			require.NoError(t, err)
			assert.Equal(t, tc.class, result.Prediction)
			assert.Equal(t, tc.label, result.Label)
			assert.Equal(t, tc.proba, result.Probability)
		})
	}
}

func TestPredictUsesSchemaOrderAndScaledVector(t *testing.T) {
	model := &fakeModel{class: 0, probability: 0.2}
	svc := newTestService(t, model, &fakeScaler{})

	record := sampleRecord()
	record["Surname"] = "Onio"
	record["RowNumber"] = 17.0

	_, err := svc.Predict(record)
	require.NoError(t, err)
	assert.Equal(t, []float64{6.5, 0, 0.4, 0.05, 600, 0.02, 0.01, 0.01, 800, 0, 0.01}, model.seen)
}

func TestPredictMissingFeatures(t *testing.T) {
	scaler := &fakeScaler{}
	svc := newTestService(t, &fakeModel{}, scaler)

	record := sampleRecord()
	delete(record, "Age")
	delete(record, "Geography_Spain")
	delete(record, "CreditScore")
	for i := 0; i < 20; i++ {
		record["extra"+string(rune('a'+i))] = i
	}

	_, err := svc.Predict(record)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, []string{"CreditScore", "Age", "Geography_Spain"}, MissingOf(err))
	assert.Equal(t, "missing features: CreditScore, Age, Geography_Spain", err.Error())
	assert.Zero(t, scaler.calls, "validation must happen before any artifact is used")
}

func TestPredictMissingAge(t *testing.T) {
	svc := newTestService(t, &fakeModel{}, &fakeScaler{})
	record := sampleRecord()
	delete(record, "Age")

	_, err := svc.Predict(record)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Contains(t, err.Error(), "Age")
}

func TestPredictUnavailable(t *testing.T) {
	tests := []struct {
		name      string
		artifacts Artifacts
	}{
		{name: "model missing", artifacts: NewArtifacts(nil, &fakeScaler{})},
		{name: "scaler missing", artifacts: NewArtifacts(&fakeModel{}, nil)},
		{name: "load failure", artifacts: Unavailable{Cause: errors.New("boom")}},
		{name: "nil artifacts", artifacts: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewService(tc.artifacts)
			require.NoError(t, err)
			assert.False(t, svc.Ready())

			for _, record := range []map[string]interface{}{sampleRecord(), {}} {
				_, err := svc.Predict(record)
				require.Error(t, err)
				assert.Equal(t, KindUnavailable, KindOf(err))
				assert.Equal(t, "model or scaler not loaded", err.Error())
			}
		})
	}
}

func TestPredictInternalFailures(t *testing.T) {
	tests := []struct {
		name   string
		model  *fakeModel
		scaler *fakeScaler
		mutate func(map[string]interface{})
	}{
		{name: "uncoercible value", model: &fakeModel{}, scaler: &fakeScaler{}, mutate: func(r map[string]interface{}) { r["Balance"] = "lots" }},
		{name: "null value", model: &fakeModel{}, scaler: &fakeScaler{}, mutate: func(r map[string]interface{}) { r["Tenure"] = nil }},
		{name: "scaler error", model: &fakeModel{}, scaler: &fakeScaler{err: errors.New("bad")}},
		{name: "scaler width", model: &fakeModel{}, scaler: &fakeScaler{short: true}},
		{name: "model error", model: &fakeModel{err: errors.New("bad")}, scaler: &fakeScaler{}},
		{name: "non binary class", model: &fakeModel{class: 2, probability: 0.4}, scaler: &fakeScaler{}},
		{name: "probability out of range", model: &fakeModel{class: 1, probability: 1.5}, scaler: &fakeScaler{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, tc.model, tc.scaler)
			record := sampleRecord()
			if tc.mutate != nil {
				tc.mutate(record)
			}
			result, err := svc.Predict(record)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, KindInternal, KindOf(err))
		})
	}
}

func TestPredictCache(t *testing.T) {
	scaler := &fakeScaler{}
	svc := newTestService(t, &fakeModel{class: 1, probability: 0.9}, scaler, WithCache(8))

	first, err := svc.Predict(sampleRecord())
	require.NoError(t, err)
	second, err := svc.Predict(sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, scaler.calls)

	// results handed out are copies
	first.Label = "tampered"
	third, err := svc.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, LabelChurn, third.Label)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Nil(t, MissingOf(errors.New("plain")))
	assert.Equal(t, KindUnavailable, KindOf(errors.Wrap(unavailable(nil), "wrapped")))
}

const forestArtifact = `{
  "type": "random_forest",
  "classes": [0, 1],
  "n_features": 11,
  "trees": [
    {"nodes": [
      {"feature_idx": 2, "threshold": 0.0, "left_child": 1, "right_child": 2},
      {"is_leaf": true, "value": [85, 15]},
      {"feature_idx": 7, "threshold": 0.0, "left_child": 3, "right_child": 4},
      {"is_leaf": true, "value": [30, 70]},
      {"is_leaf": true, "value": [65, 35]}
    ]},
    {"nodes": [
      {"feature_idx": 5, "threshold": 0.9, "left_child": 1, "right_child": 2},
      {"is_leaf": true, "value": [70, 30]},
      {"is_leaf": true, "value": [10, 90]}
    ]}
  ]
}`

func writeArtifacts(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "random_forest_tuned.json")
	require.NoError(t, os.WriteFile(modelPath, []byte(forestArtifact), 0o600))

	scaler := map[string]interface{}{
		"type":          "standard",
		"feature_names": ml.FeatureNames(),
		"mean":          []float64{650, 0.55, 38.9, 5, 76485, 1.53, 0.71, 0.52, 100090, 0.25, 0.25},
		"scale":         []float64{96.6, 0.5, 10.5, 2.9, 62394, 0.58, 0.46, 0.5, 57507, 0.43, 0.43},
	}
	payload, err := json.Marshal(scaler)
	require.NoError(t, err)
	scalerPath := filepath.Join(dir, "scaler.json")
	require.NoError(t, os.WriteFile(scalerPath, payload, 0o600))
	return modelPath, scalerPath
}

func TestLoadAndPredictWithRealArtifacts(t *testing.T) {
	modelPath, scalerPath := writeArtifacts(t)
	artifacts := Load(modelPath, scalerPath)
	require.IsType(t, Ready{}, artifacts)

	svc, err := NewService(artifacts)
	require.NoError(t, err)
	require.True(t, svc.Ready())

	result, err := svc.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, result.Prediction)
	assert.Equal(t, result.Prediction == 1, result.Label == LabelChurn)
	assert.GreaterOrEqual(t, result.Probability, 0.0)
	assert.LessOrEqual(t, result.Probability, 1.0)

	again, err := svc.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, *result, *again)
}

func TestPredictPropertiesOverManyRecords(t *testing.T) {
	modelPath, scalerPath := writeArtifacts(t)
	svc, err := NewService(Load(modelPath, scalerPath))
	require.NoError(t, err)

	for age := 18.0; age <= 90; age += 6 {
		for products := 1.0; products <= 4; products++ {
			for _, active := range []float64{0, 1} {
				record := sampleRecord()
				record["Age"] = age
				record["NumOfProducts"] = products
				record["IsActiveMember"] = active

				result, err := svc.Predict(record)
				require.NoError(t, err)
				assert.Equal(t, result.Prediction == 1, result.Label == LabelChurn)
				assert.True(t, result.Probability >= 0 && result.Probability <= 1)
			}
		}
	}
}

func TestPredictIgnoresKeyOrder(t *testing.T) {
	modelPath, scalerPath := writeArtifacts(t)
	svc, err := NewService(Load(modelPath, scalerPath))
	require.NoError(t, err)

	var forward, backward map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"CreditScore":600,"Gender":1,"Age":58,"Tenure":2,"Balance":120000,"NumOfProducts":1,"HasCrCard":0,"IsActiveMember":0,"EstimatedSalary":50000,"Geography_Germany":1,"Geography_Spain":0}`), &forward))
	require.NoError(t, json.Unmarshal([]byte(`{"Geography_Spain":0,"Geography_Germany":1,"EstimatedSalary":50000,"IsActiveMember":0,"HasCrCard":0,"NumOfProducts":1,"Balance":120000,"Tenure":2,"Age":58,"Gender":1,"CreditScore":600}`), &backward))

	a, err := svc.Predict(forward)
	require.NoError(t, err)
	b, err := svc.Predict(backward)
	require.NoError(t, err)
	assert.Equal(t, *a, *b)
}

func TestLoadReportsEachMissingArtifact(t *testing.T) {
	modelPath, scalerPath := writeArtifacts(t)
	dir := t.TempDir()

	artifacts := Load(filepath.Join(dir, "absent.json"), scalerPath)
	unavailable, ok := artifacts.(Unavailable)
	require.True(t, ok)
	assert.Contains(t, unavailable.Cause.Error(), ArtifactModel)
	assert.NotContains(t, unavailable.Cause.Error(), ArtifactScaler+":")

	artifacts = Load(modelPath, filepath.Join(dir, "absent.json"))
	unavailable, ok = artifacts.(Unavailable)
	require.True(t, ok)
	assert.Contains(t, unavailable.Cause.Error(), ArtifactScaler)

	artifacts = Load(filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"))
	unavailable, ok = artifacts.(Unavailable)
	require.True(t, ok)
	assert.Contains(t, unavailable.Cause.Error(), "model:")
	assert.Contains(t, unavailable.Cause.Error(), "scaler:")
}
