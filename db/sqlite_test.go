package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Summary: map[string]float64{"nb_clients": 10000, "taux_churn": 20.37},
		Metrics: []ModelMetric{
			{Name: "Random Forest", Stage: StageBaseline, Accuracy: 0.86, F1: 0.58, RocAUC: 0.90, Position: 2},
			{Name: "Logistic Regression", Stage: StageBaseline, Accuracy: 0.81, F1: 0.33, RocAUC: 0.77, Position: 1},
			{Name: "Random Forest (Tuned)", Stage: StageBest, Accuracy: 0.87, F1: 0.61, RocAUC: 0.86},
		},
		Features: []FeatureScore{
			{Feature: "NumOfProducts", Score: 18.7, Rank: 2},
			{Feature: "Age", Score: 25.3, Rank: 1},
		},
	}
}

func TestReportStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "report.db")

	writer, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, writer.SaveReport(ctx, sampleReport()))
	require.NoError(t, writer.Close())

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	report, err := store.LoadReport(ctx)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, report.Summary["nb_clients"])
	require.Len(t, report.Metrics, 3)
	assert.Equal(t, "Logistic Regression", report.Metrics[0].Name)
	assert.Equal(t, "Random Forest", report.Metrics[1].Name)
	assert.Equal(t, StageBest, report.Metrics[2].Stage)
	require.Len(t, report.Features, 2)
	assert.Equal(t, "Age", report.Features[0].Feature)
}

func TestSaveReportReplacesPreviousRows(t *testing.T) {
	ctx := context.Background()
	store, err := Create(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveReport(ctx, sampleReport()))
	require.NoError(t, store.SaveReport(ctx, &Report{Summary: map[string]float64{"nb_clients": 5}}))

	report, err := store.LoadReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"nb_clients": 5}, report.Summary)
	assert.Empty(t, report.Metrics)
	assert.Empty(t, report.Features)
}

func TestOpenIsReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "report.db")
	writer, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.SaveReport(ctx, sampleReport()))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"))
	assert.Error(t, err)
}

func TestOpenPathWithURIDelimiters(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "eval?run=1#100%")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "report.db")

	writer, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, writer.SaveReport(ctx, sampleReport()))
	require.NoError(t, writer.Close())

	_, err = os.Stat(path)
	require.NoError(t, err, "database must be created at the literal path")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	report, err := store.LoadReport(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Metrics, 3)
}
