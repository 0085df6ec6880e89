package dashboard

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"churnapi/config"
	"churnapi/db"
	"churnapi/logger"
	"churnapi/ml"
)

// Load builds the snapshot from the configured source. nb_features always
// reflects the served schema.
func Load(ctx context.Context, cfg config.DashboardConfig) (Snapshot, error) {
	var (
		snapshot Snapshot
		err      error
	)
	switch cfg.Source {
	case config.DashboardSourceBuiltin, "":
		snapshot = Default()
	case config.DashboardSourceFile:
		snapshot, err = LoadFile(cfg.Path)
	case config.DashboardSourceSQLite:
		snapshot, err = LoadSQLite(ctx, cfg.Path)
	default:
		err = errors.Errorf("unknown dashboard source %q", cfg.Source)
	}
	if err != nil {
		return Snapshot{}, err
	}
	snapshot.Global.Features = ml.FeatureCount
	return snapshot, nil
}

// LoadOrDefault never fails: a broken source is logged and the builtin snapshot is served.
func LoadOrDefault(ctx context.Context, cfg config.DashboardConfig) Snapshot {
	snapshot, err := Load(ctx, cfg)
	if err != nil {
		logger.Warnf("dashboard source %s unavailable, serving builtin statistics: %v", cfg.Source, err)
		return Default()
	}
	logger.Infof("dashboard statistics loaded from %s source", cfg.Source)
	return snapshot
}

// LoadFile reads a yaml snapshot.
func LoadFile(path string) (Snapshot, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "read dashboard file")
	}
	var snapshot Snapshot
	if err := yaml.UnmarshalStrict(payload, &snapshot); err != nil {
		return Snapshot{}, errors.Wrap(err, "decode dashboard file")
	}
	return snapshot, nil
}

// LoadSQLite reads the evaluation report database.
func LoadSQLite(ctx context.Context, path string) (Snapshot, error) {
	store, err := db.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer store.Close()

	report, err := store.LoadReport(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return FromReport(report)
}

// FromReport maps report rows onto the snapshot layout. Exactly one best model is required.
func FromReport(report *db.Report) (Snapshot, error) {
	snapshot := Snapshot{
		Global: GlobalStats{
			Customers: int(report.Summary["nb_clients"]),
			ChurnRate: report.Summary["taux_churn"],
		},
		ModelsBaseline: []ModelMetrics{},
		TopFeatures:    []FeatureScore{},
	}

	best := 0
	for _, m := range report.Metrics {
		metrics := ModelMetrics{Name: m.Name, Accuracy: m.Accuracy, F1: m.F1, RocAUC: m.RocAUC}
		switch m.Stage {
		case db.StageBaseline:
			snapshot.ModelsBaseline = append(snapshot.ModelsBaseline, metrics)
		case db.StageBest:
			snapshot.BestModel = metrics
			best++
		}
	}
	if best != 1 {
		return Snapshot{}, errors.Errorf("report has %d best models, expected 1", best)
	}

	for _, f := range report.Features {
		snapshot.TopFeatures = append(snapshot.TopFeatures, FeatureScore{Feature: f.Feature, Score: f.Score})
	}
	return snapshot, nil
}

// ToReport is the inverse of FromReport, used to seed a report database.
func ToReport(snapshot Snapshot) *db.Report {
	report := &db.Report{
		Summary: map[string]float64{
			"nb_clients": float64(snapshot.Global.Customers),
			"taux_churn": snapshot.Global.ChurnRate,
		},
	}
	for i, m := range snapshot.ModelsBaseline {
		report.Metrics = append(report.Metrics, db.ModelMetric{
			Name: m.Name, Stage: db.StageBaseline, Accuracy: m.Accuracy, F1: m.F1, RocAUC: m.RocAUC, Position: i + 1,
		})
	}
	best := snapshot.BestModel
	report.Metrics = append(report.Metrics, db.ModelMetric{
		Name: best.Name, Stage: db.StageBest, Accuracy: best.Accuracy, F1: best.F1, RocAUC: best.RocAUC,
	})
	for i, f := range snapshot.TopFeatures {
		report.Features = append(report.Features, db.FeatureScore{Feature: f.Feature, Score: f.Score, Rank: i + 1})
	}
	return report
}
