package db

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	StageBaseline = "baseline"
	StageBest     = "best"
)

const schema = `
    CREATE TABLE IF NOT EXISTS dataset_summary (
        key TEXT PRIMARY KEY,
        value REAL NOT NULL
    );
    CREATE TABLE IF NOT EXISTS model_metrics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        stage TEXT NOT NULL,
        accuracy REAL NOT NULL,
        f1 REAL NOT NULL,
        roc_auc REAL NOT NULL,
        position INTEGER DEFAULT 0
    );
    CREATE TABLE IF NOT EXISTS feature_scores (
        feature TEXT PRIMARY KEY,
        score REAL NOT NULL,
        rank INTEGER NOT NULL
    );
    `

// ModelMetric is one row of model_metrics.
type ModelMetric struct {
	Name     string
	Stage    string
	Accuracy float64
	F1       float64
	RocAUC   float64
	Position int
}

// FeatureScore is one row of feature_scores.
type FeatureScore struct {
	Feature string
	Score   float64
	Rank    int
}

// Report is the offline evaluation summary exported by the training notebook.
type Report struct {
	Summary  map[string]float64
	Metrics  []ModelMetric
	Features []FeatureScore
}

// ReportStore reads the evaluation report database.
type ReportStore struct {
	db *sql.DB
}

// Open opens an existing report database read-only.
func Open(path string) (*ReportStore, error) {
	return open(path, "ro")
}

// Create opens path read-write and creates the tables; used by the export side.
func Create(path string) (*ReportStore, error) {
	store, err := open(path, "rwc")
	if err != nil {
		return nil, err
	}
	if _, err := store.db.Exec(schema); err != nil {
		store.Close()
		return nil, errors.Wrap(err, "create report tables")
	}
	return store, nil
}

// uriPathEscaper keeps '?' and '#' in a file name from starting the URI query or fragment.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func open(path, mode string) (*ReportStore, error) {
	dsn := "file:" + uriPathEscaper.Replace(path) + "?" + url.Values{
		"mode":          []string{mode},
		"_busy_timeout": []string{"5000"},
	}.Encode()

	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open report database %s", path)
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, errors.Wrapf(err, "open report database %s", path)
	}
	return &ReportStore{db: database}, nil
}

func (s *ReportStore) Close() error {
	return s.db.Close()
}

// LoadReport reads every table of the report.
func (s *ReportStore) LoadReport(ctx context.Context) (*Report, error) {
	report := &Report{Summary: make(map[string]float64)}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM dataset_summary`)
	if err != nil {
		return nil, errors.Wrap(err, "query dataset_summary")
	}
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan dataset_summary")
		}
		report.Summary[key] = value
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
        SELECT name, stage, accuracy, f1, roc_auc, position
        FROM model_metrics
        ORDER BY stage, position, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query model_metrics")
	}
	for rows.Next() {
		var m ModelMetric
		if err := rows.Scan(&m.Name, &m.Stage, &m.Accuracy, &m.F1, &m.RocAUC, &m.Position); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan model_metrics")
		}
		report.Metrics = append(report.Metrics, m)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT feature, score, rank FROM feature_scores ORDER BY rank`)
	if err != nil {
		return nil, errors.Wrap(err, "query feature_scores")
	}
	for rows.Next() {
		var f FeatureScore
		if err := rows.Scan(&f.Feature, &f.Score, &f.Rank); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan feature_scores")
		}
		report.Features = append(report.Features, f)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return report, nil
}

// SaveReport replaces the stored report in one transaction.
func (s *ReportStore) SaveReport(ctx context.Context, report *Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"dataset_summary", "model_metrics", "feature_scores"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	for key, value := range report.Summary {
		if _, err := tx.ExecContext(ctx, `INSERT INTO dataset_summary (key, value) VALUES (?, ?)`, key, value); err != nil {
			return errors.Wrap(err, "insert dataset_summary")
		}
	}
	for _, m := range report.Metrics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO model_metrics (name, stage, accuracy, f1, roc_auc, position) VALUES (?, ?, ?, ?, ?, ?)`,
			m.Name, m.Stage, m.Accuracy, m.F1, m.RocAUC, m.Position); err != nil {
			return errors.Wrap(err, "insert model_metrics")
		}
	}
	for _, f := range report.Features {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feature_scores (feature, score, rank) VALUES (?, ?, ?)`,
			f.Feature, f.Score, f.Rank); err != nil {
			return errors.Wrap(err, "insert feature_scores")
		}
	}

	return tx.Commit()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return errors.Wrap(err, "iterate rows")
	}
	return rows.Close()
}
