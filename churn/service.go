package churn

import (
	"math"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"churnapi/logger"
	"churnapi/ml"
	"churnapi/monitoring"
)

const (
	LabelChurn   = "Churn"
	LabelNoChurn = "No Churn"
)

// Result is the outcome of one prediction.
type Result struct {
	Prediction  int     `json:"prediction"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Service turns feature records into predictions. It is safe for concurrent use.
type Service struct {
	artifacts Artifacts
	cache     *lru.Cache[string, Result]
}

type Option func(*Service) error

// WithCache keeps up to size results keyed on the exact raw feature vector.
// Predictions are deterministic, so a hit is indistinguishable from a recomputation.
func WithCache(size int) Option {
	return func(s *Service) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[string, Result](size)
		if err != nil {
			return errors.Wrap(err, "create prediction cache")
		}
		s.cache = cache
		return nil
	}
}

func NewService(artifacts Artifacts, opts ...Option) (*Service, error) {
	s := &Service{artifacts: artifacts}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Ready reports whether both artifacts are loaded.
func (s *Service) Ready() bool {
	_, ok := s.artifacts.(Ready)
	return ok
}

// FeatureNames returns the ordered schema the service predicts on.
func (s *Service) FeatureNames() []string {
	return ml.FeatureNames()
}

// Predict validates record, scales it in schema order and runs the classifier.
// Keys outside the schema are ignored.
func (s *Service) Predict(record map[string]interface{}) (result *Result, err error) {
	start := time.Now()
	defer func() {
		s.observe(start, result, err)
	}()

	var ready Ready
	switch artifacts := s.artifacts.(type) {
	case Ready:
		ready = artifacts
	case Unavailable:
		return nil, unavailable(artifacts.Cause)
	default:
		return nil, unavailable(errors.New("artifacts not initialised"))
	}

	if missing := ml.MissingFeatures(record); len(missing) > 0 {
		return nil, invalidInput(missing)
	}

	vector, err := ml.FeatureVector(record)
	if err != nil {
		return nil, internal(err, "build feature vector")
	}

	key := cacheKey(vector)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			monitoring.CacheLookupCount.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		monitoring.CacheLookupCount.WithLabelValues("miss").Inc()
	}

	computed, err := infer(ready, vector)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, computed)
	}
	return &computed, nil
}

func infer(ready Ready, vector []float64) (Result, error) {
	scaled, err := ready.Scaler.Transform(vector)
	if err != nil {
		return Result{}, internal(err, "scale features")
	}
	if len(scaled) != len(vector) {
		return Result{}, internal(errors.Errorf("got %d values for %d features", len(scaled), len(vector)), "scale features")
	}

	class, err := ready.Model.PredictClass(scaled)
	if err != nil {
		return Result{}, internal(err, "predict class")
	}
	probability, err := ready.Model.PredictProbability(scaled)
	if err != nil {
		return Result{}, internal(err, "predict probability")
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return Result{}, internal(errors.Errorf("probability %v outside [0, 1]", probability), "predict probability")
	}

	label, err := labelFor(class)
	if err != nil {
		return Result{}, internal(err, "map label")
	}
	return Result{Prediction: class, Label: label, Probability: probability}, nil
}

func labelFor(class int) (string, error) {
	switch class {
	case 1:
		return LabelChurn, nil
	case 0:
		return LabelNoChurn, nil
	default:
		return "", errors.Errorf("class %d is not binary", class)
	}
}

func cacheKey(vector []float64) string {
	var sb strings.Builder
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
	}
	return sb.String()
}

func (s *Service) observe(start time.Time, result *Result, err error) {
	monitoring.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := KindOf(err)
		monitoring.PredictionFailureCount.WithLabelValues(kind.String()).Inc()
		if kind == KindInvalidInput {
			logger.Debugf("prediction rejected: %v", err)
		} else {
			logger.Errorf("prediction failed: %v", err)
		}
		return
	}
	monitoring.PredictionCount.WithLabelValues(result.Label).Inc()
}
