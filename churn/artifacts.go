package churn

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"churnapi/logger"
	"churnapi/ml"
	"churnapi/monitoring"
)

const (
	ArtifactModel  = "model"
	ArtifactScaler = "scaler"
)

// Artifacts is either Ready or Unavailable. It is built once at startup and
// never written afterwards.
type Artifacts interface {
	isArtifacts()
}

// Ready holds a loaded model and scaler, both used read-only.
type Ready struct {
	Model  ml.Classifier
	Scaler ml.Scaler
}

// Unavailable records why at least one artifact could not be loaded.
type Unavailable struct {
	Cause error
}

func (Ready) isArtifacts()       {}
func (Unavailable) isArtifacts() {}

// Load reads both artifacts independently. Failures are logged and folded
// into Unavailable so that the process can still start.
func Load(modelPath, scalerPath string) Artifacts {
	var cause error

	model, err := ml.LoadModel(modelPath)
	if err != nil {
		logger.Errorf("load model %s failed: %v", modelPath, err)
		cause = multierr.Append(cause, errors.Wrap(err, ArtifactModel))
	} else {
		logger.Infof("model loaded from %s", modelPath)
	}
	monitoring.SetArtifactLoaded(ArtifactModel, err == nil)

	scaler, err := ml.LoadScaler(scalerPath)
	if err != nil {
		logger.Errorf("load scaler %s failed: %v", scalerPath, err)
		cause = multierr.Append(cause, errors.Wrap(err, ArtifactScaler))
	} else {
		logger.Infof("scaler loaded from %s", scalerPath)
	}
	monitoring.SetArtifactLoaded(ArtifactScaler, err == nil)

	if cause != nil {
		return Unavailable{Cause: cause}
	}
	return Ready{Model: model, Scaler: scaler}
}

// NewArtifacts wraps already constructed artifacts; a nil model or scaler yields Unavailable.
func NewArtifacts(model ml.Classifier, scaler ml.Scaler) Artifacts {
	var cause error
	if model == nil {
		cause = multierr.Append(cause, errors.New("model is nil"))
	}
	if scaler == nil {
		cause = multierr.Append(cause, errors.New("scaler is nil"))
	}
	if cause != nil {
		return Unavailable{Cause: cause}
	}
	return Ready{Model: model, Scaler: scaler}
}
