package ml

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// artifactHeader is shared by every JSON artifact.
type artifactHeader struct {
	Type      string `json:"type"`
	Classes   []int  `json:"classes,omitempty"`
	NFeatures int    `json:"n_features,omitempty"`
}

// scalerRow is one line of a CSV scaler artifact.
type scalerRow struct {
	Feature string  `csv:"feature"`
	Mean    float64 `csv:"mean"`
	Scale   float64 `csv:"scale"`
}

// LoadModel reads a JSON classifier artifact and checks it is a binary model over FeatureNames.
func LoadModel(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model artifact")
	}
	return ParseModel(payload)
}

func ParseModel(payload []byte) (Classifier, error) {
	var header artifactHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, errors.Wrap(err, "decode model artifact")
	}
	if header.NFeatures != 0 && header.NFeatures != FeatureCount {
		return nil, errors.Errorf("model expects %d features, schema has %d", header.NFeatures, FeatureCount)
	}
	if len(header.Classes) != 0 && !isBinary(header.Classes) {
		return nil, errors.Errorf("model classes %v are not [0 1]", header.Classes)
	}

	switch header.Type {
	case ModelTypeDecisionTree:
		model := &DecisionTree{}
		if err := decodeValidated(payload, model, model.validate); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeRandomForest:
		model := &RandomForest{}
		if err := decodeValidated(payload, model, model.validate); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeLogisticRegression:
		model := &LogisticRegression{}
		if err := decodeValidated(payload, model, model.validate); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, errors.Errorf("unsupported model type %q", header.Type)
	}
}

// LoadScaler reads a scaler artifact, CSV when the file ends in .csv and JSON otherwise.
func LoadScaler(path string) (Scaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scaler artifact")
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ParseScalerCSV(payload)
	}
	return ParseScaler(payload)
}

func ParseScaler(payload []byte) (Scaler, error) {
	var header artifactHeader
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, errors.Wrap(err, "decode scaler artifact")
	}

	switch header.Type {
	case ScalerTypeStandard, "":
		scaler := &StandardScaler{}
		if err := decodeValidated(payload, scaler, scaler.validate); err != nil {
			return nil, err
		}
		return scaler, nil
	case ScalerTypeMinMax:
		scaler := &MinMaxScaler{}
		if err := decodeValidated(payload, scaler, scaler.validate); err != nil {
			return nil, err
		}
		return scaler, nil
	default:
		return nil, errors.Errorf("unsupported scaler type %q", header.Type)
	}
}

// ParseScalerCSV reads feature,mean,scale rows into a StandardScaler.
func ParseScalerCSV(payload []byte) (Scaler, error) {
	var rows []*scalerRow
	if err := gocsv.Unmarshal(bytes.NewReader(payload), &rows); err != nil {
		return nil, errors.Wrap(err, "decode scaler csv")
	}

	scaler := &StandardScaler{
		FeatureNames: make([]string, 0, len(rows)),
		Mean:         make([]float64, 0, len(rows)),
		Scale:        make([]float64, 0, len(rows)),
	}
	for _, row := range rows {
		scaler.FeatureNames = append(scaler.FeatureNames, strings.TrimSpace(row.Feature))
		scaler.Mean = append(scaler.Mean, row.Mean)
		scaler.Scale = append(scaler.Scale, row.Scale)
	}
	if err := scaler.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scaler artifact")
	}
	return scaler, nil
}

func decodeValidated(payload []byte, target interface{}, validate func() error) error {
	if err := json.Unmarshal(payload, target); err != nil {
		return errors.Wrap(err, "decode artifact body")
	}
	if err := validate(); err != nil {
		return errors.Wrap(err, "invalid artifact")
	}
	return nil
}

func isBinary(classes []int) bool {
	return len(classes) == 2 && classes[0] == 0 && classes[1] == 1
}
