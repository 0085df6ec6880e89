package ml

import (
	"github.com/pkg/errors"
)

// RandomForest averages the class-1 probability of its trees.
type RandomForest struct {
	Trees []DecisionTree `json:"trees"`
}

func (rf *RandomForest) PredictClass(features []float64) (int, error) {
	proba, err := rf.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	return classFromProbability(proba), nil
}

func (rf *RandomForest) PredictProbability(features []float64) (float64, error) {
	if len(rf.Trees) == 0 {
		return 0, errors.New("forest has no trees")
	}
	sum := 0.0
	for i := range rf.Trees {
		p, err := rf.Trees[i].PredictProbability(features)
		if err != nil {
			return 0, errors.Wrapf(err, "tree %d", i)
		}
		sum += p
	}
	return sum / float64(len(rf.Trees)), nil
}

func (rf *RandomForest) validate() error {
	if len(rf.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i := range rf.Trees {
		if err := rf.Trees[i].validate(); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}
