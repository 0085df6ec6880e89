package ml

import (
	"github.com/pkg/errors"
)

// DecisionTree is a fitted binary tree stored as a flat node list, root first.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode holds a split, or for leaves the per-class sample weights [class0, class1].
type TreeNode struct {
	FeatureIdx int        `json:"feature_idx"`
	Threshold  float64    `json:"threshold"`
	LeftChild  int        `json:"left_child"`
	RightChild int        `json:"right_child"`
	IsLeaf     bool       `json:"is_leaf"`
	Value      [2]float64 `json:"value"`
}

func (dt *DecisionTree) PredictClass(features []float64) (int, error) {
	proba, err := dt.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	return classFromProbability(proba), nil
}

func (dt *DecisionTree) PredictProbability(features []float64) (float64, error) {
	if err := checkWidth(features); err != nil {
		return 0, err
	}
	leaf, err := dt.leaf(features)
	if err != nil {
		return 0, err
	}
	total := leaf.Value[0] + leaf.Value[1]
	if total <= 0 {
		return 0, errors.New("leaf without samples")
	}
	return leaf.Value[1] / total, nil
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.Nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	idx := 0
	// a valid tree never visits more nodes than it has
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
	return TreeNode{}, errors.New("tree contains a cycle")
}

func (dt *DecisionTree) validate() error {
	if len(dt.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if node.Value[0] < 0 || node.Value[1] < 0 || node.Value[0]+node.Value[1] <= 0 {
				return errors.Errorf("leaf %d has invalid class weights", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= FeatureCount {
			return errors.Errorf("node %d splits on unknown feature %d", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(dt.Nodes) || node.RightChild <= i || node.RightChild >= len(dt.Nodes) {
			return errors.Errorf("node %d has invalid children", i)
		}
	}
	return nil
}

// classFromProbability mirrors sklearn's argmax over [1-p, p]: ties go to class 0.
func classFromProbability(p float64) int {
	if p > 0.5 {
		return 1
	}
	return 0
}
