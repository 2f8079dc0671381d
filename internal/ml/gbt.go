package ml

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Model is a regression model with a fit-once lifecycle
type Model interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}

// GBTParams configures a gradient-boosted trees regressor
type GBTParams struct {
	NEstimators    int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
}

// DefaultGBTParams mirrors common boosted-tree defaults
func DefaultGBTParams() GBTParams {
	return GBTParams{
		NEstimators:    100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
	}
}

// GBTRegressor fits an additive ensemble of shallow regression trees on
// squared-error gradients. Deterministic: no row or feature subsampling.
type GBTRegressor struct {
	params GBTParams

	base  float64
	trees []*treeNode
}

// NewGBTRegressor creates an unfitted regressor. Non-positive parameters
// fall back to defaults.
func NewGBTRegressor(params GBTParams) *GBTRegressor {
	defaults := DefaultGBTParams()
	if params.NEstimators <= 0 {
		params.NEstimators = defaults.NEstimators
	}
	if params.LearningRate <= 0 {
		params.LearningRate = defaults.LearningRate
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = defaults.MaxDepth
	}
	if params.MinSamplesLeaf <= 0 {
		params.MinSamplesLeaf = defaults.MinSamplesLeaf
	}
	return &GBTRegressor{params: params}
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// Fit trains the ensemble on the given design matrix and targets
func (g *GBTRegressor) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return errors.New("cannot fit on empty training set")
	}
	if len(x) != len(y) {
		return fmt.Errorf("feature rows (%d) and targets (%d) differ", len(x), len(y))
	}

	g.base = stat.Mean(y, nil)
	g.trees = g.trees[:0]

	residuals := make([]float64, len(y))
	preds := make([]float64, len(y))
	for i := range preds {
		preds[i] = g.base
	}

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}

	for t := 0; t < g.params.NEstimators; t++ {
		for i := range y {
			residuals[i] = y[i] - preds[i]
		}

		tree := g.buildTree(x, residuals, indices, 0)
		g.trees = append(g.trees, tree)

		for i := range preds {
			preds[i] += g.params.LearningRate * predictTree(tree, x[i])
		}
	}

	return nil
}

// Predict scores a design matrix with the fitted ensemble
func (g *GBTRegressor) Predict(x [][]float64) ([]float64, error) {
	if g.trees == nil {
		return nil, errors.New("model not fitted")
	}

	out := make([]float64, len(x))
	for i, row := range x {
		pred := g.base
		for _, tree := range g.trees {
			pred += g.params.LearningRate * predictTree(tree, row)
		}
		out[i] = pred
	}

	return out, nil
}

func predictTree(node *treeNode, row []float64) float64 {
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// buildTree grows one regression tree greedily on squared-error reduction
func (g *GBTRegressor) buildTree(x [][]float64, target []float64, indices []int, depth int) *treeNode {
	if depth >= g.params.MaxDepth || len(indices) < 2*g.params.MinSamplesLeaf {
		return &treeNode{leaf: true, value: meanAt(target, indices)}
	}

	feature, threshold, ok := g.bestSplit(x, target, indices)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(target, indices)}
	}

	var left, right []int
	for _, i := range indices {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < g.params.MinSamplesLeaf || len(right) < g.params.MinSamplesLeaf {
		return &treeNode{leaf: true, value: meanAt(target, indices)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      g.buildTree(x, target, left, depth+1),
		right:     g.buildTree(x, target, right, depth+1),
	}
}

// bestSplit scans every feature for the threshold that minimizes the summed
// squared error of the two halves
func (g *GBTRegressor) bestSplit(x [][]float64, target []float64, indices []int) (int, float64, bool) {
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := 0.0

	parentScore := sseAt(target, indices)
	features := len(x[indices[0]])

	sorted := make([]int, len(indices))
	for f := 0; f < features; f++ {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		// running sums let each candidate threshold be scored in O(1)
		var leftSum, leftSq float64
		rightSum, rightSq := sums(target, sorted)

		for k := 0; k < len(sorted)-1; k++ {
			v := target[sorted[k]]
			leftSum += v
			leftSq += v * v
			rightSum -= v
			rightSq -= v * v

			if x[sorted[k]][f] == x[sorted[k+1]][f] {
				continue
			}

			nLeft := float64(k + 1)
			nRight := float64(len(sorted) - k - 1)
			score := (leftSq - leftSum*leftSum/nLeft) + (rightSq - rightSum*rightSum/nRight)

			if gain := parentScore - score; gain > bestScore {
				bestScore = gain
				bestFeature = f
				bestThreshold = (x[sorted[k]][f] + x[sorted[k+1]][f]) / 2
			}
		}
	}

	if bestFeature < 0 || bestScore <= 1e-12 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func meanAt(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += values[i]
	}
	return sum / float64(len(indices))
}

func sseAt(values []float64, indices []int) float64 {
	sum, sq := sums(values, indices)
	n := float64(len(indices))
	if n == 0 {
		return 0
	}
	return sq - sum*sum/n
}

func sums(values []float64, indices []int) (sum, sq float64) {
	for _, i := range indices {
		sum += values[i]
		sq += values[i] * values[i]
	}
	return sum, sq
}
