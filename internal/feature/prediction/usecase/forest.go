package usecase

import (
	"math"
	"math/rand"
	"sort"
)

// Fixed hyperparameters of the ensemble. These are a tuning choice, not a
// contract, but they stay fixed so identical training data always produces
// an identical model.
const (
	forestTrees       = 600
	forestMaxDepth    = 20
	forestMinLeaf     = 5
	forestRandomSeed  = 42
	trainTestSeed     = 42
	testSplitFraction = 0.3
)

// TreeNode is one node of a regression tree. Leaf nodes have Left == nil.
// Fields are exported so a fitted forest serializes with encoding/gob.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Value     float64
}

// RegressionTree is a CART tree fitted on a bootstrap sample.
type RegressionTree struct {
	Root *TreeNode
}

// Predict walks the tree for one feature vector.
func (t *RegressionTree) Predict(row []float64) float64 {
	node := t.Root
	for node.Left != nil {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// RandomForest is a bootstrap ensemble of regression trees with square-root
// feature subsampling, the same model family the training contract fixes.
type RandomForest struct {
	Trees       []*RegressionTree
	NumFeatures int
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest() *RandomForest {
	return &RandomForest{}
}

// Fit trains the ensemble. Each tree sees a bootstrap sample of the rows and
// considers sqrt(p) random features per split. The seeded generator makes
// the fit deterministic for identical input.
func (f *RandomForest) Fit(x [][]float64, y []float64) {
	f.NumFeatures = len(x[0])
	featuresPerSplit := int(math.Max(1, math.Floor(math.Sqrt(float64(f.NumFeatures)))))
	rng := rand.New(rand.NewSource(forestRandomSeed))

	f.Trees = make([]*RegressionTree, forestTrees)
	for i := range f.Trees {
		sample := make([]int, len(x))
		for j := range sample {
			sample[j] = rng.Intn(len(x))
		}
		f.Trees[i] = &RegressionTree{Root: buildNode(x, y, sample, 0, featuresPerSplit, rng)}
	}
}

// Predict averages the trees for one feature vector.
func (f *RandomForest) Predict(row []float64) float64 {
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.Predict(row)
	}
	return sum / float64(len(f.Trees))
}

// PredictBatch predicts every row of a matrix.
func (f *RandomForest) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = f.Predict(row)
	}
	return out
}

// buildNode grows one subtree over the sample indices.
func buildNode(x [][]float64, y []float64, sample []int, depth, featuresPerSplit int, rng *rand.Rand) *TreeNode {
	node := &TreeNode{Value: meanAt(y, sample)}
	if depth >= forestMaxDepth || len(sample) < 2*forestMinLeaf {
		return node
	}

	feature, threshold, ok := bestSplit(x, y, sample, featuresPerSplit, rng)
	if !ok {
		return node
	}

	var left, right []int
	for _, idx := range sample {
		if x[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < forestMinLeaf || len(right) < forestMinLeaf {
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = buildNode(x, y, left, depth+1, featuresPerSplit, rng)
	node.Right = buildNode(x, y, right, depth+1, featuresPerSplit, rng)
	return node
}

// bestSplit searches a random feature subset for the threshold with the
// lowest total squared error. Thresholds are midpoints between consecutive
// distinct sample values.
func bestSplit(x [][]float64, y []float64, sample []int, featuresPerSplit int, rng *rand.Rand) (int, float64, bool) {
	bestSSE := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, feature := range rng.Perm(len(x[0]))[:featuresPerSplit] {
		ordered := make([]int, len(sample))
		copy(ordered, sample)
		sort.Slice(ordered, func(a, b int) bool {
			return x[ordered[a]][feature] < x[ordered[b]][feature]
		})

		// Prefix sums over the ordered targets let each candidate split
		// be scored in constant time.
		n := len(ordered)
		sum, sumSq := 0.0, 0.0
		prefixSum := make([]float64, n+1)
		prefixSumSq := make([]float64, n+1)
		for i, idx := range ordered {
			sum += y[idx]
			sumSq += y[idx] * y[idx]
			prefixSum[i+1] = sum
			prefixSumSq[i+1] = sumSq
		}

		for i := forestMinLeaf; i <= n-forestMinLeaf; i++ {
			lo, hi := x[ordered[i-1]][feature], x[ordered[i]][feature]
			if lo == hi {
				continue
			}
			leftN, rightN := float64(i), float64(n-i)
			leftSSE := prefixSumSq[i] - prefixSum[i]*prefixSum[i]/leftN
			rightSSE := (sumSq - prefixSumSq[i]) - (sum-prefixSum[i])*(sum-prefixSum[i])/rightN
			if sse := leftSSE + rightSSE; sse < bestSSE {
				bestSSE = sse
				bestFeature = feature
				bestThreshold = (lo + hi) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// meanAt averages y over the sample indices.
func meanAt(y []float64, sample []int) float64 {
	sum := 0.0
	for _, idx := range sample {
		sum += y[idx]
	}
	return sum / float64(len(sample))
}
