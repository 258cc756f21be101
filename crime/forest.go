package crime

// Random-forest classifier over encoded feature vectors.
//
// Each tree is grown on a bootstrap sample with a random feature subset
// considered at every split (Gini impurity, midpoint thresholds). Leaves
// keep their class counts, so the forest gives a probability distribution
// over all classes, not just a label. Training is deterministic for a fixed
// seed: tree t uses its own rand.Source derived from seed+t, and vocabulary
// and label indices are assigned in sorted order upstream.

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Configuration errors. Both indicate caller misuse, not bad input data.
var (
	ErrNotTrained    = errors.New("model is not trained")
	ErrTooFewClasses = errors.New("training data has fewer than 2 distinct crime types")
)

// TreeNode is one node of a decision tree, stored in a flat array with
// child indices (no pointers, trivially serializable).
type TreeNode struct {
	FeatureIdx int     `json:"featureIdx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"leftChild"`
	RightChild int     `json:"rightChild"`
	Counts     []int   `json:"counts,omitempty"` // leaf class counts
	IsLeaf     bool    `json:"isLeaf"`
}

// Tree is a single decision tree of the forest.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Forest is a trained random-forest classifier. Immutable after training and
// safe for concurrent Predict/PredictProba calls.
type Forest struct {
	Trees      []Tree    `json:"trees"`
	ClassCount int       `json:"classCount"`
	Importance []float64 `json:"importance,omitempty"`
}

// ForestConfig controls training. Defaults mirror the tuned dashboard model:
// 150 trees, depth 12, minimum 2 samples per leaf, seed 42.
type ForestConfig struct {
	TreeCount      int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64
}

// DefaultForestConfig returns the standard training configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		TreeCount:      150,
		MaxDepth:       12,
		MinSamplesLeaf: 2,
		Seed:           42,
	}
}

// TrainForest fits a forest on encoded features. classCount is the size of
// the label vocabulary; every label must be in [0, classCount).
func TrainForest(features [][]float64, labels []int, classCount int, cfg ForestConfig) (*Forest, error) {
	if len(features) == 0 {
		return nil, errors.New("training features are empty")
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("features/labels size mismatch: %d vs %d", len(features), len(labels))
	}
	if classCount < 2 {
		return nil, ErrTooFewClasses
	}

	featureCount := len(features[0])
	if featureCount == 0 {
		return nil, errors.New("feature vectors are empty")
	}
	for i, row := range features {
		if len(row) != featureCount {
			return nil, fmt.Errorf("ragged feature matrix: row %d has %d features, expected %d", i, len(row), featureCount)
		}
	}
	for i, label := range labels {
		if label < 0 || label >= classCount {
			return nil, fmt.Errorf("label index %d out of range at row %d", label, i)
		}
	}

	if cfg.TreeCount <= 0 {
		cfg.TreeCount = DefaultForestConfig().TreeCount
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultForestConfig().MaxDepth
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}

	mtry := int(math.Sqrt(float64(featureCount)))
	if mtry < 1 {
		mtry = 1
	}

	forest := &Forest{
		Trees:      make([]Tree, cfg.TreeCount),
		ClassCount: classCount,
		Importance: make([]float64, featureCount),
	}

	for t := 0; t < cfg.TreeCount; t++ {
		builder := &treeBuilder{
			features:   features,
			labels:     labels,
			classCount: classCount,
			cfg:        cfg,
			mtry:       mtry,
			rng:        rand.New(rand.NewSource(cfg.Seed + int64(t))),
			importance: make([]float64, featureCount),
		}

		indices := builder.bootstrap(len(features))
		builder.totalSamples = len(indices)
		nodes := builder.build(indices, 0)

		forest.Trees[t] = Tree{Nodes: nodes}
		for i, v := range builder.importance {
			forest.Importance[i] += v
		}
	}

	normalizeImportance(forest.Importance)
	return forest, nil
}

// Predict returns the class index with the highest averaged probability.
// Ties resolve to the lowest class index so repeated calls are identical.
func (f *Forest) Predict(vector []float64) (int, error) {
	proba, err := f.PredictProba(vector)
	if err != nil {
		return 0, err
	}

	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}
	return best, nil
}

// PredictProba returns the probability distribution over all classes,
// averaged across trees. The result sums to 1 within floating tolerance.
func (f *Forest) PredictProba(vector []float64) ([]float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return nil, ErrNotTrained
	}
	if len(vector) == 0 {
		return nil, errors.New("feature vector is empty")
	}

	proba := make([]float64, f.ClassCount)
	for _, tree := range f.Trees {
		counts, err := tree.leafCounts(vector)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, c := range counts {
			total += c
		}
		if total == 0 {
			continue
		}
		for class, c := range counts {
			proba[class] += float64(c) / float64(total)
		}
	}

	sum := 0.0
	for _, p := range proba {
		sum += p
	}
	if sum == 0 {
		return nil, errors.New("forest produced no votes")
	}
	for i := range proba {
		proba[i] /= sum
	}
	return proba, nil
}

func (t Tree) leafCounts(vector []float64) ([]int, error) {
	idx := 0
	for {
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, errors.New("invalid tree state")
		}
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Counts, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(vector) {
			return nil, fmt.Errorf("feature index %d out of range for %d-dim vector", node.FeatureIdx, len(vector))
		}
		if vector[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// validate checks a deserialized forest is structurally usable.
func (f *Forest) validate() error {
	if f == nil || len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if f.ClassCount < 2 {
		return errors.New("forest has fewer than 2 classes")
	}
	for i, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", i)
		}
	}
	return nil
}

type treeBuilder struct {
	features     [][]float64
	labels       []int
	classCount   int
	cfg          ForestConfig
	mtry         int
	rng          *rand.Rand
	importance   []float64
	totalSamples int
}

func (b *treeBuilder) bootstrap(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = b.rng.Intn(n)
	}
	return indices
}

// build grows a subtree over the given sample indices and returns it as a
// flat node array (root first, children re-indexed relative to the array).
func (b *treeBuilder) build(indices []int, depth int) []TreeNode {
	counts := b.classCounts(indices)

	if depth >= b.cfg.MaxDepth || isPureCounts(counts) || len(indices) < 2*b.cfg.MinSamplesLeaf {
		return []TreeNode{leafNode(counts)}
	}

	featureIdx, threshold, gain, ok := b.findBestSplit(indices, counts)
	if !ok {
		return []TreeNode{leafNode(counts)}
	}

	left, right := b.partition(indices, featureIdx, threshold)
	if len(left) < b.cfg.MinSamplesLeaf || len(right) < b.cfg.MinSamplesLeaf {
		return []TreeNode{leafNode(counts)}
	}

	b.importance[featureIdx] += gain * float64(len(indices)) / float64(b.totalSamples)

	leftNodes := b.build(left, depth+1)
	rightNodes := b.build(right, depth+1)

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, TreeNode{
		FeatureIdx: featureIdx,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
	})
	nodes = append(nodes, offsetChildren(leftNodes, 1)...)
	nodes = append(nodes, offsetChildren(rightNodes, 1+len(leftNodes))...)
	return nodes
}

func offsetChildren(nodes []TreeNode, offset int) []TreeNode {
	for i := range nodes {
		if !nodes[i].IsLeaf {
			nodes[i].LeftChild += offset
			nodes[i].RightChild += offset
		}
	}
	return nodes
}

func leafNode(counts []int) TreeNode {
	return TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Counts:     counts,
		IsLeaf:     true,
	}
}

func (b *treeBuilder) classCounts(indices []int) []int {
	counts := make([]int, b.classCount)
	for _, idx := range indices {
		counts[b.labels[idx]]++
	}
	return counts
}

// findBestSplit scans a random feature subset for the split with the largest
// Gini impurity decrease at this node.
func (b *treeBuilder) findBestSplit(indices []int, parentCounts []int) (int, float64, float64, bool) {
	parentImpurity := giniFromCounts(parentCounts, len(indices))

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	featureCount := len(b.features[0])
	perm := b.rng.Perm(featureCount)

	type valueLabel struct {
		value float64
		label int
	}
	pairs := make([]valueLabel, len(indices))

	for _, featureIdx := range perm[:b.mtry] {
		for i, idx := range indices {
			pairs[i] = valueLabel{b.features[idx][featureIdx], b.labels[idx]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

		leftCounts := make([]int, b.classCount)
		rightCounts := append([]int(nil), parentCounts...)

		for i := 0; i < len(pairs)-1; i++ {
			leftCounts[pairs[i].label]++
			rightCounts[pairs[i].label]--

			if pairs[i].value == pairs[i+1].value {
				continue
			}

			leftN := i + 1
			rightN := len(pairs) - leftN
			impurity := (float64(leftN)*giniFromCounts(leftCounts, leftN) +
				float64(rightN)*giniFromCounts(rightCounts, rightN)) / float64(len(pairs))

			gain := parentImpurity - impurity
			if gain > bestGain {
				bestGain = gain
				bestFeature = featureIdx
				bestThreshold = (pairs[i].value + pairs[i+1].value) / 2
			}
		}
	}

	if bestFeature == -1 || bestGain <= 0 {
		return -1, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

func (b *treeBuilder) partition(indices []int, featureIdx int, threshold float64) ([]int, []int) {
	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, idx := range indices {
		if b.features[idx][featureIdx] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

func giniFromCounts(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func isPureCounts(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalizeImportance(importance []float64) {
	sum := 0.0
	for _, v := range importance {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range importance {
		importance[i] /= sum
	}
}
