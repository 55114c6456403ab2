package model

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// leaf marks a missing child in the node arrays.
const leaf = -1

// TreeParams is the JSON export of a fitted regression tree, using the
// parallel node arrays of scikit-learn's tree_ attribute. Node 0 is the root;
// a sample goes left when x[feature] <= threshold.
type TreeParams struct {
	FeatureNames  []string  `json:"feature_names,omitempty"`
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

type node struct {
	left, right int
	feature     int
	threshold   float64
	value       float64
}

// Tree is a binary regression tree.
type Tree struct {
	nodes []node
}

var errEmptyTree = errors.New("tree has no nodes")

// NewTree validates the node arrays. Children must point forward, which
// rules out cycles and bounds every traversal by the node count.
func NewTree(p TreeParams) (*Tree, error) {
	if p.FeatureNames != nil {
		if err := CheckFeatureNames(p.FeatureNames); err != nil {
			return nil, err
		}
	}
	n := len(p.Value)
	if n == 0 {
		return nil, errEmptyTree
	}
	if len(p.ChildrenLeft) != n || len(p.ChildrenRight) != n || len(p.Feature) != n || len(p.Threshold) != n {
		return nil, fmt.Errorf("node arrays differ in length: left=%d right=%d feature=%d threshold=%d value=%d",
			len(p.ChildrenLeft), len(p.ChildrenRight), len(p.Feature), len(p.Threshold), n)
	}

	nodes := make([]node, n)
	for i := range n {
		nd := node{
			left:      p.ChildrenLeft[i],
			right:     p.ChildrenRight[i],
			feature:   p.Feature[i],
			threshold: p.Threshold[i],
			value:     p.Value[i],
		}
		if (nd.left == leaf) != (nd.right == leaf) {
			return nil, fmt.Errorf("node %d has exactly one child", i)
		}
		if nd.left == leaf {
			if !domain.IsFinite(nd.value) {
				return nil, fmt.Errorf("leaf %d value is not finite", i)
			}
		} else {
			if nd.left <= i || nd.left >= n || nd.right <= i || nd.right >= n {
				return nil, fmt.Errorf("node %d children (%d, %d) out of range", i, nd.left, nd.right)
			}
			if nd.feature < 0 || nd.feature >= domain.NumFeatures {
				return nil, fmt.Errorf("node %d splits on feature %d", i, nd.feature)
			}
			if !domain.IsFinite(nd.threshold) {
				return nil, fmt.Errorf("node %d threshold is not finite", i)
			}
		}
		nodes[i] = nd
	}
	return &Tree{nodes: nodes}, nil
}

func (t *Tree) Predict(x domain.NormalizedVector) (float64, error) {
	i := 0
	for steps := 0; steps < len(t.nodes); steps++ {
		nd := t.nodes[i]
		if nd.left == leaf {
			return nd.value, nil
		}
		if x[nd.feature] <= nd.threshold {
			i = nd.left
		} else {
			i = nd.right
		}
	}
	return 0, fmt.Errorf("traversal did not reach a leaf within %d steps", len(t.nodes))
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	depth := make([]int, len(t.nodes))
	maxDepth := 0
	for i, nd := range t.nodes {
		if nd.left == leaf {
			maxDepth = max(maxDepth, depth[i])
			continue
		}
		depth[nd.left] = depth[i] + 1
		depth[nd.right] = depth[i] + 1
	}
	return maxDepth
}
