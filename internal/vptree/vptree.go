// Package vptree implements a Vantage-Point tree: a metric-space index
// over opaque identifiers keyed by a user-supplied distance function, used
// by the clusterer to find candidate near-duplicates without an O(n²)
// all-pairs scan.
package vptree

import "sort"

// DistanceFunc computes the distance between two identifiers. It must
// satisfy the triangle inequality for the pruning in NeighborsWithin to be
// correct.
type DistanceFunc func(a, b string) float64

// node is an internal VP-tree node. Leaves carry a bucket of up to
// bucketSize identifiers instead of recursing further.
type node struct {
	pivot     string
	threshold float64
	bucket    []string
	inside    *node
	outside   *node
}

const bucketSize = 8

// Tree is an immutable VP-tree. Once built, it is safe to query
// concurrently from multiple goroutines.
type Tree struct {
	root     *node
	distance DistanceFunc
}

// Build constructs a VP-tree over points using dist as the metric. The
// first point of each subset is used as the pivot (deterministic, not
// randomized, so builds are reproducible across runs).
func Build(points []string, dist DistanceFunc) *Tree {
	if len(points) == 0 {
		return &Tree{distance: dist}
	}
	cp := make([]string, len(points))
	copy(cp, points)
	return &Tree{root: buildNode(cp, dist), distance: dist}
}

func buildNode(points []string, dist DistanceFunc) *node {
	if len(points) <= bucketSize {
		return &node{bucket: points}
	}
	pivot := points[0]
	rest := points[1:]

	type distPoint struct {
		id string
		d  float64
	}
	dps := make([]distPoint, len(rest))
	for i, p := range rest {
		dps[i] = distPoint{id: p, d: dist(pivot, p)}
	}
	sort.Slice(dps, func(i, j int) bool { return dps[i].d < dps[j].d })

	mid := len(dps) / 2
	threshold := 0.0
	if len(dps) > 0 {
		threshold = dps[mid].d
	}

	var insidePts, outsidePts []string
	for i, dp := range dps {
		if i < mid {
			insidePts = append(insidePts, dp.id)
		} else {
			outsidePts = append(outsidePts, dp.id)
		}
	}

	n := &node{pivot: pivot, threshold: threshold}
	if len(insidePts) > 0 {
		n.inside = buildNode(insidePts, dist)
	}
	if len(outsidePts) > 0 {
		n.outside = buildNode(outsidePts, dist)
	}
	return n
}

// NeighborsWithin returns every indexed identifier within distance eps of
// query (under the Tree's distance function), pruning subtrees via the
// triangle inequality. Safe to call concurrently.
func (t *Tree) NeighborsWithin(query string, eps float64) []string {
	if t.root == nil {
		return nil
	}
	var result []string
	t.search(t.root, query, eps, &result)
	return result
}

func (t *Tree) search(n *node, query string, eps float64, result *[]string) {
	if n == nil {
		return
	}
	if n.bucket != nil {
		for _, id := range n.bucket {
			if id == query {
				continue
			}
			if t.distance(query, id) <= eps {
				*result = append(*result, id)
			}
		}
		return
	}

	d := t.distance(query, n.pivot)
	if d <= eps && n.pivot != query {
		*result = append(*result, n.pivot)
	}

	if d-eps <= n.threshold {
		t.search(n.inside, query, eps, result)
	}
	if d+eps >= n.threshold {
		t.search(n.outside, query, eps, result)
	}
}
