package cluster

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
)

// unionFind is a disjoint-set over cluster indices, used to merge
// shard-local clusters that share any element into connected components
// (§9 "cyclic references in cluster merging").
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// shardAssigner deterministically maps a point identifier to one of
// numShards shards via rendezvous (highest random weight) hashing, so the
// same point always lands on the same shard across runs regardless of
// discovery order.
type shardAssigner struct {
	hasher    *rendezvous.Rendezvous
	nameIndex map[string]int
}

func newShardAssigner(numShards int) *shardAssigner {
	shards := make([]string, numShards)
	nameIndex := make(map[string]int, numShards)
	for i := range shards {
		shards[i] = shardName(i)
		nameIndex[shards[i]] = i
	}
	return &shardAssigner{
		hasher:    rendezvous.New(shards, xxhash.Sum64String),
		nameIndex: nameIndex,
	}
}

func (a *shardAssigner) indexOf(point string) int {
	return a.nameIndex[a.hasher.Lookup(point)]
}

// RunSharded partitions points into numShards shards via rendezvous
// hashing, runs DBSCAN independently within each shard, then merges
// shard-local clusters that share any element using a union-find over the
// merged cluster set. Only the seed points are partitioned: every shard
// queries the same neighbor oracle, so expansion follows neighbors into
// other shards. Because a border point claimed by clusters in two shards
// joins them in the merge, the result can unite clusters that a single
// Run keeps apart. numShards <= 1 runs Run directly.
func RunSharded(points []string, minPts, numShards int, neighbors NeighborFunc) []Result {
	if numShards <= 1 {
		return Run(points, minPts, neighbors)
	}

	assigner := newShardAssigner(numShards)
	shards := make([][]string, numShards)
	for _, p := range points {
		idx := assigner.indexOf(p)
		shards[idx] = append(shards[idx], p)
	}

	shardResults := make([][]Result, numShards)
	var wg sync.WaitGroup
	for i, shard := range shards {
		if len(shard) == 0 {
			continue
		}
		wg.Add(1)
		go func(i int, shard []string) {
			defer wg.Done()
			shardResults[i] = Run(shard, minPts, neighbors)
		}(i, shard)
	}
	wg.Wait()

	return mergeShardResults(shardResults)
}

// mergeShardResults unions all shard-local clusters that share any
// element into connected components under the "shares an element"
// relation, using a single-threaded union-find pass (§5: "the final merge
// step is single-threaded").
func mergeShardResults(shardResults [][]Result) []Result {
	var all []Result
	for _, sr := range shardResults {
		all = append(all, sr...)
	}
	if len(all) == 0 {
		return nil
	}

	uf := newUnionFind(len(all))
	elementToCluster := make(map[string]int, len(all)*4)
	for i, r := range all {
		for _, p := range r.Points {
			if j, ok := elementToCluster[p]; ok {
				uf.union(i, j)
			} else {
				elementToCluster[p] = i
			}
		}
	}

	merged := make(map[int]map[string]bool)
	for i, r := range all {
		root := uf.find(i)
		if merged[root] == nil {
			merged[root] = make(map[string]bool)
		}
		for _, p := range r.Points {
			merged[root][p] = true
		}
	}

	results := make([]Result, 0, len(merged))
	for _, set := range merged {
		pts := make([]string, 0, len(set))
		for p := range set {
			pts = append(pts, p)
		}
		results = append(results, Result{Points: pts})
	}
	return results
}

func shardName(i int) string {
	const hex = "0123456789abcdef"
	if i < len(hex) {
		return "shard-" + string(hex[i])
	}
	return "shard-" + string(rune('a'+i))
}
