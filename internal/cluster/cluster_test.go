package cluster

import (
	"errors"
	"sort"
	"testing"
)

// a simple fixed adjacency graph: a-b-c form a tight cluster, d is
// isolated, e-f are a pair (cluster of size 2 with minPts=2).
var adjacency = map[string][]string{
	"a": {"b", "c"},
	"b": {"a", "c"},
	"c": {"a", "b"},
	"d": {},
	"e": {"f"},
	"f": {"e"},
}

func neighborsOf(p string) ([]string, error) {
	return adjacency[p], nil
}

func clusterSets(results []Result) []map[string]bool {
	var sets []map[string]bool
	for _, r := range results {
		set := make(map[string]bool)
		for _, p := range r.Points {
			set[p] = true
		}
		sets = append(sets, set)
	}
	return sets
}

func containsSet(sets []map[string]bool, members ...string) bool {
	for _, s := range sets {
		if len(s) != len(members) {
			continue
		}
		ok := true
		for _, m := range members {
			if !s[m] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestRunFindsClusters(t *testing.T) {
	points := []string{"a", "b", "c", "d", "e", "f"}
	results := Run(points, 2, neighborsOf)
	sets := clusterSets(results)
	if !containsSet(sets, "a", "b", "c") {
		t.Errorf("expected cluster {a,b,c}, got %v", sets)
	}
	if !containsSet(sets, "e", "f") {
		t.Errorf("expected cluster {e,f}, got %v", sets)
	}
	for _, s := range sets {
		if s["d"] {
			t.Errorf("d should be noise, not in any cluster: %v", sets)
		}
	}
}

func TestRunTreatsNeighborErrorAsNoise(t *testing.T) {
	errNeighbors := func(p string) ([]string, error) {
		if p == "a" {
			return nil, errors.New("boom")
		}
		return adjacency[p], nil
	}
	// a's own neighbor fetch fails, so a is downgraded to noise and never
	// seeds a cluster; like any noise point it is then absorbed as a border
	// point of the cluster that b seeds.
	results := Run([]string{"a", "b", "c"}, 2, errNeighbors)
	if len(results) != 1 || results[0].Points[0] == "a" {
		t.Fatalf("point a should have been downgraded to noise after a neighbor-fetch error, not seed a cluster: %v", results)
	}
	if !containsSet(clusterSets(results), "a", "b", "c") {
		t.Errorf("expected cluster {a,b,c} seeded by b with a as a border point, got %v", clusterSets(results))
	}
}

func TestRunAddsBorderNeighborsRegardlessOfQOwnDensity(t *testing.T) {
	// a is core (3 neighbors, minPts=3). b and c are border points reachable
	// only from a. x is also a border point reachable from a, but x itself
	// has a second neighbor y that is not otherwise reachable. y must still
	// join the cluster as a border neighbor of x, even though x's own
	// density (2) is below minPts and x is never expanded as a core point.
	adj := map[string][]string{
		"a": {"b", "c", "x"},
		"b": {"a"},
		"c": {"a"},
		"x": {"a", "y"},
		"y": {"x"},
	}
	neighbors := func(p string) ([]string, error) { return adj[p], nil }

	results := Run([]string{"a", "b", "c", "x", "y"}, 3, neighbors)
	sets := clusterSets(results)
	if !containsSet(sets, "a", "b", "c", "x", "y") {
		t.Errorf("expected y to join the cluster via border point x, got %v", sets)
	}
}

func TestRunShardedMatchesUnsharded(t *testing.T) {
	points := []string{"a", "b", "c", "d", "e", "f"}
	single := clusterSets(Run(points, 2, neighborsOf))
	sharded := clusterSets(RunSharded(points, 2, 4, neighborsOf))

	normalize := func(sets []map[string]bool) []string {
		var reprs []string
		for _, s := range sets {
			var keys []string
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			repr := ""
			for _, k := range keys {
				repr += k + ","
			}
			reprs = append(reprs, repr)
		}
		sort.Strings(reprs)
		return reprs
	}

	a, b := normalize(single), normalize(sharded)
	if len(a) != len(b) {
		t.Fatalf("sharded result has different cluster count: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("sharded result differs: %v vs %v", a, b)
		}
	}
}

func TestUnionFindMergesSharedElements(t *testing.T) {
	shardResults := [][]Result{
		{{Points: []string{"a", "b"}}},
		{{Points: []string{"b", "c"}}},
		{{Points: []string{"d", "e"}}},
	}
	merged := mergeShardResults(shardResults)
	sets := clusterSets(merged)
	if !containsSet(sets, "a", "b", "c") {
		t.Errorf("expected merged cluster {a,b,c}, got %v", sets)
	}
	if !containsSet(sets, "d", "e") {
		t.Errorf("expected cluster {d,e}, got %v", sets)
	}
}
