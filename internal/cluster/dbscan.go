// Package cluster implements DBSCAN-style density clustering over a
// VP-tree neighbor index, with an adaptive per-pair epsilon and optional
// parallel sharding merged back together with a union-find structure —
// the same shape as the reference engine's bounded worker pool in
// PhashLibraryHandler.ProcessTask, generalized from a flat duplicate scan
// into a full clustering pass.
package cluster

import (
	"log"
)

// NeighborFunc returns the neighbors of point p, already filtered by the
// pair-specific adaptive threshold. An error downgrades p to noise rather
// than aborting the whole run (§4.5 failure policy).
type NeighborFunc func(p string) ([]string, error)

// Result is one DBSCAN cluster: the set of point identifiers belonging to
// it, in the order they were absorbed.
type Result struct {
	Points []string
}

// Run executes the DBSCAN core loop over points using neighbors as the
// neighbor oracle and minPts as the density threshold. It is
// single-threaded; see RunSharded for the parallel variant.
func Run(points []string, minPts int, neighbors NeighborFunc) []Result {
	visited := make(map[string]bool, len(points))
	inCluster := make(map[string]bool, len(points))
	var results []Result

	for _, p := range points {
		if visited[p] {
			continue
		}
		ns, err := neighbors(p)
		if err != nil {
			log.Printf("cluster: neighbor fetch failed for %q, treating as noise: %v", p, err)
			visited[p] = true
			continue
		}
		if len(ns) < minPts-1 {
			visited[p] = true
			continue
		}

		clusterPoints := []string{p}
		inCluster[p] = true
		visited[p] = true

		queue := append([]string(nil), ns...)
		enqueued := make(map[string]bool, len(ns))
		for _, n := range ns {
			enqueued[n] = true
		}

		failed := false
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]

			if !inCluster[q] {
				clusterPoints = append(clusterPoints, q)
				inCluster[q] = true
			}

			if visited[q] {
				continue
			}

			qns, err := neighbors(q)
			if err != nil {
				log.Printf("cluster: expansion failed at %q, dropping partial cluster: %v", q, err)
				failed = true
				visited[q] = true
				break
			}
			visited[q] = true

			// Border neighbors join the cluster regardless of q's own density;
			// only a core q's neighbors get enqueued for further expansion
			// (§4.5 step 2: border-neighbor membership is unconditional).
			for _, n := range qns {
				if !inCluster[n] {
					clusterPoints = append(clusterPoints, n)
					inCluster[n] = true
				}
			}
			if len(qns) >= minPts {
				for _, n := range qns {
					if !visited[n] && !enqueued[n] {
						queue = append(queue, n)
						enqueued[n] = true
					}
				}
			}
		}

		if failed {
			for _, cp := range clusterPoints {
				delete(inCluster, cp)
			}
			continue
		}

		if len(clusterPoints) >= minPts {
			results = append(results, Result{Points: clusterPoints})
		} else {
			for _, cp := range clusterPoints {
				delete(inCluster, cp)
			}
		}
	}
	return results
}
