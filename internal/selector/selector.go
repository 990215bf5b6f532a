// Package selector implements representative selection (§4.6): scoring
// cluster members and choosing the best file per cluster, plus — when a
// video wins — the stills of at least the video's resolution that are
// mutually distinct under the image similarity threshold, admitted
// greedily in score order.
package selector

import (
	"math"
	"sort"

	"github.com/sylphlab/mediadedup/internal/models"
	"github.com/sylphlab/mediadedup/internal/similarity"
)

// Score computes the representative-selection score for f: strictly
// positive, higher is better. Videos get a flat bonus plus a log-duration
// term; richer EXIF metadata and larger resolution/size score higher.
func Score(f models.FileInfo) float64 {
	s := 0.0
	duration := f.Media.Duration
	if duration > 0 {
		s += 10000
		s += 100 * math.Log(math.Max(1, duration+1))
	}
	if f.Metadata.ImageDate != nil {
		s += 2000
	}
	if f.Metadata.HasGPS() {
		s += 300
	}
	if f.Metadata.CameraModel != "" {
		s += 200
	}
	if f.Metadata.Width > 0 && f.Metadata.Height > 0 {
		s += math.Sqrt(float64(f.Metadata.Width) * float64(f.Metadata.Height))
	}
	s += 5 * math.Log(float64(f.FileStats.Size)+1)
	return s
}

// Selection is the outcome of selecting a representative for one cluster.
type Selection struct {
	BestFile        string
	Representatives []string
	Duplicates      []string
}

// Select scores every member of a cluster and picks the representative
// set per §4.6. lookup returns the FileInfo for a file path; clusterPaths
// is the cluster's member identifiers. Ties in score are broken by
// lexicographically smaller path (§8 scenario 1).
func Select(clusterPaths []string, lookup func(path string) models.FileInfo, thresholds similarity.Thresholds) Selection {
	type scored struct {
		path  string
		info  models.FileInfo
		score float64
	}
	members := make([]scored, 0, len(clusterPaths))
	for _, p := range clusterPaths {
		info := lookup(p)
		members = append(members, scored{path: p, info: info, score: Score(info)})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].score != members[j].score {
			return members[i].score > members[j].score
		}
		return members[i].path < members[j].path
	})

	if len(members) == 0 {
		return Selection{}
	}

	top := members[0]
	if !top.info.Media.IsVideo() {
		reps := []string{top.path}
		var dups []string
		for _, m := range members[1:] {
			dups = append(dups, m.path)
		}
		return Selection{BestFile: top.path, Representatives: reps, Duplicates: dups}
	}

	video := top
	vw, vh := video.info.Metadata.Width, video.info.Metadata.Height
	videoHasDate := video.info.Metadata.ImageDate != nil

	var candidates []scored
	for _, m := range members[1:] {
		if m.info.Media.IsVideo() {
			continue
		}
		cw, ch := m.info.Metadata.Width, m.info.Metadata.Height
		if cw*ch < vw*vh {
			continue
		}
		if videoHasDate && m.info.Metadata.ImageDate == nil {
			continue
		}
		candidates = append(candidates, m)
	}

	admitted := make([]scored, 0, len(candidates))
	reps := []string{video.path}
	for _, c := range candidates {
		if len(c.info.Media.Frames) == 0 {
			continue
		}
		ok := true
		for _, a := range admitted {
			if similarity.ImageSimilarity(c.info.Media.Frames[0], a.info.Media.Frames[0]) >= thresholds.ImageSimilarityThreshold {
				ok = false
				break
			}
		}
		if ok {
			admitted = append(admitted, c)
			reps = append(reps, c.path)
		}
	}

	repSet := make(map[string]bool, len(reps))
	for _, r := range reps {
		repSet[r] = true
	}
	var dups []string
	for _, m := range members[1:] {
		if !repSet[m.path] {
			dups = append(dups, m.path)
		}
	}

	return Selection{BestFile: video.path, Representatives: reps, Duplicates: dups}
}
