package patterns

import (
	"fmt"
	"sort"
	"time"

	"github.com/mnemograph/mnemograph/pkg/types"
)

// summaryMatch is one EntitySummary pulled into a cluster, with the
// similarity that pulled it in (1.0 for keyword-signal matches).
type summaryMatch struct {
	SummaryID  string
	Owner      string
	Project    string
	CreatedAt  time.Time
	Similarity float64
}

// candidate is a group of matches that clears a category's support
// threshold and is ready to be upserted as a Pattern.
type candidate struct {
	Type       types.PatternType
	Name       string
	Scope      types.PatternScope
	Confidence float64
	Frequency  int
	SampleIDs  []string
	semantic   bool
}

type groupKey struct {
	owner   string
	project string
	bucket  string
}

// timeBucket formats a timestamp at the category's granularity.
func timeBucket(ts time.Time, granularity bucketGranularity) string {
	if granularity == bucketWeek {
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return ts.Format("2006-01-02")
}

// buildCandidates groups matches by (owner, project, bucket) and keeps the
// groups with enough support. Confidence is avgSimilarity scaled by how
// full the group is relative to the category normalizer, capped.
func buildCandidates(matches []summaryMatch, cat category, semantic bool) []candidate {
	groups := make(map[groupKey][]summaryMatch)
	var order []groupKey
	for _, match := range matches {
		key := groupKey{
			owner:   match.Owner,
			project: match.Project,
			bucket:  timeBucket(match.CreatedAt, cat.Granularity),
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], match)
	}

	var candidates []candidate
	for _, key := range order {
		members := groups[key]
		if len(members) < cat.MinSupport {
			continue
		}

		var similaritySum float64
		for _, m := range members {
			similaritySum += m.Similarity
		}
		avgSimilarity := similaritySum / float64(len(members))
		confidence := avgSimilarity * (float64(len(members)) / cat.Normalizer)
		if confidence > DefaultConfidenceCap {
			confidence = DefaultConfidenceCap
		}

		// Strongest evidence first, bounded sample.
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Similarity > members[j].Similarity
		})
		sampleCount := len(members)
		if sampleCount > types.MaxPatternSamples {
			sampleCount = types.MaxPatternSamples
		}
		samples := make([]string, sampleCount)
		for i := 0; i < sampleCount; i++ {
			samples[i] = members[i].SummaryID
		}

		candidates = append(candidates, candidate{
			Type:       cat.Type,
			Name:       cat.Name,
			Scope:      scopeFromKey(key),
			Confidence: confidence,
			Frequency:  len(members),
			SampleIDs:  samples,
			semantic:   semantic,
		})
	}
	return candidates
}

func scopeFromKey(key groupKey) types.PatternScope {
	sc := types.PatternScope{Project: key.project, TimeBucket: key.bucket}
	if len(key.owner) > 5 && key.owner[:5] == "user:" {
		sc.UserID = key.owner[5:]
	} else {
		sc.WorkspaceID = key.owner
	}
	return sc
}

// mergeCandidates merges the semantic and keyword candidate sets keyed by
// (type, name, scope). When both exist the semantic candidate wins, but it
// carries the union of evidence: the larger frequency and any sample ids
// the keyword pass found that the semantic pass missed.
func mergeCandidates(semantic, keyword []candidate) []candidate {
	type mergeKey struct {
		patternType types.PatternType
		name        string
		scopeID     string
	}

	merged := make(map[mergeKey]*candidate)
	var order []mergeKey

	add := func(c candidate) {
		key := mergeKey{patternType: c.Type, name: c.Name, scopeID: c.Scope.ID()}
		existing, ok := merged[key]
		if !ok {
			copied := c
			merged[key] = &copied
			order = append(order, key)
			return
		}

		preferred, other := existing, &c
		if c.semantic && !existing.semantic {
			copied := c
			preferred, other = &copied, existing
			merged[key] = preferred
		}
		if other.Frequency > preferred.Frequency {
			preferred.Frequency = other.Frequency
		}
		for _, id := range other.SampleIDs {
			if len(preferred.SampleIDs) >= types.MaxPatternSamples {
				break
			}
			if !containsString(preferred.SampleIDs, id) {
				preferred.SampleIDs = append(preferred.SampleIDs, id)
			}
		}
		if other.Confidence > preferred.Confidence && other.semantic == preferred.semantic {
			preferred.Confidence = other.Confidence
		}
	}

	for _, c := range semantic {
		add(c)
	}
	for _, c := range keyword {
		add(c)
	}

	out := make([]candidate, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
