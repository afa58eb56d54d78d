// Package scoring ranks crop profiles against the field conditions known so
// far. The score for a profile is the sum of absolute differences over the
// keys the user has supplied; unknown keys are skipped, not penalized, so a
// score is only meaningful relative to other profiles in the same call.
package scoring

import (
	"sort"

	"github.com/agrosense/agrosense/pkg/catalog"
)

// DefaultTopK is the number of candidates returned to the composer.
const DefaultTopK = 5

// Result pairs a crop name with its suitability score. Lower is a better fit.
type Result struct {
	Name  string  `json:"crop"`
	Score float64 `json:"score"`
}

// Score computes the distance between known user values and a profile's ideal
// conditions. Keys absent from known contribute nothing.
func Score(known map[catalog.Key]float64, profile *catalog.Profile) float64 {
	var score float64
	for key, userValue := range known {
		diff := userValue - profile.Ideal(key)
		if diff < 0 {
			diff = -diff
		}
		score += diff
	}
	return score
}

// Rank scores every profile in the catalog and returns the topK best matches,
// ascending by score. The sort is stable, so equal scores keep catalog order
// and the output is deterministic for identical inputs. With zero known keys
// every profile scores 0 and the first topK catalog entries come back in
// order.
func Rank(known map[catalog.Key]float64, cat *catalog.Catalog, topK int) []Result {
	if topK <= 0 {
		topK = DefaultTopK
	}

	profiles := cat.Profiles()
	results := make([]Result, 0, len(profiles))
	for i := range profiles {
		results = append(results, Result{
			Name:  profiles[i].Name,
			Score: Score(known, &profiles[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
