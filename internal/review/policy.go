package review

import "github.com/vireolabs/machinevision/internal/conf"

// Scores holds per-image safety classification scores on the SafeSearch
// likelihood scale, 0 (unknown) to 5 (very likely).
type Scores struct {
	Adult    int
	Spoof    int
	Medical  int
	Violence int
	Racy     int
}

// meetsAny reports whether any category score meets or exceeds its
// configured threshold. Categories with a zero threshold are disabled.
func (s Scores) meetsAny(t conf.SafetyThresholds) bool {
	checks := []struct{ score, threshold int }{
		{s.Adult, t.Adult},
		{s.Spoof, t.Spoof},
		{s.Medical, t.Medical},
		{s.Violence, t.Violence},
		{s.Racy, t.Racy},
	}
	for _, c := range checks {
		if c.threshold > 0 && c.score >= c.threshold {
			return true
		}
	}
	return false
}

// ComputeInitialState derives the review state for a batch of freshly
// mapped suggestions from the image's safety scores.
//
// Withholding from all queues requires both a score at or above the
// withhold-all threshold and a suggestion on the configured withhold list;
// withholding from the popular queue requires only the (lower) popular
// threshold. Withhold-all dominates when both hold. Callers must not
// invoke this for an empty suggestion batch - no labels means nothing to
// withhold, and no rows are written at all.
func ComputeInitialState(scores Scores, safety *conf.SafetySettings, hasListedConcept bool) State {
	if hasListedConcept && scores.meetsAny(safety.WithholdAll) {
		return StateWithheldAll
	}
	if scores.meetsAny(safety.WithholdPopular) {
		return StateWithheldPopular
	}
	return StateUnreviewed
}
