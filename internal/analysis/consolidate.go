package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/purposenavigator/self-analyzation/internal/conversation"
)

// ConsolidatedAttribute is one attribute aggregated across every analysis
// record a user has accumulated.
type ConsolidatedAttribute struct {
	Attribute      string  `json:"attribute"`
	Explanation    string  `json:"explanation"`
	Mean           float64 `json:"mean"`
	Count          int     `json:"count"`
	RelevanceScore float64 `json:"relevance_score"`
}

// LabeledAttribute is a consolidated attribute with its relative tier.
type LabeledAttribute struct {
	ConsolidatedAttribute
	Label string `json:"label"`
}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// Consolidate merges duplicate attribute mentions into one row per distinct
// attribute string. Grouping is by exact string; two mentions differing in
// case or whitespace stay separate. The relevance score boosts the mean by
// mention frequency, so an attribute seen often at moderate confidence can
// outrank a one-off at high confidence. The explanation of the first
// occurrence wins. Output is sorted by relevance score descending.
func Consolidate(records []conversation.AttributeExplanation) ([]ConsolidatedAttribute, error) {
	type group struct {
		total       float64
		count       int
		explanation string
	}
	groups := make(map[string]*group)
	var order []string

	for _, rec := range records {
		raw := nonNumeric.ReplaceAllString(rec.Evaluation.Percentage, "")
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable percentage %q for attribute %s", rec.Evaluation.Percentage, rec.Attribute)
		}

		g, ok := groups[rec.Attribute]
		if !ok {
			g = &group{explanation: rec.Explanation}
			groups[rec.Attribute] = g
			order = append(order, rec.Attribute)
		}
		g.total += pct
		g.count++
	}

	out := make([]ConsolidatedAttribute, 0, len(order))
	for _, attribute := range order {
		g := groups[attribute]
		mean := g.total / float64(g.count)
		out = append(out, ConsolidatedAttribute{
			Attribute:      attribute,
			Explanation:    g.explanation,
			Mean:           mean,
			Count:          g.count,
			RelevanceScore: mean * (1 + math.Log(float64(g.count)+1)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out, nil
}

// percentile returns the value at floor(p/100 * n) in the ascending-sorted
// scores. Nearest-rank, no interpolation.
func percentile(sortedScores []float64, p float64) float64 {
	idx := int(math.Floor(p / 100 * float64(len(sortedScores))))
	if idx >= len(sortedScores) {
		idx = len(sortedScores) - 1
	}
	return sortedScores[idx]
}

// Label assigns relative tiers from the 66th and 33rd percentiles of the
// relevance score distribution. A single row lands on both thresholds at
// once and is labeled high. Output is sorted by relevance score descending.
func Label(consolidated []ConsolidatedAttribute) []LabeledAttribute {
	if len(consolidated) == 0 {
		return []LabeledAttribute{}
	}

	scores := make([]float64, len(consolidated))
	for i, c := range consolidated {
		scores[i] = c.RelevanceScore
	}
	sort.Float64s(scores)

	high := percentile(scores, 66)
	medium := percentile(scores, 33)

	out := make([]LabeledAttribute, 0, len(consolidated))
	for _, c := range consolidated {
		label := "low"
		switch {
		case c.RelevanceScore >= high:
			label = "high"
		case c.RelevanceScore >= medium:
			label = "medium"
		}
		out = append(out, LabeledAttribute{ConsolidatedAttribute: c, Label: label})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return out
}
