package rfm

import (
	"rfm-segments/pkg/models"
)

// The classifier is an ordered rule table evaluated top to bottom with
// first-match semantics. Conditions overlap, so rule order is part of the
// contract. The zero-lifetime override runs after the table, unconditionally,
// so no rule can shadow it.

type segmentRule struct {
	segment models.Segment
	match   func(r, mf int) bool
}

var segmentRules = []segmentRule{
	{models.SegmentChampions, func(r, mf int) bool { return mf >= 4 && r >= 4 }},
	{models.SegmentLoyal, func(r, mf int) bool { return mf >= 4 && (r == 2 || r == 3) }},
	{models.SegmentCannotLose, func(r, mf int) bool { return mf == 5 && r <= 1 }},
	{models.SegmentPotentiallyLoyal, func(r, mf int) bool { return (mf == 2 || mf == 3) && r >= 3 }},
	{models.SegmentNeedsAttention, func(r, mf int) bool { return mf == 3 && (r == 2 || r == 3) }},
	{models.SegmentAtRisk, func(r, mf int) bool { return mf >= 3 && r <= 1 }},
	{models.SegmentReactivated, func(r, mf int) bool { return mf == 1 && r >= 4 }},
	{models.SegmentPromising, func(r, mf int) bool { return mf == 1 && (r == 2 || r == 3) }},
	{models.SegmentChurning, func(r, mf int) bool { return mf <= 2 && (r == 2 || r == 3) }},
	{models.SegmentDormant, func(r, mf int) bool { return mf == 2 && r <= 1 }},
	{models.SegmentLost, func(r, mf int) bool { return mf == 1 && r <= 1 }},
}

// Classify maps one customer's scores to a segment. It is total: every input
// yields exactly one segment. Scores outside 1..5 are treated as missing and
// yield Unknown. Customers with zero lifetime revenue are always Prospects,
// whatever their scores say.
func Classify(scores models.Scores, lifetimeMonetary float64) models.Segment {
	segment := classifyScores(scores)
	if lifetimeMonetary == 0 {
		return models.SegmentProspects
	}
	return segment
}

func classifyScores(s models.Scores) models.Segment {
	if !scoreInRange(s.Recency) || !scoreInRange(s.Frequency) || !scoreInRange(s.MF) {
		return models.SegmentUnknown
	}
	for _, rule := range segmentRules {
		if rule.match(s.Recency, s.MF) {
			return rule.segment
		}
	}
	return models.SegmentNotClassified
}

func scoreInRange(v int) bool {
	return v >= 1 && v <= 5
}
