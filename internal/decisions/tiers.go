/*-------------------------------------------------------------------------
 *
 * tiers.go
 *    Decision tier ladder and cost accounting
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/decisions/tiers.go
 *
 *-------------------------------------------------------------------------
 */

package decisions

import (
	"fmt"

	"github.com/hoopsho/basecamp/internal/config"
)

/*
 * Tier is one rung of the decision ladder. Tiers are ordered by index:
 * tier 0 is the cheapest and each higher tier is more capable and more
 * expensive. The ladder is supplied by configuration so deployments can
 * swap models without code changes.
 */
type Tier struct {
	Index           int
	Name            string
	Model           string
	CostPerTokenIn  float64
	CostPerTokenOut float64
}

/* Ladder holds the ordered tier list */
type Ladder struct {
	tiers []Tier
}

/* NewLadder builds a ladder from configuration */
func NewLadder(cfgs []config.TierConfig) (*Ladder, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("failed to build tier ladder: error=no tiers configured")
	}
	tiers := make([]Tier, len(cfgs))
	for i, tc := range cfgs {
		tiers[i] = Tier{
			Index:           i,
			Name:            tc.Name,
			Model:           tc.Model,
			CostPerTokenIn:  tc.CostPerTokenIn,
			CostPerTokenOut: tc.CostPerTokenOut,
		}
	}
	return &Ladder{tiers: tiers}, nil
}

/* Len returns the number of tiers */
func (l *Ladder) Len() int {
	return len(l.tiers)
}

/* Tier returns the tier at index, or an error if out of range */
func (l *Ladder) Tier(index int) (Tier, error) {
	if index < 0 || index >= len(l.tiers) {
		return Tier{}, fmt.Errorf("failed to resolve tier: index=%d, count=%d", index, len(l.tiers))
	}
	return l.tiers[index], nil
}

/* Clamp bounds a tier index into the ladder's range */
func (l *Ladder) Clamp(index int) int {
	if index < 0 {
		return 0
	}
	if index >= len(l.tiers) {
		return len(l.tiers) - 1
	}
	return index
}

/* Cost computes the dollar cost of one call at this tier */
func (t Tier) Cost(tokensIn, tokensOut int) float64 {
	return float64(tokensIn)*t.CostPerTokenIn + float64(tokensOut)*t.CostPerTokenOut
}
