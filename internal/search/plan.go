/**
 * Search plan builder
 *
 * Orders the (page x rotation) candidate space for traversal. The
 * start-page hint is a point optimization: a valid hint moves its page
 * to the front and lets it run at the fast tier before falling back to
 * the normal tier on the same page. Everything else runs in natural
 * document order at the normal tier, so the hint can never cost
 * completeness.
 */

package search

// NoHint marks an absent start-page hint.
const NoHint = -1

// BuildPlan produces the ordered candidate groups for a document with
// totalPages examinable pages. startPage is a zero-based page index or
// NoHint; an out-of-range hint is silently ignored and the plan
// degrades to plain document order.
func BuildPlan(totalPages, startPage int, rotations []Rotation) []Group {
	if totalPages <= 0 {
		return nil
	}
	if len(rotations) == 0 {
		rotations = DefaultRotations
	}

	hinted := startPage >= 0 && startPage < totalPages

	groups := make([]Group, 0, totalPages)
	if hinted {
		groups = append(groups, buildHintedGroup(startPage, rotations))
	}
	for page := 0; page < totalPages; page++ {
		if hinted && page == startPage {
			continue
		}
		groups = append(groups, buildGroup(page, TierNormal, rotations))
	}
	return groups
}

// buildGroup creates one page's rotation variants at a single tier.
func buildGroup(page int, tier Tier, rotations []Rotation) Group {
	g := Group{Page: page, Candidates: make([]Candidate, 0, len(rotations))}
	for _, r := range rotations {
		g.Candidates = append(g.Candidates, Candidate{Page: page, Rotation: r, Tier: tier})
	}
	return g
}

// buildHintedGroup chains the fast-tier rotations ahead of the
// normal-tier rotations for the hinted page. The fast pass usually
// wins; the normal pass guarantees the hinted page is not skipped just
// because the cheap settings missed it.
func buildHintedGroup(page int, rotations []Rotation) Group {
	g := Group{Page: page, Candidates: make([]Candidate, 0, 2*len(rotations))}
	for _, r := range rotations {
		g.Candidates = append(g.Candidates, Candidate{Page: page, Rotation: r, Tier: TierFast})
	}
	for _, r := range rotations {
		g.Candidates = append(g.Candidates, Candidate{Page: page, Rotation: r, Tier: TierNormal})
	}
	return g
}

// CandidateCount reports the total number of candidates in a plan.
func CandidateCount(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Candidates)
	}
	return n
}
