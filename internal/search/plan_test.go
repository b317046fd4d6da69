package search

import "testing"

func candidates(groups []Group) []Candidate {
	var all []Candidate
	for _, g := range groups {
		all = append(all, g.Candidates...)
	}
	return all
}

func TestBuildPlanNoHint(t *testing.T) {
	groups := BuildPlan(3, NoHint, DefaultRotations)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	for i, g := range groups {
		if g.Page != i {
			t.Errorf("group %d: expected page %d, got %d", i, i, g.Page)
		}
		if len(g.Candidates) != len(DefaultRotations) {
			t.Errorf("group %d: expected %d candidates, got %d", i, len(DefaultRotations), len(g.Candidates))
		}
		for j, c := range g.Candidates {
			if c.Rotation != DefaultRotations[j] {
				t.Errorf("group %d candidate %d: expected rotation %d, got %d", i, j, DefaultRotations[j], c.Rotation)
			}
			if c.Tier != TierNormal {
				t.Errorf("group %d candidate %d: expected normal tier, got %s", i, j, c.Tier)
			}
		}
	}
}

func TestBuildPlanHintFirst(t *testing.T) {
	groups := BuildPlan(4, 2, DefaultRotations)

	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(groups))
	}
	if groups[0].Page != 2 {
		t.Fatalf("expected hinted page 2 first, got %d", groups[0].Page)
	}

	// Hinted group: fast-tier rotations then normal-tier rotations.
	hinted := groups[0].Candidates
	if len(hinted) != 2*len(DefaultRotations) {
		t.Fatalf("expected %d hinted candidates, got %d", 2*len(DefaultRotations), len(hinted))
	}
	for i := 0; i < len(DefaultRotations); i++ {
		if hinted[i].Tier != TierFast {
			t.Errorf("hinted candidate %d: expected fast tier, got %s", i, hinted[i].Tier)
		}
		if hinted[len(DefaultRotations)+i].Tier != TierNormal {
			t.Errorf("hinted candidate %d: expected normal tier, got %s", len(DefaultRotations)+i, hinted[len(DefaultRotations)+i].Tier)
		}
	}

	// Remaining pages in natural order, skipping the hint.
	wantPages := []int{0, 1, 3}
	for i, want := range wantPages {
		if groups[i+1].Page != want {
			t.Errorf("group %d: expected page %d, got %d", i+1, want, groups[i+1].Page)
		}
	}
}

func TestBuildPlanEveryCandidateExactlyOnce(t *testing.T) {
	groups := BuildPlan(5, 1, DefaultRotations)

	seen := make(map[Candidate]int)
	for _, c := range candidates(groups) {
		seen[c]++
	}

	// Every page appears at the normal tier for every rotation.
	for page := 0; page < 5; page++ {
		for _, r := range DefaultRotations {
			c := Candidate{Page: page, Rotation: r, Tier: TierNormal}
			if seen[c] != 1 {
				t.Errorf("candidate %v seen %d times, want 1", c, seen[c])
			}
		}
	}
	// Fast-tier candidates exist only for the hinted page.
	for c, n := range seen {
		if c.Tier == TierFast && c.Page != 1 {
			t.Errorf("unexpected fast-tier candidate on page %d", c.Page)
		}
		if n != 1 {
			t.Errorf("candidate %v seen %d times, want 1", c, n)
		}
	}
}

func TestBuildPlanOutOfRangeHint(t *testing.T) {
	tests := []struct {
		name string
		hint int
	}{
		{"negative", -5},
		{"past end", 10},
		{"at end", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := BuildPlan(3, tt.hint, DefaultRotations)
			if len(groups) != 3 {
				t.Fatalf("expected 3 groups, got %d", len(groups))
			}
			for i, g := range groups {
				if g.Page != i {
					t.Errorf("group %d: expected natural order page %d, got %d", i, i, g.Page)
				}
			}
			if got := CandidateCount(groups); got != 3*len(DefaultRotations) {
				t.Errorf("expected %d candidates, got %d", 3*len(DefaultRotations), got)
			}
		})
	}
}

func TestBuildPlanRotationSets(t *testing.T) {
	four := []Rotation{RotationNone, RotationCW, RotationCCW, RotationFlip}
	groups := BuildPlan(2, NoHint, four)
	if got := CandidateCount(groups); got != 8 {
		t.Fatalf("expected 8 candidates with a 4-way rotation set, got %d", got)
	}

	// Empty set falls back to the default order.
	groups = BuildPlan(1, NoHint, nil)
	if len(groups) != 1 || len(groups[0].Candidates) != len(DefaultRotations) {
		t.Fatalf("expected default rotations for nil set, got %v", groups)
	}
	if groups[0].Candidates[0].Rotation != RotationNone {
		t.Errorf("expected rotation 0 first, got %d", groups[0].Candidates[0].Rotation)
	}
}

func TestBuildPlanEmptyDocument(t *testing.T) {
	if groups := BuildPlan(0, NoHint, DefaultRotations); groups != nil {
		t.Fatalf("expected nil plan for empty document, got %v", groups)
	}
	if groups := BuildPlan(-1, 0, DefaultRotations); groups != nil {
		t.Fatalf("expected nil plan for negative page count, got %v", groups)
	}
}

func TestBuildPlanSinglePageWithHint(t *testing.T) {
	groups := BuildPlan(1, 0, DefaultRotations)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := len(groups[0].Candidates); got != 2*len(DefaultRotations) {
		t.Fatalf("expected fast+normal chain of %d candidates, got %d", 2*len(DefaultRotations), got)
	}
}
