package match

import (
	"testing"
	"time"

	"airlog/internal/playlog"
)

func entry(artist, title string) playlog.Entry {
	return playlog.Entry{Artist: artist, Title: title, CapturedAt: time.Now()}
}

func TestScoreExactMatchIsHighConfidence(t *testing.T) {
	e := entry("The Meters", "Cissy Strut")
	candidate := Candidate{
		ID:       "track1",
		Name:     "Cissy Strut",
		Artists:  []string{"The Meters"},
		Duration: 3 * time.Minute,
	}
	confidence, rationale := Score(e, candidate)
	if confidence < 95 {
		t.Fatalf("expected confidence >= 95 for exact match, got %.2f (%s)", confidence, rationale)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	e := entry("Professor Longhair", "Tipitina")
	candidate := Candidate{Name: "Tipitina", Artists: []string{"Professor Longhair"}, Duration: 3 * time.Minute}
	first, _ := Score(e, candidate)
	second, _ := Score(e, candidate)
	if first != second {
		t.Fatalf("score not deterministic: %v vs %v", first, second)
	}
}

func TestScoreStripsFeaturingClause(t *testing.T) {
	e := entry("Trombone Shorty", "Hurricane Season")
	plain := Candidate{Name: "Hurricane Season", Artists: []string{"Trombone Shorty"}, Duration: 3 * time.Minute}
	featured := Candidate{Name: "Hurricane Season (feat. Galactic)", Artists: []string{"Trombone Shorty"}, Duration: 3 * time.Minute}

	plainScore, _ := Score(e, plain)
	featuredScore, _ := Score(e, featured)
	if featuredScore < plainScore-0.01 {
		t.Fatalf("featuring clause should be ignored: %.2f vs %.2f", featuredScore, plainScore)
	}
}

func TestScoreQuoteFolding(t *testing.T) {
	e := entry("Dr. John", "Don’t You Feel My Leg")
	candidate := Candidate{Name: "Don't You Feel My Leg", Artists: []string{"Dr. John"}, Duration: 3 * time.Minute}
	confidence, _ := Score(e, candidate)
	if confidence < 95 {
		t.Fatalf("curly quote should fold, got %.2f", confidence)
	}
}

func TestScoreDurationPenalty(t *testing.T) {
	e := entry("The Meters", "Cissy Strut")
	inWindow := Candidate{Name: "Cissy Strut", Artists: []string{"The Meters"}, Duration: 3 * time.Minute}
	outWindow := Candidate{Name: "Cissy Strut", Artists: []string{"The Meters"}, Duration: 12 * time.Minute}

	normal, _ := Score(e, inWindow)
	penalized, _ := Score(e, outWindow)
	want := normal * 0.98
	if penalized < want-0.01 || penalized > want+0.01 {
		t.Fatalf("expected mild duration penalty: %.4f, want %.4f", penalized, want)
	}
}

func TestBestThresholdBoundary(t *testing.T) {
	e := entry("Irma Thomas", "Time Is on My Side")
	candidate := Candidate{Name: "Time Is on My Side", Artists: []string{"Irma Thomas"}, Duration: 3 * time.Minute}
	confidence, _ := Score(e, candidate)

	// Exactly at threshold counts as found.
	if got := Best(e, []Candidate{candidate}, confidence); got == nil {
		t.Fatal("candidate at threshold must be accepted")
	}
	// Just below does not.
	if got := Best(e, []Candidate{candidate}, confidence+0.1); got != nil {
		t.Fatalf("candidate below threshold must be rejected, got %.2f", got.Confidence)
	}
}

func TestBestRanksCandidates(t *testing.T) {
	e := entry("The Meters", "Cissy Strut")
	candidates := []Candidate{
		{ID: "wrong", Name: "Cissy Strut", Artists: []string{"Some Cover Band"}, Duration: 3 * time.Minute},
		{ID: "right", Name: "Cissy Strut", Artists: []string{"The Meters"}, Duration: 3 * time.Minute},
	}
	best := Best(e, candidates, DefaultThreshold)
	if best == nil {
		t.Fatal("expected a match")
	}
	if best.Candidate.ID != "right" {
		t.Fatalf("expected exact artist to win, got %q", best.Candidate.ID)
	}
}

func TestBestEmptyCandidates(t *testing.T) {
	if Best(entry("a", "b"), nil, DefaultThreshold) != nil {
		t.Fatal("no candidates must mean no match")
	}
}
