package match

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"airlog/internal/playlog"
)

// Candidate is one catalog search result considered as a possible match.
type Candidate struct {
	ID       string
	Name     string
	Artists  []string
	ArtistID string
	Album    string
	Duration time.Duration
	URL      string
}

// Result is a scored candidate. Confidence is on a 0-100 scale.
type Result struct {
	Candidate  Candidate
	Confidence float64
	Rationale  string
}

const (
	// DefaultThreshold is the confidence floor for a result to count as found.
	DefaultThreshold = 70.0

	tokenWeight  = 0.7
	charWeight   = 0.3
	artistWeight = 0.6
	titleWeight  = 0.4

	durationPenalty = 0.98
	durationMin     = 90 * time.Second
	durationMax     = 7 * time.Minute
)

var featClause = regexp.MustCompile(`(?i)\s*[(\[]?\s*(?:feat\.?|featuring|ft\.?|with)\s+[^)\]]*[)\]]?\s*$`)

// Score computes the confidence that candidate is the catalog recording of
// entry. Pure and deterministic: no network, no side effects.
func Score(entry playlog.Entry, candidate Candidate) (float64, string) {
	artistScore := fieldScore(entry.Artist, strings.Join(candidate.Artists, " "))
	titleScore := fieldScore(entry.Title, candidate.Name)

	confidence := (artistWeight*artistScore + titleWeight*titleScore) * 100

	penalized := false
	if candidate.Duration > 0 && (candidate.Duration < durationMin || candidate.Duration > durationMax) {
		confidence *= durationPenalty
		penalized = true
	}

	rationale := fmt.Sprintf("artist %.0f%%, title %.0f%%", artistScore*100, titleScore*100)
	if penalized {
		rationale += fmt.Sprintf(", duration %s outside expected range", candidate.Duration.Round(time.Second))
	}
	return confidence, rationale
}

// Best ranks candidates by confidence and returns the top one when it meets
// threshold. A nil result means the entry is unmatched.
func Best(entry playlog.Entry, candidates []Candidate, threshold float64) *Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	top := Top(entry, candidates)
	if top == nil || top.Confidence < threshold {
		return nil
	}
	return top
}

// Top returns the highest-scored candidate regardless of threshold, or nil
// when there are no candidates. Callers use it to report near-miss
// confidences for results Best rejects.
func Top(entry playlog.Entry, candidates []Candidate) *Result {
	results := make([]Result, 0, len(candidates))
	for _, candidate := range candidates {
		confidence, rationale := Score(entry, candidate)
		results = append(results, Result{Candidate: candidate, Confidence: confidence, Rationale: rationale})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) == 0 {
		return nil
	}
	top := results[0]
	return &top
}

func fieldScore(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	return tokenWeight*tokenJaccard(a, b) + charWeight*charSimilarity(a, b)
}

// tokenJaccard is the set Jaccard index over whitespace tokens.
func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(value string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(value) {
		set[token] = struct{}{}
	}
	return set
}

func charSimilarity(a, b string) float64 {
	return strutil.Similarity(a, b, metrics.NewSorensenDice())
}

func normalize(value string) string {
	value = playlog.NormalizeName(value)
	value = featClause.ReplaceAllString(value, "")
	value = strings.TrimSpace(value)
	return value
}
