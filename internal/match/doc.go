// Package match scores scraped play entries against catalog search
// candidates. Scoring is pure: token-set Jaccard and character-overlap
// similarities per field, weighted and combined, with a mild duration
// penalty. Callers treat anything under the confidence threshold as
// unmatched.
package match
