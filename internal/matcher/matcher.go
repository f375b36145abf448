// Package matcher resolves face embedding vectors to enrolled identities
// using nearest-centroid cosine distance with a rejection threshold.
package matcher

import "sort"

// distanceTolerance is the floating-point tolerance for treating two
// centroid distances as equal during tie-breaking.
const distanceTolerance = 1e-9

// Identity is an enrolled person with a trained centroid.
// The centroid is the mean of the enrollment embeddings and is read-only
// for the matcher; retraining replaces the whole identity.
type Identity struct {
	ID          string
	DisplayName string
	Centroid    []float32
	SampleCount int // number of enrollment embeddings averaged into the centroid
}

// MatchResult is the outcome of matching one embedding against the
// enrolled centroid set. An empty IdentityID means the embedding was
// not close enough to any centroid (unknown face).
type MatchResult struct {
	IdentityID string
	Distance   float64
}

// Known reports whether the embedding resolved to an enrolled identity.
func (r MatchResult) Known() bool {
	return r.IdentityID != ""
}

// Matcher matches embeddings against a fixed set of identity centroids.
// Match is a pure function over (embedding, centroid set, threshold), so a
// Matcher is safe for concurrent use once the identity set is loaded.
type Matcher struct {
	threshold  float64
	identities []Identity
}

// New creates a matcher that accepts a match only when the cosine distance
// to the nearest centroid is at most threshold.
func New(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured rejection threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// SetIdentities replaces the enrolled identity set. Identities are sorted
// by ID so that tie-breaking is independent of load order.
func (m *Matcher) SetIdentities(identities []Identity) {
	sorted := make([]Identity, len(identities))
	copy(sorted, identities)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	m.identities = sorted
}

// Identities returns the enrolled identity set ordered by ID.
func (m *Matcher) Identities() []Identity {
	return m.identities
}

// Count returns the number of enrolled identities.
func (m *Matcher) Count() int {
	return len(m.identities)
}

// Match finds the enrolled identity whose centroid is nearest to the given
// embedding. The match is rejected (empty IdentityID) when the distance
// exceeds the threshold or when no identities are enrolled; an empty
// centroid set is a valid degraded state, not an error.
//
// Equidistant centroids within floating-point tolerance are broken by
// preferring the identity with the larger enrollment sample count (a more
// reliable centroid), then by identity ID ordering for reproducibility.
func (m *Matcher) Match(embedding []float32) MatchResult {
	best := MatchResult{Distance: 2.0}

	for _, id := range m.identities {
		d := CosineDistance(embedding, id.Centroid)

		switch {
		case d < best.Distance-distanceTolerance:
			best = MatchResult{IdentityID: id.ID, Distance: d}
		case d <= best.Distance+distanceTolerance && best.IdentityID != "":
			if betterTieBreak(id, best, m.identities) {
				best = MatchResult{IdentityID: id.ID, Distance: d}
			}
		}
	}

	if best.IdentityID == "" || best.Distance > m.threshold {
		return MatchResult{Distance: best.Distance}
	}
	return best
}

// betterTieBreak reports whether candidate should replace the current best
// result when their distances are equal within tolerance.
func betterTieBreak(candidate Identity, best MatchResult, identities []Identity) bool {
	current := findIdentity(identities, best.IdentityID)
	if current == nil {
		return true
	}
	if candidate.SampleCount != current.SampleCount {
		return candidate.SampleCount > current.SampleCount
	}
	return candidate.ID < current.ID
}

// findIdentity returns the identity with the given ID, or nil.
func findIdentity(identities []Identity, id string) *Identity {
	for i := range identities {
		if identities[i].ID == id {
			return &identities[i]
		}
	}
	return nil
}
