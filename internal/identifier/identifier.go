// Package identifier derives stable machine identifiers and human labels
// from free-text contract attributes (supplier names, product names, price
// components).
package identifier

import (
	"regexp"
	"strings"
)

// SensorDomain is the entity id domain for sensors.
const SensorDomain = "sensor."

// SensorPrefix is the namespace every materialized sensor id lives under.
const SensorPrefix = SensorDomain + "sec_"

var (
	nonWordRun    = regexp.MustCompile(`\W+`)
	underscoreRun = regexp.MustCompile(`_+`)
	numericSuffix = regexp.MustCompile(`_\d+$`)
)

// Format normalizes arbitrary text into a stable entity identifier:
// `@` becomes `a`, `+` becomes `_plus`, every run of non-word characters
// collapses to a single underscore, then lowercase with no leading or
// trailing underscore. Non-ASCII letters count as non-word, so accented
// facet text folds to its ASCII core. Total and idempotent, so
// already-formatted ids pass through unchanged.
func Format(s string) string {
	s = strings.ReplaceAll(s, "@", "a")
	s = strings.ReplaceAll(s, "+", "_plus")
	s = nonWordRun.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return strings.ToLower(s)
}

// StripSuffix removes a numeric duplicate suffix like `_2` or `_3` that the
// entity registry appends when an id collides, so the canonical id is what
// gets persisted.
func StripSuffix(id string) string {
	return numericSuffix.ReplaceAllString(id, "")
}

// Label turns a sensor entity id into a human-readable listing label:
// the sensor prefix is dropped, underscores become spaces and each word is
// capitalized.
func Label(entityID string) string {
	s := strings.TrimPrefix(entityID, SensorPrefix)
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
