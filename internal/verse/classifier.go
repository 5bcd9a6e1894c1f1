// Package verse classifies source-venue markets into verse ids: a
// pure, deterministic function from title to verse id, with the
// taxonomy itself implementation-defined rather than hardcoded.
package verse

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// DefaultVerseID is returned when no keyword matches and the fallback
// classifier is disabled.
const DefaultVerseID = "general"

// Classifier maps a market title to a verse id. Keywords is an
// injectable keyword→verse table, checked case-insensitively in
// insertion order so callers can prioritize more specific verses ahead
// of broad ones; Fallback, when true, hashes unmatched titles to a
// stable bucket instead of DefaultVerseID — both paths are
// deterministic, resolving the "implementation-defined taxonomy"
// as injectable configuration rather than a hardcoded table.
type Classifier struct {
	Keywords []KeywordRule
	Fallback bool
	Buckets int
}

// KeywordRule maps one substring (lower-cased) to a verse id.
type KeywordRule struct {
	Keyword string
	VerseID string
}

// DefaultKeywords is a starter taxonomy covering common prediction-market
// categories; callers are expected to supply their own via config.
func DefaultKeywords() []KeywordRule {
	return []KeywordRule{
		{Keyword: "bitcoin", VerseID: "crypto"},
		{Keyword: "btc", VerseID: "crypto"},
		{Keyword: "ethereum", VerseID: "crypto"},
		{Keyword: "eth", VerseID: "crypto"},
		{Keyword: "election", VerseID: "politics"},
		{Keyword: "president", VerseID: "politics"},
		{Keyword: "senate", VerseID: "politics"},
		{Keyword: "nba", VerseID: "sports"},
		{Keyword: "nfl", VerseID: "sports"},
		{Keyword: "world cup", VerseID: "sports"},
		{Keyword: "fed", VerseID: "macro"},
		{Keyword: "inflation", VerseID: "macro"},
		{Keyword: "gdp", VerseID: "macro"},
	}
}

// NewClassifier builds a Classifier with a hash-bucket fallback of
// the given bucket count (0 disables the fallback, yielding
// DefaultVerseID for unmatched titles).
func NewClassifier(keywords []KeywordRule, buckets int) *Classifier {
	return &Classifier{Keywords: keywords, Fallback: buckets > 0, Buckets: buckets}
}

// Classify deterministically maps title to a verse id: first keyword
// match wins; otherwise the hash-bucket fallback if enabled, else
// DefaultVerseID.
func (c *Classifier) Classify(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range c.Keywords {
		if strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			return rule.VerseID
		}
	}
	if c.Fallback {
		return c.hashBucket(lower)
	}
	return DefaultVerseID
}

func (c *Classifier) hashBucket(lower string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(lower))
	bucket := int(h.Sum32()) % c.Buckets
	if bucket < 0 {
		bucket += c.Buckets
	}
	return "bucket-" + strconv.Itoa(bucket)
}
