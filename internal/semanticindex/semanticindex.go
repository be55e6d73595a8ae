// Package semanticindex builds bag-of-words vectors over registry entries
// and answers cosine-similarity lookups, used as the Candidate Extractor's
// fallback when explicit substring matching fails.
package semanticindex

import (
	"math"
	"sort"
	"strings"

	"nugget/internal/domain"
)

// Match is one semantic lookup hit.
type Match struct {
	Name       string
	Confidence float64
}

type document struct {
	key    string
	vector map[string]float64
	norm   float64
}

// Index holds two independent bag-of-words spaces: one over metrics, one
// over dimensions. Built once at startup from the registry and never
// mutated afterward.
type Index struct {
	metrics    []document
	dimensions []document
}

// Build tokenizes each field's key + UI name + aliases + Korean semantics
// into one "document" per entry and stores its term-frequency vector.
func Build(metrics []domain.MetricDef, dimensions []domain.DimensionDef) *Index {
	idx := &Index{}
	for _, m := range metrics {
		idx.metrics = append(idx.metrics, newDocument(m.Key, metaTokens(m)))
	}
	for _, d := range dimensions {
		idx.dimensions = append(idx.dimensions, newDocument(d.Key, metaTokens(d)))
	}
	return idx
}

func metaTokens(f domain.FieldDef) []string {
	parts := append([]string{f.Key, f.UIName}, f.Aliases...)
	parts = append(parts, f.KRSemantics...)
	return tokenize(strings.Join(parts, " "))
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '-', '_', '/', ',', '.', '?', '!':
			return true
		default:
			return false
		}
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func newDocument(key string, tokens []string) document {
	vec := make(map[string]float64)
	for _, t := range tokens {
		vec[t]++
	}
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	return document{key: key, vector: vec, norm: math.Sqrt(sumSq)}
}

func cosine(query map[string]float64, queryNorm float64, doc document) float64 {
	if queryNorm == 0 || doc.norm == 0 {
		return 0
	}
	var dot float64
	for t, qv := range query {
		if dv, ok := doc.vector[t]; ok {
			dot += qv * dv
		}
	}
	return dot / (queryNorm * doc.norm)
}

func queryVector(question string) (map[string]float64, float64) {
	vec := make(map[string]float64)
	for _, t := range tokenize(question) {
		vec[t]++
	}
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	return vec, math.Sqrt(sumSq)
}

func topMatches(docs []document, question string, topK int, minSim float64) []Match {
	qv, qn := queryVector(question)
	var out []Match
	for _, d := range docs {
		sim := cosine(qv, qn, d)
		if sim >= minSim {
			out = append(out, Match{Name: d.key, Confidence: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// MatchMetric returns metric keys whose bag-of-words document has cosine
// similarity ≥ minSim against question, highest-similarity first.
func (idx *Index) MatchMetric(question string, topK int, minSim float64) []Match {
	return topMatches(idx.metrics, question, topK, minSim)
}

// MatchDimension is the dimension counterpart of MatchMetric.
func (idx *Index) MatchDimension(question string, topK int, minSim float64) []Match {
	return topMatches(idx.dimensions, question, topK, minSim)
}
