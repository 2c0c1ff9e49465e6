package similarity

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultTopK is the number of candidates kept by default.
const DefaultTopK = 10

// Document is an event as seen by the prefilter.
type Document struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
}

// Scored is a document together with its lexical score.
type Scored struct {
	Document
	Score float64
}

// Prefilter ranks documents against a query. The zero value is not usable;
// use NewPrefilter.
type Prefilter struct {
	topK int
}

// NewPrefilter returns a prefilter keeping the topK best documents.
// A non-positive topK falls back to DefaultTopK.
func NewPrefilter(topK int) *Prefilter {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Prefilter{topK: topK}
}

// Rank scores every document against query and returns at most topK of them
// ordered by descending score. Equal scores keep the input order.
func (p *Prefilter) Rank(query string, docs []Document) []Scored {
	if len(docs) == 0 {
		return nil
	}

	docTerms := make([]map[string]float64, len(docs))
	df := make(map[string]int)
	for i, d := range docs {
		docTerms[i] = termFrequencies(Tokenize(d.Summary + " " + d.Description))
		for term := range docTerms[i] {
			df[term]++
		}
	}
	queryTerms := termFrequencies(Tokenize(query))

	idf := func(term string) float64 {
		return math.Log(float64(1+len(docs))/float64(1+df[term])) + 1
	}

	queryVec := weigh(queryTerms, idf)
	scored := make([]Scored, len(docs))
	for i, d := range docs {
		scored[i] = Scored{
			Document: d,
			Score:    cosine(queryVec, weigh(docTerms[i], idf)),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > p.topK {
		scored = scored[:p.topK]
	}
	return scored
}

// Normalize lower-cases text, replaces punctuation and symbols with spaces and
// collapses whitespace.
func Normalize(text string) string {
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize returns the normalized terms of text.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	for t := range tf {
		tf[t] /= float64(len(tokens))
	}
	return tf
}

func weigh(tf map[string]float64, idf func(string) float64) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	for term, freq := range tf {
		vec[term] = freq * idf(term)
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Sum in term order so repeated calls yield bit-identical scores.
	var dot float64
	for _, term := range sortedTerms(a) {
		dot += a[term] * b[term]
	}
	if dot == 0 {
		return 0
	}
	score := dot / (norm2(a) * norm2(b))
	return math.Min(score, 1)
}

func norm2(v map[string]float64) float64 {
	var sum float64
	for _, term := range sortedTerms(v) {
		sum += v[term] * v[term]
	}
	return math.Sqrt(sum)
}

func sortedTerms(v map[string]float64) []string {
	terms := make([]string, 0, len(v))
	for term := range v {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
