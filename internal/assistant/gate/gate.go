// internal/assistant/gate/gate.go
package gate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"fiscal-assistant/internal/common/logger"
	"fiscal-assistant/internal/common/metrics"
	"fiscal-assistant/internal/models"
)

// Classifier decides whether a query is a greeting, in the fiscal domain, or out of it.
type Classifier interface {
	Classify(query string) models.Classification
}

// KeywordGate is the lexical Classifier. Greetings win over domain keywords.
type KeywordGate struct {
	greetings *matcher
	keywords  *matcher
	logger    logger.Logger
}

func New(cfg *Config, log logger.Logger) *KeywordGate {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &KeywordGate{
		// short greetings are whole words so "hi" does not fire inside "thiéboudienne"
		greetings: newMatcher(cfg.Greetings, func(p string) bool {
			return utf8.RuneCountInString(p) <= cfg.WholeWordMaxLen
		}),
		keywords: newMatcher(cfg.Keywords, func(string) bool { return false }),
		logger:   log.WithFields(map[string]interface{}{"component": "domain-gate"}),
	}
}

func (g *KeywordGate) Classify(query string) models.Classification {
	text := Normalize(query)

	result := models.ClassificationInDomain
	matched, ok := g.greetings.first(text)
	switch {
	case ok:
		result = models.ClassificationGreeting
	default:
		matched, ok = g.keywords.first(text)
		if !ok {
			result = models.ClassificationOutOfDomain
		}
	}

	g.logger.Debug("query classified", map[string]interface{}{
		"classification": result.String(),
		"matched":        matched,
	})
	metrics.GateClassifications.WithLabelValues(result.String()).Inc()

	return result
}

// Normalize lower-cases text and folds typographic apostrophes.
func Normalize(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(s)
}

type matcher struct {
	ac        ahocorasick.AhoCorasick
	patterns  []string
	wholeWord []bool
}

func newMatcher(tokens []string, wholeWord func(string) bool) *matcher {
	seen := make(map[string]struct{}, len(tokens))
	m := &matcher{}
	for _, t := range tokens {
		p := strings.TrimSpace(Normalize(t))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		m.patterns = append(m.patterns, p)
		m.wholeWord = append(m.wholeWord, wholeWord(p))
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false, // input is lower-cased already
		MatchOnlyWholeWords:  false, // word boundaries are checked per pattern below
		MatchKind:            ahocorasick.StandardMatch,
	})
	m.ac = builder.Build(m.patterns)
	return m
}

// first returns the first pattern found in text that satisfies its boundary rule.
func (m *matcher) first(text string) (string, bool) {
	if len(m.patterns) == 0 || text == "" {
		return "", false
	}

	iter := m.ac.IterOverlapping(text)
	for {
		match := iter.Next()
		if match == nil {
			return "", false
		}
		idx := match.Pattern()
		if idx < 0 || idx >= len(m.patterns) {
			continue
		}
		if m.wholeWord[idx] && !isWordAt(text, match.Start(), match.End()) {
			continue
		}
		return m.patterns[idx], true
	}
}

// isWordAt reports whether text[start:end] is bounded by non-word runes.
func isWordAt(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
