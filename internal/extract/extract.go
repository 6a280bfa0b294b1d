// Package extract turns acquired text into candidate concept labels.
package extract

import (
	"context"
	"strings"
	"unicode"
)

// Extractor returns the concept labels found in text. The result may be
// empty and carries no ordering guarantee.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, text string) ([]string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

// MinLabelLength is the shortest label kept; shorter chunks are noise.
const MinLabelLength = 3

// PhraseExtractor approximates noun-phrase chunking: a phrase is a maximal
// run of content words bounded by punctuation, stop words, or verbs common
// in instructional prose. Leading determiners never start a phrase.
type PhraseExtractor struct {
	// MaxWords caps words per phrase; longer runs keep their trailing words,
	// where the head noun of an English phrase usually sits. 0 means 4.
	MaxWords int

	// Lowercase folds labels to lower case. Off by default, so labels are
	// the exact text span.
	Lowercase bool
}

// Extract returns unique phrases in order of first appearance.
func (p *PhraseExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maxWords := p.MaxWords
	if maxWords <= 0 {
		maxWords = 4
	}

	seen := make(map[string]bool)
	var labels []string
	emit := func(run []string) {
		if len(run) > maxWords {
			run = run[len(run)-maxWords:]
		}
		label := strings.Join(run, " ")
		if p.Lowercase {
			label = strings.ToLower(label)
		}
		if len(label) < MinLabelLength || isNumeric(label) || seen[label] {
			return
		}
		seen[label] = true
		labels = append(labels, label)
	}

	var run []string
	for _, tok := range tokenize(text) {
		if tok.boundary || isStopWord(tok.word) {
			if len(run) > 0 {
				emit(run)
				run = run[:0]
			}
			continue
		}
		run = append(run, tok.word)
	}
	if len(run) > 0 {
		emit(run)
	}

	return labels, nil
}

type token struct {
	word     string
	boundary bool
}

// tokenize splits text into words and boundary markers. Letters, digits,
// and inner hyphens or apostrophes form words; sentence and clause
// punctuation become boundaries; other characters only separate words.
func tokenize(text string) []token {
	var toks []token
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		w := strings.Trim(b.String(), "-'")
		if w != "" {
			toks = append(toks, token{word: w})
		}
		b.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case (r == '-' || r == '\'' || r == '’') && b.Len() > 0:
			if r == '’' {
				r = '\''
			}
			b.WriteRune(r)
		case strings.ContainsRune(".,;:!?()[]{}\"“”|/\n", r):
			flush()
			toks = append(toks, token{boundary: true})
		default:
			flush()
		}
	}
	flush()
	return toks
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != ' ' {
			return false
		}
	}
	return true
}

func isStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}

var stopWords = func() map[string]bool {
	words := strings.Fields(`
		a an the this that these those some any each every all both either neither
		no not nor only own same such very too so than then there here
		i me my we our you your he him his she her it its they them their
		what which who whom whose when where why how whether
		and or but if because as until while of at by for with about against
		between into through during before after above below to from up down
		in out on off over under again further once also just more most other
		is are was were be been being am have has had having do does did doing
		can could will would shall should may might must
		get gets got make makes made use uses used using let lets
		learn learns learned learning understand understands explain explains
		show shows see means mean called call include includes including
		new first second next last one two three many much few several
		s t don doesn didn isn aren wasn weren won can't don't it's
		example examples e.g i.e etc
	`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
