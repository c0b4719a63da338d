package rewrite

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed thesaurus.json
var defaultThesaurusJSON []byte

// Thesaurus returns synonyms for a lower-case word, most common sense first.
type Thesaurus interface {
	Synonyms(word string) []string
}

type MapThesaurus map[string][]string

func (m MapThesaurus) Synonyms(word string) []string {
	return m[word]
}

// DefaultThesaurus returns the built-in word list.
func DefaultThesaurus() MapThesaurus {
	t, err := parseThesaurus(defaultThesaurusJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded thesaurus is invalid: %v", err))
	}
	return t
}

// LoadThesaurus reads a JSON object of word to synonym list from path.
func LoadThesaurus(path string) (MapThesaurus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thesaurus: %w", err)
	}
	return parseThesaurus(data)
}

func parseThesaurus(data []byte) (MapThesaurus, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode thesaurus: %w", err)
	}
	t := make(MapThesaurus, len(raw))
	for word, syns := range raw {
		t[strings.ToLower(word)] = syns
	}
	return t, nil
}

var wordPattern = regexp.MustCompile(`[\p{L}]+(?:'[\p{L}]+)?`)

// SynonymRewriter replaces each word with its first listed synonym. Word order,
// punctuation and whitespace are kept; unknown words are left as they are.
type SynonymRewriter struct {
	thesaurus Thesaurus
}

func NewSynonymRewriter(t Thesaurus) *SynonymRewriter {
	if t == nil {
		t = DefaultThesaurus()
	}
	return &SynonymRewriter{thesaurus: t}
}

// Rewrite ignores the instruction.
func (r *SynonymRewriter) Rewrite(_ context.Context, _ string, text string) (string, error) {
	return r.Paraphrase(text), nil
}

func (r *SynonymRewriter) Paraphrase(text string) string {
	return wordPattern.ReplaceAllStringFunc(text, func(word string) string {
		lower := strings.ToLower(word)
		for _, syn := range r.thesaurus.Synonyms(lower) {
			if syn != "" && syn != lower {
				return matchCase(word, syn)
			}
		}
		return word
	})
}

// matchCase applies the capitalisation pattern of model to word.
func matchCase(model, word string) string {
	first, _ := utf8.DecodeRuneInString(model)
	switch {
	case utf8.RuneCountInString(model) > 1 && strings.ToUpper(model) == model:
		return strings.ToUpper(word)
	case unicode.IsUpper(first):
		r, size := utf8.DecodeRuneInString(word)
		return string(unicode.ToUpper(r)) + word[size:]
	default:
		return word
	}
}
