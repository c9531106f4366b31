package chat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAnswer marks a BibleResponse that does not satisfy the answer shape.
var ErrInvalidAnswer = errors.New("invalid bible response")

// BibleResponse is the structured answer produced for a user question.
type BibleResponse struct {
	Greeting     string    `json:"saudacao"`
	VerseText    string    `json:"texto_biblico"`
	Reference    string    `json:"referencia"`
	Explanation  string    `json:"explicacao"`
	Sentiment    string    `json:"sentimento_detectado"`
	ReferenceAPI *VerseRef `json:"referencia_api,omitempty"`
}

// VerseRef is the machine-readable reference used to open the chapter reader.
type VerseRef struct {
	BookAbbrev string `json:"livro_abrev"`
	Chapter    int    `json:"capitulo"`
	Verse      int    `json:"versiculo"`
}

// Validate checks that every required field is present and well formed.
// referencia_api is required.
func (r BibleResponse) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"saudacao", r.Greeting},
		{"texto_biblico", r.VerseText},
		{"referencia", r.Reference},
		{"explicacao", r.Explanation},
		{"sentimento_detectado", r.Sentiment},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidAnswer, f.name)
		}
	}
	if r.ReferenceAPI == nil {
		return fmt.Errorf("%w: referencia_api is missing", ErrInvalidAnswer)
	}
	return r.ReferenceAPI.Validate()
}

// Validate checks the reference bounds.
func (v VerseRef) Validate() error {
	if strings.TrimSpace(v.BookAbbrev) == "" {
		return fmt.Errorf("%w: referencia_api.livro_abrev is empty", ErrInvalidAnswer)
	}
	if v.Chapter < 1 {
		return fmt.Errorf("%w: referencia_api.capitulo must be >= 1, got %d", ErrInvalidAnswer, v.Chapter)
	}
	if v.Verse < 1 {
		return fmt.Errorf("%w: referencia_api.versiculo must be >= 1, got %d", ErrInvalidAnswer, v.Verse)
	}
	return nil
}
