package models

import "time"

// Session holds the per-user state carried between interactions: the latest
// generated text and how often the user has generated content.
type Session struct {
	ID                string    `json:"id"`
	GeneratedText     string    `json:"generatedText"`
	Regenerated       bool      `json:"regenerated"`
	GenerationCount   int       `json:"generationCount"`
	RegenerationCount int       `json:"regenerationCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewSession creates an empty session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordGeneration stores freshly generated text and clears the regenerated flag.
func (s *Session) RecordGeneration(text string, now time.Time) {
	s.GeneratedText = text
	s.Regenerated = false
	s.GenerationCount++
	s.UpdatedAt = now
}

// RecordRegeneration replaces the current text with a rewrite.
func (s *Session) RecordRegeneration(text string, now time.Time) {
	s.GeneratedText = text
	s.Regenerated = true
	s.RegenerationCount++
	s.UpdatedAt = now
}

// Reset clears all cached text and counters but keeps the session identity.
func (s *Session) Reset(now time.Time) {
	s.GeneratedText = ""
	s.Regenerated = false
	s.GenerationCount = 0
	s.RegenerationCount = 0
	s.UpdatedAt = now
}

// HasContent reports whether the session holds generated text.
func (s *Session) HasContent() bool {
	return s.GeneratedText != ""
}
