package character

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is one append-only narrative log record derived from an
// applied envelope. Entries are never edited after creation; removal is
// a soft delete.
type JournalEntry struct {
	ID          uuid.UUID `json:"id"`
	CharacterID uuid.UUID `json:"character_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Deleted     bool      `json:"deleted,omitempty"`
}

// NewJournalEntry stamps a new entry for the character.
func NewJournalEntry(characterID uuid.UUID, title, body string) JournalEntry {
	return JournalEntry{
		ID:          uuid.New(),
		CharacterID: characterID,
		Title:       title,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
}
