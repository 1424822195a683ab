package character

import "github.com/google/uuid"

// QuestStatus is the lifecycle state of a quest.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

// ValidQuestStatus reports whether s is a known status value.
func ValidQuestStatus(s QuestStatus) bool {
	switch s {
	case QuestActive, QuestCompleted, QuestFailed:
		return true
	}
	return false
}

// Objective is one step of a quest, completed in order by the narration.
type Objective struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Quest is a tracked goal for a character. Status moves forward only:
// once completed or failed it stays terminal unless a GM override
// explicitly reopens it.
type Quest struct {
	ID          uuid.UUID   `json:"id"`
	CharacterID uuid.UUID   `json:"character_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      QuestStatus `json:"status"`
	Objectives  []Objective `json:"objectives,omitempty"`
}

// TitleKey returns the normalized title used for case-insensitive matching.
func (q *Quest) TitleKey() string {
	return foldName(q.Title)
}

// CanTransition reports whether the quest may move to the target status.
// Forward transitions only (active -> completed|failed); a GM override
// bypasses the monotonicity rule.
func (q *Quest) CanTransition(to QuestStatus, gmOverride bool) bool {
	if !ValidQuestStatus(to) {
		return false
	}
	if gmOverride {
		return true
	}
	if q.Status == to {
		return false
	}
	return q.Status == QuestActive
}

func (q Quest) clone() Quest {
	cp := q
	if q.Objectives != nil {
		cp.Objectives = append([]Objective(nil), q.Objectives...)
	}
	return cp
}

// FindQuests returns the indexes of all quests whose normalized title
// matches the given title. More than one match means the update is
// ambiguous and must not be applied.
func (c *Character) FindQuests(title string) []int {
	key := foldName(title)
	var idx []int
	for i := range c.Quests {
		if c.Quests[i].TitleKey() == key {
			idx = append(idx, i)
		}
	}
	return idx
}
