package models

// GameView is what the player sees after a turn. It is rebuilt from the saved
// state every time and never persisted.
type GameView struct {
	Narrative string                 `json:"narrative"`
	Location  LocationView           `json:"location"`
	Inventory []ItemView             `json:"inventory"`
	DueCount  int                    `json:"due_count"`
	NewQuests []QuestNotice          `json:"new_quests,omitempty"`
	NewBadges []BadgeNotice          `json:"new_badges,omitempty"`
	Level     int                    `json:"level"`
	Points    int                    `json:"points"`
	Module    string                 `json:"module"`
	Completed []string               `json:"completed_quests,omitempty"`
	Grammar   map[string]GrammarStat `json:"grammar,omitempty"`
}

// LocationView renders the current location.
type LocationView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Exits       []ExitView `json:"exits"`
	Objects     []ItemView `json:"objects"`
	NPCs        []NPCView  `json:"npcs"`
}

// ExitView is a way out of the current location. Name is empty until the
// destination has been visited.
type ExitView struct {
	Direction string `json:"direction"`
	Name      string `json:"name,omitempty"`
}

// ItemView is an object in the scene or in the inventory.
type ItemView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// NPCView is a character in the scene.
type NPCView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// QuestNotice announces a quest completed this turn.
type QuestNotice struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Points int    `json:"points"`
}

// BadgeNotice announces a badge earned this turn.
type BadgeNotice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
