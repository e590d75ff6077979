// Package model defines shared data structures.
package model

import "time"

// Difficulty is the optional provider difficulty filter.
type Difficulty string

// Difficulty values accepted by the provider. DifficultyAny leaves the filter unset.
const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Label returns a display name, "any" for an unset difficulty.
func (d Difficulty) Label() string {
	if d == DifficultyAny {
		return "any"
	}
	return string(d)
}

// QuizConfig defines one quiz attempt. It is passed by value and never mutated.
type QuizConfig struct {
	Category   int
	Difficulty Difficulty
	Amount     int
	PlayerName string
}

// RawQuestion is a provider question as received, HTML entities still encoded.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Category is a provider question category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// HighScoreEntry is one persisted leaderboard row.
type HighScoreEntry struct {
	ID         string     `json:"id,omitempty"`
	PlayerName string     `json:"playerName"`
	Score      int        `json:"score"`
	Total      int        `json:"total"`
	Percentage int        `json:"percentage"`
	Difficulty Difficulty `json:"difficulty"`
	Date       time.Time  `json:"date"`
}

// Summary is the terminal payload of a finished quiz.
type Summary struct {
	SessionID   string
	PlayerName  string
	Difficulty  Difficulty
	Score       int
	Total       int
	Percentage  int
	Qualified   bool
	Rank        int
	Leaderboard []HighScoreEntry
}
