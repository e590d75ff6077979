package quiz

import (
	"strconv"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// Question count bounds and the default player name.
const (
	MinQuestions      = 1
	MaxQuestions      = 50
	DefaultPlayerName = "Player"
)

// NewConfig validates and builds a QuizConfig. A blank player name becomes
// DefaultPlayerName.
func NewConfig(player string, category int, difficulty string, amount int) (model.QuizConfig, error) {
	if err := validateAmount(amount); err != nil {
		return model.QuizConfig{}, err
	}
	d, err := ParseDifficulty(difficulty)
	if err != nil {
		return model.QuizConfig{}, err
	}
	if category < 0 {
		return model.QuizConfig{}, &ConfigError{Field: "category", Message: "must not be negative"}
	}
	player = strings.TrimSpace(player)
	if player == "" {
		player = DefaultPlayerName
	}
	return model.QuizConfig{
		Category:   category,
		Difficulty: d,
		Amount:     amount,
		PlayerName: player,
	}, nil
}

// ParseAmount parses the question count typed into the setup form.
func ParseAmount(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &ConfigError{Field: "amount", Message: "Please enter the number of questions."}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, &ConfigError{Field: "amount", Message: "Please enter a whole number."}
	}
	if err := validateAmount(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ParseDifficulty accepts easy, medium, hard, or an empty/"any" value.
func ParseDifficulty(text string) (model.Difficulty, error) {
	switch d := model.Difficulty(strings.ToLower(strings.TrimSpace(text))); d {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
		return d, nil
	case model.DifficultyAny, "any":
		return model.DifficultyAny, nil
	default:
		return model.DifficultyAny, &ConfigError{Field: "difficulty", Message: "must be easy, medium, hard or any"}
	}
}

func validateAmount(n int) error {
	switch {
	case n < MinQuestions:
		return &ConfigError{Field: "amount", Message: "Minimum 1 question required."}
	case n > MaxQuestions:
		return &ConfigError{Field: "amount", Message: "Maximum 50 questions allowed."}
	}
	return nil
}
