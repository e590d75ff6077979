package quiz

import (
	"errors"
	"fmt"
)

// ErrUnavailable is the single user-facing "unable to load questions" condition.
// Transport failures, provider failures and empty question lists all match it
// with errors.Is; the underlying cause stays reachable with errors.As.
var ErrUnavailable = errors.New("unable to load questions")

// ConfigError reports an invalid quiz configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NoQuestionsError reports a successful provider response without usable questions.
type NoQuestionsError struct {
	Requested int
}

func (e *NoQuestionsError) Error() string {
	return fmt.Sprintf("provider returned no questions (requested %d)", e.Requested)
}

// Is makes NoQuestionsError match ErrUnavailable.
func (e *NoQuestionsError) Is(target error) bool {
	return target == ErrUnavailable
}

// RoundBuildError reports an attempt to build a round past the last question.
type RoundBuildError struct {
	Index int
	Total int
}

func (e *RoundBuildError) Error() string {
	return fmt.Sprintf("no question at index %d (have %d)", e.Index, e.Total)
}
