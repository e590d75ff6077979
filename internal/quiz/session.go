// Package quiz implements the quiz session and question round state machine.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuiquiz/internal/leaderboard"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/trivia"
)

// Provider fetches questions for a quiz.
type Provider interface {
	FetchQuestions(ctx context.Context, req trivia.Request) ([]model.RawQuestion, error)
}

// Board loads and updates the persisted leaderboard. Update hands fn the current
// top entries and stores the returned ones when write is true.
type Board interface {
	Load(ctx context.Context) ([]model.HighScoreEntry, error)
	Update(ctx context.Context, fn func(entries []model.HighScoreEntry) ([]model.HighScoreEntry, bool, error)) error
}

// Session owns one quiz attempt: configuration, questions, position and score.
type Session struct {
	id       string
	cfg      model.QuizConfig
	provider Provider
	board    Board
	now      func() time.Time

	mu        sync.Mutex
	questions []model.RawQuestion
	index     int
	score     int
	summary   *model.Summary
}

// NewSession validates cfg and returns a session ready to fetch questions.
func NewSession(cfg model.QuizConfig, provider Provider, board Board) (*Session, error) {
	if err := validateAmount(cfg.Amount); err != nil {
		return nil, err
	}
	if cfg.PlayerName == "" {
		cfg.PlayerName = DefaultPlayerName
	}
	return &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		provider: provider,
		board:    board,
		now:      time.Now,
	}, nil
}

// ID returns the session id, also used as the id of its leaderboard entry.
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration.
func (s *Session) Config() model.QuizConfig {
	return s.cfg
}

// FetchQuestions loads the questions with a single provider request. Every failure
// leaves the session without questions and matches ErrUnavailable.
func (s *Session) FetchQuestions(ctx context.Context) ([]model.RawQuestion, error) {
	questions, err := s.provider.FetchQuestions(ctx, trivia.Request{
		Amount:     s.cfg.Amount,
		Category:   s.cfg.Category,
		Difficulty: s.cfg.Difficulty,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = nil
	s.index = 0
	if err != nil {
		log.Printf("session %s: fetch questions: %v", s.id, err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(questions) == 0 {
		return nil, &NoQuestionsError{Requested: s.cfg.Amount}
	}
	s.questions = copyQuestions(questions)
	return copyQuestions(s.questions), nil
}

// Questions returns a copy of the fetched questions.
func (s *Session) Questions() []model.RawQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyQuestions(s.questions)
}

func copyQuestions(qs []model.RawQuestion) []model.RawQuestion {
	out := make([]model.RawQuestion, len(qs))
	for i, q := range qs {
		q.IncorrectAnswers = append([]string(nil), q.IncorrectAnswers...)
		out[i] = q
	}
	return out
}

// CurrentQuestion returns the question at the current index. ok is false once every
// question has been played.
func (s *Session) CurrentQuestion() (q model.RawQuestion, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.questions) {
		return model.RawQuestion{}, false
	}
	return s.questions[s.index], true
}

// Advance moves to the next question and reports whether one remains.
func (s *Session) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < len(s.questions) {
		s.index++
	}
	return s.index < len(s.questions)
}

// RecordCorrectAnswer adds one point. Rounds call it at most once each.
func (s *Session) RecordCorrectAnswer() {
	s.mu.Lock()
	s.score++
	s.mu.Unlock()
}

// Index returns the zero-based current question index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Score returns the number of correct answers so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// ScorePercentage is round(score / requested * 100). The denominator is the
// requested amount even when the provider served fewer questions.
func (s *Session) ScorePercentage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return percent(s.score, s.cfg.Amount)
}

// Progress is round((index+1) / requested * 100), the share of the quiz reached by
// the current question.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return percent(s.index+1, s.cfg.Amount)
}

// QualifiesForLeaderboard reports whether the current percentage earns a slot on
// the persisted board.
func (s *Session) QualifiesForLeaderboard(ctx context.Context) (bool, error) {
	entries, err := s.loadBoard(ctx)
	if err != nil {
		return false, err
	}
	return leaderboard.Qualifies(entries, s.ScorePercentage()), nil
}

// Finalize ranks the result against the persisted board, stores it when it
// qualifies and returns the summary. Later calls return the first complete summary.
// When the board cannot be read or saved the score is still returned together with
// the error.
func (s *Session) Finalize(ctx context.Context) (model.Summary, error) {
	s.mu.Lock()
	if s.summary != nil {
		summary := *s.summary
		s.mu.Unlock()
		return summary, nil
	}
	s.mu.Unlock()

	pct := s.ScorePercentage()
	summary := model.Summary{
		SessionID:  s.id,
		PlayerName: s.cfg.PlayerName,
		Difficulty: s.cfg.Difficulty,
		Score:      s.Score(),
		Total:      s.cfg.Amount,
		Percentage: pct,
	}

	entry := model.HighScoreEntry{
		ID:         s.id,
		PlayerName: s.cfg.PlayerName,
		Score:      summary.Score,
		Total:      summary.Total,
		Percentage: pct,
		Difficulty: s.cfg.Difficulty,
		Date:       s.now(),
	}
	loaded := false
	err := s.board.Update(ctx, func(entries []model.HighScoreEntry) ([]model.HighScoreEntry, bool, error) {
		loaded = true
		summary.Qualified = leaderboard.Qualifies(entries, pct)
		summary.Rank = 0
		summary.Leaderboard = entries
		if !summary.Qualified {
			return nil, false, nil
		}
		entries = leaderboard.Insert(entries, entry)
		summary.Rank = leaderboard.Rank(entries, s.id)
		summary.Leaderboard = entries
		return entries, true, nil
	})
	if err != nil && !loaded {
		return summary, err
	}
	if err != nil {
		log.Printf("session %s: %v", s.id, err)
	}

	s.mu.Lock()
	s.summary = &summary
	s.mu.Unlock()
	return summary, err
}

func (s *Session) loadBoard(ctx context.Context) ([]model.HighScoreEntry, error) {
	entries, err := s.board.Load(ctx)
	if err != nil {
		if errors.Is(err, leaderboard.ErrCorrupt) {
			log.Printf("session %s: discarding stored leaderboard: %v", s.id, err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return leaderboard.Top(entries), nil
}

func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
