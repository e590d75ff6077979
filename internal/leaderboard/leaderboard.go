// Package leaderboard ranks and persists the local top scores.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// Size is the number of entries kept on the board.
const Size = 10

// Key is the storage key holding the JSON-encoded board.
const Key = "quizHighScores"

// ErrCorrupt is returned by Load when the stored board cannot be decoded.
var ErrCorrupt = errors.New("leaderboard data is corrupt")

// KV is the key-value store the board is persisted in.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Updater is implemented by stores that can rewrite a key without losing a
// concurrent writer's change. fn gets the current value and returns the new one;
// write false leaves the key untouched. fn may run more than once.
type Updater interface {
	Update(ctx context.Context, key string, fn func(old string, ok bool) (value string, write bool, err error)) error
}

// Qualifies reports whether percentage earns a slot: the board has free slots, or
// percentage is strictly above the lowest entry.
func Qualifies(entries []model.HighScoreEntry, percentage int) bool {
	if len(entries) < Size {
		return true
	}
	return percentage > entries[len(entries)-1].Percentage
}

// Insert returns a new board with entry added, sorted by percentage descending and
// truncated to Size. Equal percentages keep insertion order.
func Insert(entries []model.HighScoreEntry, entry model.HighScoreEntry) []model.HighScoreEntry {
	out := make([]model.HighScoreEntry, 0, len(entries)+1)
	out = append(out, entries...)
	out = append(out, entry)
	Sort(out)
	if len(out) > Size {
		out = out[:Size]
	}
	return out
}

// Sort orders entries by percentage descending, stable.
func Sort(entries []model.HighScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Percentage > entries[j].Percentage
	})
}

// Top sorts entries and drops everything past Size.
func Top(entries []model.HighScoreEntry) []model.HighScoreEntry {
	Sort(entries)
	if len(entries) > Size {
		entries = entries[:Size]
	}
	return entries
}

// Rank returns the 1-based position of the entry with id, or 0 when absent.
func Rank(entries []model.HighScoreEntry, id string) int {
	if id == "" {
		return 0
	}
	for i, e := range entries {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}

// Board persists the leaderboard under a single key.
type Board struct {
	kv  KV
	key string
	mu  sync.Mutex
}

// NewBoard returns a Board stored in kv under Key.
func NewBoard(kv KV) *Board {
	return &Board{kv: kv, key: Key}
}

// Load reads the stored board. A missing key is an empty board.
func (b *Board) Load(ctx context.Context) ([]model.HighScoreEntry, error) {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	return decode(raw)
}

func decode(raw string) ([]model.HighScoreEntry, error) {
	var entries []model.HighScoreEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return entries, nil
}

// Save overwrites the stored board with entries.
func (b *Board) Save(ctx context.Context, entries []model.HighScoreEntry) error {
	if entries == nil {
		entries = []model.HighScoreEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	if err := b.kv.Put(ctx, b.key, string(data)); err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}
	return nil
}

// Update passes the stored board to fn, sorted and cut to Size, and stores what fn
// returns when write is true. A corrupt board is passed as empty. When the store
// implements Updater the read and the write are one atomic step and fn runs again
// after a conflicting write; otherwise updates through this Board are serialized.
func (b *Board) Update(ctx context.Context, fn func(entries []model.HighScoreEntry) ([]model.HighScoreEntry, bool, error)) error {
	apply := func(raw string, ok bool) (string, bool, error) {
		var entries []model.HighScoreEntry
		if ok && raw != "" {
			var err error
			if entries, err = decode(raw); err != nil {
				log.Printf("leaderboard: discarding stored board: %v", err)
				entries = nil
			}
		}
		next, write, err := fn(Top(entries))
		if err != nil || !write {
			return "", false, err
		}
		if next == nil {
			next = []model.HighScoreEntry{}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return "", false, fmt.Errorf("failed to encode leaderboard: %w", err)
		}
		return string(data), true, nil
	}

	if u, ok := b.kv.(Updater); ok {
		if err := u.Update(ctx, b.key, apply); err != nil {
			return fmt.Errorf("failed to update leaderboard: %w", err)
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return fmt.Errorf("failed to read leaderboard: %w", err)
	}
	value, write, err := apply(raw, ok)
	if err != nil || !write {
		return err
	}
	if err := b.kv.Put(ctx, b.key, value); err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}
	return nil
}

// Clear removes the stored board.
func (b *Board) Clear(ctx context.Context) error {
	if err := b.kv.Delete(ctx, b.key); err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}
	return nil
}
