package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/quiz"
)

const (
	fieldName = iota
	fieldCategory
	fieldDifficulty
	fieldAmount
)

// setupForm collects a quiz configuration before a session starts.
type setupForm struct {
	inputs []textinput.Model
	index  int
	err    string
}

func newSetupForm(cfg model.QuizConfig) setupForm {
	f := setupForm{
		inputs: []textinput.Model{
			newFormInput("Name:       ", quiz.DefaultPlayerName),
			newFormInput("Category:   ", "any (see tuiquiz categories)"),
			newFormInput("Difficulty: ", "any, easy, medium or hard"),
			newFormInput("Questions:  ", "1-50"),
		},
	}
	f.inputs[fieldAmount].CharLimit = 3
	f.setValues(cfg)
	f.setIndex(fieldName)
	return f
}

func newFormInput(prompt, placeholder string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = 64
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (f *setupForm) setValues(cfg model.QuizConfig) {
	f.inputs[fieldName].SetValue(cfg.PlayerName)
	if cfg.Category > 0 {
		f.inputs[fieldCategory].SetValue(strconv.Itoa(cfg.Category))
	} else {
		f.inputs[fieldCategory].SetValue("")
	}
	f.inputs[fieldDifficulty].SetValue(string(cfg.Difficulty))
	if cfg.Amount > 0 {
		f.inputs[fieldAmount].SetValue(strconv.Itoa(cfg.Amount))
	} else {
		f.inputs[fieldAmount].SetValue("")
	}
}

func (f *setupForm) setIndex(idx int) tea.Cmd {
	count := len(f.inputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	f.index = idx
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.index {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

// update handles a key press. submit is true when the form was confirmed.
func (f *setupForm) update(msg tea.KeyMsg) (submit bool, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if f.index < fieldAmount {
			return false, f.setIndex(f.index + 1)
		}
		return true, nil
	case tea.KeyTab, tea.KeyDown:
		return false, f.setIndex(f.index + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return false, f.setIndex(f.index - 1)
	}
	f.err = ""
	f.inputs[f.index], cmd = f.inputs[f.index].Update(msg)
	return false, cmd
}

// config validates the form. The returned error is a ConfigError.
func (f *setupForm) config() (model.QuizConfig, error) {
	amount, err := quiz.ParseAmount(f.inputs[fieldAmount].Value())
	if err != nil {
		return model.QuizConfig{}, err
	}
	category := 0
	if text := strings.TrimSpace(f.inputs[fieldCategory].Value()); text != "" && !strings.EqualFold(text, "any") {
		category, err = strconv.Atoi(text)
		if err != nil {
			return model.QuizConfig{}, &quiz.ConfigError{Field: "category", Message: "Category must be a number."}
		}
	}
	return quiz.NewConfig(
		f.inputs[fieldName].Value(),
		category,
		f.inputs[fieldDifficulty].Value(),
		amount,
	)
}

func (f *setupForm) setError(err error) {
	var ce *quiz.ConfigError
	if errors.As(err, &ce) && strings.HasSuffix(ce.Message, ".") {
		f.err = ce.Message
		return
	}
	f.err = err.Error()
}

func (f *setupForm) view() string {
	lines := []string{titleStyle.Render("Trivia Quiz"), ""}
	for _, input := range f.inputs {
		lines = append(lines, input.View())
	}
	lines = append(lines, "")
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
