package quiz

import (
	"html"
	"math/rand"
)

func decodeHTML(s string) string {
	return html.UnescapeString(s)
}

// shuffleAnswers returns the incorrect answers plus the correct one in a uniformly
// random order (Fisher-Yates).
func shuffleAnswers(rnd *rand.Rand, correct string, incorrect []string) []string {
	answers := make([]string, 0, len(incorrect)+1)
	answers = append(answers, incorrect...)
	answers = append(answers, correct)
	for i := len(answers) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		answers[i], answers[j] = answers[j], answers[i]
	}
	return answers
}
