// Package conversation assembles the ordered turn list submitted to the AI backend.
package conversation

import "github.com/jomarcello/Waviate/pkg/models"

// BuildPrompt returns the system persona, the most recent maxHistory turns of history
// and the current user message, in that order. history is never modified.
func BuildPrompt(persona string, history []models.Turn, current string, maxHistory int) []models.Turn {
	return BuildPromptWithContext(persona, "", history, current, maxHistory)
}

// BuildPromptWithContext is BuildPrompt with free-form context appended to the persona.
func BuildPromptWithContext(persona, extra string, history []models.Turn, current string, maxHistory int) []models.Turn {
	system := persona
	if extra != "" {
		system += "\nAdditional context: " + extra
	}

	recent := Truncate(history, maxHistory)

	turns := make([]models.Turn, 0, len(recent)+2)
	turns = append(turns, models.Turn{Role: models.RoleSystem, Content: system})
	turns = append(turns, recent...)
	turns = append(turns, models.Turn{Role: models.RoleUser, Content: current})
	return turns
}

// Truncate returns a copy of the last max turns of history.
func Truncate(history []models.Turn, max int) []models.Turn {
	if max <= 0 || len(history) == 0 {
		return []models.Turn{}
	}
	start := 0
	if len(history) > max {
		start = len(history) - max
	}
	out := make([]models.Turn, len(history)-start)
	copy(out, history[start:])
	return out
}
