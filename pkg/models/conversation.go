package models

import "strings"

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged utterance in a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Intent is a label classifying the purpose of an inbound message.
type Intent string

const (
	IntentGreeting          Intent = "greeting"
	IntentQuestion          Intent = "question"
	IntentComplaint         Intent = "complaint"
	IntentFeedback          Intent = "feedback"
	IntentPurchase          Intent = "purchase_intent"
	IntentHumanAgentRequest Intent = "human_agent_request"
	IntentOther             Intent = "other"
)

// Intents is the closed vocabulary, in the order it is presented to the classifier.
var Intents = []Intent{
	IntentGreeting,
	IntentQuestion,
	IntentComplaint,
	IntentFeedback,
	IntentPurchase,
	IntentHumanAgentRequest,
	IntentOther,
}

// Known reports whether i belongs to the closed vocabulary.
func (i Intent) Known() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// IntentList renders the vocabulary as a comma separated list.
func IntentList() string {
	names := make([]string, len(Intents))
	for i, intent := range Intents {
		names[i] = string(intent)
	}
	return strings.Join(names, ", ")
}

// IntentResult is the outcome of a classification request.
type IntentResult struct {
	Intent Intent `json:"intent"`
}
