// Package chat serves the small-talk fallback when a message is neither
// a report order nor a data question.
package chat

import (
	"math/rand"
	"strings"
)

type topic struct {
	triggers []string
	replies  []string
}

// topics is an ordered chain; the first trigger hit wins.
var topics = []topic{
	{
		triggers: []string{"dengue"},
		replies: []string{
			"Dengue is a mosquito-borne viral infection. Typical symptoms are high fever, severe headache, and joint pain. Removing standing water around the home cuts mosquito breeding.",
			"Dengue spreads through Aedes mosquito bites. If you suspect dengue, avoid aspirin and ibuprofen and see a doctor for a blood test.",
		},
	},
	{
		triggers: []string{"covid", "corona"},
		replies: []string{
			"COVID-19 symptoms commonly include fever, cough, and fatigue. Vaccination and good ventilation remain the best protection.",
			"If you have COVID-like symptoms, consider testing and limiting contact with vulnerable people until you recover.",
		},
	},
	{
		triggers: []string{"flu", "influenza"},
		replies: []string{
			"Seasonal flu usually brings fever, body aches, and a cough. Rest, fluids, and a yearly flu shot are the standard advice.",
		},
	},
	{
		triggers: []string{"hello", "hi ", "hey"},
		replies: []string{
			"Hello! Ask me about a disease, a medicine, nutrition, or request a trend report, e.g. \"generate a dengue report for Sri Lanka\".",
		},
	},
}

var defaultReplies = []string{
	"I can help with disease trends, medicine side effects, and nutrition facts. Try asking about a specific disease or country.",
	"I'm not sure about that one. You can ask things like \"malaria cases in Kenya\" or \"side effects of ibuprofen\".",
}

// Engine picks canned replies; rng is injected so tests can pin it.
type Engine struct {
	rng *rand.Rand
}

func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// Reply returns a canned answer for the message.
func (e *Engine) Reply(message string) string {
	lower := strings.ToLower(message)
	for _, t := range topics {
		for _, trig := range t.triggers {
			if strings.Contains(lower, trig) {
				return e.pick(t.replies)
			}
		}
	}
	return e.pick(defaultReplies)
}

func (e *Engine) pick(replies []string) string {
	if len(replies) == 1 {
		return replies[0]
	}
	return replies[e.rng.Intn(len(replies))]
}
