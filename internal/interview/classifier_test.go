package interview_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mockmate/mockmate/internal/interview"
)

func TestIsFollowUp(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"elaborate", "Can you elaborate on that last point?", true},
		{"you said", "Earlier you said you led the migration. What was your role exactly?", true},
		{"you mentioned", "You mentioned Kubernetes. Which workloads did you run on it?", true},
		{"clarify", "Could you clarify what you meant by ownership?", true},
		{"can you explain", "Can you explain how that decision was made?", true},
		{"case insensitive", "CAN YOU ELABORATE on the rollout?", true},
		{"french", "Pourquoi avez-vous choisi cette approche ?", true},
		{"spanish", "¿Puedes darme un ejemplo concreto?", true},
		{"arabic", "هل يمكنك التوضيح أكثر؟", true},
		{"new topic", "Describe a challenging project you worked on.", false},
		{"opener", "Tell me about yourself.", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, interview.IsFollowUp(tc.text))
		})
	}
}

func TestCountFollowUps(t *testing.T) {
	questions := []string{
		"Tell me about yourself.",
		"Can you elaborate on that last point?",
		"Describe a challenging project you worked on.",
		"You mentioned a production outage. What did you learn from it?",
	}
	require.Equal(t, 2, interview.CountFollowUps(questions, nil))
}

func TestCountFollowUpsEmpty(t *testing.T) {
	require.Equal(t, 0, interview.CountFollowUps(nil, nil))
}

func TestCountFollowUpsCustomClassifier(t *testing.T) {
	always := func(string) bool { return true }
	require.Equal(t, 3, interview.CountFollowUps([]string{"a", "b", "c"}, always))
}
