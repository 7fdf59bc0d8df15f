package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRefusal(t *testing.T) {
	for _, state := range []GroundingState{StateNoQuestion, StateNoEvidence, StateDraftedUngrounded} {
		t.Run(state.String(), func(t *testing.T) {
			a := NewRefusal(state)
			assert.True(t, a.Refused())
			assert.Equal(t, RefusalText, a.Markdown)
			assert.NotNil(t, a.Citations)
			assert.Empty(t, a.Citations)
		})
	}
}

func TestAnswer_Refused(t *testing.T) {
	a := &Answer{Markdown: "Ya.", State: StateGrounded}
	assert.False(t, a.Refused())
}

func TestGroundingState_String(t *testing.T) {
	assert.Equal(t, "grounded", StateGrounded.String())
	assert.Equal(t, "unknown", GroundingState(42).String())
}
