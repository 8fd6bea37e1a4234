package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/stranded/internal/protocol"
)

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"sentinel", ErrNotYourTurn, protocol.ErrCodeNotYourTurn},
		{"wrapped", fmt.Errorf("room ABCD: %w", ErrGameAlreadyStarted), protocol.ErrCodeGameStarted},
		{"plain error", errors.New("boom"), protocol.ErrCodeUnknown},
		{"nil", nil, protocol.ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestSentinels_HaveMessages(t *testing.T) {
	t.Parallel()

	all := []*GameError{
		ErrRoomNotFound, ErrNotInRoom, ErrGameAlreadyStarted, ErrNotHost, ErrNotAllReady,
		ErrGameNotStart, ErrGameOver, ErrNotYourTurn, ErrInvalidPhase, ErrCardNotInHand,
		ErrCardAlreadyPlayed, ErrCardNotPlayable, ErrIllegalTarget, ErrSolarFlare,
		ErrDiscardPending, ErrNoDiscardPending, ErrInsufficientResource, ErrInvalidChoice,
	}

	seen := make(map[int]bool)
	for _, e := range all {
		assert.NotEmpty(t, e.Error(), "code %d", e.Code)
		assert.False(t, seen[e.Code], "duplicate code %d", e.Code)
		seen[e.Code] = true
	}
	assert.True(t, errors.Is(fmt.Errorf("x: %w", ErrGameOver), ErrGameOver))
	assert.False(t, errors.Is(ErrGameOver, ErrNotYourTurn))
}
