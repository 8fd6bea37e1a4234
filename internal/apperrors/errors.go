package apperrors

import (
	"errors"

	"github.com/palemoky/stranded/internal/protocol"
)

// GameError 游戏错误（房间和引擎共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrRoomNotFound         = newError(protocol.ErrCodeRoomNotFound)
	ErrNotInRoom            = newError(protocol.ErrCodeNotInRoom)
	ErrGameAlreadyStarted   = newError(protocol.ErrCodeGameStarted)
	ErrNotHost              = newError(protocol.ErrCodeNotHost)
	ErrNotAllReady          = newError(protocol.ErrCodeNotAllReady)
	ErrGameNotStart         = newError(protocol.ErrCodeGameNotStart)
	ErrGameOver             = newError(protocol.ErrCodeGameOver)
	ErrNotYourTurn          = newError(protocol.ErrCodeNotYourTurn)
	ErrInvalidPhase         = newError(protocol.ErrCodeInvalidPhase)
	ErrCardNotInHand        = newError(protocol.ErrCodeCardNotInHand)
	ErrCardAlreadyPlayed    = newError(protocol.ErrCodeCardPlayed)
	ErrCardNotPlayable      = newError(protocol.ErrCodeNotPlayable)
	ErrIllegalTarget        = newError(protocol.ErrCodeIllegalTarget)
	ErrSolarFlare           = newError(protocol.ErrCodeSolarFlare)
	ErrDiscardPending       = newError(protocol.ErrCodeDiscardOwed)
	ErrNoDiscardPending     = newError(protocol.ErrCodeNoDiscardOwed)
	ErrInsufficientResource = newError(protocol.ErrCodeInsufficient)
	ErrInvalidChoice        = newError(protocol.ErrCodeInvalidChoice)
)

// CodeOf 返回错误对应的错误码，非 GameError 返回 ErrCodeUnknown
func CodeOf(err error) int {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return protocol.ErrCodeUnknown
}
