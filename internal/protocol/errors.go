package protocol

// 错误码
const (
	ErrCodeUnknown       = 1000
	ErrCodeInvalidMsg    = 1001
	ErrCodeRateLimit     = 1002 // 速率限制
	ErrCodeUnauthorized  = 1003
	ErrCodeRoomNotFound  = 2001
	ErrCodeNotInRoom     = 2003
	ErrCodeGameStarted   = 2004 // 游戏已开始
	ErrCodeNotHost       = 2005
	ErrCodeNotAllReady   = 2006
	ErrCodeGameNotStart  = 3001
	ErrCodeNotYourTurn   = 3002
	ErrCodeInvalidPhase  = 3003
	ErrCodeCardNotInHand = 3004
	ErrCodeCardPlayed    = 3005
	ErrCodeNotPlayable   = 3006
	ErrCodeIllegalTarget = 3007
	ErrCodeSolarFlare    = 3008
	ErrCodeDiscardOwed   = 3009
	ErrCodeNoDiscardOwed = 3010
	ErrCodeInsufficient  = 3011
	ErrCodeInvalidChoice = 3012
	ErrCodeGameOver      = 3013
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:       "unknown error",
	ErrCodeInvalidMsg:    "invalid message",
	ErrCodeRateLimit:     "too many messages",
	ErrCodeUnauthorized:  "identity token required",
	ErrCodeRoomNotFound:  "room not found",
	ErrCodeNotInRoom:     "not in a room",
	ErrCodeGameStarted:   "game has already started",
	ErrCodeNotHost:       "only the host can start the game",
	ErrCodeNotAllReady:   "not all players are ready",
	ErrCodeGameNotStart:  "game has not started",
	ErrCodeNotYourTurn:   "not your turn",
	ErrCodeInvalidPhase:  "action not allowed in this phase",
	ErrCodeCardNotInHand: "card not in hand",
	ErrCodeCardPlayed:    "card already played this turn",
	ErrCodeNotPlayable:   "card cannot be played",
	ErrCodeIllegalTarget: "illegal target",
	ErrCodeSolarFlare:    "blocked by solar flare",
	ErrCodeDiscardOwed:   "discard a card first",
	ErrCodeNoDiscardOwed: "no discard owed",
	ErrCodeInsufficient:  "not enough oxygen",
	ErrCodeInvalidChoice: "invalid move choice",
	ErrCodeGameOver:      "game is over",
}
