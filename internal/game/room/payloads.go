package room

import (
	"github.com/palemoky/stranded/internal/game/engine"
	"github.com/palemoky/stranded/internal/protocol"
)

// GameStatePayload GAME_STARTED / GAME_UPDATE 的数据
type GameStatePayload struct {
	RoomID    string            `json:"roomId"`
	GameState *engine.GameState `json:"gameState"`
}

// GameOverPayload GAME_OVER 的数据
type GameOverPayload struct {
	RoomID    string            `json:"roomId"`
	Winner    string            `json:"winner,omitempty"`
	GameState *engine.GameState `json:"gameState"`
}

// snapshotLocked 房间快照，调用方持有 r.mu
func (r *Room) snapshotLocked() protocol.RoomUpdatePayload {
	players := make([]protocol.RoomMemberInfo, 0, len(r.Order))
	for _, id := range r.Order {
		m := r.Members[id]
		players = append(players, protocol.RoomMemberInfo{
			UserID:  m.UserID,
			Name:    m.Name,
			IsReady: m.Ready,
		})
	}

	status := protocol.RoomStatusWaiting
	if r.Game != nil {
		status = protocol.RoomStatusPlaying
	}
	return protocol.RoomUpdatePayload{
		Code:    r.Code,
		HostID:  r.HostID,
		Players: players,
		Status:  status,
	}
}
