package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing MessageType = "PING" // 心跳

	// 房间操作
	MsgJoinRoom    MessageType = "JOIN_ROOM"
	MsgLeaveRoom   MessageType = "LEAVE_ROOM"
	MsgToggleReady MessageType = "TOGGLE_READY"
	MsgStartGame   MessageType = "START_GAME"

	// 游戏操作
	MsgDrawCard     MessageType = "DRAW_CARD"
	MsgPlayCard     MessageType = "PLAY_CARD"
	MsgUseOxygen    MessageType = "USE_OXYGEN"
	MsgEndActions   MessageType = "END_ACTIONS"
	MsgMove         MessageType = "MOVE"
	MsgResolveSpace MessageType = "RESOLVE_SPACE"
	MsgDiscardCard  MessageType = "DISCARD_CARD"
)

// 服务端 → 客户端 消息类型
const (
	MsgPong        MessageType = "PONG"
	MsgRoomUpdate  MessageType = "ROOM_UPDATE"
	MsgGameStarted MessageType = "GAME_STARTED"
	MsgGameUpdate  MessageType = "GAME_UPDATE"
	MsgGameOver    MessageType = "GAME_OVER"
	MsgError       MessageType = "ERROR"
)

// 房间状态（由 gameState 是否为空推导）
const (
	RoomStatusWaiting = "WAITING"
	RoomStatusPlaying = "PLAYING"
)
