package protocol

// --- 客户端请求 Payloads ---

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost,omitempty"` // 房主首次进入时先创建房间
}

// PlayCardPayload 打出行动牌
type PlayCardPayload struct {
	CardID   string `json:"cardId"`
	TargetID string `json:"targetId,omitempty"`
}

// CardPayload 只携带一张牌的请求（补氧、弃牌）
type CardPayload struct {
	CardID string `json:"cardId"`
}

// MovePayload 移动阶段选择
type MovePayload struct {
	Choice string `json:"choice"` // BREATHE / TRAVEL
}

// --- 服务端响应 Payloads ---

// RoomMemberInfo 房间成员信息
type RoomMemberInfo struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	IsReady bool   `json:"isReady"`
}

// RoomUpdatePayload 房间状态快照
type RoomUpdatePayload struct {
	Code    string           `json:"code"`
	HostID  string           `json:"hostId"`
	Players []RoomMemberInfo `json:"players"`
	Status  string           `json:"status"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
