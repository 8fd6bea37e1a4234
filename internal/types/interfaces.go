package types

import (
	"github.com/palemoky/stranded/internal/protocol"
)

// ClientInterface 定义客户端接口（用于打破循环依赖）
type ClientInterface interface {
	GetID() string
	SendMessage(msg *protocol.Message)
	Close()
}

// ConnectionRegistry 连接 ↔ (玩家, 房间) 映射与房间广播
type ConnectionRegistry interface {
	// Bind 绑定连接到房间内的玩家，返回被顶替的旧连接（可能为 nil）
	Bind(client ClientInterface, playerID, roomCode string) ClientInterface
	Unbind(clientID string)
	Broadcast(roomCode string, msg *protocol.Message)
}

// IdentifiedClient 握手时已验证身份的客户端
type IdentifiedClient interface {
	// Identity 返回已验证的用户 ID 与昵称，未验证时 ok 为 false
	Identity() (userID, name string, ok bool)
}
