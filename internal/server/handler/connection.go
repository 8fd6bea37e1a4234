package handler

import (
	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
	"github.com/palemoky/stranded/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, _ *protocol.Message) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, nil))
}

// OnConnect 新连接建立
func (h *Handler) OnConnect(client types.ClientInterface) {
	h.registry.Register(client)
}

// OnDisconnect 连接断开，等同于离开房间
func (h *Handler) OnDisconnect(client types.ClientInterface) {
	b, bound := h.registry.Unregister(client.GetID())
	if !bound {
		return
	}

	logrus.WithFields(logrus.Fields{
		"conn":   client.GetID(),
		"room":   b.RoomCode,
		"player": b.PlayerID,
	}).Info("connection closed")
	h.roomManager.Disconnect(b.RoomCode, b.PlayerID, client.GetID())
}
