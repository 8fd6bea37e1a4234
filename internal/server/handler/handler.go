package handler

import (
	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/game/room"
	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
	"github.com/palemoky/stranded/internal/server/registry"
	"github.com/palemoky/stranded/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Registry    *registry.Registry
	RoomManager *room.RoomManager
}

// Handler 消息处理器
type Handler struct {
	registry    *registry.Registry
	roomManager *room.RoomManager
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		registry:    deps.Registry,
		roomManager: deps.RoomManager,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoinRoom:    h.handleJoinRoom,
		protocol.MsgLeaveRoom:   func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgToggleReady: func(c types.ClientInterface, _ *protocol.Message) { h.handleToggleReady(c) },
		protocol.MsgStartGame:   func(c types.ClientInterface, _ *protocol.Message) { h.handleStartGame(c) },

		// 游戏操作
		protocol.MsgDrawCard:     func(c types.ClientInterface, _ *protocol.Message) { h.handleDrawCard(c) },
		protocol.MsgPlayCard:     h.handlePlayCard,
		protocol.MsgUseOxygen:    h.handleUseOxygen,
		protocol.MsgEndActions:   func(c types.ClientInterface, _ *protocol.Message) { h.handleEndActions(c) },
		protocol.MsgMove:         h.handleMove,
		protocol.MsgResolveSpace: func(c types.ClientInterface, _ *protocol.Message) { h.handleResolveSpace(c) },
		protocol.MsgDiscardCard:  h.handleDiscardCard,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	logrus.WithFields(logrus.Fields{
		"conn": client.GetID(),
		"type": msg.Type,
		"size": len(msg.Data),
	}).Warn("unknown message type")
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sendError 仅发送给请求方
func sendError(client types.ClientInterface, err error) {
	client.SendMessage(codec.ErrorMessageFor(err))
}

// withBinding 解析连接对应的玩家与房间，未绑定时返回 NOT_IN_ROOM
func (h *Handler) withBinding(client types.ClientInterface, fn func(b registry.Binding) error) {
	b, ok := h.registry.Resolve(client.GetID())
	if !ok {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return
	}
	if err := fn(b); err != nil {
		sendError(client, err)
	}
}
