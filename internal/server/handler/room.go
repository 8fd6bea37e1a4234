package handler

import (
	"errors"
	"strings"

	"github.com/palemoky/stranded/internal/apperrors"
	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
	"github.com/palemoky/stranded/internal/server/registry"
	"github.com/palemoky/stranded/internal/types"
)

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 握手时验证过的身份优先
	if ic, ok := client.(types.IdentifiedClient); ok {
		if userID, name, verified := ic.Identity(); verified {
			payload.UserID = userID
			if name != "" {
				payload.Name = name
			}
		}
	}

	code := strings.TrimSpace(payload.Code)
	if code == "" || payload.UserID == "" {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, "code and userId are required"))
		return
	}

	// 如果已在其他房间中，先离开
	if b, ok := h.registry.Resolve(client.GetID()); ok && (b.RoomCode != code || b.PlayerID != payload.UserID) {
		h.roomManager.LeaveRoom(b.RoomCode, b.PlayerID)
	}

	if payload.IsHost {
		h.roomManager.CreateRoom(code, payload.UserID)
	}

	if err := h.roomManager.JoinRoom(code, payload.UserID, payload.Name, client); err != nil {
		sendError(client, err)
		if errors.Is(err, apperrors.ErrGameAlreadyStarted) {
			client.Close()
		}
	}
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	h.withBinding(client, func(b registry.Binding) error {
		h.roomManager.LeaveRoom(b.RoomCode, b.PlayerID)
		return nil
	})
}

// handleToggleReady 处理准备/取消准备
func (h *Handler) handleToggleReady(client types.ClientInterface) {
	h.withBinding(client, func(b registry.Binding) error {
		return h.roomManager.ToggleReady(b.RoomCode, b.PlayerID)
	})
}

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface) {
	h.withBinding(client, func(b registry.Binding) error {
		return h.roomManager.StartGame(b.RoomCode, b.PlayerID)
	})
}
