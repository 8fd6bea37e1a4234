package handler

import (
	"github.com/palemoky/stranded/internal/game/engine"
	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
	"github.com/palemoky/stranded/internal/server/registry"
	"github.com/palemoky/stranded/internal/types"
)

// act 在玩家所在房间的对局上执行操作
func (h *Handler) act(client types.ClientInterface, action func(g *engine.GameState, playerID string) error) {
	h.withBinding(client, func(b registry.Binding) error {
		return h.roomManager.Act(b.RoomCode, b.PlayerID, func(g *engine.GameState) error {
			return action(g, b.PlayerID)
		})
	})
}

// handleDrawCard 处理抽牌
func (h *Handler) handleDrawCard(client types.ClientInterface) {
	h.act(client, func(g *engine.GameState, playerID string) error {
		_, err := g.Draw(playerID)
		return err
	})
}

// handlePlayCard 处理打出行动牌
func (h *Handler) handlePlayCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.act(client, func(g *engine.GameState, playerID string) error {
		return g.PlayCard(playerID, payload.CardID, payload.TargetID)
	})
}

// handleUseOxygen 处理使用氧气补给牌
func (h *Handler) handleUseOxygen(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.CardPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.act(client, func(g *engine.GameState, playerID string) error {
		return g.UseOxygen(playerID, payload.CardID)
	})
}

// handleEndActions 处理结束行动阶段
func (h *Handler) handleEndActions(client types.ClientInterface) {
	h.act(client, func(g *engine.GameState, playerID string) error {
		return g.EndActions(playerID)
	})
}

// handleMove 处理移动选择
func (h *Handler) handleMove(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.MovePayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.act(client, func(g *engine.GameState, playerID string) error {
		return g.Move(playerID, engine.MoveChoice(payload.Choice))
	})
}

// handleResolveSpace 处理事件结算
func (h *Handler) handleResolveSpace(client types.ClientInterface) {
	h.act(client, func(g *engine.GameState, playerID string) error {
		_, err := g.ResolveSpace(playerID)
		return err
	})
}

// handleDiscardCard 处理太阳耀斑弃牌
func (h *Handler) handleDiscardCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.CardPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	h.act(client, func(g *engine.GameState, playerID string) error {
		return g.Discard(playerID, payload.CardID)
	})
}
