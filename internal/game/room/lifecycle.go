package room

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/apperrors"
	"github.com/palemoky/stranded/internal/game/engine"
	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
)

// StartGame 房主在所有人准备后开始游戏。失败只记录日志并返回错误，不改变状态
func (rm *RoomManager) StartGame(code, requesterID string) error {
	room, err := rm.lockRoom(code)
	if err != nil {
		return err
	}
	defer room.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"room": code, "player": requesterID})

	switch {
	case room.Game != nil:
		err = apperrors.ErrGameAlreadyStarted
	case room.HostID != requesterID:
		err = apperrors.ErrNotHost
	case !room.allReady():
		err = apperrors.ErrNotAllReady
	}
	if err != nil {
		log.WithError(err).Warn("start game rejected")
		return err
	}

	seats := make([]engine.Seat, 0, len(room.Order))
	for _, id := range room.Order {
		seats = append(seats, engine.Seat{UserID: id, Name: room.Members[id].Name})
	}
	room.Game = engine.NewGame(code, seats, engine.Options{StartingOxygen: rm.startingOxygen})

	log.WithFields(logrus.Fields{
		"players":    len(seats),
		"game_deck":  room.Game.GameDeck.Len(),
		"space_deck": room.Game.SpaceDeck.Len(),
		"first":      room.Game.CurrentTurn,
	}).Info("game started")

	rm.registry.Broadcast(code, codec.MustNewMessage(protocol.MsgGameStarted, GameStatePayload{
		RoomID:    code,
		GameState: room.Game,
	}))
	rm.mirrorLocked(room)
	return nil
}

// Act 在房间锁内对对局执行一次操作，成功后广播新状态
func (rm *RoomManager) Act(code, playerID string, action func(g *engine.GameState) error) error {
	room, err := rm.lockRoom(code)
	if err != nil {
		return err
	}
	defer room.mu.Unlock()

	if room.Game == nil {
		return apperrors.ErrGameNotStart
	}
	if _, ok := room.Members[playerID]; !ok {
		return apperrors.ErrNotInRoom
	}

	wasOver := room.Game.IsOver()
	err = action(room.Game)
	// 窒息死亡会改变状态，仍需广播
	if err != nil && !errors.Is(err, apperrors.ErrInsufficientResource) {
		return err
	}
	rm.broadcastGameLocked(room, wasOver)
	rm.mirrorLocked(room)
	return err
}

// broadcastGameLocked 广播对局状态，首次进入结束状态时额外广播 GAME_OVER
func (rm *RoomManager) broadcastGameLocked(room *Room, wasOver bool) {
	g := room.Game
	rm.registry.Broadcast(room.Code, codec.MustNewMessage(protocol.MsgGameUpdate, GameStatePayload{
		RoomID:    room.Code,
		GameState: g,
	}))

	if !wasOver && g.IsOver() {
		logrus.WithFields(logrus.Fields{
			"room":   room.Code,
			"winner": g.Winner,
			"step":   g.Step,
		}).Info("game over")
		rm.registry.Broadcast(room.Code, codec.MustNewMessage(protocol.MsgGameOver, GameOverPayload{
			RoomID:    room.Code,
			Winner:    g.Winner,
			GameState: g,
		}))
	}
}
