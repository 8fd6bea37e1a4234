package engine

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/stranded/internal/game/card"
)

// newTestGame 创建固定座次的对局，ids[0] 先手
func newTestGame(t *testing.T, ids ...string) *GameState {
	t.Helper()

	seats := make([]Seat, 0, len(ids))
	for _, id := range ids {
		seats = append(seats, Seat{UserID: id, Name: "name-" + id})
	}
	g := NewGame("ABCD", seats, Options{Rand: rand.New(rand.NewPCG(42, 7))})
	slices.SortFunc(g.Players, func(a, b *PlayerState) int {
		return slices.Index(ids, a.UserID) - slices.Index(ids, b.UserID)
	})
	g.CurrentTurn = ids[0]
	return g
}

// stackHazard 把指定效果的事件牌放到事件牌库顶
func stackHazard(t *testing.T, g *GameState, effect card.Effect) *card.Card {
	t.Helper()

	h := g.SpaceDeck.FindEffect(effect)
	require.NotNil(t, h, "no %s left in hazard deck", effect)
	g.SpaceDeck.Remove(h.ID)
	g.SpaceDeck.Push(h)
	return h
}

// stackGeneral 把指定效果的通用牌放到牌库顶
func stackGeneral(t *testing.T, g *GameState, effect card.Effect) *card.Card {
	t.Helper()

	c := g.GameDeck.FindEffect(effect)
	require.NotNil(t, c, "no %s left in general deck", effect)
	g.GameDeck.Remove(c.ID)
	g.GameDeck.Push(c)
	return c
}

// give 从牌库中取出一张指定效果的牌放入玩家手牌
func give(t *testing.T, g *GameState, userID string, effect card.Effect) *card.Card {
	t.Helper()

	c := g.GameDeck.FindEffect(effect)
	require.NotNil(t, c, "no %s left in general deck", effect)
	g.GameDeck.Remove(c.ID)
	g.Player(userID).Hand.Push(c)
	return c
}

// toPhase 推进当前玩家到指定阶段
func toPhase(t *testing.T, g *GameState, phase TurnPhase) {
	t.Helper()

	uid := g.CurrentTurn
	if phase == TurnDraw {
		return
	}
	_, err := g.Draw(uid)
	require.NoError(t, err)
	if phase == TurnAction {
		return
	}
	require.NoError(t, g.EndActions(uid))
	if phase == TurnMove {
		return
	}
	require.NoError(t, g.Move(uid, ChoiceTravel))
	require.Equal(t, TurnSpaceEvent, g.TurnPhase)
}

// generalIDs 统计通用牌（牌库、弃牌堆、所有手牌）
func generalIDs(g *GameState) []string {
	var ids []string
	for _, c := range g.GameDeck {
		ids = append(ids, c.ID)
	}
	for _, c := range g.GameDiscard {
		ids = append(ids, c.ID)
	}
	for _, p := range g.Players {
		for _, c := range p.Hand {
			ids = append(ids, c.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

func hazardIDs(g *GameState) []string {
	var ids []string
	for _, c := range g.SpaceDeck {
		ids = append(ids, c.ID)
	}
	for _, c := range g.SpaceDiscard {
		ids = append(ids, c.ID)
	}
	slices.Sort(ids)
	return ids
}
