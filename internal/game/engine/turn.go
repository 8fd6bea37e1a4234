package engine

import (
	"slices"

	"github.com/palemoky/stranded/internal/apperrors"
	"github.com/palemoky/stranded/internal/game/card"
)

// checkTurn 校验顺序：对局结束、是否轮到、阶段、是否欠弃牌
func (g *GameState) checkTurn(userID string, phase TurnPhase) (*PlayerState, error) {
	if g.IsOver() {
		return nil, apperrors.ErrGameOver
	}
	if userID != g.CurrentTurn {
		return nil, apperrors.ErrNotYourTurn
	}
	if g.TurnPhase != phase {
		return nil, apperrors.ErrInvalidPhase
	}
	p := g.ActivePlayer()
	if p == nil {
		return nil, apperrors.ErrNotYourTurn
	}
	if p.PendingDiscard {
		return nil, apperrors.ErrDiscardPending
	}
	return p, nil
}

// Draw 抽牌阶段：抽一张通用牌，进入行动阶段
func (g *GameState) Draw(userID string) (*card.Card, error) {
	p, err := g.checkTurn(userID, TurnDraw)
	if err != nil {
		return nil, err
	}

	c := g.drawGeneral()
	if c != nil {
		p.Hand.Push(c)
	}
	g.CurrentTurnActions.DrawnCard = true
	g.TurnPhase = TurnAction
	return c, nil
}

// takeFromHand 取出本回合尚未打出的手牌
func (g *GameState) takeFromHand(p *PlayerState, cardID string) (*card.Card, error) {
	if slices.Contains(g.CurrentTurnActions.PlayedCards, cardID) {
		return nil, apperrors.ErrCardAlreadyPlayed
	}
	c := p.Hand.Find(cardID)
	if c == nil {
		return nil, apperrors.ErrCardNotInHand
	}
	return c, nil
}

// spend 将手牌移入通用弃牌堆并记录
func (g *GameState) spend(p *PlayerState, c *card.Card) {
	p.Hand.Remove(c.ID)
	g.GameDiscard.Push(c)
	g.CurrentTurnActions.PlayedCards = append(g.CurrentTurnActions.PlayedCards, c.ID)
}

// PlayCard 行动阶段打出一张行动牌
func (g *GameState) PlayCard(userID, cardID, targetID string) error {
	p, err := g.checkTurn(userID, TurnAction)
	if err != nil {
		return err
	}
	c, err := g.takeFromHand(p, cardID)
	if err != nil {
		return err
	}

	var target *PlayerState
	switch c.Effect {
	case card.EffectLaser, card.EffectTether, card.EffectSiphon:
		if p.FlareMarked {
			return apperrors.ErrSolarFlare
		}
		target = g.Player(targetID)
		if target == nil || target == p || target.IsDead || target.Position >= ShipPosition {
			return apperrors.ErrIllegalTarget
		}
	case card.EffectBooster, card.EffectHackSuit:
		if p.FlareMarked {
			return apperrors.ErrSolarFlare
		}
	case card.EffectSupply, card.EffectShield,
		card.EffectBlank, card.EffectAsteroid, card.EffectGravity, card.EffectSolarFlare, card.EffectMeteoroid:
		return apperrors.ErrCardNotPlayable
	default:
		return apperrors.ErrCardNotPlayable
	}

	g.spend(p, c)
	g.applyAction(p, target, c)
	g.checkGameOver()
	return nil
}

// UseOxygen 行动阶段消耗一张补给牌
func (g *GameState) UseOxygen(userID, cardID string) error {
	p, err := g.checkTurn(userID, TurnAction)
	if err != nil {
		return err
	}
	c, err := g.takeFromHand(p, cardID)
	if err != nil {
		return err
	}
	if !c.IsSupply() {
		return apperrors.ErrCardNotPlayable
	}

	g.spend(p, c)
	p.Oxygen += c.Amount
	return nil
}

// EndActions 结束行动阶段，进入移动阶段
func (g *GameState) EndActions(userID string) error {
	if _, err := g.checkTurn(userID, TurnAction); err != nil {
		return err
	}
	g.TurnPhase = TurnMove
	return nil
}

// Move 移动阶段：Breathe 原地支付 1 氧气，Travel 支付 2 氧气前进一格。
// 氧气不足以 Travel 时玩家窒息死亡，状态已改变并返回 ErrInsufficientResource
func (g *GameState) Move(userID string, choice MoveChoice) error {
	p, err := g.checkTurn(userID, TurnMove)
	if err != nil {
		return err
	}
	if choice != ChoiceBreathe && choice != ChoiceTravel {
		return apperrors.ErrInvalidChoice
	}

	g.CurrentTurnActions.MovedThisTurn = true
	g.CurrentTurnActions.Choice = choice

	switch choice {
	case ChoiceBreathe:
		p.pay(BreatheCost)
		g.endTurn()
		return nil
	case ChoiceTravel:
		if p.Oxygen < TravelCost {
			p.die()
			g.endTurn()
			return apperrors.ErrInsufficientResource
		}
		g.CurrentTurnActions.ShipBound = p.Position == LastSpacePosition
		p.Position = min(p.Position+1, LastSpacePosition)
		p.pay(TravelCost)
		if p.IsDead {
			g.endTurn()
			return nil
		}
		p.FlareMarked = false
		g.TurnPhase = TurnSpaceEvent
	}
	return nil
}

// ResolveSpace 事件阶段：抽一张事件牌并结算
func (g *GameState) ResolveSpace(userID string) (*card.Card, error) {
	p, err := g.checkTurn(userID, TurnSpaceEvent)
	if err != nil {
		return nil, err
	}

	h := g.drawHazard()
	if h != nil {
		g.applyHazard(p, h)
		g.SpaceDiscard.Push(h)
		g.LastHazard = h
	}

	if g.CurrentTurnActions.ShipBound && !p.IsDead && p.Position == LastSpacePosition {
		p.Position = ShipPosition
	}
	g.endTurn()
	return h, nil
}

// Discard 太阳耀斑后弃一张牌，任意阶段、任意玩家均可
func (g *GameState) Discard(userID, cardID string) error {
	if g.IsOver() {
		return apperrors.ErrGameOver
	}
	p := g.Player(userID)
	if p == nil || !p.PendingDiscard {
		return apperrors.ErrNoDiscardPending
	}
	c := p.Hand.Remove(cardID)
	if c == nil {
		return apperrors.ErrCardNotInHand
	}
	g.GameDiscard.Push(c)
	p.PendingDiscard = false
	return nil
}

// SetConnected 更新玩家在线状态；当前玩家掉线立即轮转
func (g *GameState) SetConnected(userID string, connected bool) bool {
	p := g.Player(userID)
	if p == nil {
		return false
	}
	p.IsConnected = connected
	if !connected && !g.IsOver() && g.CurrentTurn == userID {
		g.advanceTurn()
	}
	return true
}

// endTurn 检查胜负，未结束则轮到下一位
func (g *GameState) endTurn() {
	if g.checkGameOver() {
		return
	}
	g.advanceTurn()
}

// advanceTurn 按座次寻找下一位可行动玩家（最后才轮回自己），找不到则结束
func (g *GameState) advanceTurn() {
	n := len(g.Players)
	cur := slices.IndexFunc(g.Players, func(p *PlayerState) bool { return p.UserID == g.CurrentTurn })
	for i := 1; i <= n; i++ {
		next := g.Players[(cur+i+n)%n]
		if next.CanTakeTurn() {
			g.CurrentTurn = next.UserID
			g.TurnPhase = TurnDraw
			g.CurrentTurnActions = newTurnActions()
			g.Step++
			return
		}
	}
	g.GamePhase = PhaseGameOver
}

// checkGameOver 有存活玩家到达飞船即获胜（座次靠前优先），全员死亡则无人获胜
func (g *GameState) checkGameOver() bool {
	if g.IsOver() {
		return true
	}
	for _, p := range g.Players {
		if !p.IsDead && p.Position >= ShipPosition {
			g.GamePhase = PhaseGameOver
			g.Winner = p.UserID
			return true
		}
	}
	for _, p := range g.Players {
		if !p.IsDead {
			return false
		}
	}
	g.GamePhase = PhaseGameOver
	return true
}
