package engine

import "github.com/palemoky/stranded/internal/game/card"

// applyAction 结算行动牌
func (g *GameState) applyAction(actor, target *PlayerState, c *card.Card) {
	switch c.Effect {
	case card.EffectLaser, card.EffectTether:
		if g.shielded(target) {
			return
		}
		target.Position = max(target.Position-c.Amount, 0)
	case card.EffectSiphon:
		if g.shielded(target) {
			return
		}
		actor.Oxygen += target.hit(c.Amount)
	case card.EffectBooster:
		actor.Position = min(actor.Position+c.Amount, ShipPosition)
	case card.EffectHackSuit:
		actor.HackSuit = true
	case card.EffectSupply, card.EffectShield,
		card.EffectBlank, card.EffectAsteroid, card.EffectGravity, card.EffectSolarFlare, card.EffectMeteoroid:
	}
}

// shielded 防守方持有护盾且未被耀斑标记时自动弃掉护盾抵消攻击
func (g *GameState) shielded(target *PlayerState) bool {
	if target.FlareMarked {
		return false
	}
	shield := target.Hand.FindEffect(card.EffectShield)
	if shield == nil {
		return false
	}
	target.Hand.Remove(shield.ID)
	g.GameDiscard.Push(shield)
	if target.Hand.Len() == 0 {
		target.PendingDiscard = false
	}
	return true
}

// applyHazard 结算事件牌
func (g *GameState) applyHazard(active *PlayerState, h *card.Card) {
	switch h.Effect {
	case card.EffectBlank:
	case card.EffectAsteroid:
		for _, p := range g.Players {
			if p.CanTakeTurn() {
				p.hit(h.Amount)
			}
		}
	case card.EffectGravity:
		active.Position = max(active.Position-h.Amount, 0)
	case card.EffectSolarFlare:
		for _, p := range g.Players {
			if !p.IsDead && p.Hand.Len() > 0 {
				p.PendingDiscard = true
			}
		}
		active.FlareMarked = true
	case card.EffectMeteoroid:
		if p := g.closestToShip(); p != nil {
			p.hit(h.Amount)
		}
	case card.EffectSupply, card.EffectLaser, card.EffectShield,
		card.EffectSiphon, card.EffectBooster, card.EffectTether, card.EffectHackSuit:
	}
}

// closestToShip 位置最高的存活玩家，同位置按座次
func (g *GameState) closestToShip() *PlayerState {
	var best *PlayerState
	for _, p := range g.Players {
		if p.IsDead {
			continue
		}
		if best == nil || p.Position > best.Position {
			best = p
		}
	}
	return best
}
