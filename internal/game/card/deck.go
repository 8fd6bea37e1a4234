package card

import "math/rand/v2"

// entry 牌库配置表的一行
type entry struct {
	typ         Type
	effect      Effect
	name        string
	description string
	amount      int
	count       int
}

// generalCatalog 通用牌库（抽牌阶段使用）
var generalCatalog = []entry{
	{TypeOxygen1, EffectSupply, "Oxygen (1)", "Add 1 oxygen to your tank", 1, 10},
	{TypeOxygen2, EffectSupply, "Oxygen (2)", "Add 2 oxygen to your tank", 2, 8},
	{TypeGameEffect, EffectSiphon, "Oxygen Siphon", "Steal 1 oxygen from another player", 1, 4},
	{TypeGameEffect, EffectBooster, "Rocket Booster", "Move forward 1 space", 1, 4},
	{TypeGameEffect, EffectTether, "Tether", "Pull a player back 1 space", 1, 3},
	{TypeLaser, EffectLaser, "Laser Blast", "Knock a player back 1 space", 1, 2},
	{TypeShield, EffectShield, "Shield", "Block an attack", 0, 5},
	{TypeGameEffect, EffectHackSuit, "Hack Suit", "Prevent next oxygen loss", 0, 3},
}

// hazardCatalog 太空事件牌库（移动后结算）
var hazardCatalog = []entry{
	{TypeBlank, EffectBlank, "Blank Space", "Safe - nothing happens", 0, 10},
	{TypeAsteroidField, EffectAsteroid, "Asteroid Field", "All players lose 1 oxygen", 1, 8},
	{TypeGravityAnomaly, EffectGravity, "Gravitational Anomaly", "Current player moves back 1 space", 1, 5},
	{TypeSolarFlare, EffectSolarFlare, "Solar Flare", "All players discard 1 card", 0, 4},
	{TypeMeteoroid, EffectMeteoroid, "Meteoroid", "Closest player to ship loses 2 oxygen", 2, 3},
}

// GeneralDeckSize 通用牌库总张数
var GeneralDeckSize = catalogSize(generalCatalog)

// HazardDeckSize 事件牌库总张数
var HazardDeckSize = catalogSize(hazardCatalog)

func catalogSize(catalog []entry) int {
	n := 0
	for _, e := range catalog {
		n += e.count
	}
	return n
}

func build(catalog []entry, r *rand.Rand) Pile {
	pile := make(Pile, 0, catalogSize(catalog))
	for _, e := range catalog {
		for range e.count {
			pile = append(pile, &Card{
				ID:          NewID(),
				Type:        e.typ,
				Name:        e.name,
				Description: e.description,
				Effect:      e.effect,
				Amount:      e.amount,
			})
		}
	}
	pile.Shuffle(r)
	return pile
}

// NewGeneralDeck 创建洗好的通用牌库，r 为 nil 时使用全局随机源
func NewGeneralDeck(r *rand.Rand) Pile {
	return build(generalCatalog, r)
}

// NewHazardDeck 创建洗好的事件牌库
func NewHazardDeck(r *rand.Rand) Pile {
	return build(hazardCatalog, r)
}
