package card

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Type 牌的类型标签
type Type string

const (
	TypeOxygen1    Type = "OXYGEN_1"
	TypeOxygen2    Type = "OXYGEN_2"
	TypeLaser      Type = "LASER"
	TypeShield     Type = "SHIELD"
	TypeGameEffect Type = "GAME_EFFECT" // 虹吸、推进器、牵引索、骇客服

	TypeBlank          Type = "BLANK"
	TypeAsteroidField  Type = "ASTEROID_FIELD"
	TypeGravityAnomaly Type = "GRAVITY_ANOMALY"
	TypeSolarFlare     Type = "SOLAR_FLARE"
	TypeMeteoroid      Type = "METEOROID"
)

// Effect 牌的效果种类，引擎通过穷举 switch 结算
type Effect int

const (
	EffectSupply Effect = iota // 补充 Amount 点氧气
	EffectLaser
	EffectShield
	EffectSiphon
	EffectBooster
	EffectTether
	EffectHackSuit

	EffectBlank
	EffectAsteroid
	EffectGravity
	EffectSolarFlare
	EffectMeteoroid
)

var effectNames = map[Effect]string{
	EffectSupply:     "SUPPLY",
	EffectLaser:      "LASER",
	EffectShield:     "SHIELD",
	EffectSiphon:     "SIPHON",
	EffectBooster:    "BOOSTER",
	EffectTether:     "TETHER",
	EffectHackSuit:   "HACK_SUIT",
	EffectBlank:      "BLANK",
	EffectAsteroid:   "ASTEROID",
	EffectGravity:    "GRAVITY",
	EffectSolarFlare: "SOLAR_FLARE",
	EffectMeteoroid:  "METEOROID",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Effect(%d)", int(e))
}

func (e Effect) MarshalText() ([]byte, error) {
	name, ok := effectNames[e]
	if !ok {
		return nil, fmt.Errorf("unknown effect %d", int(e))
	}
	return []byte(name), nil
}

func (e *Effect) UnmarshalText(text []byte) error {
	for effect, name := range effectNames {
		if name == string(text) {
			*e = effect
			return nil
		}
	}
	return fmt.Errorf("unknown effect %q", text)
}

// Card 定义一张牌，创建后不可修改，只在牌堆、手牌和弃牌堆之间转移
type Card struct {
	ID          string `json:"id"`
	Type        Type   `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Effect      Effect `json:"effect"`
	Amount      int    `json:"amount,omitempty"`
}

// IsSupply 氧气补给牌
func (c *Card) IsSupply() bool {
	return c.Effect == EffectSupply
}

// IsHazard 太空事件牌
func (c *Card) IsHazard() bool {
	return c.Effect >= EffectBlank
}

// IsTargeted 需要指定目标玩家的行动牌
func (c *Card) IsTargeted() bool {
	switch c.Effect {
	case EffectLaser, EffectTether, EffectSiphon:
		return true
	default:
		return false
	}
}

func (c *Card) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, c.ID)
}

var idCounter atomic.Uint64

// NewID 生成进程内唯一的牌 ID
func NewID() string {
	n := idCounter.Add(1) - 1
	return fmt.Sprintf("card_%d_%d", time.Now().UnixMilli(), n)
}
