package engine

import (
	"math/rand/v2"
	"slices"

	"github.com/palemoky/stranded/internal/game/card"
)

// GamePhase 游戏阶段
type GamePhase string

const (
	PhasePlaying  GamePhase = "PLAYING"
	PhaseGameOver GamePhase = "GAME_OVER"
)

// TurnPhase 回合阶段，按 DRAW → ACTION → MOVE → SPACE_EVENT 循环
type TurnPhase string

const (
	TurnDraw       TurnPhase = "DRAW"
	TurnAction     TurnPhase = "ACTION"
	TurnMove       TurnPhase = "MOVE"
	TurnSpaceEvent TurnPhase = "SPACE_EVENT"
)

// MoveChoice 移动阶段的选择
type MoveChoice string

const (
	ChoiceBreathe MoveChoice = "BREATHE"
	ChoiceTravel  MoveChoice = "TRAVEL"
)

const (
	ShipPosition          = 6 // 飞船，安全位置
	LastSpacePosition     = 5
	DefaultStartingOxygen = 6
	BreatheCost           = 1
	TravelCost            = 2
)

// startingHand 开局手牌：4 张 Oxygen(1) + 1 张 Oxygen(2)
var startingHand = []card.Type{
	card.TypeOxygen1, card.TypeOxygen1, card.TypeOxygen1, card.TypeOxygen1,
	card.TypeOxygen2,
}

// PlayerState 玩家在对局中的状态
type PlayerState struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	Oxygen      int       `json:"oxygen"`
	Hand        card.Pile `json:"hand"`
	IsDead      bool      `json:"isDead"`
	IsConnected bool      `json:"isConnected"`

	FlareMarked    bool `json:"flareMarked"`    // 太阳耀斑标记，经过下一次 Travel 前不能打行动牌
	HackSuit       bool `json:"hackSuit"`       // 抵消下一次氧气损失
	PendingDiscard bool `json:"pendingDiscard"` // 太阳耀斑后欠一张弃牌
}

// CanTakeTurn 未死亡且在线
func (p *PlayerState) CanTakeTurn() bool {
	return !p.IsDead && p.IsConnected
}

// pay 支付氧气，归零即死亡
func (p *PlayerState) pay(n int) {
	p.Oxygen = max(p.Oxygen-n, 0)
	if p.Oxygen == 0 {
		p.die()
	}
}

// hit 受到伤害，骇客服会抵消一次，返回实际损失
func (p *PlayerState) hit(n int) int {
	if p.HackSuit {
		p.HackSuit = false
		return 0
	}
	lost := min(n, p.Oxygen)
	p.pay(n)
	return lost
}

func (p *PlayerState) die() {
	p.Oxygen = 0
	p.IsDead = true
	p.PendingDiscard = false
}

// TurnActions 当前回合已执行的操作（防作弊）
type TurnActions struct {
	DrawnCard     bool       `json:"drawnCard"`
	PlayedCards   []string   `json:"playedCards"`
	MovedThisTurn bool       `json:"movedThisTurn"`
	Choice        MoveChoice `json:"choice,omitempty"`
	ShipBound     bool       `json:"shipBound,omitempty"` // 从 5 号位出发的 Travel
}

func newTurnActions() TurnActions {
	return TurnActions{PlayedCards: []string{}}
}

// GameState 一个房间的权威对局状态，调用方负责串行访问
type GameState struct {
	RoomCode           string         `json:"roomCode"`
	Players            []*PlayerState `json:"players"`
	GameDeck           card.Pile      `json:"gameDeck"`
	SpaceDeck          card.Pile      `json:"spaceDeck"`
	GameDiscard        card.Pile      `json:"gameDiscard"`
	SpaceDiscard       card.Pile      `json:"spaceDiscard"`
	GamePhase          GamePhase      `json:"gamePhase"`
	CurrentTurn        string         `json:"currentTurn"`
	TurnPhase          TurnPhase      `json:"turnPhase"`
	CurrentTurnActions TurnActions    `json:"currentTurnActions"`
	Step               int            `json:"step"`
	Winner             string         `json:"winner,omitempty"`
	LastHazard         *card.Card     `json:"lastHazard,omitempty"` // 最近结算的事件牌（已在 spaceDiscard 中）

	rng *rand.Rand
}

// Seat 入座玩家
type Seat struct {
	UserID string
	Name   string
}

// Options 对局参数
type Options struct {
	StartingOxygen int
	Rand           *rand.Rand // nil 使用全局随机源
}

// NewGame 创建对局：洗牌、随机座次、发开局手牌
func NewGame(roomCode string, seats []Seat, opts Options) *GameState {
	oxygen := opts.StartingOxygen
	if oxygen <= 0 {
		oxygen = DefaultStartingOxygen
	}

	g := &GameState{
		RoomCode:           roomCode,
		Players:            make([]*PlayerState, 0, len(seats)),
		GameDeck:           card.NewGeneralDeck(opts.Rand),
		SpaceDeck:          card.NewHazardDeck(opts.Rand),
		GameDiscard:        card.Pile{},
		SpaceDiscard:       card.Pile{},
		GamePhase:          PhasePlaying,
		TurnPhase:          TurnDraw,
		CurrentTurnActions: newTurnActions(),
		rng:                opts.Rand,
	}

	order := slices.Clone(seats)
	g.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, s := range order {
		g.Players = append(g.Players, &PlayerState{
			UserID:      s.UserID,
			Name:        s.Name,
			Oxygen:      oxygen,
			Hand:        g.deal(),
			IsConnected: true,
		})
	}
	if len(g.Players) > 0 {
		g.CurrentTurn = g.Players[0].UserID
	}
	return g
}

// deal 从通用牌库中挑出开局手牌，牌不够时少发
func (g *GameState) deal() card.Pile {
	hand := card.Pile{}
	for _, want := range startingHand {
		i := slices.IndexFunc(g.GameDeck, func(c *card.Card) bool { return c.Type == want })
		if i < 0 {
			continue
		}
		hand.Push(g.GameDeck.Remove(g.GameDeck[i].ID))
	}
	return hand
}

func (g *GameState) shuffle(n int, swap func(i, j int)) {
	if g.rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	g.rng.Shuffle(n, swap)
}

// Player 按 ID 查找玩家
func (g *GameState) Player(userID string) *PlayerState {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// ActivePlayer 当前行动玩家
func (g *GameState) ActivePlayer() *PlayerState {
	return g.Player(g.CurrentTurn)
}

// IsOver 对局是否结束
func (g *GameState) IsOver() bool {
	return g.GamePhase == PhaseGameOver
}

// drawGeneral 通用牌库为空时把弃牌堆洗回，两者皆空返回 nil
func (g *GameState) drawGeneral() *card.Card {
	if g.GameDeck.Len() == 0 {
		g.GameDeck.Push(g.GameDiscard.TakeAll()...)
		g.GameDeck.Shuffle(g.rng)
	}
	return g.GameDeck.Draw()
}

func (g *GameState) drawHazard() *card.Card {
	if g.SpaceDeck.Len() == 0 {
		g.SpaceDeck.Push(g.SpaceDiscard.TakeAll()...)
		g.SpaceDeck.Shuffle(g.rng)
	}
	return g.SpaceDeck.Draw()
}
