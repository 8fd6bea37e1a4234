package room

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/stranded/internal/apperrors"
	"github.com/palemoky/stranded/internal/game/engine"
	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
	"github.com/palemoky/stranded/internal/server/registry"
	"github.com/palemoky/stranded/internal/server/storage"
	"github.com/palemoky/stranded/internal/testutil"
)

func newTestManager(t *testing.T) *RoomManager {
	t.Helper()
	return NewRoomManager(registry.New(), nil, 0)
}

func join(t *testing.T, rm *RoomManager, code, id string) *testutil.SimpleClient {
	t.Helper()
	c := testutil.NewSimpleClient("conn-" + id)
	require.NoError(t, rm.JoinRoom(code, id, "name-"+id, c))
	return c
}

func lastRoomUpdate(t *testing.T, c *testutil.SimpleClient) *protocol.RoomUpdatePayload {
	t.Helper()
	msgs := c.MessagesOfType(protocol.MsgRoomUpdate)
	require.NotEmpty(t, msgs)
	payload, err := codec.ParsePayload[protocol.RoomUpdatePayload](msgs[len(msgs)-1])
	require.NoError(t, err)
	return payload
}

func lastGameState(t *testing.T, c *testutil.SimpleClient, msgType protocol.MessageType) *engine.GameState {
	t.Helper()
	msgs := c.MessagesOfType(msgType)
	require.NotEmpty(t, msgs, "no %s received", msgType)
	payload, err := codec.ParsePayload[GameStatePayload](msgs[len(msgs)-1])
	require.NoError(t, err)
	return payload.GameState
}

// startedRoom 两名玩家准备并开局
func startedRoom(t *testing.T, rm *RoomManager, code string) (host, guest *testutil.SimpleClient) {
	t.Helper()
	host = join(t, rm, code, "p1")
	guest = join(t, rm, code, "p2")
	require.NoError(t, rm.ToggleReady(code, "p1"))
	require.NoError(t, rm.ToggleReady(code, "p2"))
	require.NoError(t, rm.StartGame(code, "p1"))
	return host, guest
}

// game 直接读取房间内的对局（测试在同一 goroutine 中串行调用）
func game(t *testing.T, rm *RoomManager, code string) *engine.GameState {
	t.Helper()
	room, err := rm.lockRoom(code)
	require.NoError(t, err)
	defer room.mu.Unlock()
	require.NotNil(t, room.Game)
	return room.Game
}

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	assert.True(t, rm.CreateRoom("ABCD", "host"))
	assert.False(t, rm.CreateRoom("ABCD", "other"))

	snap, ok := rm.GetRoomSnapshot("ABCD")
	require.True(t, ok)
	assert.Equal(t, "host", snap.HostID)
	assert.Empty(t, snap.Players)
	assert.Equal(t, protocol.RoomStatusWaiting, snap.Status)
}

func TestJoinRoom_AutoCreates(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	c := join(t, rm, "ABCD", "p1")

	snap := lastRoomUpdate(t, c)
	assert.Equal(t, "ABCD", snap.Code)
	assert.Equal(t, "p1", snap.HostID)
	assert.Equal(t, []protocol.RoomMemberInfo{{UserID: "p1", Name: "name-p1"}}, snap.Players)
}

func TestJoinRoom_BroadcastsToMembers(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	rm.CreateRoom("ABCD", "p1")
	c1 := join(t, rm, "ABCD", "p1")
	c2 := join(t, rm, "ABCD", "p2")

	for _, c := range []*testutil.SimpleClient{c1, c2} {
		snap := lastRoomUpdate(t, c)
		assert.Equal(t, "p1", snap.HostID)
		require.Len(t, snap.Players, 2)
		assert.Equal(t, "p1", snap.Players[0].UserID)
		assert.Equal(t, "p2", snap.Players[1].UserID)
	}
}

func TestJoinRoom_OverwritesReady(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	join(t, rm, "ABCD", "p1")
	require.NoError(t, rm.ToggleReady("ABCD", "p1"))

	c := join(t, rm, "ABCD", "p1")
	snap := lastRoomUpdate(t, c)
	require.Len(t, snap.Players, 1)
	assert.False(t, snap.Players[0].IsReady)
}

func TestJoinRoom_SupersedesConnection(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	old := join(t, rm, "ABCD", "p1")
	join(t, rm, "ABCD", "p2")

	fresh := testutil.NewSimpleClient("conn-p1-again")
	require.NoError(t, rm.JoinRoom("ABCD", "p1", "name-p1", fresh))
	assert.True(t, old.Closed())

	// 旧连接断开不影响成员
	rm.Disconnect("ABCD", "p1", old.GetID())
	snap, _ := rm.GetRoomSnapshot("ABCD")
	assert.Len(t, snap.Players, 2)

	rm.Disconnect("ABCD", "p1", fresh.GetID())
	snap, _ = rm.GetRoomSnapshot("ABCD")
	assert.Len(t, snap.Players, 1)
}

func TestJoinRoom_SupersedeClosesOldViaRegistry(t *testing.T) {
	t.Parallel()

	reg := new(testutil.MockRegistry)
	rm := NewRoomManager(reg, nil, 0)

	old := new(testutil.MockClient)
	old.On("GetID").Return("old")
	old.On("Close").Return()
	fresh := testutil.NewSimpleClient("fresh")

	reg.On("Bind", fresh, "p1", "ABCD").Return(old)
	reg.On("Broadcast", "ABCD", mock.Anything).Return()

	require.NoError(t, rm.JoinRoom("ABCD", "p1", "Ann", fresh))
	old.AssertCalled(t, "Close")
	reg.AssertExpectations(t)
}

func TestToggleReady(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	c := join(t, rm, "ABCD", "p1")

	require.NoError(t, rm.ToggleReady("ABCD", "p1"))
	assert.True(t, lastRoomUpdate(t, c).Players[0].IsReady)
	require.NoError(t, rm.ToggleReady("ABCD", "p1"))
	assert.False(t, lastRoomUpdate(t, c).Players[0].IsReady)

	assert.ErrorIs(t, rm.ToggleReady("ABCD", "ghost"), apperrors.ErrNotInRoom)
	assert.ErrorIs(t, rm.ToggleReady("NOPE", "p1"), apperrors.ErrRoomNotFound)
}

func TestToggleReady_NoOpInGame(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	host, _ := startedRoom(t, rm, "ABCD")
	host.Reset()

	require.NoError(t, rm.ToggleReady("ABCD", "p1"))
	assert.Empty(t, host.Messages())
}

func TestStartGame_Preconditions(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	host := join(t, rm, "ABCD", "p1")
	join(t, rm, "ABCD", "p2")
	require.NoError(t, rm.ToggleReady("ABCD", "p1"))

	assert.ErrorIs(t, rm.StartGame("ABCD", "p2"), apperrors.ErrNotHost)
	assert.ErrorIs(t, rm.StartGame("ABCD", "p1"), apperrors.ErrNotAllReady)
	assert.ErrorIs(t, rm.StartGame("NOPE", "p1"), apperrors.ErrRoomNotFound)
	assert.Empty(t, host.MessagesOfType(protocol.MsgGameStarted))

	snap, _ := rm.GetRoomSnapshot("ABCD")
	assert.Equal(t, protocol.RoomStatusWaiting, snap.Status)
}

func TestStartGame_TwoReadyPlayers(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	host, guest := startedRoom(t, rm, "ABCD")

	for _, c := range []*testutil.SimpleClient{host, guest} {
		msgs := c.MessagesOfType(protocol.MsgGameStarted)
		require.Len(t, msgs, 1)
		payload, err := codec.ParsePayload[GameStatePayload](msgs[0])
		require.NoError(t, err)
		assert.Equal(t, "ABCD", payload.RoomID)

		g := payload.GameState
		require.Len(t, g.Players, 2)
		assert.Equal(t, engine.TurnDraw, g.TurnPhase)
		assert.Equal(t, engine.PhasePlaying, g.GamePhase)
		for _, p := range g.Players {
			assert.Len(t, p.Hand, 5)
			assert.Equal(t, 6, p.Oxygen)
			assert.Equal(t, 0, p.Position)
		}
	}

	snap, _ := rm.GetRoomSnapshot("ABCD")
	assert.Equal(t, protocol.RoomStatusPlaying, snap.Status)
	assert.Equal(t, 1, rm.GetActiveGamesCount())
	assert.ErrorIs(t, rm.StartGame("ABCD", "p1"), apperrors.ErrGameAlreadyStarted)
}

func TestStartGame_StartingOxygen(t *testing.T) {
	t.Parallel()

	rm := NewRoomManager(registry.New(), nil, 8)
	startedRoom(t, rm, "ABCD")
	for _, p := range game(t, rm, "ABCD").Players {
		assert.Equal(t, 8, p.Oxygen)
	}
}

func TestJoinRoom_AfterStart(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	startedRoom(t, rm, "ABCD")

	late := testutil.NewSimpleClient("late")
	err := rm.JoinRoom("ABCD", "p3", "Late", late)
	assert.ErrorIs(t, err, apperrors.ErrGameAlreadyStarted)
	snap, _ := rm.GetRoomSnapshot("ABCD")
	assert.Len(t, snap.Players, 2)
}

func TestLeaveRoom_Lobby(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	join(t, rm, "ABCD", "p1")
	c2 := join(t, rm, "ABCD", "p2")
	join(t, rm, "ABCD", "p3")

	rm.LeaveRoom("ABCD", "p1")
	snap := lastRoomUpdate(t, c2)
	assert.Equal(t, "p2", snap.HostID, "host passes to the earliest remaining member")
	assert.Len(t, snap.Players, 2)

	// 幂等
	before, _ := rm.GetRoomSnapshot("ABCD")
	rm.LeaveRoom("ABCD", "p1")
	after, _ := rm.GetRoomSnapshot("ABCD")
	assert.Equal(t, before, after)

	rm.LeaveRoom("ABCD", "p2")
	rm.LeaveRoom("ABCD", "p3")
	assert.False(t, rm.HasRoom("ABCD"), "empty lobby is deleted")
	assert.Equal(t, 0, rm.GetRoomCount())

	rm.LeaveRoom("ABCD", "p3")
	rm.LeaveRoom("NOPE", "p1")
}

func TestLeaveRoom_DuringGame(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	_, guest := startedRoom(t, rm, "ABCD")
	g := game(t, rm, "ABCD")
	first := g.CurrentTurn
	other := "p2"
	if first == "p2" {
		other = "p1"
	}

	rm.LeaveRoom("ABCD", first)
	g = game(t, rm, "ABCD")
	assert.False(t, g.Player(first).IsConnected)
	assert.Equal(t, other, g.CurrentTurn, "active player's departure advances the turn")

	if other == "p2" {
		state := lastGameState(t, guest, protocol.MsgGameUpdate)
		assert.False(t, state.Player(first).IsConnected)
	}

	// 两人都离开，房间保留以便重连
	rm.LeaveRoom("ABCD", other)
	assert.True(t, rm.HasRoom("ABCD"))
	snap, ok := rm.GetRoomSnapshot("ABCD")
	require.True(t, ok)
	assert.Empty(t, snap.Players)
	assert.Equal(t, protocol.RoomStatusPlaying, snap.Status)
}

func TestLeaveRoom_Idempotent(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	startedRoom(t, rm, "ABCD")
	rm.LeaveRoom("ABCD", "p2")
	once, err := jsonState(rm, "ABCD")
	require.NoError(t, err)

	rm.LeaveRoom("ABCD", "p2")
	twice, err := jsonState(rm, "ABCD")
	require.NoError(t, err)
	assert.JSONEq(t, once, twice)
}

func jsonState(rm *RoomManager, code string) (string, error) {
	room, err := rm.lockRoom(code)
	if err != nil {
		return "", err
	}
	defer room.mu.Unlock()
	msg, err := codec.NewMessage(protocol.MsgGameUpdate, struct {
		Snap protocol.RoomUpdatePayload `json:"snap"`
		Game *engine.GameState          `json:"game"`
	}{room.snapshotLocked(), room.Game})
	if err != nil {
		return "", err
	}
	return string(msg.Data), nil
}

func TestRejoin_RunningGame(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	host, _ := startedRoom(t, rm, "ABCD")
	rm.Disconnect("ABCD", "p2", "conn-p2")
	require.False(t, game(t, rm, "ABCD").Player("p2").IsConnected)

	host.Reset()
	back := testutil.NewSimpleClient("conn-p2-back")
	require.NoError(t, rm.JoinRoom("ABCD", "p2", "name-p2", back))

	assert.True(t, game(t, rm, "ABCD").Player("p2").IsConnected)
	state := lastGameState(t, back, protocol.MsgGameUpdate)
	assert.True(t, state.Player("p2").IsConnected)
	assert.NotEmpty(t, host.MessagesOfType(protocol.MsgRoomUpdate))
}

func TestAct(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	host, guest := startedRoom(t, rm, "ABCD")
	first := game(t, rm, "ABCD").CurrentTurn
	second := "p2"
	if first == "p2" {
		second = "p1"
	}
	host.Reset()
	guest.Reset()

	// 非法操作不广播
	err := rm.Act("ABCD", second, func(g *engine.GameState) error {
		_, err := g.Draw(second)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)
	assert.Empty(t, host.Messages())

	require.NoError(t, rm.Act("ABCD", first, func(g *engine.GameState) error {
		_, err := g.Draw(first)
		return err
	}))
	for _, c := range []*testutil.SimpleClient{host, guest} {
		state := lastGameState(t, c, protocol.MsgGameUpdate)
		assert.Equal(t, engine.TurnAction, state.TurnPhase)
		assert.True(t, state.CurrentTurnActions.DrawnCard)
	}

	assert.ErrorIs(t, rm.Act("ABCD", "ghost", func(*engine.GameState) error { return nil }), apperrors.ErrNotInRoom)
	assert.ErrorIs(t, rm.Act("NOPE", first, func(*engine.GameState) error { return nil }), apperrors.ErrRoomNotFound)
}

func TestAct_GameNotStarted(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	join(t, rm, "ABCD", "p1")
	err := rm.Act("ABCD", "p1", func(*engine.GameState) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrGameNotStart)
}

func TestAct_ForcedDeathBroadcasts(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	host, _ := startedRoom(t, rm, "ABCD")
	first := game(t, rm, "ABCD").CurrentTurn
	host.Reset()

	err := rm.Act("ABCD", first, func(g *engine.GameState) error {
		if _, err := g.Draw(first); err != nil {
			return err
		}
		if err := g.EndActions(first); err != nil {
			return err
		}
		g.Player(first).Oxygen = 1
		return g.Move(first, engine.ChoiceTravel)
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientResource)

	state := lastGameState(t, host, protocol.MsgGameUpdate)
	assert.True(t, state.Player(first).IsDead)
}

func TestAct_GameOverBroadcastOnce(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	host, _ := startedRoom(t, rm, "ABCD")
	first := game(t, rm, "ABCD").CurrentTurn
	host.Reset()

	kill := func(g *engine.GameState) error {
		for _, p := range g.Players {
			p.Oxygen = 1
		}
		if _, err := g.Draw(first); err != nil {
			return err
		}
		if err := g.EndActions(first); err != nil {
			return err
		}
		return g.Move(first, engine.ChoiceTravel)
	}
	// 先手窒息，另一人仍存活
	assert.ErrorIs(t, rm.Act("ABCD", first, kill), apperrors.ErrInsufficientResource)
	assert.Empty(t, host.MessagesOfType(protocol.MsgGameOver))

	second := game(t, rm, "ABCD").CurrentTurn
	require.NoError(t, rm.Act("ABCD", second, func(g *engine.GameState) error {
		if _, err := g.Draw(second); err != nil {
			return err
		}
		if err := g.EndActions(second); err != nil {
			return err
		}
		return g.Move(second, engine.ChoiceBreathe)
	}))

	overs := host.MessagesOfType(protocol.MsgGameOver)
	require.Len(t, overs, 1)
	payload, err := codec.ParsePayload[GameOverPayload](overs[0])
	require.NoError(t, err)
	assert.Empty(t, payload.Winner)
	assert.Equal(t, engine.PhaseGameOver, payload.GameState.GamePhase)
	assert.Equal(t, 0, rm.GetActiveGamesCount())

	err = rm.Act("ABCD", second, func(g *engine.GameState) error {
		_, err := g.Draw(second)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrGameOver)
	assert.Len(t, host.MessagesOfType(protocol.MsgGameOver), 1)
}

func TestListRooms(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	join(t, rm, "BBBB", "p1")
	join(t, rm, "AAAA", "p2")
	startedRoom(t, rm, "CCCC")

	list := rm.ListRooms()
	require.Len(t, list, 3)
	assert.Equal(t, "AAAA", list[0].Code)
	assert.Equal(t, "BBBB", list[1].Code)
	assert.Equal(t, protocol.RoomStatusPlaying, list[2].Status)
	assert.Equal(t, 3, rm.GetRoomCount())
}

func TestRoomManager_ConcurrentRooms(t *testing.T) {
	t.Parallel()

	rm := newTestManager(t)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			code := fmt.Sprintf("R%03d", i%5)
			id := fmt.Sprintf("p%d", i)
			c := testutil.NewSimpleClient("conn-" + id)
			_ = rm.JoinRoom(code, id, id, c)
			_ = rm.ToggleReady(code, id)
			_ = rm.StartGame(code, id)
			_, _ = rm.GetRoomSnapshot(code)
			_ = rm.ListRooms()
			rm.LeaveRoom(code, id)
		})
	}
	wg.Wait()

	// 未开局的空房间全部删除
	for _, snap := range rm.ListRooms() {
		assert.Equal(t, protocol.RoomStatusPlaying, snap.Status, snap.Code)
	}
}

func TestRoomManager_MirrorsToRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := storage.NewRedisStore(client)

	rm := NewRoomManager(registry.New(), store, 0)
	t.Cleanup(rm.Close)
	startedRoom(t, rm, "ABCD")

	assert.Eventually(t, func() bool {
		data, err := store.LoadRoom(context.Background(), "ABCD")
		return err == nil && data != nil && data.Status == protocol.RoomStatusPlaying && len(data.Players) == 2
	}, 2*time.Second, 10*time.Millisecond)

	join(t, rm, "WXYZ", "solo")
	assert.Eventually(t, func() bool { return mr.Exists("room:WXYZ") }, 2*time.Second, 10*time.Millisecond)
	rm.LeaveRoom("WXYZ", "solo")
	assert.Eventually(t, func() bool { return !mr.Exists("room:WXYZ") }, 2*time.Second, 10*time.Millisecond)
}
