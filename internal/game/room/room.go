package room

import (
	"slices"
	"sync"
	"time"

	"github.com/palemoky/stranded/internal/game/engine"
	"github.com/palemoky/stranded/internal/server/storage"
	"github.com/palemoky/stranded/internal/types"
)

// Member 房间中的玩家
type Member struct {
	Client types.ClientInterface
	UserID string
	Name   string
	Ready  bool
}

// Room 游戏房间，mu 串行化该房间的全部操作
type Room struct {
	Code      string             // 房间号
	HostID    string             // 房主
	Members   map[string]*Member // 在线成员
	Order     []string           // 加入顺序
	Game      *engine.GameState  // nil 表示仍在大厅
	CreatedAt time.Time

	mu     sync.Mutex
	closed bool // 已从管理器中删除
}

func newRoom(code, hostID string) *Room {
	return &Room{
		Code:      code,
		HostID:    hostID,
		Members:   make(map[string]*Member),
		Order:     make([]string, 0, 4),
		CreatedAt: time.Now(),
	}
}

// RoomManager 房间管理器
type RoomManager struct {
	registry       types.ConnectionRegistry
	redisStore     *storage.RedisStore
	startingOxygen int
	rooms          map[string]*Room
	mu             sync.RWMutex

	mirrorCh  chan mirrorOp // 按顺序写入 Redis 目录
	done      chan struct{}
	closeOnce sync.Once
}

// NewRoomManager 创建房间管理器，redisStore 可为 nil
func NewRoomManager(registry types.ConnectionRegistry, rs *storage.RedisStore, startingOxygen int) *RoomManager {
	rm := &RoomManager{
		registry:       registry,
		redisStore:     rs,
		startingOxygen: startingOxygen,
		rooms:          make(map[string]*Room),
		done:           make(chan struct{}),
	}

	if rs.Enabled() {
		rm.mirrorCh = make(chan mirrorOp, mirrorQueueSize)
		go rm.mirrorLoop()
	}

	return rm
}

// Close 停止 Redis 目录写入
func (rm *RoomManager) Close() {
	rm.closeOnce.Do(func() { close(rm.done) })
}

// addMember 插入或覆盖成员记录
func (r *Room) addMember(m *Member) {
	if _, exists := r.Members[m.UserID]; !exists {
		r.Order = append(r.Order, m.UserID)
	}
	r.Members[m.UserID] = m
}

func (r *Room) removeMember(userID string) {
	delete(r.Members, userID)
	if i := slices.Index(r.Order, userID); i >= 0 {
		r.Order = slices.Delete(r.Order, i, i+1)
	}
}

func (r *Room) allReady() bool {
	if len(r.Members) == 0 {
		return false
	}
	for _, m := range r.Members {
		if !m.Ready {
			return false
		}
	}
	return true
}

// isPlaying 对局进行中（未结束）
func (r *Room) isPlaying() bool {
	return r.Game != nil && !r.Game.IsOver()
}
