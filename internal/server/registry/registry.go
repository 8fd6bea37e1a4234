package registry

import (
	"sync"

	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/types"
)

// Binding 连接绑定的身份与房间
type Binding struct {
	PlayerID string
	RoomCode string
}

// Registry 连接注册表，只保存连接与身份、房间的映射
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]types.ClientInterface
	bindings map[string]Binding
	rooms    map[string]map[string]types.ClientInterface // roomCode -> clientID -> client
}

// New 创建连接注册表
func New() *Registry {
	return &Registry{
		clients:  make(map[string]types.ClientInterface),
		bindings: make(map[string]Binding),
		rooms:    make(map[string]map[string]types.ClientInterface),
	}
}

// Register 注册新连接
func (r *Registry) Register(client types.ClientInterface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.GetID()] = client
}

// Unregister 注销连接，返回其原有绑定
func (r *Registry) Unregister(clientID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.unbindLocked(clientID)
	delete(r.clients, clientID)
	return b, ok
}

// Bind 绑定连接；同一房间同一玩家的旧连接被解绑并返回
func (r *Registry) Bind(client types.ClientInterface, playerID, roomCode string) types.ClientInterface {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := client.GetID()
	r.clients[id] = client
	r.unbindLocked(id)

	var superseded types.ClientInterface
	for otherID, other := range r.rooms[roomCode] {
		if r.bindings[otherID].PlayerID == playerID {
			r.unbindLocked(otherID)
			superseded = other
			break
		}
	}

	r.bindings[id] = Binding{PlayerID: playerID, RoomCode: roomCode}
	conns := r.rooms[roomCode]
	if conns == nil {
		conns = make(map[string]types.ClientInterface)
		r.rooms[roomCode] = conns
	}
	conns[id] = client
	return superseded
}

// Unbind 解除连接的房间绑定，连接本身保持注册
func (r *Registry) Unbind(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unbindLocked(clientID)
}

func (r *Registry) unbindLocked(clientID string) (Binding, bool) {
	b, ok := r.bindings[clientID]
	if !ok {
		return Binding{}, false
	}
	delete(r.bindings, clientID)
	if conns := r.rooms[b.RoomCode]; conns != nil {
		delete(conns, clientID)
		if len(conns) == 0 {
			delete(r.rooms, b.RoomCode)
		}
	}
	return b, true
}

// Resolve 查询连接绑定的玩家与房间
func (r *Registry) Resolve(clientID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[clientID]
	return b, ok
}

// Get 按 ID 获取连接
func (r *Registry) Get(clientID string) types.ClientInterface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[clientID]
}

// Broadcast 向房间内所有连接发送消息
func (r *Registry) Broadcast(roomCode string, msg *protocol.Message) {
	r.mu.RLock()
	targets := make([]types.ClientInterface, 0, len(r.rooms[roomCode]))
	for _, c := range r.rooms[roomCode] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.SendMessage(msg)
	}
}

// Count 在线连接数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// RoomConnections 房间内的连接数
func (r *Registry) RoomConnections(roomCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomCode])
}
