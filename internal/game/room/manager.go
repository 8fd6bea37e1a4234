package room

import (
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/apperrors"
	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
	"github.com/palemoky/stranded/internal/types"
)

// CreateRoom 创建房间，房间号已存在时不做任何事
func (rm *RoomManager) CreateRoom(code, hostID string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.rooms[code]; exists {
		return false
	}
	room := newRoom(code, hostID)
	rm.rooms[code] = room
	rm.mirrorLocked(room)

	logrus.WithFields(logrus.Fields{"room": code, "host": hostID}).Info("room created")
	return true
}

// getOrCreate 获取房间，不存在时以 playerID 为房主自动创建
func (rm *RoomManager) getOrCreate(code, playerID string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, exists := rm.rooms[code]
	if !exists {
		room = newRoom(code, playerID)
		rm.rooms[code] = room
		logrus.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("room not found, auto-created")
	}
	return room
}

// lockRoom 获取并锁定房间；成功时调用方负责 room.mu.Unlock
func (rm *RoomManager) lockRoom(code string) (*Room, error) {
	rm.mu.RLock()
	room, exists := rm.rooms[code]
	rm.mu.RUnlock()
	if !exists {
		return nil, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return nil, apperrors.ErrRoomNotFound
	}
	return room, nil
}

// JoinRoom 加入房间。对局进行中只允许已入座的玩家重新加入
func (rm *RoomManager) JoinRoom(code, playerID, name string, client types.ClientInterface) error {
	for {
		room := rm.getOrCreate(code, playerID)
		room.mu.Lock()
		if room.closed {
			// 与删除房间竞争，重新获取
			room.mu.Unlock()
			continue
		}
		err := rm.joinLocked(room, playerID, name, client)
		room.mu.Unlock()
		return err
	}
}

func (rm *RoomManager) joinLocked(room *Room, playerID, name string, client types.ClientInterface) error {
	log := logrus.WithFields(logrus.Fields{"room": room.Code, "player": playerID})

	rejoin := false
	if room.Game != nil {
		if room.Game.Player(playerID) == nil {
			log.Warn("join rejected, game already started")
			return apperrors.ErrGameAlreadyStarted
		}
		rejoin = true
	}

	room.addMember(&Member{
		Client: client,
		UserID: playerID,
		Name:   name,
	})
	if old := rm.registry.Bind(client, playerID, room.Code); old != nil {
		log.WithField("conn", old.GetID()).Info("connection superseded")
		old.Close()
	}

	rm.broadcastRoomLocked(room)
	if rejoin {
		room.Game.SetConnected(playerID, true)
		rm.registry.Broadcast(room.Code, codec.MustNewMessage(protocol.MsgGameUpdate, GameStatePayload{
			RoomID:    room.Code,
			GameState: room.Game,
		}))
		log.Info("player rejoined running game")
	} else {
		log.WithField("name", name).Info("player joined")
	}
	rm.mirrorLocked(room)
	return nil
}

// LeaveRoom 离开房间，重复调用无副作用
func (rm *RoomManager) LeaveRoom(code, playerID string) {
	room, err := rm.lockRoom(code)
	if err != nil {
		return
	}
	defer room.mu.Unlock()
	rm.leaveLocked(room, playerID)
}

// Disconnect 连接断开。只有成员当前使用的连接断开时才视为离开
func (rm *RoomManager) Disconnect(code, playerID, clientID string) {
	room, err := rm.lockRoom(code)
	if err != nil {
		return
	}
	defer room.mu.Unlock()

	if m, ok := room.Members[playerID]; ok && m.Client != nil && m.Client.GetID() != clientID {
		return
	}
	rm.leaveLocked(room, playerID)
}

func (rm *RoomManager) leaveLocked(room *Room, playerID string) {
	log := logrus.WithFields(logrus.Fields{"room": room.Code, "player": playerID})

	member, isMember := room.Members[playerID]

	gameChanged := false
	wasOver := false
	if room.Game != nil {
		if p := room.Game.Player(playerID); p != nil && p.IsConnected {
			wasOver = room.Game.IsOver()
			room.Game.SetConnected(playerID, false)
			gameChanged = true
			log.Info("player marked disconnected in active game")
		}
	}
	if !isMember && !gameChanged {
		return
	}

	if isMember {
		room.removeMember(playerID)
		if member.Client != nil {
			rm.registry.Unbind(member.Client.GetID())
		}
		log.Info("player left")
	}

	if len(room.Members) == 0 {
		if room.Game == nil {
			room.closed = true
			rm.mu.Lock()
			delete(rm.rooms, room.Code)
			rm.mu.Unlock()
			rm.unmirror(room.Code)
			log.Info("room deleted (empty)")
			return
		}
		log.Info("room empty but game started, keeping room")
		rm.mirrorLocked(room)
		return
	}

	if room.HostID == playerID {
		room.HostID = room.Order[0]
		log.WithField("host", room.HostID).Info("host reassigned")
	}
	rm.broadcastRoomLocked(room)
	if gameChanged {
		rm.broadcastGameLocked(room, wasOver)
	}
	rm.mirrorLocked(room)
}

// ToggleReady 切换准备状态，对局开始后为空操作
func (rm *RoomManager) ToggleReady(code, playerID string) error {
	room, err := rm.lockRoom(code)
	if err != nil {
		return err
	}
	defer room.mu.Unlock()

	if room.Game != nil {
		return nil
	}
	member, ok := room.Members[playerID]
	if !ok {
		return apperrors.ErrNotInRoom
	}
	member.Ready = !member.Ready

	rm.broadcastRoomLocked(room)
	rm.mirrorLocked(room)
	return nil
}

func (rm *RoomManager) broadcastRoomLocked(room *Room) {
	rm.registry.Broadcast(room.Code, codec.MustNewMessage(protocol.MsgRoomUpdate, room.snapshotLocked()))
}

// GetRoomSnapshot 房间快照
func (rm *RoomManager) GetRoomSnapshot(code string) (protocol.RoomUpdatePayload, bool) {
	room, err := rm.lockRoom(code)
	if err != nil {
		return protocol.RoomUpdatePayload{}, false
	}
	defer room.mu.Unlock()
	return room.snapshotLocked(), true
}

func (rm *RoomManager) allRooms() []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// ListRooms 所有房间快照，按房间号排序
func (rm *RoomManager) ListRooms() []protocol.RoomUpdatePayload {
	list := make([]protocol.RoomUpdatePayload, 0)
	for _, room := range rm.allRooms() {
		room.mu.Lock()
		if !room.closed {
			list = append(list, room.snapshotLocked())
		}
		room.mu.Unlock()
	}
	slices.SortFunc(list, func(a, b protocol.RoomUpdatePayload) int { return strings.Compare(a.Code, b.Code) })
	return list
}

// HasRoom 房间是否存在
func (rm *RoomManager) HasRoom(code string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, exists := rm.rooms[code]
	return exists
}

// GetRoomCount 房间数量
func (rm *RoomManager) GetRoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// GetActiveGamesCount 进行中的对局数量
func (rm *RoomManager) GetActiveGamesCount() int {
	count := 0
	for _, room := range rm.allRooms() {
		room.mu.Lock()
		if room.isPlaying() {
			count++
		}
		room.mu.Unlock()
	}
	return count
}
