package room

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/server/storage"
)

const (
	mirrorQueueSize = 256
	mirrorTimeout   = 3 * time.Second
)

// mirrorOp 一次目录写入，data 为 nil 表示删除
type mirrorOp struct {
	code string
	data *storage.RoomData
}

// toRoomDataLocked 将 Room 转换为目录镜像记录，调用方持有 r.mu
func (r *Room) toRoomDataLocked() *storage.RoomData {
	snap := r.snapshotLocked()
	data := &storage.RoomData{
		Code:      r.Code,
		HostID:    r.HostID,
		Status:    snap.Status,
		CreatedAt: r.CreatedAt.Unix(),
	}

	if r.Game == nil {
		for _, m := range snap.Players {
			data.Players = append(data.Players, storage.PlayerData{
				ID:          m.UserID,
				Name:        m.Name,
				Ready:       m.IsReady,
				IsConnected: true,
			})
		}
		return data
	}

	data.Step = r.Game.Step
	data.Winner = r.Game.Winner
	for _, p := range r.Game.Players {
		data.Players = append(data.Players, storage.PlayerData{
			ID:          p.UserID,
			Name:        p.Name,
			Ready:       true,
			Position:    p.Position,
			Oxygen:      p.Oxygen,
			IsDead:      p.IsDead,
			IsConnected: p.IsConnected,
		})
	}
	return data
}

// mirrorLocked 把房间快照排入目录写入队列，调用方持有 r.mu
func (rm *RoomManager) mirrorLocked(r *Room) {
	if rm.mirrorCh == nil {
		return
	}
	rm.enqueue(mirrorOp{code: r.Code, data: r.toRoomDataLocked()})
}

func (rm *RoomManager) unmirror(code string) {
	if rm.mirrorCh == nil {
		return
	}
	rm.enqueue(mirrorOp{code: code})
}

// enqueue 队列满时丢弃，不阻塞房间操作
func (rm *RoomManager) enqueue(op mirrorOp) {
	select {
	case rm.mirrorCh <- op:
	case <-rm.done:
	default:
		logrus.WithField("room", op.code).Warn("mirror queue full, dropping update")
	}
}

func (rm *RoomManager) mirrorLoop() {
	for {
		select {
		case <-rm.done:
			return
		case op := <-rm.mirrorCh:
			rm.applyMirror(op)
		}
	}
}

func (rm *RoomManager) applyMirror(op mirrorOp) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	var err error
	if op.data == nil {
		err = rm.redisStore.DeleteRoom(ctx, op.code)
	} else {
		err = rm.redisStore.SaveRoom(ctx, op.code, op.data)
	}
	if err != nil {
		logrus.WithError(err).WithField("room", op.code).Warn("mirror room failed")
	}
}
