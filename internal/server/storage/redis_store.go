package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间目录数据（非权威镜像，引擎从不读取）
type RoomData struct {
	Code      string
	HostID    string
	Status    string
	Players   []PlayerData
	CreatedAt int64
	Step      int
	Winner    string
}

// PlayerData 玩家数据
type PlayerData struct {
	ID          string
	Name        string
	Ready       bool
	Position    int
	Oxygen      int
	IsDead      bool
	IsConnected bool
}

// RedisStore Redis 存储，client 为 nil 时所有操作都是空操作
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Enabled 是否连接了 Redis
func (rs *RedisStore) Enabled() bool {
	return rs != nil && rs.client != nil
}

// Ping 检查连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	if !rs.Enabled() {
		return nil
	}
	return rs.client.Ping(ctx).Err()
}

// --- 房间存储 ---

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomCode string, data *RoomData) error {
	if !rs.Enabled() || data == nil {
		return nil
	}

	raw, err := encodeRoom(data)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", roomCode, err)
	}

	key := roomKeyPrefix + roomCode
	return rs.client.Set(ctx, key, raw, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间，不存在返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	if !rs.Enabled() {
		return nil, nil
	}

	key := roomKeyPrefix + code
	raw, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	data, err := decodeRoom(raw)
	if err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return data, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	if !rs.Enabled() {
		return nil
	}
	key := roomKeyPrefix + code
	return rs.client.Del(ctx, key).Err()
}

// GetAllRoomCodes 获取所有房间号
func (rs *RedisStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	if !rs.Enabled() {
		return nil, nil
	}

	var codes []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, iter.Val()[len(roomKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// PurgeRooms 删除不在 keep 中的房间记录（进程重启后内存房间已不存在）
func (rs *RedisStore) PurgeRooms(ctx context.Context, keep func(code string) bool) (int, error) {
	codes, err := rs.GetAllRoomCodes(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, code := range codes {
		if keep != nil && keep(code) {
			continue
		}
		if err := rs.DeleteRoom(ctx, code); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
