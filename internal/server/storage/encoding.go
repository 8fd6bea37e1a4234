package storage

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodeRoom 以 protobuf Struct 编码房间记录
func encodeRoom(data *RoomData) ([]byte, error) {
	players := make([]any, 0, len(data.Players))
	for _, p := range data.Players {
		players = append(players, map[string]any{
			"id":           p.ID,
			"name":         p.Name,
			"ready":        p.Ready,
			"position":     p.Position,
			"oxygen":       p.Oxygen,
			"is_dead":      p.IsDead,
			"is_connected": p.IsConnected,
		})
	}

	s, err := structpb.NewStruct(map[string]any{
		"code":       data.Code,
		"host_id":    data.HostID,
		"status":     data.Status,
		"players":    players,
		"created_at": data.CreatedAt,
		"step":       data.Step,
		"winner":     data.Winner,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// decodeRoom 解码 encodeRoom 的输出
func decodeRoom(raw []byte) (*RoomData, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(raw, &s); err != nil {
		return nil, err
	}

	f := s.GetFields()
	data := &RoomData{
		Code:      f["code"].GetStringValue(),
		HostID:    f["host_id"].GetStringValue(),
		Status:    f["status"].GetStringValue(),
		CreatedAt: int64(f["created_at"].GetNumberValue()),
		Step:      int(f["step"].GetNumberValue()),
		Winner:    f["winner"].GetStringValue(),
	}

	for i, v := range f["players"].GetListValue().GetValues() {
		ps := v.GetStructValue()
		if ps == nil {
			return nil, fmt.Errorf("player %d is not a struct", i)
		}
		pf := ps.GetFields()
		data.Players = append(data.Players, PlayerData{
			ID:          pf["id"].GetStringValue(),
			Name:        pf["name"].GetStringValue(),
			Ready:       pf["ready"].GetBoolValue(),
			Position:    int(pf["position"].GetNumberValue()),
			Oxygen:      int(pf["oxygen"].GetNumberValue()),
			IsDead:      pf["is_dead"].GetBoolValue(),
			IsConnected: pf["is_connected"].GetBoolValue(),
		})
	}
	return data, nil
}
