//go:build !production

package testutil

import (
	"github.com/stretchr/testify/mock"

	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/types"
)

// MockRegistry 实现 types.ConnectionRegistry 的 mock
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Bind(client types.ClientInterface, playerID, roomCode string) types.ClientInterface {
	args := m.Called(client, playerID, roomCode)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.ClientInterface)
}

func (m *MockRegistry) Unbind(clientID string) {
	m.Called(clientID)
}

func (m *MockRegistry) Broadcast(roomCode string, msg *protocol.Message) {
	m.Called(roomCode, msg)
}
