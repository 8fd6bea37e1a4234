package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/stranded/internal/logger"
	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 发送缓冲区大小
	sendBufferSize = 256
)

// Client 一条 WebSocket 连接
type Client struct {
	ID string // 连接句柄
	IP string

	identity *Identity
	server   *Server
	conn     *websocket.Conn
	send     chan []byte
	log      *logrus.Entry

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, ip string, identity *Identity) *Client {
	id := uuid.New().String()
	return &Client{
		ID:       id,
		IP:       ip,
		identity: identity,
		server:   s,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		log:      logrus.WithFields(logrus.Fields{"conn": id, "ip": ip}),
	}
}

// GetID 连接句柄
func (c *Client) GetID() string { return c.ID }

// Identity 握手时验证过的身份
func (c *Client) Identity() (userID, name string, ok bool) {
	if c.identity == nil {
		return "", "", false
	}
	return c.identity.UserID, c.identity.Name, true
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r, logrus.Fields{"conn": c.ID})
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := c.server.messageLimiter
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("read error")
			}
			return
		}

		allowed, warning := limiter.AllowMessage(c.ID)
		if !allowed {
			c.log.Warn("message rate exceeded")
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "too many messages, message dropped"))
			if limiter.ShouldDisconnect(c.ID) {
				c.log.Warn("disconnecting after repeated rate violations")
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "slow down"))
		}

		msg, err := codec.Decode(data)
		if err != nil {
			c.log.WithError(err).Debug("malformed message")
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}
		c.server.handler.Handle(c, msg)
		codec.PutMessage(msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r, logrus.Fields{"conn": c.ID})
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端，缓冲区满时关闭连接
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		c.log.WithError(err).Error("encode message")
		return
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	full := false
	select {
	case c.send <- data:
	default:
		full = true
	}
	c.mu.RUnlock()

	if full {
		c.log.Warn("send buffer full, closing connection")
		c.Close()
	}
}

// handleDisconnect 读循环退出后的清理
func (c *Client) handleDisconnect() {
	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.handler.OnDisconnect(c)
	c.server.unregisterClient(c)
	c.Close()
}

// Close 关闭发送通道，WritePump 随后发送关闭帧并退出
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
