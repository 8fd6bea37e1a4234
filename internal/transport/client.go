package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/stranded/internal/protocol"
	"github.com/palemoky/stranded/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 10 * time.Second
	bufferSize       = 256
)

// ErrClosed 客户端已关闭
var ErrClosed = errors.New("transport closed")

// HandshakeError 服务器拒绝升级
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake rejected with status %d: %v", e.StatusCode, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// Options 连接参数
type Options struct {
	Token  string      // 身份令牌，作为 ?token= 传递
	Header http.Header // 额外握手头，如 Origin
}

// Client 游戏服务器的 WebSocket 客户端
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	receive chan *protocol.Message
	closing chan struct{}
	done    chan struct{}

	// OnError 意外断开时回调
	OnError func(error)

	mu     sync.Mutex
	closed bool
}

// Dial 连接服务器并启动读写协程
func Dial(ctx context.Context, serverURL string, opts Options) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if opts.Token != "" {
		q := u.Query()
		q.Set("token", opts.Token)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, &HandshakeError{StatusCode: resp.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}

	c := &Client{
		conn:    conn,
		send:    make(chan []byte, bufferSize),
		receive: make(chan *protocol.Message, bufferSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Send 发送一条消息
func (c *Client) Send(msgType protocol.MessageType, payload any) error {
	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw 发送原始帧
func (c *Client) SendRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Receive 收到的消息
func (c *Client) Receive() <-chan *protocol.Message {
	return c.receive
}

// Done 读循环结束（服务器断开或本地关闭）时关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WaitFor 丢弃其他消息直到收到指定类型
func (c *Client) WaitFor(ctx context.Context, msgType protocol.MessageType) (*protocol.Message, error) {
	for {
		select {
		case msg := <-c.receive:
			if msg.Type == msgType {
				return msg, nil
			}
		case <-c.done:
			return c.drain(msgType)
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", msgType, ctx.Err())
		}
	}
}

// drain 连接结束后检查缓冲中剩余的消息
func (c *Client) drain(msgType protocol.MessageType) (*protocol.Message, error) {
	for {
		select {
		case msg := <-c.receive:
			if msg.Type == msgType {
				return msg, nil
			}
		default:
			return nil, ErrClosed
		}
	}
}

// Close 发送关闭帧并断开
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.closing)
	}
}
