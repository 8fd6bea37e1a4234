package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/stranded/internal/protocol"
)

// maxPooledBuffer 超过该容量的缓冲区不回收，整局状态广播偶尔会撑大缓冲区
const maxPooledBuffer = 64 << 10

// pool 类型化的 sync.Pool，reset 在归还前清理对象
type pool[T any] struct {
	p     sync.Pool
	reset func(*T) bool
}

func newPool[T any](reset func(*T) bool) *pool[T] {
	return &pool[T]{
		p:     sync.Pool{New: func() any { return new(T) }},
		reset: reset,
	}
}

func (p *pool[T]) get() *T {
	return p.p.Get().(*T)
}

// put 归还对象；reset 返回 false 的对象直接丢弃
func (p *pool[T]) put(v *T) {
	if v == nil || !p.reset(v) {
		return
	}
	p.p.Put(v)
}

var (
	// 读路径上每条入站消息一个 Message
	messages = newPool(func(m *protocol.Message) bool {
		*m = protocol.Message{}
		return true
	})

	// 编码出站消息的缓冲区
	buffers = newPool(func(b *bytes.Buffer) bool {
		if b.Cap() > maxPooledBuffer {
			return false
		}
		b.Reset()
		return true
	})
)

// GetMessage 从池中取一个空 Message
func GetMessage() *protocol.Message {
	return messages.get()
}

// PutMessage 清空并归还 Message，归还后不得再持有其 Data
func PutMessage(msg *protocol.Message) {
	messages.put(msg)
}

// GetBuffer 从池中取一个空缓冲区
func GetBuffer() *bytes.Buffer {
	return buffers.get()
}

// PutBuffer 归还缓冲区，保留容量；过大的缓冲区交给 GC
func PutBuffer(buf *bytes.Buffer) {
	buffers.put(buf)
}
