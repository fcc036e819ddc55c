package fculink

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MockPort implements Porter without hardware: writes are captured for
// inspection and reads are fed from an optional replay buffer.
type MockPort struct {
	mu sync.Mutex

	// ReadBuffer holds bytes returned by Read calls.
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures frames written to the port.
	WriteBuffer *bytes.Buffer

	// WriteError is returned by Write when set.
	WriteError error

	// ShortWrite truncates the next write by one byte when set.
	ShortWrite bool

	closed bool
}

// NewMockPort creates an empty MockPort.
func NewMockPort() *MockPort {
	return &MockPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

func (p *MockPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, io.EOF
	}
	if p.ReadBuffer.Len() == 0 {
		p.mu.Unlock()
		// Simulate waiting for more data rather than spinning.
		time.Sleep(10 * time.Millisecond)
		return 0, nil
	}
	defer p.mu.Unlock()
	return p.ReadBuffer.Read(buf)
}

func (p *MockPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteError != nil {
		return 0, p.WriteError
	}
	if p.ShortWrite {
		p.ShortWrite = false
		n, _ := p.WriteBuffer.Write(data[:len(data)-1])
		return n, nil
	}
	return p.WriteBuffer.Write(data)
}

func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Written returns a copy of everything written to the port so far.
func (p *MockPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, p.WriteBuffer.Len())
	copy(out, p.WriteBuffer.Bytes())
	return out
}

// FeedRead appends bytes for subsequent Read calls to return.
func (p *MockPort) FeedRead(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ReadBuffer.Write(data)
}

// NewMockLink creates a Link backed by a MockPort, for dev mode and tests.
func NewMockLink(sysID, compID uint8) (*Link[*MockPort], *MockPort) {
	port := NewMockPort()
	return NewLink(port, sysID, compID), port
}
