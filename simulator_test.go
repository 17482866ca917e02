package gxavior

import (
	"sync"
	"testing"
	"time"
)

// fakeChannel simulates the matrix switch behind the channel seam. Scripted
// responses are queued when the matching request is written and handed out by
// read, optionally one byte at a time.
type fakeChannel struct {
	mu         sync.Mutex
	open       bool
	writes     []string
	pending    []byte
	responses  map[string]string
	auto       string
	chunked    bool
	resets     int
	violations int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{open: true, responses: make(map[string]string)}
}

// respond scripts the response for one exact request.
func (f *fakeChannel) respond(request, response string) {
	f.mu.Lock()
	f.responses[request] = response
	f.mu.Unlock()
}

// push queues bytes that were not requested, like front panel echo messages.
func (f *fakeChannel) push(data string) {
	f.mu.Lock()
	f.pending = append(f.pending, data...)
	f.mu.Unlock()
}

func (f *fakeChannel) write(data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return 0, errPortClosed
	}
	if len(f.pending) != 0 {
		// A second request arrived before the previous response was
		// consumed.
		f.violations++
	}
	f.writes = append(f.writes, string(data))
	if r, ok := f.responses[string(data)]; ok {
		f.pending = append(f.pending, r...)
	} else if f.auto != "" {
		f.pending = append(f.pending, f.auto...)
	}
	return len(data), nil
}

func (f *fakeChannel) read(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		f.mu.Lock()
		if !f.open {
			f.mu.Unlock()
			return nil, errPortClosed
		}
		if len(f.pending) > 0 {
			n := len(f.pending)
			if f.chunked {
				n = 1
			}
			chunk := append([]byte(nil), f.pending[:n]...)
			f.pending = f.pending[n:]
			f.mu.Unlock()
			return chunk, nil
		}
		f.mu.Unlock()
		if !time.Now().Before(deadline) {
			return nil, errReadTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeChannel) flush() error {
	if !f.isOpen() {
		return errPortClosed
	}
	return nil
}

func (f *fakeChannel) resetBuffers() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return errPortClosed
	}
	f.pending = nil
	f.resets++
	return nil
}

func (f *fakeChannel) isOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeChannel) close() error {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeChannel) violationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.violations
}

// testClient is the surface the shared tests need from both clients.
type testClient interface {
	Avior
	SetTimeout(value int)
	IsOpen() bool
	GetBytesSent() uint64
	GetBytesReceived() uint64
}

// newTestClient wires a client of the requested flavor to a fresh fake
// channel.
func newTestClient(t *testing.T, async bool) (testClient, *fakeChannel) {
	t.Helper()
	f := newFakeChannel()
	if async {
		n := NewGXAviorAsync("fake")
		n.attach(f)
		t.Cleanup(func() { _ = n.Close() })
		return n, f
	}
	g := NewGXAvior("fake")
	g.attach(f)
	t.Cleanup(func() { _ = g.Close() })
	return g, f
}

// eachClient runs the test once with the blocking client and once with the
// event driven one.
func eachClient(t *testing.T, fn func(t *testing.T, c testClient, f *fakeChannel)) {
	t.Run("blocking", func(t *testing.T) {
		c, f := newTestClient(t, false)
		fn(t, c, f)
	})
	t.Run("async", func(t *testing.T) {
		c, f := newTestClient(t, true)
		fn(t, c, f)
	})
}
