package gxavior

import (
	"bytes"
	"testing"
	"time"
)

func TestWaitFrameReturnsBufferedFrame(t *testing.T) {
	b := newGXSynchronousMediaBase()
	b.Append([]byte("sw i02 o03 Command OK\r"))
	frame, err := b.WaitFrame(eopBytes, 0, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitFrame failed: %v", err)
	}
	if !bytes.Equal(frame, []byte("sw i02 o03 Command OK\r")) {
		t.Errorf("WaitFrame = %q", frame)
	}
}

func TestWaitFrameAssemblesChunks(t *testing.T) {
	b := newGXSynchronousMediaBase()
	go func() {
		for _, chunk := range []string{"Comm", "and ", "OK", "\r"} {
			time.Sleep(5 * time.Millisecond)
			b.Append([]byte(chunk))
		}
	}()
	frame, err := b.WaitFrame(eopBytes, 0, time.Second)
	if err != nil {
		t.Fatalf("WaitFrame failed: %v", err)
	}
	if string(frame) != "Command OK\r" {
		t.Errorf("WaitFrame = %q, want %q", frame, "Command OK\r")
	}
}

func TestWaitFrameTimeoutReturnsPartial(t *testing.T) {
	b := newGXSynchronousMediaBase()
	b.Append([]byte("Comm"))
	frame, err := b.WaitFrame(eopBytes, 0, 20*time.Millisecond)
	if err != errReadTimeout {
		t.Fatalf("WaitFrame error = %v, want %v", err, errReadTimeout)
	}
	if string(frame) != "Comm" {
		t.Errorf("partial frame = %q, want %q", frame, "Comm")
	}
}

func TestWaitFrameSkipsLeadingTerminator(t *testing.T) {
	// With skip set the terminator scan must not fire on the first byte.
	b := newGXSynchronousMediaBase()
	b.Append([]byte("\r"))
	go func() {
		time.Sleep(5 * time.Millisecond)
		b.Append([]byte("OK\r"))
	}()
	frame, err := b.WaitFrame(eopBytes, 1, time.Second)
	if err != nil {
		t.Fatalf("WaitFrame failed: %v", err)
	}
	if string(frame) != "\rOK\r" {
		t.Errorf("WaitFrame = %q, want %q", frame, "\rOK\r")
	}
}

func TestResetDropsBufferedBytes(t *testing.T) {
	b := newGXSynchronousMediaBase()
	b.Append([]byte("stale bytes"))
	b.Reset()
	_, err := b.WaitFrame(eopBytes, 0, 10*time.Millisecond)
	if err != errReadTimeout {
		t.Fatalf("WaitFrame error = %v, want %v", err, errReadTimeout)
	}
	b.Append([]byte("fresh\r"))
	frame, err := b.WaitFrame(eopBytes, 0, time.Second)
	if err != nil {
		t.Fatalf("WaitFrame failed: %v", err)
	}
	if string(frame) != "fresh\r" {
		t.Errorf("WaitFrame = %q, want %q", frame, "fresh\r")
	}
}
