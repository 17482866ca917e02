package gxavior

import (
	"errors"
	"net"
	"testing"
	"time"
)

func TestSocketLocator(t *testing.T) {
	tests := []struct {
		locator string
		addr    string
		ok      bool
	}{
		{"socket://10.0.0.5:5000", "10.0.0.5:5000", true},
		{"tcp://matrix.local:5000", "matrix.local:5000", true},
		{"/dev/ttyUSB0", "", false},
		{"COM3", "", false},
	}
	for _, tt := range tests {
		addr, ok := socketLocator(tt.locator)
		if ok != tt.ok || addr != tt.addr {
			t.Errorf("socketLocator(%q) = %q, %v, want %q, %v",
				tt.locator, addr, ok, tt.addr, tt.ok)
		}
	}
}

func TestOpenSocketStoresTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer func() { _ = ln.Close() }()

	const timeout = 250 * time.Millisecond
	p, err := openSocket(ln.Addr().String(), timeout)
	if err != nil {
		t.Fatalf("openSocket failed: %v", err)
	}
	defer func() { _ = p.close() }()

	// The configured timeout must drive the write deadlines, not the
	// package default.
	if p.timeout != timeout {
		t.Errorf("timeout = %v, want %v", p.timeout, timeout)
	}
}

func TestSocketReadTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer func() { _ = ln.Close() }()

	p, err := openSocket(ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("openSocket failed: %v", err)
	}
	defer func() { _ = p.close() }()

	if _, err := p.read(50 * time.Millisecond); !errors.Is(err, errReadTimeout) {
		t.Errorf("read error = %v, want %v", err, errReadTimeout)
	}
}

func TestSocketTransaction(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer func() { _ = ln.Close() }()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if string(buf[:n]) == "read\r\n" {
			_, _ = conn.Write([]byte("o1 i2 o2 i2\r"))
		}
	}()

	g := NewGXAvior("socket://" + ln.Addr().String())
	if err := g.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = g.Close() }()

	reply, err := g.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if reply != "o1 i2 o2 i2" {
		t.Errorf("response = %q, want %q", reply, "o1 i2 o2 i2")
	}
}

func TestSocketClosedPortErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer func() { _ = ln.Close() }()

	p, err := openSocket(ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("openSocket failed: %v", err)
	}
	if err := p.close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if p.isOpen() {
		t.Error("isOpen = true after close")
	}
	if _, err := p.read(10 * time.Millisecond); !errors.Is(err, errPortClosed) {
		t.Errorf("read error = %v, want %v", err, errPortClosed)
	}
	if _, err := p.write([]byte("read\r\n")); !errors.Is(err, errPortClosed) {
		t.Errorf("write error = %v, want %v", err, errPortClosed)
	}
}
