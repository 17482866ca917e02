package gxavior

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// socketLocator reports whether the port locator names a TCP endpoint
// instead of a serial device, and returns the host:port address if so.
// Matrixes attached to a serial device server are reached this way.
func socketLocator(locator string) (string, bool) {
	for _, scheme := range []string{"socket://", "tcp://"} {
		if strings.HasPrefix(locator, scheme) {
			return strings.TrimPrefix(locator, scheme), true
		}
	}
	return "", false
}

// socketPort adapts a TCP connection to the channel interface. The timeout
// configured at open time bounds the dial and every write.
type socketPort struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
}

func openSocket(addr string, timeout time.Duration) (*socketPort, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return &socketPort{conn: conn, timeout: timeout}, nil
}

func (p *socketPort) isOpen() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

func (p *socketPort) current() (net.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil, errPortClosed
	}
	return p.conn, nil
}

func (p *socketPort) read(timeout time.Duration) ([]byte, error) {
	conn, err := p.current()
	if err != nil {
		return nil, err
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, errPortClosed
	}
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return nil, errReadTimeout
	}
	if err == io.EOF || errors.Is(err, net.ErrClosed) {
		return nil, errPortClosed
	}
	return nil, err
}

func (p *socketPort) write(data []byte) (int, error) {
	conn, err := p.current()
	if err != nil {
		return 0, err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(p.timeout))
	n, err := conn.Write(data)
	if errors.Is(err, net.ErrClosed) {
		return n, errPortClosed
	}
	return n, err
}

// flush is a no-op; TCP has no transmit queue to drain after Write returns.
func (p *socketPort) flush() error {
	if !p.isOpen() {
		return errPortClosed
	}
	return nil
}

// resetBuffers drains any bytes the device server has already pushed.
func (p *socketPort) resetBuffers() error {
	conn, err := p.current()
	if err != nil {
		return err
	}
	buf := make([]byte, 256)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return errPortClosed
		}
		n, err := conn.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	return nil
}

func (p *socketPort) close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
