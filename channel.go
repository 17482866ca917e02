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
	"time"
)

// Fixed framing of the Avior RS-232 port. Not configurable.
const (
	baudRate = 19200
	dataBits = 8
)

// eop is the terminator of a device response frame.
const (
	eop       byte = '\r'
	eopString      = "\r"
)

var eopBytes = []byte{eop}

// defaultTimeout bounds both reads and writes unless SetTimeout is used.
const defaultTimeout = 2 * time.Second

var (
	errReadTimeout = errors.New("read timed out")
	errPortClosed  = errors.New("serial port closed")
	errNotOpen     = errors.New("connection is not open")
)

// channel is the transport seam shared by the OS serial ports, the TCP
// socket port and the test fakes. Only the transaction critical sections of
// GXAvior and GXAviorAsync touch read and write.
type channel interface {
	write(data []byte) (int, error)
	// read blocks until at least one byte arrives, the timeout elapses
	// (errReadTimeout) or the channel is closed (errPortClosed).
	read(timeout time.Duration) ([]byte, error)
	// flush blocks until queued output has been transmitted.
	flush() error
	// resetBuffers discards buffered unread input and queued unsent output.
	resetBuffers() error
	isOpen() bool
	close() error
}

// openChannel opens the serial device or TCP endpoint named by locator.
// Locators with a socket:// or tcp:// scheme are dialed over TCP; everything
// else is treated as a serial device name.
func openChannel(locator string, timeout time.Duration) (channel, error) {
	if addr, ok := socketLocator(locator); ok {
		return openSocket(addr, timeout)
	}
	return openPort(locator, timeout)
}
