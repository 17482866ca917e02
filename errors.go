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
	"fmt"
	"strings"
)

// ConnectionError is returned when the serial channel cannot be opened or
// configured. The connection is unusable afterwards.
type ConnectionError struct {
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: failed: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when no response terminator is observed within
// the configured timeout. Received holds the bytes read before the deadline.
// The connection stays usable; the next transaction clears the buffers.
type TimeoutError struct {
	Request  []byte
	Received []byte
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("connection timed out for request %q, received %q",
		e.Request, e.Received)
}

// DecodeError is returned when the received bytes are not valid ASCII text.
type DecodeError struct {
	Data []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("response is not valid ascii: % x", e.Data)
}

// decodeResponse validates the received frame as ASCII and strips the
// trailing terminator from the caller visible string.
func decodeResponse(raw []byte) (string, error) {
	for _, b := range raw {
		if b > 0x7F {
			return "", &DecodeError{Data: append([]byte(nil), raw...)}
		}
	}
	return strings.TrimSuffix(string(raw), eopString), nil
}
