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
	"bytes"
	"sync"
	"time"
)

// synchronousMediaBase accumulates chunks pushed by the reader goroutine and
// lets one waiter block until a complete response frame is buffered.
type synchronousMediaBase struct {
	mu   sync.Mutex
	buf  []byte
	wait chan struct{}
}

func newGXSynchronousMediaBase() *synchronousMediaBase {
	return &synchronousMediaBase{wait: make(chan struct{})}
}

func (b *synchronousMediaBase) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	b.buf = append(b.buf, p...)
	old := b.wait
	b.wait = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Reset drops buffered bytes that belong to an earlier, possibly aborted
// transaction.
func (b *synchronousMediaBase) Reset() {
	b.mu.Lock()
	b.buf = b.buf[:0]
	b.mu.Unlock()
}

// WaitFrame blocks until the buffer is longer than skip bytes and ends with
// eop, then removes and returns the frame. The timeout applies to each wait
// for the next chunk, not to the frame as a whole. On timeout the bytes
// received so far are returned together with errReadTimeout; they stay
// buffered until the next Reset.
func (b *synchronousMediaBase) WaitFrame(eop []byte, skip int, timeout time.Duration) ([]byte, error) {
	for {
		b.mu.Lock()
		if len(b.buf) > skip && bytes.HasSuffix(b.buf, eop) {
			frame := b.buf
			b.buf = nil
			b.mu.Unlock()
			return frame, nil
		}
		ch := b.wait
		b.mu.Unlock()

		timer := time.NewTimer(timeout)
		select {
		case <-ch:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
			b.mu.Lock()
			partial := append([]byte(nil), b.buf...)
			b.mu.Unlock()
			return partial, errReadTimeout
		}
	}
}
