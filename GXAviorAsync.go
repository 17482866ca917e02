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
	"fmt"
	"sync"
	"time"

	"github.com/Gurux/gxcommon-go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// readPollInterval is how often the reader goroutine rechecks for shutdown
// while the line is idle.
const readPollInterval = 100 * time.Millisecond

// GXAviorAsync is the event driven client for the Avior matrix switch. A
// background reader pushes received chunks into a frame buffer; transactions
// are serialized by a capacity one channel semaphore whose waiters are
// served in acquisition order. Every request first awaits the one time
// connection ready signal. A timed out transaction releases the semaphore so
// later requests proceed.
type GXAviorAsync struct {
	Port    string
	timeout time.Duration
	// The trace level specifies which types of trace messages are emitted.
	traceLevel gxcommon.TraceLevel

	// mu guards callbacks, counters and state flags. The transaction gate
	// is sem, not mu.
	mu sync.RWMutex

	sem       chan struct{}
	connected chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup

	received *synchronousMediaBase
	// transacting routes inbound chunks: into the frame buffer during a
	// transaction, to the OnReceived callback otherwise.
	transacting bool

	bytesSent     uint64
	bytesReceived uint64

	//Called when the new data is received outside a transaction.
	onReceive ReceivedEventHandler

	//Called when the connection state is changed.
	onState MediaStateHandler

	//Called when the driver is sending or receiving data.
	onTrace TraceEventHandler

	//Called when sending or receiving fails.
	onErr ErrorEventHandler

	s channel
	// Printer for localized messages.
	p *message.Printer
}

// NewGXAviorAsync creates an event driven client for the switch behind the
// given serial port or socket locator. The connection is opened with Open.
func NewGXAviorAsync(port string) *GXAviorAsync {
	n := &GXAviorAsync{
		Port:      port,
		timeout:   defaultTimeout,
		sem:       make(chan struct{}, 1),
		connected: make(chan struct{}),
		stop:      make(chan struct{}),
		received:  newGXSynchronousMediaBase(),
	}
	n.Localize(language.AmericanEnglish)
	return n
}

// BaudRate returns the used baud rate.
func (n *GXAviorAsync) BaudRate() gxcommon.BaudRate {
	return gxcommon.BaudRate(baudRate)
}

// DataBits returns the amount of the data bits.
func (n *GXAviorAsync) DataBits() int {
	return dataBits
}

// StopBits returns used stop bits.
func (n *GXAviorAsync) StopBits() gxcommon.StopBits {
	return gxcommon.StopBitsOne
}

// Parity returns used parity.
func (n *GXAviorAsync) Parity() gxcommon.Parity {
	return gxcommon.ParityNone
}

// Timeout returns the read and write timeout in milliseconds.
func (n *GXAviorAsync) Timeout() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return int(n.timeout / time.Millisecond)
}

// SetTimeout sets the read and write timeout in milliseconds.
func (n *GXAviorAsync) SetTimeout(value int) {
	n.mu.Lock()
	n.timeout = time.Duration(value) * time.Millisecond
	n.mu.Unlock()
}

// String returns the connection settings.
func (n *GXAviorAsync) String() string {
	return fmt.Sprintf("%s %d %d %s %s", n.Port, baudRate, dataBits,
		gxcommon.StopBitsOne, gxcommon.ParityNone)
}

// GetName returns the port locator.
func (n *GXAviorAsync) GetName() string {
	return n.Port
}

// IsOpen returns true if the connection is open.
func (n *GXAviorAsync) IsOpen() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.s != nil && n.s.isOpen()
}

// GetBytesSent returns the number of bytes sent.
func (n *GXAviorAsync) GetBytesSent() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.bytesSent
}

// GetBytesReceived returns the number of bytes received.
func (n *GXAviorAsync) GetBytesReceived() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.bytesReceived
}

// ResetByteCounters resets the sent and received byte counters.
func (n *GXAviorAsync) ResetByteCounters() {
	n.mu.Lock()
	n.bytesSent = 0
	n.bytesReceived = 0
	n.mu.Unlock()
}

// Validate checks that the connection settings are complete.
func (n *GXAviorAsync) Validate() error {
	if n.Port == "" {
		return errors.New(n.p.Sprintf("msg.no_serial_port_selected"))
	}
	return nil
}

// GetTrace returns the used trace level.
func (n *GXAviorAsync) GetTrace() gxcommon.TraceLevel {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.traceLevel
}

// SetTrace sets the used trace level.
func (n *GXAviorAsync) SetTrace(traceLevel gxcommon.TraceLevel) error {
	n.mu.Lock()
	n.traceLevel = traceLevel
	n.mu.Unlock()
	return nil
}

// SetOnReceived sets the handler for data that arrives outside a
// transaction.
func (n *GXAviorAsync) SetOnReceived(value ReceivedEventHandler) {
	n.mu.Lock()
	n.onReceive = value
	n.mu.Unlock()
}

// SetOnError sets the error handler.
func (n *GXAviorAsync) SetOnError(value ErrorEventHandler) {
	n.mu.Lock()
	n.onErr = value
	n.mu.Unlock()
}

// SetOnMediaStateChange sets the connection state handler.
func (n *GXAviorAsync) SetOnMediaStateChange(value MediaStateHandler) {
	n.mu.Lock()
	n.onState = value
	n.mu.Unlock()
}

// SetOnTrace sets the trace handler.
func (n *GXAviorAsync) SetOnTrace(value TraceEventHandler) {
	n.mu.Lock()
	n.onTrace = value
	n.mu.Unlock()
}

// Open opens the serial connection, starts the reader and signals the
// connection ready event that every request awaits. A closed client cannot
// be reopened.
func (n *GXAviorAsync) Open() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.s != nil && n.s.isOpen() {
		return nil
	}
	// The reader and the connection ready signal cannot be rearmed once
	// Close has run; create a new client to reconnect.
	select {
	case <-n.stop:
		return errNotOpen
	default:
	}
	n.statef(false, gxcommon.MediaStateOpening)
	n.trace(false, gxcommon.TraceTypesInfo, n.p.Sprintf("msg.connecting_to", n.Port))
	s, err := openChannel(n.Port, n.timeout)
	if err != nil {
		n.trace(false, gxcommon.TraceTypesError, n.p.Sprintf("msg.connect_failed", n.Port, err))
		cerr := &ConnectionError{Port: n.Port, Err: err}
		n.errorf(false, cerr)
		return cerr
	}
	n.attach(s)
	n.trace(false, gxcommon.TraceTypesInfo, n.p.Sprintf("msg.connected_to", n.Port))
	n.statef(false, gxcommon.MediaStateOpen)
	return nil
}

// attach wires an opened channel, starts the reader goroutine and closes the
// connection ready channel.
func (n *GXAviorAsync) attach(s channel) {
	n.s = s
	n.wg.Add(1)
	go n.reader()
	close(n.connected)
}

// reader pushes received data into handleData until the connection closes.
func (n *GXAviorAsync) reader() {
	defer n.wg.Done()
	for {
		chunk, err := n.s.read(readPollInterval)
		if err != nil && !errors.Is(err, errReadTimeout) {
			select {
			case <-n.stop:
			default:
				if !errors.Is(err, errPortClosed) {
					n.trace(true, gxcommon.TraceTypesError, n.p.Sprintf("msg.connection_failed", err))
					n.errorf(true, err)
				}
			}
			return
		}
		if len(chunk) != 0 {
			n.handleData(chunk)
		}
		select {
		case <-n.stop:
			return
		default:
		}
	}
}

func (n *GXAviorAsync) handleData(data []byte) {
	n.mu.Lock()
	n.bytesReceived += uint64(len(data))
	transacting := n.transacting
	cb := n.onReceive
	n.mu.Unlock()
	n.tracef(true, gxcommon.TraceTypesReceived, "RX: %q", data)
	if transacting {
		n.received.Append(data)
	} else if cb != nil {
		cb(n, *gxcommon.NewReceiveEventArgs(data, n.Port))
	}
}

// SetZoneSource routes the given input source to one output zone. Zone and
// source are clamped to 1..4.
func (n *GXAviorAsync) SetZoneSource(zone, source int) (string, error) {
	return n.transact(ZoneSource(zone, source), 0)
}

// SetAllZoneSource routes the given input source to all output zones.
func (n *GXAviorAsync) SetAllZoneSource(source int) (string, error) {
	return n.transact(AllZoneSource(source), 0)
}

// Read views information from the device. May not work on all firmware
// revisions.
func (n *GXAviorAsync) Read() (string, error) {
	return n.transact(ReadInfo(), 0)
}

// SetEcho enables or disables acknowledgement messages for front panel and
// IR actions on the RS-232 port.
func (n *GXAviorAsync) SetEcho(on bool) (string, error) {
	return n.transact(Echo(on), 0)
}

// SetPowerOnDetection enables or disables automatic switching to the next
// powered on source when the selected HDMI source is powered off.
func (n *GXAviorAsync) SetPowerOnDetection(on bool) (string, error) {
	return n.transact(PowerOnDetection(on), 0)
}

// SetMute enables or disables audio coming from the given output zone.
func (n *GXAviorAsync) SetMute(zone int, on bool) (string, error) {
	return n.transact(Mute(zone, on), 0)
}

// SetCec enables or disables Consumer Electronics Control on the given
// output zone.
func (n *GXAviorAsync) SetCec(zone int, on bool) (string, error) {
	return n.transact(Cec(zone, on), 0)
}

// SetButtonEnable enables or disables the front panel pushbuttons.
func (n *GXAviorAsync) SetButtonEnable(on bool) (string, error) {
	return n.transact(ButtonEnable(on), 0)
}

// SetEdidMode selects which display capability data the switch reports to
// the sources. Unrecognized modes are sent as "default".
func (n *GXAviorAsync) SetEdidMode(mode string) (string, error) {
	return n.transact(EdidMode(mode), 0)
}

// Reset resets the device back to the default factory settings.
func (n *GXAviorAsync) Reset() (string, error) {
	return n.transact(FactoryReset(), 0)
}

// Send performs one complete transaction for cmd and returns the decoded
// response.
func (n *GXAviorAsync) Send(cmd Command) (string, error) {
	return n.transact(cmd, 0)
}

// transact performs the full encode, send and receive cycle for one command.
// Suspension points are the connection ready wait, the semaphore and the
// frame buffer wait. skip is the number of bytes that must be buffered before
// terminator scanning begins.
func (n *GXAviorAsync) transact(cmd Command, skip int) (string, error) {
	select {
	case <-n.connected:
	case <-n.stop:
		return "", errNotOpen
	}
	// Only one transaction at a time. Waiters are served in FIFO order.
	select {
	case n.sem <- struct{}{}:
	case <-n.stop:
		return "", errNotOpen
	}
	defer func() { <-n.sem }()

	n.mu.Lock()
	if n.s == nil || !n.s.isOpen() {
		n.mu.Unlock()
		return "", errNotOpen
	}
	n.transacting = true
	timeout := n.timeout
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.transacting = false
		n.mu.Unlock()
	}()

	// Stale bytes from a timed out transaction would corrupt framing of
	// this response.
	if err := n.s.resetBuffers(); err != nil {
		n.errorf(true, err)
		return "", err
	}
	// A chunk the reader has already pulled off the wire can still be
	// appended after this reset; that window is the same as bytes in
	// flight on the line during a serial buffer flush.
	n.received.Reset()

	request := cmd.Bytes()
	n.tracef(true, gxcommon.TraceTypesSent, "TX: %s", cmd)
	written, err := n.s.write(request)
	if err != nil {
		n.errorf(true, err)
		return "", err
	}
	n.mu.Lock()
	n.bytesSent += uint64(written)
	n.mu.Unlock()
	if err := n.s.flush(); err != nil {
		n.errorf(true, err)
		return "", err
	}

	frame, err := n.received.WaitFrame(eopBytes, skip, timeout)
	if errors.Is(err, errReadTimeout) {
		terr := &TimeoutError{Request: request, Received: frame}
		n.trace(true, gxcommon.TraceTypesError,
			n.p.Sprintf("msg.receive_timeout", request, frame))
		n.errorf(true, terr)
		return "", terr
	}
	if err != nil {
		n.errorf(true, err)
		return "", err
	}
	return decodeResponse(frame)
}

func (n *GXAviorAsync) errorf(lock bool, err error) {
	var cb ErrorEventHandler
	if lock {
		n.mu.RLock()
		cb = n.onErr
		n.mu.RUnlock()
	} else {
		cb = n.onErr
	}
	if cb != nil {
		cb(n, err)
	}
}

func (n *GXAviorAsync) tracef(lock bool, traceType gxcommon.TraceTypes, fmtStr string, a ...any) {
	var cb TraceEventHandler
	trace := false
	if lock {
		n.mu.RLock()
		trace = !(int(n.traceLevel) < int(traceType))
		cb = n.onTrace
		n.mu.RUnlock()
	} else {
		trace = !(int(n.traceLevel) < int(traceType))
		cb = n.onTrace
	}
	if cb != nil && trace {
		p := gxcommon.NewTraceEventArgs(traceType, fmt.Sprintf(fmtStr, a...), "")
		cb(n, *p)
	}
}

func (n *GXAviorAsync) trace(lock bool, traceType gxcommon.TraceTypes, message string) {
	var cb TraceEventHandler
	trace := false
	if lock {
		n.mu.RLock()
		trace = !(int(n.traceLevel) < int(traceType))
		cb = n.onTrace
		n.mu.RUnlock()
	} else {
		trace = !(int(n.traceLevel) < int(traceType))
		cb = n.onTrace
	}
	if cb != nil && trace {
		p := gxcommon.NewTraceEventArgs(traceType, message, "")
		cb(n, *p)
	}
}

func (n *GXAviorAsync) statef(lock bool, state gxcommon.MediaState) {
	var cb MediaStateHandler
	if lock {
		n.mu.RLock()
		cb = n.onState
		n.mu.RUnlock()
	} else {
		cb = n.onState
	}
	if cb != nil {
		cb(n, *gxcommon.NewMediaStateEventArgs(state))
	}
}

// Close stops the reader and closes the connection. The client is not
// usable afterwards; create a new one to reconnect.
func (n *GXAviorAsync) Close() error {
	n.mu.Lock()
	if n.s == nil {
		n.mu.Unlock()
		return nil
	}
	select {
	case <-n.stop:
		n.mu.Unlock()
		return nil
	default:
	}
	if n.s.isOpen() {
		n.trace(false, gxcommon.TraceTypesInfo, n.p.Sprintf("msg.closing_connection", n.Port))
		n.statef(false, gxcommon.MediaStateClosing)
	}
	close(n.stop)
	err := n.s.close()
	n.mu.Unlock()
	n.wg.Wait()
	n.mu.Lock()
	n.trace(false, gxcommon.TraceTypesInfo, n.p.Sprintf("msg.connection_closed", n.Port))
	n.statef(false, gxcommon.MediaStateClosed)
	n.mu.Unlock()
	return err
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (n *GXAviorAsync) Localize(language language.Tag) {
	n.p = message.NewPrinter(language)
}
