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

// Avior is the control surface of the matrix switch. It is implemented by
// the blocking GXAvior client and the event driven GXAviorAsync client with
// identical request and response semantics.
type Avior interface {
	SetZoneSource(zone, source int) (string, error)
	SetAllZoneSource(source int) (string, error)
	Read() (string, error)
	SetEcho(on bool) (string, error)
	SetPowerOnDetection(on bool) (string, error)
	SetMute(zone int, on bool) (string, error)
	SetCec(zone int, on bool) (string, error)
	SetButtonEnable(on bool) (string, error)
	SetEdidMode(mode string) (string, error)
	Reset() (string, error)
	Send(cmd Command) (string, error)
	Close() error
}

// TraceEventHandler is called when the driver is sending or receiving data.
type TraceEventHandler func(sender Avior, e gxcommon.TraceEventArgs)

// ErrorEventHandler is called when sending or receiving fails.
type ErrorEventHandler func(sender Avior, err error)

// MediaStateHandler is called when the connection state is changed.
type MediaStateHandler func(sender Avior, e gxcommon.MediaStateEventArgs)

// ReceivedEventHandler is called for data that arrives outside a
// transaction, such as echo acknowledgements for front panel actions.
type ReceivedEventHandler func(sender Avior, e gxcommon.ReceiveEventArgs)

// GXAvior is the blocking client for the Avior matrix switch. A mutual
// exclusion lock on the connection serializes concurrent callers so that at
// most one command is in flight at any instant; each public call may block
// for up to the configured timeout. Independent connections do not interfere
// with each other.
type GXAvior struct {
	Port    string
	timeout time.Duration
	// The trace level specifies which types of trace messages are emitted.
	traceLevel gxcommon.TraceLevel

	// mu serializes transactions and guards the fields below. It is not
	// reentrant; no command ever invokes another command.
	mu sync.RWMutex

	bytesSent     uint64
	bytesReceived uint64

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

// NewGXAvior creates a client for the switch behind the given serial port or
// socket locator. The connection is opened with Open.
func NewGXAvior(port string) *GXAvior {
	g := &GXAvior{Port: port, timeout: defaultTimeout}
	g.Localize(language.AmericanEnglish)
	return g
}

// GetPortNames returns list of available serial ports.
func GetPortNames() ([]string, error) {
	return getPortNames()
}

// BaudRate returns the used baud rate. The Avior RS-232 port is fixed to
// 19200 bps.
func (g *GXAvior) BaudRate() gxcommon.BaudRate {
	return gxcommon.BaudRate(baudRate)
}

// DataBits returns the amount of the data bits.
func (g *GXAvior) DataBits() int {
	return dataBits
}

// StopBits returns used stop bits.
func (g *GXAvior) StopBits() gxcommon.StopBits {
	return gxcommon.StopBitsOne
}

// Parity returns used parity.
func (g *GXAvior) Parity() gxcommon.Parity {
	return gxcommon.ParityNone
}

// Timeout returns the read and write timeout in milliseconds.
func (g *GXAvior) Timeout() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return int(g.timeout / time.Millisecond)
}

// SetTimeout sets the read and write timeout in milliseconds.
func (g *GXAvior) SetTimeout(value int) {
	g.mu.Lock()
	g.timeout = time.Duration(value) * time.Millisecond
	g.mu.Unlock()
}

// String returns the connection settings.
func (g *GXAvior) String() string {
	return fmt.Sprintf("%s %d %d %s %s", g.Port, baudRate, dataBits,
		gxcommon.StopBitsOne, gxcommon.ParityNone)
}

// GetName returns the port locator.
func (g *GXAvior) GetName() string {
	return g.Port
}

// IsOpen returns true if the connection is open.
func (g *GXAvior) IsOpen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.s != nil && g.s.isOpen()
}

// GetBytesSent returns the number of bytes sent.
func (g *GXAvior) GetBytesSent() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bytesSent
}

// GetBytesReceived returns the number of bytes received.
func (g *GXAvior) GetBytesReceived() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bytesReceived
}

// ResetByteCounters resets the sent and received byte counters.
func (g *GXAvior) ResetByteCounters() {
	g.mu.Lock()
	g.bytesSent = 0
	g.bytesReceived = 0
	g.mu.Unlock()
}

// Validate checks that the connection settings are complete.
func (g *GXAvior) Validate() error {
	if g.Port == "" {
		return errors.New(g.p.Sprintf("msg.no_serial_port_selected"))
	}
	return nil
}

// GetTrace returns the used trace level.
func (g *GXAvior) GetTrace() gxcommon.TraceLevel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.traceLevel
}

// SetTrace sets the used trace level.
func (g *GXAvior) SetTrace(traceLevel gxcommon.TraceLevel) error {
	g.mu.Lock()
	g.traceLevel = traceLevel
	g.mu.Unlock()
	return nil
}

// SetOnError sets the error handler.
func (g *GXAvior) SetOnError(value ErrorEventHandler) {
	g.mu.Lock()
	g.onErr = value
	g.mu.Unlock()
}

// SetOnMediaStateChange sets the connection state handler.
func (g *GXAvior) SetOnMediaStateChange(value MediaStateHandler) {
	g.mu.Lock()
	g.onState = value
	g.mu.Unlock()
}

// SetOnTrace sets the trace handler.
func (g *GXAvior) SetOnTrace(value TraceEventHandler) {
	g.mu.Lock()
	g.onTrace = value
	g.mu.Unlock()
}

// Open opens the serial connection with the fixed Avior framing: 19200 bps,
// 8 data bits, no parity, one stop bit.
func (g *GXAvior) Open() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s != nil && g.s.isOpen() {
		return nil
	}
	g.statef(false, gxcommon.MediaStateOpening)
	g.trace(false, gxcommon.TraceTypesInfo, g.p.Sprintf("msg.connecting_to", g.Port))
	s, err := openChannel(g.Port, g.timeout)
	if err != nil {
		g.trace(false, gxcommon.TraceTypesError, g.p.Sprintf("msg.connect_failed", g.Port, err))
		cerr := &ConnectionError{Port: g.Port, Err: err}
		g.errorf(false, cerr)
		return cerr
	}
	g.attach(s)
	g.trace(false, gxcommon.TraceTypesInfo, g.p.Sprintf("msg.connected_to", g.Port))
	g.statef(false, gxcommon.MediaStateOpen)
	return nil
}

// attach wires an opened channel. Open state events are not emitted here.
func (g *GXAvior) attach(s channel) {
	g.s = s
}

// SetZoneSource routes the given input source to one output zone. Zone and
// source are clamped to 1..4.
func (g *GXAvior) SetZoneSource(zone, source int) (string, error) {
	return g.transact(ZoneSource(zone, source), 0)
}

// SetAllZoneSource routes the given input source to all output zones.
func (g *GXAvior) SetAllZoneSource(source int) (string, error) {
	return g.transact(AllZoneSource(source), 0)
}

// Read views information from the device. May not work on all firmware
// revisions.
func (g *GXAvior) Read() (string, error) {
	return g.transact(ReadInfo(), 0)
}

// SetEcho enables or disables acknowledgement messages for front panel and
// IR actions on the RS-232 port.
func (g *GXAvior) SetEcho(on bool) (string, error) {
	return g.transact(Echo(on), 0)
}

// SetPowerOnDetection enables or disables automatic switching to the next
// powered on source when the selected HDMI source is powered off.
func (g *GXAvior) SetPowerOnDetection(on bool) (string, error) {
	return g.transact(PowerOnDetection(on), 0)
}

// SetMute enables or disables audio coming from the given output zone.
func (g *GXAvior) SetMute(zone int, on bool) (string, error) {
	return g.transact(Mute(zone, on), 0)
}

// SetCec enables or disables Consumer Electronics Control on the given
// output zone.
func (g *GXAvior) SetCec(zone int, on bool) (string, error) {
	return g.transact(Cec(zone, on), 0)
}

// SetButtonEnable enables or disables the front panel pushbuttons.
func (g *GXAvior) SetButtonEnable(on bool) (string, error) {
	return g.transact(ButtonEnable(on), 0)
}

// SetEdidMode selects which display capability data the switch reports to
// the sources. Unrecognized modes are sent as "default".
func (g *GXAvior) SetEdidMode(mode string) (string, error) {
	return g.transact(EdidMode(mode), 0)
}

// Reset resets the device back to the default factory settings.
func (g *GXAvior) Reset() (string, error) {
	return g.transact(FactoryReset(), 0)
}

// Send performs one complete transaction for cmd and returns the decoded
// response.
func (g *GXAvior) Send(cmd Command) (string, error) {
	return g.transact(cmd, 0)
}

// transact performs the full encode, send and receive cycle for one command
// while holding the transaction lock. skip is the number of bytes that must
// be buffered before terminator scanning begins.
func (g *GXAvior) transact(cmd Command, skip int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s == nil || !g.s.isOpen() {
		return "", errNotOpen
	}
	// Stale bytes from a timed out transaction would corrupt framing of
	// this response.
	if err := g.s.resetBuffers(); err != nil {
		g.errorf(false, err)
		return "", err
	}
	request := cmd.Bytes()
	g.tracef(false, gxcommon.TraceTypesSent, "TX: %s", cmd)
	n, err := g.s.write(request)
	if err != nil {
		g.errorf(false, err)
		return "", err
	}
	g.bytesSent += uint64(n)
	if err := g.s.flush(); err != nil {
		g.errorf(false, err)
		return "", err
	}
	var result []byte
	for {
		chunk, err := g.s.read(g.timeout)
		if errors.Is(err, errReadTimeout) {
			terr := &TimeoutError{Request: request, Received: result}
			g.trace(false, gxcommon.TraceTypesError,
				g.p.Sprintf("msg.receive_timeout", request, result))
			g.errorf(false, terr)
			return "", terr
		}
		if err != nil {
			g.errorf(false, err)
			return "", err
		}
		g.bytesReceived += uint64(len(chunk))
		result = append(result, chunk...)
		if len(result) > skip && result[len(result)-1] == eop {
			break
		}
	}
	g.tracef(false, gxcommon.TraceTypesReceived, "RX: %q", result)
	return decodeResponse(result)
}

func (g *GXAvior) errorf(lock bool, err error) {
	var cb ErrorEventHandler
	if lock {
		g.mu.RLock()
		cb = g.onErr
		g.mu.RUnlock()
	} else {
		cb = g.onErr
	}
	if cb != nil {
		cb(g, err)
	}
}

func (g *GXAvior) tracef(lock bool, traceType gxcommon.TraceTypes, fmtStr string, a ...any) {
	var cb TraceEventHandler
	trace := false
	if lock {
		g.mu.RLock()
		trace = !(int(g.traceLevel) < int(traceType))
		cb = g.onTrace
		g.mu.RUnlock()
	} else {
		trace = !(int(g.traceLevel) < int(traceType))
		cb = g.onTrace
	}
	if cb != nil && trace {
		p := gxcommon.NewTraceEventArgs(traceType, fmt.Sprintf(fmtStr, a...), "")
		cb(g, *p)
	}
}

func (g *GXAvior) trace(lock bool, traceType gxcommon.TraceTypes, message string) {
	var cb TraceEventHandler
	trace := false
	if lock {
		g.mu.RLock()
		trace = !(int(g.traceLevel) < int(traceType))
		cb = g.onTrace
		g.mu.RUnlock()
	} else {
		trace = !(int(g.traceLevel) < int(traceType))
		cb = g.onTrace
	}
	if cb != nil && trace {
		p := gxcommon.NewTraceEventArgs(traceType, message, "")
		cb(g, *p)
	}
}

func (g *GXAvior) statef(lock bool, state gxcommon.MediaState) {
	var cb MediaStateHandler
	if lock {
		g.mu.RLock()
		cb = g.onState
		g.mu.RUnlock()
	} else {
		cb = g.onState
	}
	if cb != nil {
		cb(g, *gxcommon.NewMediaStateEventArgs(state))
	}
}

// Close closes the connection. The client is not usable afterwards; create
// a new one to reconnect.
func (g *GXAvior) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s == nil {
		return nil
	}
	if g.s.isOpen() {
		g.trace(false, gxcommon.TraceTypesInfo, g.p.Sprintf("msg.closing_connection", g.Port))
		g.statef(false, gxcommon.MediaStateClosing)
	}
	err := g.s.close()
	g.s = nil
	g.trace(false, gxcommon.TraceTypesInfo, g.p.Sprintf("msg.connection_closed", g.Port))
	g.statef(false, gxcommon.MediaStateClosed)
	return err
}

//nolint:errcheck
func init() {
	// --- English (default) ---
	message.SetString(language.AmericanEnglish, "msg.closing_connection", "Closing connection to %s")
	message.SetString(language.AmericanEnglish, "msg.connection_closed", "Connection closed to %s")
	message.SetString(language.AmericanEnglish, "msg.connection_failed", "Connection failed: %v")
	message.SetString(language.AmericanEnglish, "msg.connect_failed", "connect to %s: failed: %v")
	message.SetString(language.AmericanEnglish, "msg.connected_to", "Connected to %s")
	message.SetString(language.AmericanEnglish, "msg.connecting_to", "Connecting to %s")
	message.SetString(language.AmericanEnglish, "msg.receive_timeout", "Timeout during receiving response for command %q, received %q")
	message.SetString(language.AmericanEnglish, "msg.no_serial_port_selected", "No serial port selected. Please select a serial port.")

	// --- German (de) ---
	message.SetString(language.German, "msg.closing_connection", "Verbindung zu %s wird geschlossen")
	message.SetString(language.German, "msg.connection_closed", "Verbindung zu %s wurde geschlossen")
	message.SetString(language.German, "msg.connection_failed", "Verbindung fehlgeschlagen: %v")
	message.SetString(language.German, "msg.connect_failed", "Verbindung zu %s fehlgeschlagen: %v")
	message.SetString(language.German, "msg.connected_to", "Verbunden mit %s")
	message.SetString(language.German, "msg.connecting_to", "Verbindung zu %s wird aufgebaut")
	message.SetString(language.German, "msg.receive_timeout", "Zeitüberschreitung beim Empfang der Antwort auf %q, empfangen %q")
	message.SetString(language.German, "msg.no_serial_port_selected", "Kein serieller Port ausgewählt. Bitte wählen Sie einen seriellen Port aus.")

	// --- Finnish (fi) ---
	message.SetString(language.Finnish, "msg.closing_connection", "Suljetaan yhteys kohteeseen %s")
	message.SetString(language.Finnish, "msg.connection_closed", "Yhteys suljettu kohteeseen %s")
	message.SetString(language.Finnish, "msg.connection_failed", "Yhteyden muodostus epäonnistui: %v")
	message.SetString(language.Finnish, "msg.connect_failed", "Yhteyden muodostus kohteeseen %s epäonnistui: %v")
	message.SetString(language.Finnish, "msg.connected_to", "Yhdistetty kohteeseen %s")
	message.SetString(language.Finnish, "msg.connecting_to", "Yhdistetään kohteeseen %s")
	message.SetString(language.Finnish, "msg.receive_timeout", "Aikakatkaisu vastaanotettaessa vastausta komentoon %q, vastaanotettu %q")
	message.SetString(language.Finnish, "msg.no_serial_port_selected", "Sarjaporttia ei ole valittu. Valitse sarjaportti.")
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (g *GXAvior) Localize(language language.Tag) {
	g.p = message.NewPrinter(language)
}
