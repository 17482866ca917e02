// Package gxavior drives an Avior 4x4 HDMI matrix switch over its RS-232
// control port. It encodes the switch's ASCII command set, frames the
// carriage-return terminated responses and emits events for received data,
// errors, tracing and state changes.
//
// Features
//
//   - Typed command builders for every matrix operation (routing, EDID,
//     mute, CEC, power-on detection, echo, front panel lock, factory reset)
//   - Blocking request/response client (GXAvior) and an event-driven client
//     with asynchronous receive callbacks (GXAviorAsync)
//   - Framing: responses are accumulated until the '\r' terminator.
//   - Timeouts: per-transaction timeout via SetTimeout; a timeout reports
//     the partial bytes that did arrive.
//   - Tracing: configurable trace level/mask for sent/received/error/info.
//   - Events: Received, Error, Trace and MediaState callbacks.
//   - Transports: local serial device or a TCP-attached device server
//     (socket:// and tcp:// locators).
//
// # Construction
//
// Use NewGXAvior or NewGXAviorAsync with the serial device name. The RS-232
// framing of the switch is fixed at 19200 bps, 8 data bits, no parity and
// one stop bit, so no line settings are configurable.
//
// Example
//
//	media := gxavior.NewGXAvior("/dev/ttyUSB0")
//
//	media.SetOnError(func(m gxavior.Avior, err error) {
//	    // log/handle error
//	})
//
//	if err := media.Open(); err != nil {
//	    // handle connect error
//	}
//	defer media.Close()
//
//	// route source 2 to output 3 and read back the routing table
//	if _, err := media.SetZoneSource(3, 2); err != nil {
//	    // handle command error
//	}
//	state, _ := media.Read()
//
// # Errors and timeouts
//
// Failures to open the device are reported as *ConnectionError. A response
// that does not arrive within the timeout is reported as *TimeoutError
// carrying the bytes received so far; a response with non-ASCII content is
// reported as *DecodeError. Error messages are lowercased per Go style
// guidelines.
//
// # Notes
//
// The zero value of GXAvior is not ready for use; always construct via
// NewGXAvior. Long-running work in event handlers should be offloaded to a
// separate goroutine to avoid blocking I/O paths.
package gxavior
