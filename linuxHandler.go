//go:build linux

package gxavior

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

type port struct {
	f  *os.File
	fd int
	r  *os.File
	w  *os.File
}

func (p *port) isOpen() bool {
	return p != nil && p.f != nil
}

// getPortNames returns a list of available serial port device paths on Linux.
func getPortNames() ([]string, error) {
	patterns := []string{
		"/dev/ttyS*",
		"/dev/ttyUSB*",
		"/dev/ttyXRUSB*",
		"/dev/ttyACM*",
		"/dev/ttyAMA*",
		"/dev/rfcomm*",
		"/dev/ttyAP*",
	}

	var devices []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, device := range matches {
			name := filepath.Base(device)
			sysPath := filepath.Join("/sys/class/tty", name, "device")

			if _, err := os.Stat(sysPath); err == nil {
				devices = append(devices, device)
			}
		}
	}
	return devices, nil
}

// openPort opens the serial device and applies the fixed Avior framing:
// 19200 bps, 8 data bits, no parity, one stop bit.
func openPort(device string, _ time.Duration) (*port, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0666)
	if err != nil {
		return nil, err
	}

	p := &port{f: os.NewFile(uintptr(fd), device), fd: fd}

	// (iflag, oflag, cflag, lflag, ispeed, ospeed, cc) = tcgetattr
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = p.close()
		return nil, err
	}
	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHOK | unix.ECHONL | unix.ISIG | unix.IEXTEN
	t.Oflag &^= unix.OPOST | unix.ONLCR | unix.OCRNL
	t.Iflag &^= unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IGNBRK
	// Baud rate:
	t.Ispeed = unix.B19200
	t.Ospeed = unix.B19200
	// Databits:
	t.Cflag &^= unix.CSIZE
	t.Cflag |= unix.CS8
	// One stop bit:
	t.Cflag &^= unix.CSTOPB
	// No parity:
	t.Iflag &^= unix.INPCK | unix.ISTRIP
	t.Cflag &^= unix.PARENB | unix.PARODD
	// No flow control:
	t.Iflag &^= unix.IXON | unix.IXOFF
	t.Cflag &^= unix.CRTSCTS
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		_ = p.close()
		return nil, err
	}
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		_ = p.close()
		return nil, err
	}
	p.r, p.w, err = os.Pipe()
	if err != nil {
		_ = p.close()
		return nil, err
	}
	_ = unix.SetNonblock(int(p.r.Fd()), true)
	return p, nil
}

func (p *port) close() error {
	if p == nil {
		return nil
	}
	if p.w != nil {
		_ = p.w.Close()
		p.w = nil
	}
	if p.r != nil {
		_ = p.r.Close()
		p.r = nil
	}
	if p.f != nil {
		f := p.f
		p.f = nil
		p.fd = 0
		return f.Close()
	}
	return nil
}

func (p *port) ensureOpen() error {
	if p == nil || p.f == nil {
		return errPortClosed
	}
	return nil
}

func (p *port) getBytesToRead() (int, error) {
	if err := p.ensureOpen(); err != nil {
		return 0, err
	}
	n, err := unix.IoctlGetInt(p.fd, unix.TIOCINQ)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (p *port) read(timeout time.Duration) ([]byte, error) {
	if err := p.ensureOpen(); err != nil {
		return nil, err
	}

	pfds := []unix.PollFd{
		{Fd: int32(p.fd), Events: unix.POLLIN},
		{Fd: int32(p.r.Fd()), Events: unix.POLLIN},
	}
	ready, err := unix.Poll(pfds, int(timeout/time.Millisecond))
	if errors.Is(err, unix.EINTR) {
		return nil, errReadTimeout
	}
	if err != nil {
		return nil, err
	}
	if ready == 0 {
		return nil, errReadTimeout
	}
	if (pfds[1].Revents & (unix.POLLIN | unix.POLLHUP)) != 0 {
		return nil, errPortClosed
	}

	cnt, _ := p.getBytesToRead()
	if cnt <= 0 {
		cnt = 1
	}
	buf := make([]byte, cnt)
	n, err := p.f.Read(buf)
	if errors.Is(err, unix.EAGAIN) {
		return nil, errReadTimeout
	}
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (p *port) write(data []byte) (int, error) {
	if err := p.ensureOpen(); err != nil {
		return 0, err
	}
	return p.f.Write(data)
}

// flush blocks until queued output has been transmitted (tcdrain).
func (p *port) flush() error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	return unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
}

// resetBuffers discards buffered unread input and queued unsent output.
func (p *port) resetBuffers() error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIOFLUSH)
}
