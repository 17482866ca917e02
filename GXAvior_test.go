package gxavior

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestOperations(t *testing.T) {
	tests := []struct {
		name    string
		run     func(c testClient) (string, error)
		request string
	}{
		{"zone source", func(c testClient) (string, error) { return c.SetZoneSource(3, 2) }, "sw i02 o03\r\n"},
		{"all zones", func(c testClient) (string, error) { return c.SetAllZoneSource(4) }, "sw i04 o*\r\n"},
		{"read", func(c testClient) (string, error) { return c.Read() }, "read\r\n"},
		{"echo", func(c testClient) (string, error) { return c.SetEcho(true) }, "echo on\r\n"},
		{"pod", func(c testClient) (string, error) { return c.SetPowerOnDetection(false) }, "pod off\r\n"},
		{"mute", func(c testClient) (string, error) { return c.SetMute(2, true) }, "mute o2 on\r\n"},
		{"cec", func(c testClient) (string, error) { return c.SetCec(1, false) }, "cec o1 off\r\n"},
		{"button", func(c testClient) (string, error) { return c.SetButtonEnable(true) }, "button on\r\n"},
		{"edid", func(c testClient) (string, error) { return c.SetEdidMode("remix") }, "edid remix\r\n"},
		{"reset", func(c testClient) (string, error) { return c.Reset() }, "reset\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
				f.respond(tt.request, "Command OK\r")
				got, err := tt.run(c)
				if err != nil {
					t.Fatalf("command failed: %v", err)
				}
				if got != "Command OK" {
					t.Errorf("response = %q, want %q", got, "Command OK")
				}
				if f.writeCount() != 1 {
					t.Errorf("writes = %d, want 1", f.writeCount())
				}
			})
		})
	}
}

func TestSendCommand(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		f.respond("sw i01 o02\r\n", "sw i01 o02 Command OK\r")
		got, err := c.Send(ZoneSource(2, 1))
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if got != "sw i01 o02 Command OK" {
			t.Errorf("response = %q", got)
		}
	})
}

func TestChunkedResponseIsAssembled(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		f.chunked = true
		f.respond("read\r\n", "o1 i2 o2 i2 o3 i1 o4 i4\r")
		got, err := c.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if got != "o1 i2 o2 i2 o3 i1 o4 i4" {
			t.Errorf("response = %q", got)
		}
	})
}

func TestTimeoutReportsPartialBytes(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		c.SetTimeout(50)
		f.respond("read\r\n", "o1 i2")
		_, err := c.Read()
		var terr *TimeoutError
		if !errors.As(err, &terr) {
			t.Fatalf("error = %v, want *TimeoutError", err)
		}
		if string(terr.Received) != "o1 i2" {
			t.Errorf("Received = %q, want %q", terr.Received, "o1 i2")
		}
		if string(terr.Request) != "read\r\n" {
			t.Errorf("Request = %q, want %q", terr.Request, "read\r\n")
		}
	})
}

func TestTimeoutWithNoResponse(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		c.SetTimeout(50)
		_, err := c.Read()
		var terr *TimeoutError
		if !errors.As(err, &terr) {
			t.Fatalf("error = %v, want *TimeoutError", err)
		}
		if len(terr.Received) != 0 {
			t.Errorf("Received = %q, want empty", terr.Received)
		}
	})
}

func TestRecoveryAfterTimeout(t *testing.T) {
	// A timed out transaction must not poison the next one; its stale bytes
	// are discarded when the next transaction resets the buffers.
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		c.SetTimeout(50)
		f.respond("echo on\r\n", "partial")
		if _, err := c.SetEcho(true); err == nil {
			t.Fatal("expected timeout")
		}
		f.respond("echo on\r\n", "Command OK\r")
		got, err := c.SetEcho(true)
		if err != nil {
			t.Fatalf("second command failed: %v", err)
		}
		if got != "Command OK" {
			t.Errorf("response = %q", got)
		}
	})
}

func TestDecodeErrorOnNonAscii(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		f.respond("read\r\n", "OK\xff\r")
		_, err := c.Read()
		var derr *DecodeError
		if !errors.As(err, &derr) {
			t.Fatalf("error = %v, want *DecodeError", err)
		}
	})
}

func TestTransactionsDoNotInterleave(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		f.auto = "Command OK\r"
		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = c.SetZoneSource(i%4+1, (i+1)%4+1)
			}(i)
		}
		wg.Wait()
		for i, err := range errs {
			if err != nil {
				t.Errorf("worker %d failed: %v", i, err)
			}
		}
		if f.writeCount() != workers {
			t.Errorf("writes = %d, want %d", f.writeCount(), workers)
		}
		if f.violationCount() != 0 {
			t.Errorf("interleaved requests: %d", f.violationCount())
		}
	})
}

func TestRepeatedResetIsNotCoalesced(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		f.auto = "Command OK\r"
		for i := 0; i < 2; i++ {
			if _, err := c.Reset(); err != nil {
				t.Fatalf("Reset %d failed: %v", i+1, err)
			}
		}
		if f.writeCount() != 2 {
			t.Errorf("writes = %d, want 2", f.writeCount())
		}
	})
}

func TestCommandsFailAfterClose(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		if err := c.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := c.Read(); !errors.Is(err, errNotOpen) {
			t.Errorf("error = %v, want %v", err, errNotOpen)
		}
	})
}

func TestByteCounters(t *testing.T) {
	eachClient(t, func(t *testing.T, c testClient, f *fakeChannel) {
		f.respond("read\r\n", "state\r")
		if _, err := c.Read(); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if got := c.GetBytesSent(); got != uint64(len("read\r\n")) {
			t.Errorf("GetBytesSent = %d, want %d", got, len("read\r\n"))
		}
		if got := c.GetBytesReceived(); got != uint64(len("state\r")) {
			t.Errorf("GetBytesReceived = %d, want %d", got, len("state\r"))
		}
	})
}

func TestStaleBytesAreDiscarded(t *testing.T) {
	g := NewGXAvior("fake")
	f := newFakeChannel()
	g.attach(f)
	defer func() { _ = g.Close() }()

	f.push("left over from before\r")
	f.respond("read\r\n", "fresh state\r")
	got, err := g.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != "fresh state" {
		t.Errorf("response = %q, want %q", got, "fresh state")
	}
}

func TestIndependentConnections(t *testing.T) {
	a := NewGXAvior("fake-a")
	fa := newFakeChannel()
	a.attach(fa)
	defer func() { _ = a.Close() }()

	b := NewGXAvior("fake-b")
	fb := newFakeChannel()
	b.attach(fb)
	defer func() { _ = b.Close() }()

	fa.respond("read\r\n", "state a\r")
	fb.respond("read\r\n", "state b\r")

	var wg sync.WaitGroup
	results := make([]string, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0], _ = a.Read() }()
	go func() { defer wg.Done(); results[1], _ = b.Read() }()
	wg.Wait()

	if results[0] != "state a" || results[1] != "state b" {
		t.Errorf("responses = %q, %q", results[0], results[1])
	}
}

func TestOpenBadDevice(t *testing.T) {
	g := NewGXAvior("/nonexistent/device0")
	err := g.Open()
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *ConnectionError", err)
	}
	if cerr.Port != "/nonexistent/device0" {
		t.Errorf("Port = %q", cerr.Port)
	}
	if g.IsOpen() {
		t.Error("IsOpen = true after failed Open")
	}
}

func TestValidate(t *testing.T) {
	if err := NewGXAvior("").Validate(); err == nil {
		t.Error("Validate accepted empty port")
	}
	if err := NewGXAvior("/dev/ttyUSB0").Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestSkipDelaysTerminatorScan(t *testing.T) {
	g := NewGXAvior("fake")
	f := newFakeChannel()
	g.attach(f)
	defer func() { _ = g.Close() }()

	// The response starts with a bare terminator; with skip the scan must
	// wait for the full frame.
	f.respond("read\r\n", "\rfull state\r")
	got, err := g.transact(ReadInfo(), 1)
	if err != nil {
		t.Fatalf("transact failed: %v", err)
	}
	if got != "\rfull state" {
		t.Errorf("response = %q", got)
	}
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Request: []byte("read\r\n"), Received: []byte("par")}
	want := fmt.Sprintf("connection timed out for request %q, received %q", "read\r\n", "par")
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
