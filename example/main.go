package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Gurux/gxavior-go"
	"github.com/Gurux/gxcommon-go"
	"golang.org/x/text/language"
)

var (
	port    = flag.String("S", "", "Port name or socket://host:port locator")
	command = flag.String("c", "read", "Command (switch, switchall, read, echo, pod, mute, cec, button, edid, reset)")
	zone    = flag.Int("z", 1, "Output zone (1-4)")
	source  = flag.Int("i", 1, "Input source (1-4)")
	on      = flag.Bool("on", true, "On/off value for echo, pod, mute, cec and button")
	mode    = flag.String("mode", "default", "EDID mode (port1, remix, default)")
	t       = flag.String("t", "", "Trace level.")
	w       = flag.Int("w", 2000, "WaitTime in milliseconds.")
	lang    = flag.String("lang", "", "Used language.")
	async   = flag.Bool("async", false, "Use the event-driven client.")
)

// client is the surface shared by GXAvior and GXAviorAsync that the example
// needs beyond the Avior operations.
type client interface {
	gxavior.Avior
	Localize(tag language.Tag)
	SetTimeout(value int)
	SetTrace(traceLevel gxcommon.TraceLevel) error
	GetTrace() gxcommon.TraceLevel
	SetOnError(value gxavior.ErrorEventHandler)
	SetOnMediaStateChange(value gxavior.MediaStateHandler)
	SetOnTrace(value gxavior.TraceEventHandler)
	Validate() error
	Open() error
}

func main() {
	flag.Parse()
	if *port == "" {
		flag.PrintDefaults()
		return
	}

	var media client
	if *async {
		evented := gxavior.NewGXAviorAsync(*port)
		evented.SetOnReceived(func(m gxavior.Avior, e gxcommon.ReceiveEventArgs) {
			fmt.Printf("Async data: %s\n", e.String())
		})
		media = evented
	} else {
		media = gxavior.NewGXAvior(*port)
	}

	if *lang != "" {
		tag, err := language.Parse(*lang)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error parsing language:", err)
			return
		}
		media.Localize(tag)
	}

	media.SetOnError(func(m gxavior.Avior, err error) {
		// log/handle error
		fmt.Fprintln(os.Stderr, "error:", err)
	})

	media.SetOnMediaStateChange(func(m gxavior.Avior, e gxcommon.MediaStateEventArgs) {
		fmt.Printf("Media state change : %s\n", e.State().String())
	})

	media.SetOnTrace(func(m gxavior.Avior, e gxcommon.TraceEventArgs) {
		fmt.Printf("Trace: %s\n", e.String())
	})

	if err := media.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	if *t != "" {
		tl, err := gxcommon.TraceLevelParse(*t)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		if err := media.SetTrace(tl); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
	}
	media.SetTimeout(*w)
	fmt.Printf("Host port: %s\n", *port)
	fmt.Printf("Command: %s\n", *command)
	fmt.Printf("Trace level %s\n", media.GetTrace().String())
	if err := media.Open(); err != nil {
		fmt.Fprintln(os.Stderr, "error returned:", err)
		ret, err := gxavior.GetPortNames()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get available serial ports: ", err)
			return
		}
		fmt.Fprintln(os.Stderr, "Available serial ports: "+strings.Join(ret, ","))
		return
	}
	//Close the connection.
	defer func() {
		if err := media.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close failed:", err)
		}
	}()

	var reply string
	var err error
	switch strings.ToLower(*command) {
	case "switch":
		reply, err = media.SetZoneSource(*zone, *source)
	case "switchall":
		reply, err = media.SetAllZoneSource(*source)
	case "read":
		reply, err = media.Read()
	case "echo":
		reply, err = media.SetEcho(*on)
	case "pod":
		reply, err = media.SetPowerOnDetection(*on)
	case "mute":
		reply, err = media.SetMute(*zone, *on)
	case "cec":
		reply, err = media.SetCec(*zone, *on)
	case "button":
		reply, err = media.SetButtonEnable(*on)
	case "edid":
		reply, err = media.SetEdidMode(*mode)
	case "reset":
		reply, err = media.Reset()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", *command)
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error returned:", err)
		return
	}
	fmt.Printf("Reply: %s\n", reply)
	fmt.Printf("Exit\n")
}
