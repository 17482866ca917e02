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

// EdidModes lists the EDID modes the switch accepts. Any other value is
// encoded as "default".
var EdidModes = []string{"port1", "remix", "default"}

type commandKind int

const (
	cmdZoneSource commandKind = iota
	cmdAllZoneSource
	cmdRead
	cmdEcho
	cmdPowerOnDetection
	cmdMute
	cmdCec
	cmdButtonEnable
	cmdEdidMode
	cmdReset
)

// Command is one discrete control command of the Avior matrix switch.
// Construct values with the package level constructors; the zero value
// encodes as a zone source command.
type Command struct {
	kind   commandKind
	zone   int
	source int
	on     bool
	mode   string
}

// ZoneSource sets the input source for one output zone.
// Zone and source are clamped to 1..4.
func ZoneSource(zone, source int) Command {
	return Command{kind: cmdZoneSource, zone: zone, source: source}
}

// AllZoneSource sets the input source for all output zones.
func AllZoneSource(source int) Command {
	return Command{kind: cmdAllZoneSource, source: source}
}

// ReadInfo requests information from the device. May not work on all
// firmware revisions.
func ReadInfo() Command {
	return Command{kind: cmdRead}
}

// Echo enables or disables acknowledgement messages for front panel and IR
// actions on the RS-232 port.
func Echo(on bool) Command {
	return Command{kind: cmdEcho, on: on}
}

// PowerOnDetection enables or disables automatic switching to the next
// powered on source when the selected HDMI source is powered off.
func PowerOnDetection(on bool) Command {
	return Command{kind: cmdPowerOnDetection, on: on}
}

// Mute enables or disables audio coming from the given output zone.
func Mute(zone int, on bool) Command {
	return Command{kind: cmdMute, zone: zone, on: on}
}

// Cec enables or disables Consumer Electronics Control on the given output
// zone.
func Cec(zone int, on bool) Command {
	return Command{kind: cmdCec, zone: zone, on: on}
}

// ButtonEnable enables or disables the front panel pushbuttons.
func ButtonEnable(on bool) Command {
	return Command{kind: cmdButtonEnable, on: on}
}

// EdidMode selects which display capability data the switch reports to the
// sources. Unrecognized modes encode as "default".
func EdidMode(mode string) Command {
	return Command{kind: cmdEdidMode, mode: mode}
}

// FactoryReset resets the device back to the default factory settings.
func FactoryReset() Command {
	return Command{kind: cmdReset}
}

// clampPortNumber limits a zone or source number to the four ports of the
// switch.
func clampPortNumber(value int) int {
	if value < 1 {
		return 1
	}
	if value > 4 {
		return 4
	}
	return value
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// Bytes encodes the command into the ASCII request the device expects,
// including the trailing CR LF. Encoding never fails; out of range numbers
// are clamped and unknown EDID modes fall back to "default".
func (c Command) Bytes() []byte {
	switch c.kind {
	case cmdAllZoneSource:
		return []byte(fmt.Sprintf("sw i0%d o*\r\n", clampPortNumber(c.source)))
	case cmdRead:
		return []byte("read\r\n")
	case cmdEcho:
		return []byte(fmt.Sprintf("echo %s\r\n", onOff(c.on)))
	case cmdPowerOnDetection:
		return []byte(fmt.Sprintf("pod %s\r\n", onOff(c.on)))
	case cmdMute:
		//Mute zones are not zero padded.
		return []byte(fmt.Sprintf("mute o%d %s\r\n", c.zone, onOff(c.on)))
	case cmdCec:
		return []byte(fmt.Sprintf("cec o%d %s\r\n", c.zone, onOff(c.on)))
	case cmdButtonEnable:
		return []byte(fmt.Sprintf("button %s\r\n", onOff(c.on)))
	case cmdEdidMode:
		mode := c.mode
		switch mode {
		case "port1", "remix", "default":
		default:
			mode = "default"
		}
		return []byte(fmt.Sprintf("edid %s\r\n", mode))
	case cmdReset:
		return []byte("reset\r\n")
	default:
		//Source before zone is the wire order of the device.
		return []byte(fmt.Sprintf("sw i0%d o0%d\r\n",
			clampPortNumber(c.source), clampPortNumber(c.zone)))
	}
}

// String returns the encoded request without the line terminator. Used for
// tracing.
func (c Command) String() string {
	return strings.TrimSuffix(string(c.Bytes()), "\r\n")
}
