// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uart

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.bug.st/serial/enumerator"
)

// ErrNoPorts is returned when no candidate serial port is found.
var ErrNoPorts = errors.New("no serial ports found")

// PortInfo describes a serial port that may host reader firmware.
type PortInfo struct {
	Path         string
	VIDPID       string
	Product      string
	SerialNumber string
	USB          bool
}

func (p PortInfo) String() string {
	if p.VIDPID == "" {
		return p.Path
	}
	return fmt.Sprintf("%s (%s %s)", p.Path, p.VIDPID, p.Product)
}

// DetectOptions configures port detection.
type DetectOptions struct {
	// USB VID:PID pairs to skip (e.g., ["1234:5678", "ABCD:EF01"])
	Blocklist []string
	// Device paths to skip (e.g., ["/dev/ttyUSB0"])
	IgnorePaths []string
	// Only report USB serial adapters
	USBOnly bool
}

// DefaultDetectOptions only reports USB ports and skips known non-reader
// devices.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		Blocklist: DefaultBlocklist(),
		USBOnly:   true,
	}
}

// DefaultBlocklist returns USB devices that enumerate as serial ports but
// never run reader firmware.
func DefaultBlocklist() []string {
	return []string{
		"1366:0105", // SEGGER J-Link CDC
		"0483:374B", // ST-LINK/V2-1 virtual COM
	}
}

// DetectPorts lists serial ports that may host reader firmware.
func DetectPorts(opts DetectOptions) ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	ports := filterPorts(details, opts)
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}
	return ports, nil
}

func filterPorts(details []*enumerator.PortDetails, opts DetectOptions) []PortInfo {
	var ports []PortInfo
	for _, d := range details {
		if d == nil {
			continue
		}
		port := PortInfo{
			Path:         d.Name,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
			USB:          d.IsUSB,
		}
		if d.IsUSB && d.VID != "" && d.PID != "" {
			port.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
		}

		if opts.USBOnly && !port.USB {
			continue
		}
		if port.VIDPID != "" && IsBlocked(port.VIDPID, opts.Blocklist) {
			continue
		}
		if IsPathIgnored(port.Path, opts.IgnorePaths) {
			continue
		}
		ports = append(ports, port)
	}
	return ports
}

// IsBlocked checks if a USB device is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

// IsPathIgnored checks if a device path should be ignored.
// Supports exact path matching and normalized path comparison.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	normalizedDevice := normalizedPath(devicePath)
	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}
		if devicePath == ignorePath || normalizedDevice == normalizedPath(ignorePath) {
			return true
		}
	}
	return false
}

// normalizedPath normalizes a device path for comparison
func normalizedPath(path string) string {
	// COM ports are case-insensitive on Windows
	return strings.ToLower(filepath.Clean(path))
}
