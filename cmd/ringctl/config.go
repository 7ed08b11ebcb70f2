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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ZaparooProject/go-ndefsession"
)

// Transport names accepted by -transport.
const (
	transportSim       = "sim"
	transportWebSocket = "websocket"
	transportUART      = "uart"
)

var errUnknownTransport = errors.New("unknown transport")

type config struct {
	session   *ndefsession.Config
	transport string
	device    string
	listen    string
	name      string
	logDir    string
	writeText string
	timeout   time.Duration
	advertise bool
	debug     bool
}

func defaultConfig() *config {
	return &config{
		session:   ndefsession.DefaultConfig(),
		transport: transportSim,
		listen:    ":7474",
		name:      "ringctl",
		timeout:   60 * time.Second,
		advertise: true,
	}
}

// ringctl config.toml keys.
type fileConfig struct {
	Session   ndefsession.Config `toml:"session"`
	Transport string             `toml:"transport"`
	Device    string             `toml:"device"`
	Listen    string             `toml:"listen"`
	Name      string             `toml:"name"`
	LogDir    string             `toml:"log_dir"`
	Timeout   string             `toml:"timeout"`
	Advertise bool               `toml:"advertise"`
	Debug     bool               `toml:"debug"`
}

// loadFile overlays the keys set in the TOML file at path onto cfg.
func loadFile(path string, cfg *config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("transport") {
		cfg.transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("device") {
		cfg.device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("listen") {
		cfg.listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("name") {
		cfg.name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("log_dir") {
		cfg.logDir = strings.TrimSpace(raw.LogDir)
	}
	if meta.IsDefined("timeout") {
		timeout, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("load config: timeout: %w", err)
		}
		cfg.timeout = timeout
	}
	if meta.IsDefined("advertise") {
		cfg.advertise = raw.Advertise
	}
	if meta.IsDefined("debug") {
		cfg.debug = raw.Debug
	}

	if meta.IsDefined("session", "language") {
		cfg.session.Language = strings.TrimSpace(raw.Session.Language)
	}
	if meta.IsDefined("session", "read_prompt") {
		cfg.session.ReadPrompt = raw.Session.ReadPrompt
	}
	if meta.IsDefined("session", "write_prompt") {
		cfg.session.WritePrompt = raw.Session.WritePrompt
	}
	if meta.IsDefined("session", "write_success_alert") {
		cfg.session.WriteSuccessAlert = raw.Session.WriteSuccessAlert
	}
	if meta.IsDefined("session", "event_buffer") {
		cfg.session.EventBuffer = raw.Session.EventBuffer
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		ndefsession.Debugf("ignoring unknown config keys: %v", undecoded)
	}
	return nil
}

// parseArgs builds the configuration from defaults, the optional config
// file and then the flags that were set.
func parseArgs(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("ringctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", "", "TOML config file")
		transport  = fs.String("transport", transportSim, "Reader transport: sim, websocket or uart")
		device     = fs.String("device", "", "Serial port for the uart transport (auto-detect if empty)")
		listen     = fs.String("listen", ":7474", "Listen address for the websocket transport")
		advertise  = fs.Bool("advertise", true, "Advertise the websocket endpoint over mDNS")
		writeText  = fs.String("write", "", "Text to write to the next tag (reads when empty)")
		language   = fs.String("lang", "", "Language code for written text")
		logDir     = fs.String("log-dir", "", "Write a session log file to this directory")
		timeout    = fs.Duration("timeout", 60*time.Second, "Give up after this long (0 waits forever)")
		debug      = fs.Bool("debug", false, "Enable debug output")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadFile(*configPath, cfg); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.transport = strings.ToLower(*transport)
		case "device":
			cfg.device = *device
		case "listen":
			cfg.listen = *listen
		case "advertise":
			cfg.advertise = *advertise
		case "lang":
			cfg.session.Language = *language
		case "log-dir":
			cfg.logDir = *logDir
		case "timeout":
			cfg.timeout = *timeout
		case "debug":
			cfg.debug = *debug
		}
	})
	cfg.writeText = *writeText

	switch cfg.transport {
	case transportSim, transportWebSocket, transportUART:
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownTransport, cfg.transport)
	}
	return cfg, nil
}
