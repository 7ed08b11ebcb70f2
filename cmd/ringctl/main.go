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

// Command ringctl reads or writes the text on an NFC ring through a
// phone, serial reader firmware or a simulated reader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-ndefsession"
	"github.com/ZaparooProject/go-ndefsession/internal/sim"
	"github.com/ZaparooProject/go-ndefsession/transport/uart"
	"github.com/ZaparooProject/go-ndefsession/transport/websocket"
)

// Simulated ring.
const (
	simTagDelay = 300 * time.Millisecond
	simTagText  = "Hello from ringctl"
)

// openReader connects the configured reader. The returned function releases
// it.
func openReader(ctx context.Context, cfg *config, log *zerolog.Logger) (ndefsession.Reader, func(), error) {
	switch cfg.transport {
	case transportWebSocket:
		return openWebSocket(ctx, cfg, log)
	case transportUART:
		return openUART(ctx, cfg, log)
	default:
		tag := sim.NewVirtualNTAG213(sim.TestRingUID)
		if err := tag.SetText(simTagText); err != nil {
			return nil, nil, err
		}
		reader := sim.NewVirtualReader()
		reader.AutoPresent(tag, simTagDelay)
		log.Info().Msg("using simulated reader")
		return reader, func() {}, nil
	}
}

func openWebSocket(ctx context.Context, cfg *config, log *zerolog.Logger) (ndefsession.Reader, func(), error) {
	ln, err := net.Listen("tcp", cfg.listen)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", cfg.listen, err)
	}

	srv := websocket.NewServer()
	mux := http.NewServeMux()
	mux.Handle(websocket.DefaultPath, srv)
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	stopAdvertise := func() {}
	if cfg.advertise {
		//nolint:forcetypeassert // a tcp listener has a TCP address
		port := ln.Addr().(*net.TCPAddr).Port
		shutdown, err := websocket.Advertise(cfg.name, port, websocket.DefaultPath)
		if err != nil {
			log.Warn().Err(err).Msg("mDNS advertisement failed; connect by address instead")
		} else {
			stopAdvertise = shutdown
		}
	}

	cleanup := func() {
		stopAdvertise()
		_ = srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}

	log.Info().Str("addr", ln.Addr().String()).Str("path", websocket.DefaultPath).Msg("waiting for a phone to connect")
	conn, err := srv.Accept(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("accept phone: %w", err)
	}

	reader, stop, err := startRemote(ctx, conn, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return reader, func() {
		stop()
		cleanup()
	}, nil
}

func openUART(ctx context.Context, cfg *config, log *zerolog.Logger) (ndefsession.Reader, func(), error) {
	path := cfg.device
	if path == "" {
		ports, err := uart.DetectPorts(uart.DefaultDetectOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("detect reader: %w", err)
		}
		path = ports[0].Path
		log.Info().Stringer("port", ports[0]).Int("candidates", len(ports)).Msg("auto-detected serial port")
	}

	t, err := uart.New(path)
	if err != nil {
		return nil, nil, err
	}
	return startRemote(ctx, t, log)
}

// startRemote runs a RemoteReader over t until the returned function is
// called.
func startRemote(ctx context.Context, t ndefsession.Transport, log *zerolog.Logger) (
	ndefsession.Reader, func(), error,
) {
	runCtx, cancel := context.WithCancel(ctx)
	reader := ndefsession.NewRemoteReader(t)
	go func() {
		if err := reader.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("reader disconnected")
		}
	}()
	stop := func() {
		cancel()
		_ = t.Close()
	}

	readyCtx, readyCancel := context.WithTimeout(ctx, 10*time.Second)
	defer readyCancel()
	if err := reader.WaitReady(readyCtx); err != nil {
		stop()
		return nil, nil, fmt.Errorf("reader did not introduce itself: %w", err)
	}
	if hello, ok := reader.Device(); ok {
		log.Info().Str("device", hello.Device).Str("platform", hello.Platform).Msg("reader ready")
	}
	return reader, stop, nil
}

func run(ctx context.Context, cfg *config, out io.Writer, log *zerolog.Logger) error {
	if cfg.debug {
		ndefsession.SetDebugEnabled(true)
	}
	if cfg.logDir != "" {
		path, err := ndefsession.InitSessionLog(cfg.logDir)
		if err != nil {
			return err
		}
		defer func() { _ = ndefsession.CloseSessionLog() }()
		log.Info().Str("path", path).Msg("session log")
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	reader, release, err := openReader(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer release()

	c, err := ndefsession.New(reader, ndefsession.WithConfig(*cfg.session))
	if err != nil {
		return err
	}

	if cfg.writeText != "" {
		err = c.Write(ctx, cfg.writeText)
		_, _ = fmt.Fprintln(out, ndefsession.StatusMessage(err))
	} else {
		var text string
		text, err = c.Scan(ctx)
		if err == nil {
			_, _ = fmt.Fprintln(out, text)
		} else {
			_, _ = fmt.Fprintln(out, ndefsession.StatusMessage(err))
		}
	}

	if ndefsession.IsFailure(err) {
		return err
	}
	return nil
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	cfg, err := parseArgs(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	level := zerolog.InfoLevel
	if cfg.debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, &log); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		if ndefsession.IsRetryable(err) {
			log.Info().Msg("try again")
		}
		log.Error().Err(err).Msg("ringctl failed")
		return 1
	}
	return 0
}
