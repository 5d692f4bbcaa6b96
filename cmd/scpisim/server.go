package main

import (
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	scpi "github.com/Nine-Fives/go-scpi"
)

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "scpisim").Logger()
}

// newSession builds a parser context bound to an output stream, with the
// instrument's command table on top of the built-in IEEE 488.2 set.
func newSession(cfg config, inst *instrument, w io.Writer, log zerolog.Logger) (*scpi.Context, error) {
	iface := &scpi.Interface{
		Write: func(data []byte) (int, error) {
			return w.Write(data)
		},
		Reset: func() error {
			log.Info().Msg("instrument reset")
			inst.reset()
			return nil
		},
		OnError: func(err *scpi.Error) {
			log.Warn().
				Int16("code", err.Code).
				Str("text", scpi.ErrorTranslate(err.Code)).
				Msg("scpi error queued")
		},
		Control: func(ctrl scpi.ControlName, value uint16) error {
			if ctrl == scpi.ControlSRQ {
				log.Info().Uint16("stb", value).Msg("service request")
			}
			return nil
		},
	}

	ctx, err := scpi.NewContext(inst.commands(), iface, cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	if cfg.QueueSize > 0 {
		ctx.SetErrorQueueCapacity(cfg.QueueSize)
	}
	ctx.SetIDN(0, cfg.Manufacturer)
	ctx.SetIDN(1, cfg.Model)
	ctx.SetIDN(2, cfg.Serial)
	ctx.SetIDN(3, cfg.Firmware)
	return ctx, nil
}

// serveConn pumps one connection into its session. A read timeout is
// forwarded to the parser as a zero-length input so half-sent commands
// eventually execute, matching serial-style instrument front ends.
func serveConn(conn net.Conn, cfg config, log zerolog.Logger) {
	defer conn.Close()

	inst := newInstrument()
	ctx, err := newSession(cfg, inst, conn, log)
	if err != nil {
		log.Error().Err(err).Msg("session setup failed")
		return
	}

	buf := make([]byte, 256)
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, err := conn.Read(buf)
		if n > 0 {
			ctx.Input(buf[:n])
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				ctx.Input(nil)
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Warn().Err(err).Msg("connection read failed")
			}
			return
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := initLogger()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.Info().Str("addr", ln.Addr().String()).Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("session opened")
		go serveConn(conn, cfg, log.With().Str("remote", conn.RemoteAddr().String()).Logger())
	}
}

func runStdio(cmd *cobra.Command, args []string) error {
	log := initLogger()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	inst := newInstrument()
	ctx, err := newSession(cfg, inst, os.Stdout, log)
	if err != nil {
		return err
	}

	buf := make([]byte, 256)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			ctx.Input(buf[:n])
		}
		if err != nil {
			ctx.Input(nil)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
