// Entry point
//
// Copyright (c) 2021, 2022  Philip Kaludercic
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"go-skirmish/conf"
	"go-skirmish/engine"
	"go-skirmish/orchestrator"
	"go-skirmish/proto"
	"go-skirmish/registry"
	"go-skirmish/transport"

	sk "go-skirmish"
)

func main() {
	cmd := &cli.Command{
		Name:  "go-skirmish",
		Usage: "two-player grid skirmish game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "conf", Usage: "path to a configuration file"},
			&cli.BoolFlag{Name: "dump-config", Usage: "print the active configuration to stdout and exit"},
			&cli.IntFlag{Name: "port", Usage: "override the configured listen port"},
			&cli.StringFlag{Name: "listen", Usage: `override the configured transport ("tcp" or "ws")`},
			&cli.BoolFlag{Name: "debug", Usage: "enable verbose tracing"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	config := conf.Load(cmd.String("conf"))

	if cmd.Bool("debug") {
		config.Debug.SetOutput(os.Stderr)
		sk.Debug.SetOutput(os.Stderr)
	}
	if p := cmd.Int("port"); p != 0 {
		config.Port = uint(p)
	}
	if l := cmd.String("listen"); l != "" {
		config.Listen = l
	}

	if cmd.Bool("dump-config") {
		return config.Dump(os.Stdout)
	}

	return serve(config)
}

// serve runs exactly one game for the lifetime of the process,
// per the Non-goal ruling out matchmaking across multiple games.
// Its shutdown handling is grounded on the teacher's cmd/state.go
// State.Start: catch an interrupt, cancel a shared context, and let
// every goroutine watching that context unwind on its own.
func serve(config *conf.Conf) error {
	reg := registry.New()
	eng := engine.New(config.Settings, time.Now().UnixNano())
	orch := orchestrator.New(eng, config.Settings, [2]sk.PlayerID{"player-1", "player-2"})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Print("received interrupt, shutting down")
		config.Kill()
	}()

	handle := func(c transport.Conn) {
		handleConnection(config, reg, orch, c)
	}

	switch config.Listen {
	case "ws":
		mux := http.NewServeMux()
		mux.HandleFunc("/socket", transport.Upgrader(handle))
		server := &http.Server{Addr: portAddr(config.Port), Handler: mux}
		go func() {
			<-config.Ctx.Done()
			server.Close()
		}()
		log.Printf("listening for websocket connections on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	default:
		if err := transport.Listen(config.Ctx, config.Port, handle); err != nil {
			return err
		}
		<-config.Ctx.Done()
		return nil
	}
}

func portAddr(port uint) string {
	return ":" + strconv.FormatUint(uint64(port), 10)
}

// pump drains orchestrator Events and turns each into wire frames,
// broadcast or unicast via the registry, exactly how the teacher's
// Play() calls cli.Send directly inline -- here the translation is
// pulled out since two connections must each receive a tailored view.
func pump(config *conf.Conf, orch *orchestrator.Orchestrator, reg *registry.Registry) {
	var deltas []sk.GameDelta
	for ev := range orch.Events {
		switch ev.Kind {
		case orchestrator.GameStarted:
			frame, err := proto.EncodeStartGame(config.Settings.Map, ev.State.Units, ev.State.StartAt)
			if err != nil {
				log.Print(err)
				continue
			}
			reg.Broadcast(frame)

		case orchestrator.TurnPrompted:
			frame, err := proto.EncodeNextTurn(ev.Turn, ev.Round, ev.State)
			if err != nil {
				log.Print(err)
				continue
			}
			reg.Unicast(ev.Turn, frame)

		case orchestrator.TurnApplied:
			deltas = append(deltas, ev.Delta)

		case orchestrator.ActionRejected:
			frame, err := proto.EncodeInvalidOperation(ev.Turn, ev.Reason)
			if err != nil {
				log.Print(err)
				continue
			}
			if ev.Turn != "" {
				reg.Unicast(ev.Turn, frame)
			}

		case orchestrator.GameEnded:
			frame, err := proto.EncodeEndGame(config.Settings.Map, ev.Winner, deltas, time.Now())
			if err != nil {
				log.Print(err)
				continue
			}
			reg.Broadcast(frame)
		}
	}
}
