// Per-connection read loop.
//
// Grounded on the teacher's client.go Handle(): accept a connection,
// run its inbound frames through a scanner goroutine, and notify a
// shared "forget" path when the connection dies, whether by a read
// error or a clean goodbye. Here the inbound frames are JSON ACTION
// messages routed onto the orchestrator's Inbox instead of the
// teacher's text-protocol commands routed through Interpret.
package main

import (
	"log"
	"sync"

	"go-skirmish/conf"
	"go-skirmish/orchestrator"
	"go-skirmish/proto"
	"go-skirmish/registry"
	"go-skirmish/transport"
)

var startOnce sync.Once

func handleConnection(config *conf.Conf, reg *registry.Registry, orch *orchestrator.Orchestrator, c transport.Conn) {
	id, player, err := reg.Attach(c)
	if err != nil {
		log.Printf("rejecting connection from %s: %v", c.RemoteAddr(), err)
		c.Close()
		return
	}
	defer reg.Detach(id)

	frame, err := proto.EncodePlayerAssigned(player)
	if err == nil {
		c.Send(frame)
	}

	both, _ := reg.Ready(id)
	if both {
		startOnce.Do(func() {
			go orch.Start(config.Ctx)
			go pump(config, orch, reg)
		})
	}

	for {
		raw, err := c.ReadFrame()
		if err != nil {
			orch.Disconnect <- orchestrator.Disconnected{Player: player}
			return
		}

		msg, err := proto.Decode(raw)
		if err != nil {
			reject, encErr := proto.EncodeInvalidOperation(player, err.Error())
			if encErr == nil {
				c.Send(reject)
			}
			continue
		}

		action, ok := msg.(proto.ActionMsg)
		if !ok {
			continue
		}
		orch.Inbox <- orchestrator.ActionBatch{Player: player, RoundTag: action.Round, Actions: action.Actions}
	}
}
