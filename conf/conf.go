// Configuration Specification and Management
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

package conf

import (
	"context"
	"io"
	"log"
	"time"

	sk "go-skirmish"
)

// wire is the TOML-facing shape of a configuration file: nested,
// toml-tagged, and intentionally narrower than Conf (no loggers, no
// context, no arena — those are derived at Load time).
type wire struct {
	Listen string `toml:"listen"` // "tcp" or "ws"
	Port   uint   `toml:"port"`
	Game   struct {
		TurnTimeoutMs uint    `toml:"turn_timeout_ms"`
		FoodScarcity  float64 `toml:"food_scarcity"`
		FogOfWar      bool    `toml:"fog_of_war"`
		StallBound    int     `toml:"stall_bound"`
		Arena         string  `toml:"arena"` // path to an arena(.txt) file, or "" for the default map
	} `toml:"game"`
	Protocol struct {
		Version string `toml:"version"`
	} `toml:"protocol"`
}

// Conf is the fully resolved, in-memory server configuration.
type Conf struct {
	Log   *log.Logger
	Debug *log.Logger
	Ctx   context.Context
	Kill  context.CancelFunc

	Listen string // "tcp" or "ws"
	Port   uint

	ProtocolVersion string

	Settings sk.GameSettings

	arenaFile string // empty unless loaded from a file, for Dump round-tripping
}

// defaultConfig is the configuration used when no file is present,
// mirroring the teacher's own defaultConfig fallback in conf.go.
var defaultConfig = Conf{
	Log:   log.Default(),
	Debug: log.New(io.Discard, "[debug] ", log.Ltime|log.Lshortfile|log.Lmicroseconds),

	Listen: "tcp",
	Port:   4771,

	ProtocolVersion: "1.0",

	Settings: sk.GameSettings{
		Map:                    defaultMap(),
		PotentialBaseLocations: []sk.Position{{X: 0, Y: 0}, {X: 9, Y: 9}},
		TurnTimeLimit:          10 * time.Second,
		FoodScarcity:           0.1,
		FogOfWar:               false,
		StallBound:             20,
	},
}

// defaultMap is a bare, wall-free 10x10 field, used whenever no arena
// file is configured.
func defaultMap() sk.MapLayout {
	return sk.MapLayout{Dimension: sk.Dimension{Width: 10, Height: 10}}
}
