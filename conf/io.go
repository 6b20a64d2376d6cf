// Configuration loading and dumping
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
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const defaultConfFile = "go-skirmish.toml"

// load parses a configuration from r, overlaying it onto a copy of
// defaultConfig exactly as the teacher's load() overlays a decoded
// conf struct onto defaultConfig field-by-field.
func load(r io.Reader) (*Conf, error) {
	var data wire
	if _, err := toml.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}

	c := defaultConfig
	if data.Listen != "" {
		c.Listen = data.Listen
	}
	if data.Port != 0 {
		c.Port = data.Port
	}
	if data.Protocol.Version != "" {
		c.ProtocolVersion = data.Protocol.Version
	}
	if data.Game.TurnTimeoutMs != 0 {
		c.Settings.TurnTimeLimit = time.Duration(data.Game.TurnTimeoutMs) * time.Millisecond
	}
	if data.Game.FoodScarcity != 0 {
		c.Settings.FoodScarcity = data.Game.FoodScarcity
	}
	c.Settings.FogOfWar = data.Game.FogOfWar
	if data.Game.StallBound != 0 {
		c.Settings.StallBound = data.Game.StallBound
	}

	if data.Game.Arena != "" {
		f, err := os.Open(data.Game.Arena)
		if err != nil {
			return nil, fmt.Errorf("conf: opening arena %q: %w", data.Game.Arena, err)
		}
		defer f.Close()

		layout, bases, err := ParseArena(f)
		if err != nil {
			return nil, fmt.Errorf("conf: parsing arena %q: %w", data.Game.Arena, err)
		}
		c.Settings.Map = layout
		c.Settings.PotentialBaseLocations = bases
		c.arenaFile = data.Game.Arena
	}

	return &c, nil
}

// Load opens path (or the default file name if path is "" and the
// default exists) and falls back to defaultConfig when neither is
// present or the file is malformed, mirroring the teacher's Load():
// a missing optional file is quiet, a malformed one is logged.
func Load(path string) *Conf {
	if path == "" {
		path = defaultConfFile
	}

	var c *Conf
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		c, err = load(file)
		if err != nil {
			log.Printf("conf: %s: %v", path, err)
			c = nil
		}
	case os.IsNotExist(err):
		// quiet: absence of an optional file is not an error
	}
	if c == nil {
		cp := defaultConfig
		c = &cp
	}

	c.Ctx, c.Kill = context.WithCancel(context.Background())
	return c
}

// Dump serializes c back into TOML, the inverse of load.
func (c *Conf) Dump(wr io.Writer) error {
	var data wire
	data.Listen = c.Listen
	data.Port = c.Port
	data.Protocol.Version = c.ProtocolVersion
	data.Game.TurnTimeoutMs = uint(c.Settings.TurnTimeLimit / time.Millisecond)
	data.Game.FoodScarcity = c.Settings.FoodScarcity
	data.Game.FogOfWar = c.Settings.FogOfWar
	data.Game.StallBound = c.Settings.StallBound
	data.Game.Arena = c.arenaFile

	return toml.NewEncoder(wr).Encode(data)
}
