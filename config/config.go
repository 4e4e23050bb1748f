/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config reads story and engine settings from YAML.
//
// A missing field keeps its default, so an empty file is a valid
// configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Session backends.
const (
	Memory = "memory"
	Bolt   = "bolt"
	SQLite = "sqlite"
)

type Config struct {
	// Start is the title of the first passage.  Empty means the
	// story's own start passage.
	Start string `yaml:"start,omitempty"`

	// Evaluator names an entry in core.DefaultInterpreters.
	Evaluator string `yaml:"evaluator"`

	Nobr                  bool `yaml:"nobr"`
	CleanupWikifierOutput bool `yaml:"cleanupWikifierOutput"`
	AddVisitedLinkClass   bool `yaml:"addVisitedLinkClass"`
	MaxLoopIterations     int  `yaml:"maxLoopIterations"`
	IfAssignmentError     bool `yaml:"ifAssignmentError"`

	// MaxDepth limits nested rendering.
	MaxDepth int `yaml:"maxDepth"`

	History History `yaml:"history"`
	PRNG    PRNG    `yaml:"prng"`
	Session Session `yaml:"session"`
	MQTT    MQTT    `yaml:"mqtt"`

	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"logLevel,omitempty"`
	LogFile  string `yaml:"logFile,omitempty"`
}

type History struct {
	// MaxStates limits the number of moments.  Zero means no
	// limit.
	MaxStates int `yaml:"maxStates"`
}

type PRNG struct {
	Enabled bool   `yaml:"enabled"`
	Seed    string `yaml:"seed,omitempty"`

	// Entropy mixes a random value into the seed.
	Entropy bool `yaml:"entropy"`
}

type Session struct {
	// Backend is memory, bolt, or sqlite.
	Backend string `yaml:"backend"`

	// Path is the database file for bolt and sqlite.
	Path string `yaml:"path,omitempty"`
}

// MQTT configures the history-update publisher.  An empty Broker
// disables it.
type MQTT struct {
	Broker   string `yaml:"broker,omitempty"`
	Topic    string `yaml:"topic,omitempty"`
	ClientID string `yaml:"clientId,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Evaluator:         "goja",
		MaxLoopIterations: 1000,
		IfAssignmentError: true,
		MaxDepth:          100,
		History: History{
			MaxStates: 150,
		},
		Session: Session{
			Backend: Memory,
		},
		MQTT: MQTT{
			Topic: "tale/history",
		},
	}
}

// Parse reads YAML over the defaults.  Unknown fields are errors.
func Parse(bs []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(bs, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses the named file.
func Load(filename string) (*Config, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	c, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// Validate clamps numeric fields and checks the rest.
func (c *Config) Validate() error {
	if c.History.MaxStates < 0 {
		c.History.MaxStates = 0
	}
	if c.MaxLoopIterations <= 0 {
		c.MaxLoopIterations = 1000
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 100
	}
	if c.Evaluator == "" {
		c.Evaluator = "goja"
	}

	switch c.Session.Backend {
	case "":
		c.Session.Backend = Memory
	case Memory:
	case Bolt, SQLite:
		if c.Session.Path == "" {
			return &BadSetting{
				Name:    "session.path",
				Problem: "required by the " + c.Session.Backend + " backend",
			}
		}
	default:
		return &BadSetting{
			Name:    "session.backend",
			Problem: fmt.Sprintf("unknown backend %q", c.Session.Backend),
		}
	}

	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return &BadSetting{
			Name:    "mqtt.topic",
			Problem: "required with a broker",
		}
	}
	return nil
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// BadSetting is a configuration value that can't be used.
type BadSetting struct {
	Name    string
	Problem string
}

func (e *BadSetting) Error() string {
	return "bad setting " + e.Name + ": " + e.Problem
}
