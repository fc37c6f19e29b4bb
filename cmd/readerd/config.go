package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is readerd's configuration.
//
// Values come from the environment first.  Command-line flags, when
// given, override them.
type Config struct {
	HTTPAddr        string        `env:"PATHWAYS_HTTP_ADDR" envDefault:"localhost:8080"`
	DB              string        `env:"PATHWAYS_DB"`
	ExplorationsDir string        `env:"PATHWAYS_EXPLORATIONS_DIR" envDefault:"explorations"`
	Widgets         string        `env:"PATHWAYS_WIDGETS" envDefault:"widgets.yaml"`
	MQTTBroker      string        `env:"PATHWAYS_MQTT_BROKER"`
	MQTTTopic       string        `env:"PATHWAYS_MQTT_TOPIC" envDefault:"pathways/events:0"`
	MQTTClientId    string        `env:"PATHWAYS_MQTT_CLIENT_ID"`
	LogMode         string        `env:"PATHWAYS_LOG_MODE" envDefault:"dev"`
	Seed            int64         `env:"PATHWAYS_SEED"`
	ShutdownTimeout time.Duration `env:"PATHWAYS_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// LoadConfig parses the environment and then the given command-line
// arguments.
func LoadConfig(args []string) (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("readerd", flag.ContinueOnError)
	fs.StringVar(&cfg.HTTPAddr, "h", cfg.HTTPAddr, "HTTP service address (host:port)")
	fs.StringVar(&cfg.DB, "db", cfg.DB, "BoltDB filename (in-memory storage if empty)")
	fs.StringVar(&cfg.ExplorationsDir, "d", cfg.ExplorationsDir, "directory of exploration YAML files")
	fs.StringVar(&cfg.Widgets, "w", cfg.Widgets, "widget catalog YAML file")
	fs.StringVar(&cfg.MQTTBroker, "broker", cfg.MQTTBroker, "MQTT broker for events (none if empty)")
	fs.StringVar(&cfg.MQTTTopic, "topic", cfg.MQTTTopic, "MQTT topic prefix for events, with optional :QOS")
	fs.StringVar(&cfg.LogMode, "log", cfg.LogMode, "log mode: dev, prod, or quiet")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for parameter choices (time if zero)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &cfg, nil
}
