package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"matchbook/domain/book"
)

type Config struct {
	Symbol       string `yaml:"symbol"`
	FillStrategy string `yaml:"fill_strategy"`
	Server       struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Kafka struct {
		Enabled   bool     `yaml:"enabled"`
		Brokers   []string `yaml:"brokers"`
		TapeTopic string   `yaml:"tape_topic"`
		FillTopic string   `yaml:"fill_topic"`
	} `yaml:"kafka"`
	Outbox struct {
		Dir            string `yaml:"dir"`
		IntervalMillis int    `yaml:"interval_millis"`
		CleanupAcked   bool   `yaml:"cleanup_acked"`
	} `yaml:"outbox"`
}

func defaultConfig() Config {
	var c Config
	c.Symbol = "MBK"
	c.FillStrategy = "FILL_IN_SEQ"
	c.Server.Addr = ":8080"
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Kafka.Enabled = false
	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.TapeTopic = "matchbook.tape"
	c.Kafka.FillTopic = "matchbook.fills"
	c.Outbox.Dir = "./outbox"
	c.Outbox.IntervalMillis = 250
	c.Outbox.CleanupAcked = false
	return c
}

// Load reads defaults, then an optional YAML file named by
// MATCHBOOK_CONFIG, then environment overrides. A MATCHBOOK_CONFIG
// that cannot be read or parsed is an error, not a silent fallback.
func Load() (Config, error) {
	c := defaultConfig()
	if path := os.Getenv("MATCHBOOK_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("MATCHBOOK_SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("MATCHBOOK_FILL_STRATEGY"); v != "" {
		c.FillStrategy = v
	}
	if v := os.Getenv("MATCHBOOK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MATCHBOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MATCHBOOK_LOG_PRETTY"); v != "" {
		c.Logging.Pretty, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("MATCHBOOK_KAFKA_ENABLED"); v != "" {
		c.Kafka.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("MATCHBOOK_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MATCHBOOK_OUTBOX_DIR"); v != "" {
		c.Outbox.Dir = v
	}
	return c, nil
}

// Strategy maps the configured fill strategy name onto the engine enum.
func (c Config) Strategy() (book.FillStrategy, error) {
	switch strings.ToUpper(c.FillStrategy) {
	case "FILL_IN_SEQ", "FIFO":
		return book.FillInSequence, nil
	case "LOWEST_QTY_FIRST":
		return book.LowestQtyFirst, nil
	case "HIGHEST_QTY_FIRST":
		return book.HighestQtyFirst, nil
	default:
		return 0, fmt.Errorf("unknown fill strategy %q", c.FillStrategy)
	}
}
