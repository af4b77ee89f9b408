package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tirep/internal/reports"
)

// FileName is the config file looked up in a workspace.
const FileName = "tirep.yml"

// Config models tirep.yml.
type Config struct {
	// Observer is the faction reports are written for. Empty means the
	// observer recorded in each snapshot.
	Observer string `yaml:"observer"`
	Output   struct {
		Dir     string   `yaml:"dir"`
		Reports []string `yaml:"reports"`
	} `yaml:"output"`
	Watch struct {
		Dir      string        `yaml:"dir"`
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"watch"`
	MQTT   MQTT `yaml:"mqtt"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

type MQTT struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Topic          string        `yaml:"topic"`
	QoS            byte          `yaml:"qos"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with tirep config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("config.output.dir is required")
	}
	seen := map[string]bool{}
	for _, name := range c.Output.Reports {
		if _, ok := reports.Lookup(name); !ok {
			return fmt.Errorf("config.output.reports: unknown report %s", name)
		}
		if seen[name] {
			return fmt.Errorf("config.output.reports: report %s listed twice", name)
		}
		seen[name] = true
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("config.watch.debounce must not be negative")
	}
	if c.MQTT.Broker != "" {
		if c.MQTT.Topic == "" {
			return fmt.Errorf("config.mqtt.topic is required when a broker is set")
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("config.mqtt.qos must be 0, 1 or 2")
		}
		if c.MQTT.ConnectTimeout < 0 {
			return fmt.Errorf("config.mqtt.connect_timeout must not be negative")
		}
	}
	if bp := c.Server.BasePath; bp != "" && !strings.HasPrefix(bp, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config.log.format must be console or json")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(observer string) string {
	return fmt.Sprintf(defaultTemplate, observer)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for an observer.
func Default(observer string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault(observer))).Decode(&cfg)
	cfg.Observer = observer
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing from
// the file keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `# Faction the reports are written for; empty uses the snapshot's observer.
observer: "%s"

output:
  dir: reports
  # Report names to generate; empty generates all of them.
  reports: []

watch:
  dir: snapshots
  debounce: 500ms

mqtt:
  broker: ""
  client_id: tirep
  topic: tirep/snapshots/saved
  qos: 1
  connect_timeout: 10s

server:
  addr: 127.0.0.1:8080
  base_path: /v0

log:
  level: info
  format: console
`
