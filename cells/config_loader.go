package cells

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration file: MQTT connection settings, the
// named layouts the service tracks, and rendering defaults.
type Config struct {
	MQTT    MQTTConfig     `yaml:"mqtt" json:"mqtt"`
	Layouts []LayoutConfig `yaml:"layouts" json:"layouts"`
	Render  RenderConfig   `yaml:"render,omitempty" json:"render,omitempty"`
}

// MQTTConfig holds MQTT connection settings. Individual fields can be
// overridden at startup through MQTT_* environment variables.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// LayoutConfig defines one tracked layout. File optionally seeds the layout
// from a JSON file at startup; Topic overrides the MQTT topic the service
// subscribes to for rectangle updates (default: <prefix>/<name>/rects).
type LayoutConfig struct {
	Name  string `yaml:"name" json:"name"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
	Topic string `yaml:"topic,omitempty" json:"topic,omitempty"`
}

// RenderConfig holds rendering defaults for the SVG/PNG endpoints.
type RenderConfig struct {
	Padding     float64 `yaml:"padding,omitempty" json:"padding,omitempty"`         // world units around the drawing (default 20)
	GridSpacing float64 `yaml:"gridSpacing,omitempty" json:"gridSpacing,omitempty"` // reference grid spacing; 0 disables
	StrokeWidth float64 `yaml:"strokeWidth,omitempty" json:"strokeWidth,omitempty"` // boundary line width (default 2)
}

// LoadConfig loads the service configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Validate layout entries: names are required and must be unique.
	seen := make(map[string]struct{}, len(config.Layouts))
	for i, lc := range config.Layouts {
		if lc.Name == "" {
			return nil, fmt.Errorf("layout[%d].name is required", i)
		}
		if _, dup := seen[lc.Name]; dup {
			return nil, fmt.Errorf("layout[%d]: duplicate name %q", i, lc.Name)
		}
		seen[lc.Name] = struct{}{}
	}

	return &config, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// GetLayoutByName returns the layout config for the given name, or nil.
func (c *Config) GetLayoutByName(name string) *LayoutConfig {
	for i := range c.Layouts {
		if c.Layouts[i].Name == name {
			return &c.Layouts[i]
		}
	}
	return nil
}

// SubscribeTopic returns the MQTT topic the service listens on for this
// layout's rectangle updates.
func (lc *LayoutConfig) SubscribeTopic(prefix string) string {
	if lc.Topic != "" {
		return lc.Topic
	}
	return fmt.Sprintf("%s/%s/rects", prefix, lc.Name)
}
