package pkg

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GatewayPort serves the multi panel gateway page on "/", every other port
// serves the single panel page.
const GatewayPort = 8080

// minInterval is the shortest heartbeat and stop timeout accepted.
const minInterval = time.Second

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Root          string        `yaml:"root"`
	Static        string        `yaml:"static"`
	Folders       []string      `yaml:"folders"`
	DefaultFolder string        `yaml:"default_folder"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
	StopTimeout   time.Duration `yaml:"stop_timeout"`
	StreamBuffer  int           `yaml:"stream_buffer"`
}

func DefaultConfig() *Config {
	return &Config{
		Host:          "0.0.0.0",
		Port:          GatewayPort,
		Root:          ".",
		Static:        "static",
		Folders:       []string{"desktop", "downloads", "pictures", "documents"},
		DefaultFolder: "desktop",
		Heartbeat:     15 * time.Second,
		StopTimeout:   2 * time.Second,
		StreamBuffer:  16,
	}
}

// ReadConfig overlays the yaml file on the defaults. An empty file name
// returns the defaults.
func ReadConfig(file string) (*Config, error) {
	c := DefaultConfig()
	if file == "" {
		return c, nil
	}

	yfile, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yfile, c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// StaticDir is the assets directory, relative static paths hang off Root.
func (c *Config) StaticDir() string {
	if filepath.IsAbs(c.Static) {
		return c.Static
	}
	return filepath.Join(c.Root, c.Static)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if len(c.Folders) == 0 {
		errs = append(errs, errors.New("at least one folder is required"))
	}

	seen := make(map[string]bool, len(c.Folders))
	for _, f := range c.Folders {
		if f == "" || f == "." || strings.Contains(f, "..") || strings.ContainsAny(f, `/\`) {
			errs = append(errs, fmt.Errorf("folder %q must be a plain directory name", f))
			continue
		}
		if seen[f] {
			errs = append(errs, fmt.Errorf("folder %q listed twice", f))
		}
		seen[f] = true
	}

	if c.DefaultFolder != "" && !seen[c.DefaultFolder] {
		errs = append(errs, fmt.Errorf("default folder %q is not one of the folders", c.DefaultFolder))
	}
	// bare yaml integers decode as nanoseconds, "15" is not fifteen seconds.
	if c.Heartbeat < minInterval {
		errs = append(errs, fmt.Errorf("heartbeat %v must be at least %v", c.Heartbeat, minInterval))
	}
	if c.StopTimeout < minInterval {
		errs = append(errs, fmt.Errorf("stop timeout %v must be at least %v", c.StopTimeout, minInterval))
	}
	if c.StreamBuffer < 1 {
		errs = append(errs, fmt.Errorf("stream buffer %d must be positive", c.StreamBuffer))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
