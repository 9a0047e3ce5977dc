package models

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultMaxSteps = 10000

type Config struct {
	Color     bool     `yaml:"color"`
	Verbose   bool     `yaml:"verbose"`
	MaxSteps  int      `yaml:"max_steps"`
	MaxLoops  int      `yaml:"max_loops"`
	Modes     []string `yaml:"modes"`
	TraceExec bool     `yaml:"trace_exec"`
	TraceMem  bool     `yaml:"trace_mem"`
	TraceReg  bool     `yaml:"trace_reg"`
	// write the cpu image of every snapshot here
	SaveDir string `yaml:"save_dir"`

	Output io.Writer `yaml:"-"`
}

func (c *Config) Init() *Config {
	if c.Output == nil {
		c.Output = os.Stderr
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	return c
}

// Logger returns a text logger on Output; Verbose enables debug records.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	out := c.Output
	if out == nil {
		out = os.Stderr
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func (c *Config) ExecutionModes() (Modes, error) {
	var modes Modes
	for _, name := range c.Modes {
		m, err := ParseMode(name)
		if err != nil {
			return Modes{}, err
		}
		modes.Enable(m, true)
	}
	return modes, nil
}

// LoadConfig decodes a YAML config file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	c := &Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c.Init(), nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return c.Init(), nil
}
