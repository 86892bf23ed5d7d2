package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

type Config struct {
	Listen           string `json:"listen" toml:"listen"`
	StoreFile        string `json:"store_file" toml:"store_file"`
	StrictEvaluation *bool  `json:"strict_evaluation" toml:"strict_evaluation"`
	Debug            bool   `json:"debug" toml:"debug"`
}

// Lenient reports whether evaluation should return the top of the stack
// instead of failing on leftover values. Strict unless configured otherwise.
func (c *Config) Lenient() bool {
	return c.StrictEvaluation != nil && !*c.StrictEvaluation
}

func Load(filePath string) (*Config, error) {
	var parse func(io.Reader) (*Config, error)
	switch filepath.Ext(filePath) {
	case ".json":
		parse = ParseJSON
	case ".yaml", ".yml":
		parse = ParseYAML
	case ".toml":
		parse = ParseTOML
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	c, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return c, nil
}

func ParseYAML(r io.Reader) (*Config, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	return ParseJSON(bytes.NewReader(jsonBytes))
}

func ParseJSON(r io.Reader) (*Config, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var c Config
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}
	return &c, nil
}

func ParseTOML(r io.Reader) (*Config, error) {
	var c Config
	meta, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, fmt.Errorf("toml.Decode: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("unknown keys: %v", undecoded)
	}
	return &c, nil
}
