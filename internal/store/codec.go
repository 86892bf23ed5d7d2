package store

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

type record struct {
	ID         int    `json:"id" yaml:"id" msgpack:"id"`
	Expression string `json:"expression" yaml:"expression" msgpack:"expression"`
}

type snapshot struct {
	Expressions []record `json:"expressions" yaml:"expressions" msgpack:"expressions"`
}

type codec interface {
	encode(w io.Writer, s *snapshot) error
	decode(r io.Reader, s *snapshot) error
}

func codecFor(filePath string) (codec, error) {
	switch filepath.Ext(filePath) {
	case ".json":
		return jsonCodec{}, nil
	case ".yaml", ".yml":
		return yamlCodec{}, nil
	case ".msgpack", ".mpk":
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported store file extension: %s", filePath)
	}
}

type jsonCodec struct{}

func (jsonCodec) encode(w io.Writer, s *snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("json.Encode: %w", err)
	}
	return nil
}

func (jsonCodec) decode(r io.Reader, s *snapshot) error {
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}
	return nil
}

type yamlCodec struct{}

func (yamlCodec) encode(w io.Writer, s *snapshot) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("yaml.Marshal: %w", err)
	}
	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	return nil
}

func (yamlCodec) decode(r io.Reader, s *snapshot) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("io.ReadAll: %w", err)
	}
	if err = yaml.Unmarshal(b, s); err != nil {
		return fmt.Errorf("yaml.Unmarshal: %w", err)
	}
	return nil
}

type msgpackCodec struct{}

func (msgpackCodec) encode(w io.Writer, s *snapshot) error {
	if err := msgpack.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("msgpack.Encode: %w", err)
	}
	return nil
}

func (msgpackCodec) decode(r io.Reader, s *snapshot) error {
	if err := msgpack.NewDecoder(r).Decode(s); err != nil {
		return fmt.Errorf("msgpack.Decode: %w", err)
	}
	return nil
}
