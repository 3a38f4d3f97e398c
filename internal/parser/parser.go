// Package parser loads job configuration documents into model.Conf values.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/me/jobrun/pkg/model"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a configuration document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the document format from the file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Parser decodes and validates job configuration documents.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser with the given logger.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger.With("component", "parser")}
}

// LoadFile reads, decodes and validates the configuration at path.
func (p *Parser) LoadFile(path string) (*model.Conf, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.ConfigNotFoundError{Path: path}
		}
		return nil, &model.ConfigUnreadableError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &model.ConfigUnreadableError{Path: path, Err: errors.New("not a regular file")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ConfigUnreadableError{Path: path, Err: err}
	}

	format := FormatFromPath(path)
	p.logger.Debug("loading config", "path", path, "format", format, "bytes", len(data))

	conf, err := p.Parse(data, format)
	if err != nil {
		var ve *decodeError
		if errors.As(err, &ve) {
			return nil, &model.InvalidConfigError{Path: path, Err: ve.err}
		}
		return nil, err
	}
	return conf, nil
}

// Parse decodes data in the given format and validates the result.
// Unknown keys are rejected in every format.
func (p *Parser) Parse(data []byte, format Format) (*model.Conf, error) {
	var conf model.Conf
	var err error
	switch format {
	case FormatYAML:
		err = decodeYAML(data, &conf)
	case FormatTOML:
		err = decodeTOML(data, &conf)
	default:
		err = decodeJSON(data, &conf)
	}
	if err != nil {
		return nil, &decodeError{err: err}
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	p.logger.Debug("config parsed", "jobs", len(conf.Jobs), "stats_reference", conf.StatsReference)
	return &conf, nil
}

// decodeError marks failures of the decoding step so LoadFile can attach the path.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }

func decodeJSON(data []byte, dst *model.Conf) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("JSON parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("JSON parse error: trailing content")
	}
	return nil
}

func decodeYAML(data []byte, dst *model.Conf) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.New("YAML parse error: empty document")
		}
		return fmt.Errorf("YAML parse error: %w", err)
	}
	return nil
}

func decodeTOML(data []byte, dst *model.Conf) error {
	md, err := toml.Decode(string(data), dst)
	if err != nil {
		return fmt.Errorf("TOML parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("TOML parse error: unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}
