package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/motiondetect/utils"
)

// Read reads a config from the given file. ${VAR} references are expanded from the environment
// first.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}

	cfg := Default()
	decoder, err := utils.NewAttributeDecoder(&cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "failed to process Config")
	}
	cfg.ConfigFilePath = originalPath
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Config")
	}
	return &cfg, nil
}

// resolvePaths expands ~ and makes storage and log paths relative to the config file.
func (c *Config) resolvePaths() error {
	base := ""
	if c.ConfigFilePath != "" {
		base = filepath.Dir(c.ConfigFilePath)
	}
	for _, p := range []*string{&c.Storage.EvidenceDir, &c.Storage.EventLogPath, &c.Log.File.Path} {
		if *p == "" {
			continue
		}
		expanded, err := utils.ExpandHomeDir(*p)
		if err != nil {
			return err
		}
		if !filepath.IsAbs(expanded) && base != "" {
			expanded = filepath.Join(base, expanded)
		}
		*p = expanded
	}
	return nil
}
