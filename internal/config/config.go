// Package config loads the YAML file describing the database connection and
// the tables (fields and indices) lookups are built over.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fieldlookup/internal/dbclient"
	"fieldlookup/internal/domain"
	"fieldlookup/internal/storage"
)

// Config is the top-level configuration file.
type Config struct {
	Connection domain.DatabaseConnection `yaml:"connection"`
	Log        LogConfig                 `yaml:"log"`
	Tables     []TableConfig             `yaml:"tables"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// TableConfig declares one table.
type TableConfig struct {
	Name    string         `yaml:"name"`
	Fields  []domain.Field `yaml:"fields"`
	Indices []domain.Index `yaml:"indices"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Connection.Name == "" {
		c.Connection.Name = "default"
	}
}

// Validate checks the connection settings and every table declaration.
func (c *Config) Validate() error {
	var errs []error
	if _, err := dbclient.DialectFor(c.Connection.Driver); err != nil {
		errs = append(errs, fmt.Errorf("connection: %w", err))
	}
	if c.Connection.Driver == domain.DatabaseDriverSQLite && c.Connection.Host == "" {
		errs = append(errs, errors.New("connection: sqlite needs a file path in host"))
	}
	if _, err := c.Catalog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Schemas builds the schema of every declared table.
func (c *Config) Schemas() ([]*domain.Schema, error) {
	out := make([]*domain.Schema, 0, len(c.Tables))
	for _, t := range c.Tables {
		s, err := domain.NewSchema(t.Name, t.Fields, t.Indices)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Catalog builds a catalog of the declared tables.
func (c *Config) Catalog() (*storage.Catalog, error) {
	schemas, err := c.Schemas()
	if err != nil {
		return nil, err
	}
	return storage.NewCatalog(schemas...)
}
