package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/forestrie/go-merklekv/merkle"
)

const (
	DefaultConfigFile = "merklekv.toml"
	DefaultIssuer     = "merklekv"
)

type LoggerConfig struct {
	// Level is passed to logger.New, NOOP silences logging.
	Level string `toml:"level"`
}

// Config locates the store, the anchor log, the commitment snapshot and the
// signing key. Relative paths are resolved against the directory holding the
// configuration file.
type Config struct {
	Logger         LoggerConfig `toml:"logger"`
	StorePath      string       `toml:"store_path"`
	AnchorPath     string       `toml:"anchor_path"`
	SnapshotPath   string       `toml:"snapshot_path"`
	// PendingPath holds a commitment whose upload or publish failed until
	// retry completes it.
	PendingPath    string       `toml:"pending_path"`
	SigningKeyPath string       `toml:"signing_key"`
	Issuer         string       `toml:"issuer"`
	// Hash names the merkle hash algorithm, sha256 when empty.
	Hash    string `toml:"hash"`
	Workers int    `toml:"workers"`

	path string
}

// DefaultConfig returns the configuration init writes.
func DefaultConfig() *Config {
	return &Config{
		Logger:         LoggerConfig{Level: "INFO"},
		StorePath:      "store.db",
		AnchorPath:     "anchor.db",
		SnapshotPath:   "commitment.cbor",
		PendingPath:    "pending.cbor",
		SigningKeyPath: "signing.pem",
		Issuer:         DefaultIssuer,
		Hash:           string(merkle.DefaultAlgorithm),
	}
}

// LoadConfig reads a toml configuration file.
func LoadConfig(file string) (*Config, error) {
	conf := DefaultConfig()
	if _, err := toml.DecodeFile(file, conf); err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}
	conf.path = file
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Save writes the configuration to file in toml.
func (conf *Config) Save(file string) error {
	var confBuf bytes.Buffer
	e := toml.NewEncoder(&confBuf)
	if err := e.Encode(conf); err != nil {
		return err
	}
	if err := os.WriteFile(file, confBuf.Bytes(), 0644); err != nil {
		return err
	}
	conf.path = file
	return nil
}

func (conf *Config) Validate() error {
	if _, err := merkle.ParseAlgorithm(conf.Hash); err != nil {
		return err
	}
	for name, p := range map[string]string{
		"store_path":    conf.StorePath,
		"anchor_path":   conf.AnchorPath,
		"snapshot_path": conf.SnapshotPath,
		"pending_path":  conf.PendingPath,
		"signing_key":   conf.SigningKeyPath,
	} {
		if p == "" {
			return fmt.Errorf("config: %s is required", name)
		}
	}
	return nil
}

// ResolvePath returns p relative to the configuration file's directory,
// absolute paths are returned unchanged.
func (conf *Config) ResolvePath(p string) string {
	if filepath.IsAbs(p) || conf.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(conf.path), p)
}

// BuildOptions returns the merkle options the configuration selects.
func (conf *Config) BuildOptions() []merkle.Option {
	// Validate has already checked the name
	alg, _ := merkle.ParseAlgorithm(conf.Hash)
	opts := []merkle.Option{merkle.WithAlgorithm(alg)}
	if conf.Workers > 0 {
		opts = append(opts, merkle.WithWorkers(conf.Workers))
	}
	return opts
}
