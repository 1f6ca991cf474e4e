package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML node configuration. Command line flags take precedence over it.
type File struct {
	DataDir   string `yaml:"data_dir"`
	DBBackend string `yaml:"db_backend"` // "bolt" or "lmdb"
	LogLevel  *uint8 `yaml:"log_level"`

	RPC     RPCFile     `yaml:"rpc"`
	Metrics MetricsFile `yaml:"metrics"`
	Genesis GenesisFile `yaml:"genesis"`
}

type RPCFile struct {
	Bind           string `yaml:"bind"`
	Public         bool   `yaml:"public"`
	Authentication string `yaml:"authentication"` // username:password
	RateLimit      int    `yaml:"rate_limit"`     // requests per minute per IP
}

type MetricsFile struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
}

// GenesisFile is only read when the ledger database is created.
type GenesisFile struct {
	Owner          string       `yaml:"owner"`
	Supply         string       `yaml:"supply"` // whole tokens, decimal
	RewardSchedule []RewardTier `yaml:"reward_schedule"`
}

type RewardTier struct {
	MinLockDuration uint64 `yaml:"min_lock_duration"` // seconds
	RateBps         uint64 `yaml:"rate_bps"`
}

func DefaultFile() *File {
	return &File{
		DBBackend: DEFAULT_DB_BACKEND,
		RPC: RPCFile{
			Bind: fmt.Sprintf("127.0.0.1:%d", RPC_BIND_PORT),
		},
		Metrics: MetricsFile{
			Bind: fmt.Sprintf("127.0.0.1:%d", METRICS_BIND_PORT),
		},
		Genesis: GenesisFile{
			Supply: fmt.Sprint(GENESIS_SUPPLY),
			RewardSchedule: []RewardTier{{
				MinLockDuration: 0,
				RateBps:         ANNUAL_RATE_BPS,
			}},
		},
	}
}

// LoadFile reads a YAML config on top of DefaultFile. Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(data)
}

func ParseFile(data []byte) (*File, error) {
	f := DefaultFile()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// an empty document (or one with only comments) keeps the defaults
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	switch f.DBBackend {
	case "bolt", "lmdb":
	default:
		return nil, fmt.Errorf("invalid db_backend %q", f.DBBackend)
	}
	return f, nil
}
