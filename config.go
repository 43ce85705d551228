package pyentropy

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

type NSBConfig struct {
	Precision     float64 `hcl:"precision,optional"`
	PossibleWords int     `hcl:"possible_words,optional"`
}

type Config struct {
	CacheSize   int    `hcl:"cache_size,optional"`
	HistoryPath string `hcl:"history_path,optional"`
	Verbose     bool   `hcl:"verbose,optional"`

	NSB *NSBConfig `hcl:"nsb,block"`
}

func LoadConfig(path string) (*Config, error) {
	var (
		ctx hcl.EvalContext
		cfg Config
	)

	err := hclsimple.DecodeFile(path, &ctx, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Options translates the file configuration into calculator options.
func (c *Config) Options() []Option {
	var out []Option

	if c.CacheSize != 0 {
		out = append(out, WithCacheSize(c.CacheSize))
	}

	if c.HistoryPath != "" {
		out = append(out, WithHistory(c.HistoryPath))
	}

	if c.Verbose {
		out = append(out, Verbose(true))
	}

	if c.NSB != nil {
		if c.NSB.Precision != 0 {
			out = append(out, WithPrecision(c.NSB.Precision))
		}

		if c.NSB.PossibleWords != 0 {
			out = append(out, WithPossibleWords(c.NSB.PossibleWords))
		}
	}

	return out
}
