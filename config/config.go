package config

import (
	"github.com/fernandosanchezjr/gocpuminer/miner"
	"path/filepath"
	"time"
)

const (
	DefaultBatchSize      = miner.DefaultBatchSize
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultReportSchedule = "@every 30s"
	DefaultTemplate       = "template.yaml"
)

type Config struct {
	Miner         Miner  `yaml:"miner"`
	Template      string `yaml:"template,omitempty"`
	StatusAddress string `yaml:"status,omitempty"`
	NoJournal     bool   `yaml:"noJournal,omitempty"`
}

func (c *Config) ApplyDefaults(baseFolder string) {
	c.Miner.ApplyDefaults()
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if !filepath.IsAbs(c.Template) && baseFolder != "" {
		c.Template = filepath.Join(baseFolder, c.Template)
	}
}
