package config

import (
	"runtime"
	"time"
)

type Miner struct {
	Threads        int           `yaml:"threads,omitempty"`
	BatchSize      uint32        `yaml:"batchSize,omitempty"`
	CpuAffinity    bool          `yaml:"cpuAffinity,omitempty"`
	PollInterval   time.Duration `yaml:"pollInterval,omitempty"`
	ReportSchedule string        `yaml:"reportSchedule,omitempty"`
}

func (m *Miner) ApplyDefaults() {
	if m.Threads <= 0 {
		m.Threads = runtime.NumCPU()
	}
	if m.BatchSize == 0 {
		m.BatchSize = DefaultBatchSize
	}
	if m.PollInterval <= 0 {
		m.PollInterval = DefaultPollInterval
	}
	if m.ReportSchedule == "" {
		m.ReportSchedule = DefaultReportSchedule
	}
}
