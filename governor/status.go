package governor

import (
	"github.com/fernandosanchezjr/gocpuminer/cpu"
	"github.com/fernandosanchezjr/gocpuminer/utils"
	"time"
)

type Status struct {
	Started     time.Time      `json:"started"`
	Threads     int            `json:"threads"`
	CoreIds     []cpu.CoreId   `json:"coreIds"`
	Round       uint32         `json:"round"`
	Paused      bool           `json:"paused"`
	HashRate    utils.HashRate `json:"hashRate"`
	TotalHashes uint64         `json:"totalHashes"`
	Found       int            `json:"found"`
	LastFound   *time.Time     `json:"lastFound,omitempty"`
}

func (s Status) Clone() Status {
	s.CoreIds = append([]cpu.CoreId{}, s.CoreIds...)
	if s.LastFound != nil {
		lastFound := *s.LastFound
		s.LastFound = &lastFound
	}
	return s
}
