package cpu

import (
	"errors"
	"strconv"
)

var ErrNoCores = errors.New("no cpu cores available")

type CoreId int

func (id CoreId) String() string {
	return strconv.Itoa(int(id))
}

// Topology enumerates the core ids a pool may spread its threads over. It is
// read once, at pool construction.
type Topology interface {
	CoreIds() ([]CoreId, error)
}

type StaticTopology []CoreId

func (st StaticTopology) CoreIds() ([]CoreId, error) {
	if len(st) == 0 {
		return nil, ErrNoCores
	}
	return append([]CoreId{}, st...), nil
}

// Sequential returns a topology with ids 0 through count-1.
func Sequential(count int) StaticTopology {
	st := make(StaticTopology, count)
	for i := range st {
		st[i] = CoreId(i)
	}
	return st
}

type SystemTopology struct{}

func NewSystemTopology() *SystemTopology {
	return &SystemTopology{}
}

func (*SystemTopology) CoreIds() ([]CoreId, error) {
	ids, err := systemCoreIds()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoCores
	}
	return ids, nil
}
