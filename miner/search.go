package miner

import (
	"bytes"
	"encoding/binary"
	"errors"
	"github.com/fernandosanchezjr/gocpuminer/utils"
)

const RandomnessSize = 8

var ErrShortHeader = errors.New("header too short to carry randomness")

type Hasher func(header []byte) [32]byte

var DefaultHasher Hasher = utils.DoubleHash

// searcher walks one thread's slice of the randomness space for one round:
// start, start+step, start+2*step and so on.
type searcher struct {
	miningRequestId uint32
	header          []byte
	target          []byte
	randomness      uint64
	step            uint64
	hasher          Hasher
}

func newSearcher(round *Round, start, step uint64, hasher Hasher) (*searcher, error) {
	if len(round.Header) < RandomnessSize {
		return nil, ErrShortHeader
	}
	if step == 0 {
		step = 1
	}
	return &searcher{
		miningRequestId: round.MiningRequestId,
		header:          append([]byte{}, round.Header...),
		target:          round.Target,
		randomness:      start,
		step:            step,
		hasher:          hasher,
	}, nil
}

// batch tries up to size randomness values and stops at the first hit.
func (s *searcher) batch(size uint32) (attempts uint32, randomness uint64, found bool) {
	for attempts < size {
		candidate := s.randomness
		s.randomness += s.step
		attempts++
		PutRandomness(s.header, candidate)
		hash := s.hasher(s.header)
		if MeetsTarget(hash[:], s.target) {
			return attempts, candidate, true
		}
	}
	return attempts, 0, false
}

// PutRandomness writes randomness big-endian into the first eight header bytes.
func PutRandomness(header []byte, randomness uint64) {
	binary.BigEndian.PutUint64(header[:RandomnessSize], randomness)
}

// MeetsTarget compares hash and target as big-endian byte strings.
func MeetsTarget(hash, target []byte) bool {
	return bytes.Compare(hash, target) <= 0
}
