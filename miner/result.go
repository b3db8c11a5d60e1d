package miner

import "fmt"

// MaxPendingResults bounds each result channel. Threads block on send once
// the pool falls this far behind.
const MaxPendingResults = 0xffff

type FoundBlock struct {
	Randomness      uint64
	MiningRequestId uint32
}

func (fb FoundBlock) String() string {
	return fmt.Sprintf("randomness %016x round %d", fb.Randomness, fb.MiningRequestId)
}

type HashRateSample uint32

type FoundBlockChan chan FoundBlock
type HashRateChan chan HashRateSample
