package miner

import (
	"fmt"
	"github.com/fernandosanchezjr/gocpuminer/cpu"
	log "github.com/sirupsen/logrus"
)

// ThreadPool fans rounds out to one thread per core and collects their
// results. It is not safe for concurrent use: a single caller issues work and
// polls.
type ThreadPool struct {
	threads         []IThread
	foundBlocks     <-chan FoundBlock
	hashRates       <-chan HashRateSample
	miningRequestId uint32
}

func NewThreadPool(topology cpu.Topology, threadCount int, batchSize uint32, cpuAffinity bool) (*ThreadPool, error) {
	return NewThreadPoolWithFactory(topology, threadCount, batchSize, cpuAffinity, DefaultThreadFactory)
}

func NewThreadPoolWithFactory(
	topology cpu.Topology,
	threadCount int,
	batchSize uint32,
	cpuAffinity bool,
	factory ThreadFactory,
) (*ThreadPool, error) {
	log.WithField("cpuAffinity", cpuAffinity).Info("Creating thread pool")
	coreIds, err := topology.CoreIds()
	if err != nil {
		return nil, fmt.Errorf("enumerating core ids: %w", err)
	}
	log.WithField("coreIds", len(coreIds)).Debug("Found core ids")
	foundBlocks := make(FoundBlockChan, MaxPendingResults)
	hashRates := make(HashRateChan, MaxPendingResults)
	threads := make([]IThread, 0, len(coreIds))
	for i := len(coreIds) - 1; i >= 0 && len(threads) < threadCount; i-- {
		log.WithField("core", coreIds[i]).Debug("Spawning thread")
		threads = append(threads, factory(coreIds[i], foundBlocks, hashRates, threadCount, batchSize, cpuAffinity))
	}
	log.WithField("threads", len(threads)).Info("Spawned threads")
	return &ThreadPool{
		threads:     threads,
		foundBlocks: foundBlocks,
		hashRates:   hashRates,
	}, nil
}

func (tp *ThreadPool) ThreadCount() int {
	return len(tp.threads)
}

func (tp *ThreadPool) MiningRequestId() uint32 {
	return tp.miningRequestId
}

// CoreIds lists the cores in thread order.
func (tp *ThreadPool) CoreIds() []cpu.CoreId {
	ids := make([]cpu.CoreId, len(tp.threads))
	for i, t := range tp.threads {
		ids[i] = t.CoreId()
	}
	return ids
}

// NewWork makes miningRequestId current and hands every thread its own copy
// of the round. It returns at the first thread that cannot take it.
func (tp *ThreadPool) NewWork(header, target []byte, miningRequestId uint32) error {
	tp.miningRequestId = miningRequestId
	for _, t := range tp.threads {
		if err := t.NewWork(header, target, miningRequestId); err != nil {
			return threadError(t, "new work", err)
		}
	}
	return nil
}

func (tp *ThreadPool) Stop() error {
	for _, t := range tp.threads {
		if err := t.Stop(); err != nil {
			return threadError(t, "stop", err)
		}
	}
	return nil
}

func (tp *ThreadPool) Pause() error {
	for _, t := range tp.threads {
		if err := t.Pause(); err != nil {
			return threadError(t, "pause", err)
		}
	}
	return nil
}

// GetFoundBlock takes at most one pending result. A result from an older
// round is dropped and reported as nothing found.
func (tp *ThreadPool) GetFoundBlock() (FoundBlock, bool) {
	select {
	case fb := <-tp.foundBlocks:
		if fb.MiningRequestId != tp.miningRequestId {
			log.WithFields(log.Fields{
				"round":   fb.MiningRequestId,
				"current": tp.miningRequestId,
			}).Debug("Dropped stale block")
			return FoundBlock{}, false
		}
		return fb, true
	default:
		return FoundBlock{}, false
	}
}

// GetHashRateSubmission drains every pending sample and returns their sum.
func (tp *ThreadPool) GetHashRateSubmission() uint64 {
	var total uint64
	for {
		select {
		case sample := <-tp.hashRates:
			total += uint64(sample)
		default:
			return total
		}
	}
}

func threadError(t IThread, operation string, err error) error {
	return fmt.Errorf("%s on core %s: %w", operation, t.CoreId(), err)
}
