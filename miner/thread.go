package miner

import (
	"errors"
	"github.com/fernandosanchezjr/gocpuminer/cpu"
	log "github.com/sirupsen/logrus"
	"runtime"
	"sync/atomic"
)

const CommandBuffer = 16
const DefaultBatchSize = 10000

var ErrThreadExited = errors.New("mining thread exited")

type IThread interface {
	CoreId() cpu.CoreId
	NewWork(header, target []byte, miningRequestId uint32) error
	Pause() error
	Stop() error
}

type ThreadFactory func(
	coreId cpu.CoreId,
	foundBlocks chan<- FoundBlock,
	hashRates chan<- HashRateSample,
	threadCount int,
	batchSize uint32,
	cpuAffinity bool,
) IThread

func DefaultThreadFactory(
	coreId cpu.CoreId,
	foundBlocks chan<- FoundBlock,
	hashRates chan<- HashRateSample,
	threadCount int,
	batchSize uint32,
	cpuAffinity bool,
) IThread {
	return NewThread(coreId, foundBlocks, hashRates, threadCount, batchSize, cpuAffinity)
}

func NewHasherThreadFactory(hasher Hasher) ThreadFactory {
	return func(
		coreId cpu.CoreId,
		foundBlocks chan<- FoundBlock,
		hashRates chan<- HashRateSample,
		threadCount int,
		batchSize uint32,
		cpuAffinity bool,
	) IThread {
		return newThread(hasher, coreId, foundBlocks, hashRates, threadCount, batchSize, cpuAffinity)
	}
}

// Thread is a mining goroutine locked to its own OS thread. Commands reach it
// through a private channel and results leave through the shared senders.
type Thread struct {
	coreId      cpu.CoreId
	foundBlocks chan<- FoundBlock
	hashRates   chan<- HashRateSample
	threadCount int
	batchSize   uint32
	cpuAffinity bool
	hasher      Hasher
	commands    chan command
	done        chan struct{}
	stopped     atomic.Bool
	search      *searcher
	log         *log.Entry
}

func NewThread(
	coreId cpu.CoreId,
	foundBlocks chan<- FoundBlock,
	hashRates chan<- HashRateSample,
	threadCount int,
	batchSize uint32,
	cpuAffinity bool,
) *Thread {
	return newThread(DefaultHasher, coreId, foundBlocks, hashRates, threadCount, batchSize, cpuAffinity)
}

func newThread(
	hasher Hasher,
	coreId cpu.CoreId,
	foundBlocks chan<- FoundBlock,
	hashRates chan<- HashRateSample,
	threadCount int,
	batchSize uint32,
	cpuAffinity bool,
) *Thread {
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	if hasher == nil {
		hasher = DefaultHasher
	}
	t := &Thread{
		coreId:      coreId,
		foundBlocks: foundBlocks,
		hashRates:   hashRates,
		threadCount: threadCount,
		batchSize:   batchSize,
		cpuAffinity: cpuAffinity,
		hasher:      hasher,
		commands:    make(chan command, CommandBuffer),
		done:        make(chan struct{}),
		log:         log.WithField("core", coreId),
	}
	go t.loop()
	return t
}

func (t *Thread) CoreId() cpu.CoreId {
	return t.coreId
}

// Done is closed once the thread goroutine has returned.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

func (t *Thread) NewWork(header, target []byte, miningRequestId uint32) error {
	return t.send(command{kind: newWorkCommand, round: NewRound(header, target, miningRequestId)})
}

func (t *Thread) Pause() error {
	return t.send(command{kind: pauseCommand})
}

func (t *Thread) Stop() error {
	return t.send(command{kind: stopCommand})
}

// send queues cmd for the thread. Once a stop is queued no later command can
// be handled, so every following send waits for the exit and fails.
func (t *Thread) send(cmd command) error {
	if t.stopped.Load() {
		<-t.done
		return ErrThreadExited
	}
	select {
	case <-t.done:
		return ErrThreadExited
	case t.commands <- cmd:
	}
	if cmd.kind == stopCommand {
		t.stopped.Store(true)
	}
	return nil
}

func (t *Thread) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.done)
	if t.cpuAffinity {
		if err := cpu.Pin(t.coreId); err != nil {
			t.log.WithError(err).Warn("Could not pin thread")
		}
	}
	var cmd command
	var interrupted bool
	for {
		if t.search == nil {
			cmd = <-t.commands
		} else {
			select {
			case cmd = <-t.commands:
			default:
				if cmd, interrupted = t.mine(); !interrupted {
					continue
				}
			}
		}
		if !t.handle(cmd) {
			t.log.Debug("Thread stopped")
			return
		}
	}
}

func (t *Thread) handle(cmd command) bool {
	switch cmd.kind {
	case newWorkCommand:
		search, err := newSearcher(cmd.round, uint64(t.coreId), uint64(t.threadCount), t.hasher)
		if err != nil {
			t.log.WithFields(log.Fields{
				"round": cmd.round.MiningRequestId,
				"error": err,
			}).Error("Rejected work")
		}
		t.search = search
	case pauseCommand:
		t.search = nil
	case stopCommand:
		t.search = nil
		return false
	}
	return true
}

// mine runs one batch and delivers its results. A command arriving while a
// result is blocked on a full channel wins over the result.
func (t *Thread) mine() (command, bool) {
	search := t.search
	attempts, randomness, found := search.batch(t.batchSize)
	if found {
		select {
		case t.foundBlocks <- FoundBlock{Randomness: randomness, MiningRequestId: search.miningRequestId}:
		case cmd := <-t.commands:
			return cmd, true
		}
	}
	select {
	case t.hashRates <- HashRateSample(attempts):
	case cmd := <-t.commands:
		return cmd, true
	}
	return command{}, false
}
