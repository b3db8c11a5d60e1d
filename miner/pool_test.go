package miner

import (
	"errors"
	"github.com/fernandosanchezjr/gocpuminer/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type fakeThread struct {
	coreId      cpu.CoreId
	foundBlocks chan<- FoundBlock
	hashRates   chan<- HashRateSample
	threadCount int
	batchSize   uint32
	cpuAffinity bool
	commands    []command
	exited      bool
}

func (ft *fakeThread) CoreId() cpu.CoreId {
	return ft.coreId
}

func (ft *fakeThread) record(cmd command) error {
	if ft.exited {
		return ErrThreadExited
	}
	ft.commands = append(ft.commands, cmd)
	if cmd.kind == stopCommand {
		ft.exited = true
	}
	return nil
}

func (ft *fakeThread) NewWork(header, target []byte, miningRequestId uint32) error {
	return ft.record(command{kind: newWorkCommand, round: NewRound(header, target, miningRequestId)})
}

func (ft *fakeThread) Pause() error {
	return ft.record(command{kind: pauseCommand})
}

func (ft *fakeThread) Stop() error {
	return ft.record(command{kind: stopCommand})
}

type fakeFactory struct {
	threads []*fakeThread
}

func (ff *fakeFactory) new(
	coreId cpu.CoreId,
	foundBlocks chan<- FoundBlock,
	hashRates chan<- HashRateSample,
	threadCount int,
	batchSize uint32,
	cpuAffinity bool,
) IThread {
	ft := &fakeThread{
		coreId:      coreId,
		foundBlocks: foundBlocks,
		hashRates:   hashRates,
		threadCount: threadCount,
		batchSize:   batchSize,
		cpuAffinity: cpuAffinity,
	}
	ff.threads = append(ff.threads, ft)
	return ft
}

func newFakePool(t *testing.T, topology cpu.Topology, threadCount int) (*ThreadPool, *fakeFactory) {
	ff := &fakeFactory{}
	pool, err := NewThreadPoolWithFactory(topology, threadCount, 100, true, ff.new)
	require.NoError(t, err)
	return pool, ff
}

type brokenTopology struct{}

func (brokenTopology) CoreIds() ([]cpu.CoreId, error) {
	return nil, errors.New("no affinity support")
}

func TestNewThreadPool_FewerThreadsThanCores(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(8), 4)
	require.Equal(t, 4, pool.ThreadCount())
	assert.Equal(t, []cpu.CoreId{7, 6, 5, 4}, pool.CoreIds())
	for _, ft := range ff.threads {
		assert.Equal(t, 4, ft.threadCount)
		assert.Equal(t, uint32(100), ft.batchSize)
		assert.True(t, ft.cpuAffinity)
	}
	assert.Equal(t, uint32(0), pool.MiningRequestId())
}

func TestNewThreadPool_CappedByCores(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(4), 10)
	require.Equal(t, 4, pool.ThreadCount())
	assert.Equal(t, []cpu.CoreId{3, 2, 1, 0}, pool.CoreIds())
	assert.Equal(t, 10, ff.threads[0].threadCount)
}

func TestNewThreadPool_ReverseOfEnumeration(t *testing.T) {
	pool, _ := newFakePool(t, cpu.StaticTopology{2, 9, 4}, 2)
	assert.Equal(t, []cpu.CoreId{4, 9}, pool.CoreIds())
}

func TestNewThreadPool_TopologyError(t *testing.T) {
	ff := &fakeFactory{}
	pool, err := NewThreadPoolWithFactory(brokenTopology{}, 4, 100, false, ff.new)
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Empty(t, ff.threads)
}

func TestThreadPool_NewWorkBroadcast(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(3), 3)
	header := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	target := []byte{0x0f, 0xff}
	require.NoError(t, pool.NewWork(header, target, 5))
	assert.Equal(t, uint32(5), pool.MiningRequestId())
	header[0] = 0xaa
	var rounds []*Round
	for _, ft := range ff.threads {
		require.Len(t, ft.commands, 1)
		cmd := ft.commands[0]
		require.Equal(t, newWorkCommand, cmd.kind)
		assert.Equal(t, uint32(5), cmd.round.MiningRequestId)
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, cmd.round.Header)
		assert.Equal(t, target, cmd.round.Target)
		rounds = append(rounds, cmd.round)
	}
	rounds[0].Header[1] = 0xbb
	assert.Equal(t, byte(2), rounds[1].Header[1])
}

func TestThreadPool_NewWorkOverwritesRound(t *testing.T) {
	pool, _ := newFakePool(t, cpu.Sequential(1), 1)
	require.NoError(t, pool.NewWork(make([]byte, 8), nil, 9))
	require.NoError(t, pool.NewWork(make([]byte, 8), nil, 3))
	assert.Equal(t, uint32(3), pool.MiningRequestId())
}

func TestThreadPool_StaleFoundBlock(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(2), 2)
	require.NoError(t, pool.NewWork(make([]byte, 8), nil, 1))
	ff.threads[0].foundBlocks <- FoundBlock{Randomness: 11, MiningRequestId: 1}
	require.NoError(t, pool.NewWork(make([]byte, 8), nil, 2))
	ff.threads[1].foundBlocks <- FoundBlock{Randomness: 22, MiningRequestId: 2}

	_, found := pool.GetFoundBlock()
	assert.False(t, found, "stale block must be dropped")
	fb, found := pool.GetFoundBlock()
	require.True(t, found)
	assert.Equal(t, FoundBlock{Randomness: 22, MiningRequestId: 2}, fb)
	_, found = pool.GetFoundBlock()
	assert.False(t, found)
}

func TestThreadPool_GetFoundBlockEmpty(t *testing.T) {
	pool, _ := newFakePool(t, cpu.Sequential(2), 2)
	_, found := pool.GetFoundBlock()
	assert.False(t, found)
}

func TestThreadPool_FoundBlockBeforeAnyWork(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(1), 1)
	ff.threads[0].foundBlocks <- FoundBlock{Randomness: 1, MiningRequestId: 0}
	fb, found := pool.GetFoundBlock()
	require.True(t, found)
	assert.Equal(t, uint64(1), fb.Randomness)
}

func TestThreadPool_HashRateDrains(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(2), 2)
	require.NoError(t, pool.NewWork(make([]byte, 8), nil, 1))
	ff.threads[0].hashRates <- 100
	ff.threads[1].hashRates <- 250
	require.NoError(t, pool.NewWork(make([]byte, 8), nil, 2))
	ff.threads[0].hashRates <- 50
	assert.Equal(t, uint64(400), pool.GetHashRateSubmission())
	assert.Equal(t, uint64(0), pool.GetHashRateSubmission())
}

func TestThreadPool_HashRateDoesNotOverflow(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(1), 1)
	ff.threads[0].hashRates <- HashRateSample(^uint32(0))
	ff.threads[0].hashRates <- HashRateSample(^uint32(0))
	assert.Equal(t, 2*uint64(^uint32(0)), pool.GetHashRateSubmission())
}

func TestThreadPool_PauseThenNewWork(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(2), 2)
	require.NoError(t, pool.Pause())
	require.NoError(t, pool.NewWork(make([]byte, 8), nil, 7))
	for _, ft := range ff.threads {
		require.Len(t, ft.commands, 2)
		assert.Equal(t, pauseCommand, ft.commands[0].kind)
		assert.Equal(t, newWorkCommand, ft.commands[1].kind)
	}
	ff.threads[1].foundBlocks <- FoundBlock{Randomness: 70, MiningRequestId: 7}
	fb, found := pool.GetFoundBlock()
	require.True(t, found)
	assert.Equal(t, uint64(70), fb.Randomness)
}

func TestThreadPool_StopTwice(t *testing.T) {
	pool, ff := newFakePool(t, cpu.Sequential(2), 2)
	require.NoError(t, pool.Stop())
	err := pool.Stop()
	require.ErrorIs(t, err, ErrThreadExited)
	assert.Contains(t, err.Error(), "core 1")
	// the broadcast gives up at the first failed thread
	assert.Len(t, ff.threads[0].commands, 1)
	assert.Len(t, ff.threads[1].commands, 1)
}

func TestThreadPool_NewWorkAfterStop(t *testing.T) {
	pool, _ := newFakePool(t, cpu.Sequential(1), 1)
	require.NoError(t, pool.Stop())
	require.ErrorIs(t, pool.NewWork(make([]byte, 8), nil, 1), ErrThreadExited)
	require.ErrorIs(t, pool.Pause(), ErrThreadExited)
}

func TestThreadPool_RealThreads(t *testing.T) {
	pool, err := NewThreadPool(cpu.Sequential(2), 2, 64, false)
	require.NoError(t, err)
	defer func() {
		_ = pool.Stop()
	}()
	header := make([]byte, 32)
	target := []byte{0x1f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	require.NoError(t, pool.NewWork(header, target, 1))

	var fb FoundBlock
	var found bool
	deadline := time.Now().Add(5 * time.Second)
	for !found && time.Now().Before(deadline) {
		fb, found = pool.GetFoundBlock()
		time.Sleep(time.Millisecond)
	}
	require.True(t, found)
	assert.Equal(t, uint32(1), fb.MiningRequestId)

	checked := append([]byte{}, header...)
	PutRandomness(checked, fb.Randomness)
	hash := DefaultHasher(checked)
	assert.True(t, MeetsTarget(hash[:], target))
}
