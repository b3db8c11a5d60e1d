package governor

import (
	"fmt"
	"github.com/ReneKroon/ttlcache"
	"github.com/fernandosanchezjr/gocpuminer/config"
	"github.com/fernandosanchezjr/gocpuminer/miner"
	"github.com/fernandosanchezjr/gocpuminer/storage"
	"github.com/fernandosanchezjr/gocpuminer/template"
	"github.com/fernandosanchezjr/gocpuminer/utils"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

const DuplicateTTL = 10 * time.Minute

type TemplateSource interface {
	Start() error
	Stop()
	Templates() <-chan *template.Template
}

// Governor is the pool's only caller: it turns templates into rounds, polls
// for results and reports hash rate.
type Governor struct {
	Config     *config.Miner
	Pool       *miner.ThreadPool
	Source     TemplateSource
	Journal    *storage.Journal
	cron       *cron.Cron
	seen       *ttlcache.Cache
	quit       chan struct{}
	wg         sync.WaitGroup
	mtx        sync.Mutex
	status     Status
	current    *template.Template
	hashes     uint64
	lastReport time.Time
	fatal      func(err error)
}

func NewGovernor(cfg *config.Miner, pool *miner.ThreadPool, source TemplateSource, journal *storage.Journal) *Governor {
	return &Governor{
		Config:  cfg,
		Pool:    pool,
		Source:  source,
		Journal: journal,
		cron:    cron.New(),
		seen:    ttlcache.NewCache(),
		status: Status{
			Threads: pool.ThreadCount(),
			CoreIds: pool.CoreIds(),
			Paused:  true,
		},
		fatal: func(err error) {
			log.WithError(err).Fatal("Mining thread failure")
		},
	}
}

func (g *Governor) Start() error {
	if g.quit != nil {
		return nil
	}
	if _, err := g.cron.AddFunc(g.Config.ReportSchedule, g.report); err != nil {
		return fmt.Errorf("report schedule %q: %w", g.Config.ReportSchedule, err)
	}
	if err := g.Source.Start(); err != nil {
		return err
	}
	now := time.Now()
	g.mtx.Lock()
	g.status.Started = now
	g.lastReport = now
	g.mtx.Unlock()
	g.quit = make(chan struct{})
	g.wg.Add(1)
	go g.loop()
	g.cron.Start()
	log.WithFields(log.Fields{
		"threads": g.Pool.ThreadCount(),
		"cores":   g.Pool.CoreIds(),
	}).Info("Governor started")
	return nil
}

func (g *Governor) Stop() {
	if g.quit == nil {
		return
	}
	<-g.cron.Stop().Done()
	close(g.quit)
	g.wg.Wait()
	g.quit = nil
	g.Source.Stop()
	g.seen.Close()
	if err := g.Pool.Stop(); err != nil {
		g.fatal(err)
	}
	log.Println("Governor stopped")
}

func (g *Governor) Snapshot() Status {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.status.Clone()
}

func (g *Governor) loop() {
	defer g.wg.Done()
	pollTicker := time.NewTicker(g.Config.PollInterval)
	defer pollTicker.Stop()
	for {
		select {
		case <-g.quit:
			return
		case t := <-g.Source.Templates():
			g.newWork(t)
		case <-pollTicker.C:
			g.poll()
		}
	}
}

func (g *Governor) newWork(t *template.Template) {
	g.mtx.Lock()
	round := g.status.Round + 1
	g.status.Round = round
	g.status.Paused = false
	g.mtx.Unlock()
	g.current = t
	if err := g.Pool.NewWork(t.Header, t.Target, round); err != nil {
		g.fatal(err)
		return
	}
	log.WithFields(log.Fields{
		"round":      round,
		"target":     fmt.Sprintf("%x", t.Target),
		"difficulty": utils.TargetDifficulty(t.Target),
	}).Info("New work")
}

// poll drains found blocks until the pool reports none. A stale block also
// reads as none, so blocks queued behind it wait for the next tick.
func (g *Governor) poll() {
	for {
		fb, found := g.Pool.GetFoundBlock()
		if !found {
			break
		}
		g.foundBlock(fb)
	}
	hashes := g.Pool.GetHashRateSubmission()
	g.mtx.Lock()
	g.hashes += hashes
	g.status.TotalHashes += hashes
	g.mtx.Unlock()
}

func (g *Governor) foundBlock(fb miner.FoundBlock) {
	key := fb.String()
	if _, seen := g.seen.Get(key); seen {
		return
	}
	g.seen.SetWithTTL(key, true, DuplicateTTL)
	now := time.Now()
	log.WithFields(log.Fields{
		"round":      fb.MiningRequestId,
		"randomness": fmt.Sprintf("%016x", fb.Randomness),
	}).Info("Found block")
	if g.Journal != nil {
		record := &storage.FoundBlockRecord{
			Time:            now,
			MiningRequestId: fb.MiningRequestId,
			Randomness:      fb.Randomness,
		}
		if g.current != nil {
			record.Header = append([]byte{}, g.current.Header...)
			if len(record.Header) >= miner.RandomnessSize {
				miner.PutRandomness(record.Header, fb.Randomness)
			}
		}
		if err := g.Journal.Append(record); err != nil {
			log.WithError(err).Error("Error journaling found block")
		}
	}
	g.mtx.Lock()
	g.status.Found++
	g.status.LastFound = &now
	g.status.Paused = true
	g.mtx.Unlock()
	if err := g.Pool.Pause(); err != nil {
		g.fatal(err)
	}
}

func (g *Governor) report() {
	now := time.Now()
	g.mtx.Lock()
	rate := utils.NewHashRate(g.hashes, now.Sub(g.lastReport))
	g.hashes = 0
	g.lastReport = now
	g.status.HashRate = rate
	round := g.status.Round
	paused := g.status.Paused
	g.mtx.Unlock()
	log.WithFields(log.Fields{
		"hashRate": rate,
		"round":    round,
		"paused":   paused,
	}).Info("Hash rate")
}
