package main

import (
	"flag"
	"github.com/fernandosanchezjr/gocpuminer/config"
	"github.com/fernandosanchezjr/gocpuminer/cpu"
	"github.com/fernandosanchezjr/gocpuminer/governor"
	"github.com/fernandosanchezjr/gocpuminer/logging"
	"github.com/fernandosanchezjr/gocpuminer/miner"
	"github.com/fernandosanchezjr/gocpuminer/status"
	"github.com/fernandosanchezjr/gocpuminer/storage"
	"github.com/fernandosanchezjr/gocpuminer/template"
	"github.com/fernandosanchezjr/gocpuminer/utils"
	log "github.com/sirupsen/logrus"
	"os"
	"runtime/pprof"
	"runtime/trace"
)

var cpuProfile bool
var tracing bool
var debug bool

func init() {
	flag.BoolVar(&cpuProfile, "cpu-profile", cpuProfile, "enable cpu profiling")
	flag.BoolVar(&tracing, "trace", tracing, "enable tracing")
	flag.BoolVar(&debug, "debug", debug, "enable debug logging")
}

func openJournal(cfg *config.Config) *storage.Journal {
	if cfg.NoJournal {
		return nil
	}
	db, err := storage.GetDB()
	if err != nil {
		log.WithError(err).Fatal("Failed to open journal DB")
	}
	journal, err := storage.NewJournal(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to open journal")
	}
	return journal
}

func main() {
	flag.Parse()
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	logging.SetupLogger(level)
	defer logging.Close()
	if cpuProfile {
		f, err := os.Create("gocpuminer.prof")
		if err != nil {
			panic(err)
		}
		if err = pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}
	if tracing {
		f, err := os.Create("gocpuminer.trace")
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	pool, err := miner.NewThreadPool(cpu.NewSystemTopology(), cfg.Miner.Threads, cfg.Miner.BatchSize,
		cfg.Miner.CpuAffinity)
	if err != nil {
		log.WithError(err).Fatal("Failed to create thread pool")
	}
	journal := openJournal(cfg)
	if journal != nil {
		defer func() {
			if err := journal.Close(); err != nil {
				log.WithError(err).Warn("Error closing journal")
			}
		}()
	}
	gov := governor.NewGovernor(&cfg.Miner, pool, template.NewSource(cfg.Template, template.DefaultDebounce), journal)
	if err := gov.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start governor")
	}
	if cfg.StatusAddress != "" {
		svc := status.NewService(gov, journal)
		if err := svc.Start(cfg.StatusAddress); err != nil {
			log.WithError(err).Fatal("Failed to start status server")
		}
		defer svc.Stop()
	}
	utils.Wait()
	gov.Stop()
}
