package status

import (
	"context"
	"encoding/json"
	"github.com/fernandosanchezjr/gocpuminer/governor"
	"github.com/fernandosanchezjr/gocpuminer/storage"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
	"net"
	"net/http"
	"strconv"
	"time"
)

const DefaultFoundLimit = 20

type Provider interface {
	Snapshot() governor.Status
}

type Service struct {
	provider Provider
	journal  *storage.Journal
	server   *http.Server
}

func NewService(provider Provider, journal *storage.Journal) *Service {
	return &Service{provider: provider, journal: journal}
}

func (s *Service) Router() *httprouter.Router {
	router := httprouter.New()
	router.GET("/status", s.GetStatus)
	router.GET("/found", s.GetFound)
	return router
}

func (s *Service) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: s.Router()}
	s.server = server
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Status server failed")
		}
	}()
	log.WithField("address", listener.Addr()).Info("Status server started")
	return nil
}

func (s *Service) Stop() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Error stopping status server")
	}
	s.server = nil
}

func (s *Service) GetStatus(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, s.provider.Snapshot())
}

func (s *Service) GetFound(w http.ResponseWriter, request *http.Request, _ httprouter.Params) {
	if s.journal == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	limit := DefaultFoundLimit
	if limitStr := request.URL.Query().Get("limit"); limitStr != "" {
		var err error
		if limit, err = strconv.Atoi(limitStr); err != nil || limit < 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}
	records, err := s.journal.List(limit)
	if err != nil {
		log.WithError(err).Error("Error listing found blocks")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*storage.FoundBlockRecord{}
	}
	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.WithError(err).Error("Error encoding response")
	}
}
