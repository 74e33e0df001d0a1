// Package server exposes the analysis over HTTP. A client posts one complete
// recording and gets back the labelled transitions for it; the reference
// data is available read-only.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jsphweid/midistates/file"
	"github.com/jsphweid/midistates/midi"
	"github.com/jsphweid/midistates/model"
	"github.com/jsphweid/midistates/pipeline"
	"github.com/jsphweid/midistates/reference"
	"github.com/pkg/errors"
	"github.com/rs/cors"
)

const RequestIDHeader = "X-Request-Id"

type Server struct {
	ref       *reference.Reference
	analyzer  *pipeline.Analyzer
	logger    *log.Logger
	maxUpload int64
}

func New(ref *reference.Reference, logger *log.Logger, maxUpload int64) *Server {
	return &Server{
		ref:       ref,
		analyzer:  pipeline.New(ref, pipeline.WithLogger(logger)),
		logger:    logger,
		maxUpload: maxUpload,
	}
}

type AnalyzeResponse struct {
	Subject string      `json:"subject"`
	Block   string      `json:"block"`
	Rows    []model.Row `json:"rows"`
}

type ReferenceResponse struct {
	States      []reference.State                        `json:"states"`
	Sequences   map[model.BlockType][]model.TransitionID `json:"sequences"`
	Frequencies map[model.TransitionID]string            `json:"frequencies"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.requestID)
	router.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/reference", s.handleReference).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return router
}

func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(s.Router())
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		s.logger.Debug("request", "id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "recording too large")
			return
		}
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}

	rec, err := decodeUpload(body)
	if err != nil {
		s.logger.Warn("rejected upload", "id", w.Header().Get(RequestIDHeader), "err", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	subject := r.URL.Query().Get("subject")
	block := file.NormalizeBlockName(r.URL.Query().Get("block"))
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Subject: subject,
		Block:   block,
		Rows:    s.analyzer.AnalyzeRecording(rec, subject, block),
	})
}

func decodeUpload(body []byte) (*midi.Recording, error) {
	parsed, err := midi.Read(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return midi.Prepare(parsed)
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	res := ReferenceResponse{
		States:      s.ref.States(),
		Sequences:   make(map[model.BlockType][]model.TransitionID),
		Frequencies: make(map[model.TransitionID]string),
	}
	for _, bt := range []model.BlockType{model.BlockTest, model.BlockTraining} {
		seq := s.ref.Sequence(bt)
		res.Sequences[bt] = seq
		for _, code := range seq {
			res.Frequencies[code] = s.ref.Frequency(code)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
