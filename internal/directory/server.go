package directory

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"msgcore/internal/domain"
	"msgcore/internal/jid"
)

// Server is an in-memory directory. All state is lost on exit.
type Server struct {
	mu    sync.RWMutex
	byLID map[string]string
	log   logrus.FieldLogger
	mux   *http.ServeMux
}

// NewServer returns a Server with an empty table.
func NewServer(log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{byLID: make(map[string]string), log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST "+pathStore, s.handleStore)
	s.mux.HandleFunc("POST "+pathResolve, s.handleResolve)
	return s
}

// ServeHTTP serves the directory API with a one-line access log per request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote":     r.RemoteAddr,
		"status":     rec.status,
		"bytes":      rec.bytes,
		"duration":   time.Since(start),
		"request_id": r.Header.Get(headerRequestID),
	}).Info("directory: request")
}

// Len returns the number of LIDs known.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byLID)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var in mappingsBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	for _, m := range in.Mappings {
		lid, pn := jid.Normalize(m.LID), jid.Normalize(m.PN)
		if !jid.IsAnyLID(lid) || !jid.IsAnyPN(pn) {
			continue
		}
		s.byLID[lid] = pn
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var in resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out := mappingsBody{Mappings: make([]domain.LIDMapping, 0, len(in.LIDs))}
	s.mu.RLock()
	for _, lid := range in.LIDs {
		if pn, ok := s.byLID[jid.Normalize(lid)]; ok {
			out.Mappings = append(out.Mappings, domain.LIDMapping{LID: lid, PN: pn})
		}
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
