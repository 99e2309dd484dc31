// Package api exposes a tiny JSON-over-HTTP API for the hostd daemon.
// It listens on a Unix domain socket (path comes from config) and
// delegates all resolution work to internal/resolver. No third-party HTTP
// framework is used—just net/http + encoding/json—keeping the binary
// small and dependency-free.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lc/hostd/internal/buildinfo"
	"github.com/lc/hostd/internal/hostcache"
	"github.com/lc/hostd/internal/hostentry"
	"github.com/lc/hostd/internal/log"
	"github.com/lc/hostd/internal/resolver"
	"github.com/lc/hostd/internal/socket"
)

// ResolveRequest asks for resolution of one hostname or address literal.
type ResolveRequest struct {
	Host string `json:"host"`
}

// HostResponse is the JSON shape of a resolved host entry.
type HostResponse struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// AddressResponse carries the single address returned by resolve-one.
type AddressResponse struct {
	Address string `json:"address"`
}

// CacheEntry is one cached key with its entry content.
type CacheEntry struct {
	Key string `json:"key"`
	HostResponse
}

// StatusResponse represents the server status response.
type StatusResponse struct {
	Entries int           `json:"entries"`
	Hits    int64         `json:"hits"`
	Misses  int64         `json:"misses"`
	Uptime  time.Duration `json:"uptime"`
	Version string        `json:"version"`
	Commit  string        `json:"commit"`
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Code  int    `json:"code,omitempty"`
}

// -------- server -----------------------------------------------------

// Server handles HTTP API requests over a Unix domain socket.
type Server struct {
	res   *resolver.Resolver
	cache *hostcache.Cache
	start time.Time
	mux   *http.ServeMux
	srv   *http.Server
}

// New creates a new API server over the given resolver and its cache.
// It sets up the HTTP routes and returns a server ready to listen.
func New(res *resolver.Resolver, cache *hostcache.Cache) *Server {
	s := &Server{
		res:   res,
		cache: cache,
		start: time.Now(),
		mux:   http.NewServeMux(),
	}

	s.mux.HandleFunc("/v1/resolve", s.handleResolve)
	s.mux.HandleFunc("/v1/resolve/one", s.handleResolveOne)
	s.mux.HandleFunc("/v1/self", s.handleSelf)
	s.mux.HandleFunc("/v1/flush", s.handleFlush)
	s.mux.HandleFunc("/v1/cache", s.handleCache)
	s.mux.HandleFunc("/v1/status", s.handleStatus)

	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe starts the Unix-socket HTTP server.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.Listen(path)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// Handler returns the route handler, for serving over custom listeners
// and for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// handleResolve resolves a hostname or address literal to a full entry.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeResolveRequest(w, r)
	if !ok {
		return
	}

	reqID := uuid.NewString()
	entry, err := s.res.Resolve(r.Context(), req.Host)
	if err != nil {
		log.Warn("resolve failed", "req_id", reqID, "host", req.Host, "err", err)
		writeResolveError(w, err)
		return
	}

	log.Debug("resolved", "req_id", reqID, "host", req.Host, "name", entry.Name())
	writeJSON(w, http.StatusOK, hostResponse(entry))
}

// handleResolveOne resolves and returns just the first address.
func (s *Server) handleResolveOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, ok := decodeResolveRequest(w, r)
	if !ok {
		return
	}

	reqID := uuid.NewString()
	ip, err := s.res.ResolveOne(r.Context(), req.Host)
	if err != nil {
		log.Warn("resolve-one failed", "req_id", reqID, "host", req.Host, "err", err)
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AddressResponse{Address: ip.String()})
}

// handleSelf resolves the local machine's own host name.
func (s *Server) handleSelf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entry, err := s.res.ThisHost(r.Context())
	if err != nil {
		writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hostResponse(entry))
}

// handleFlush empties the resolution cache.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.res.FlushCache()
	log.Info("cache flushed")
	w.WriteHeader(http.StatusNoContent)
}

// handleCache lists the cached entries.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.cache.Snapshot()
	entries := make([]CacheEntry, 0, len(snap))
	for key, e := range snap {
		entries = append(entries, CacheEntry{Key: key, HostResponse: hostResponse(e)})
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleStatus reports cache statistics and build information.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hits, misses := s.cache.Stats()
	writeJSON(w, http.StatusOK, StatusResponse{
		Entries: s.cache.Len(),
		Hits:    hits,
		Misses:  misses,
		Uptime:  time.Since(s.start),
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
	})
}

// -------- helpers ----------------------------------------------------

func decodeResolveRequest(w http.ResponseWriter, r *http.Request) (ResolveRequest, bool) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	if req.Host == "" {
		http.Error(w, "host required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func hostResponse(e *hostentry.Entry) HostResponse {
	resp := HostResponse{
		Name:    e.Name(),
		Aliases: e.Aliases(),
	}
	for _, ip := range e.Addresses() {
		resp.Addresses = append(resp.Addresses, ip.String())
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeResolveError maps a resolution failure onto an HTTP status so
// clients can distinguish negative answers from transient trouble.
func writeResolveError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: err.Error()}

	var rerr *resolver.Error
	if errors.As(err, &rerr) {
		body.Code = rerr.Code()
		switch rerr.Kind() {
		case resolver.KindHostNotFound, resolver.KindNoAddressFound:
			status = http.StatusNotFound
			body.Kind = kindString(rerr.Kind())
		case resolver.KindTemporaryFailure, resolver.KindSubsystemNotReady, resolver.KindSubsystemNotInitialized:
			status = http.StatusServiceUnavailable
			body.Kind = kindString(rerr.Kind())
		case resolver.KindNonRecoverableFailure, resolver.KindIOFailure:
			status = http.StatusBadGateway
			body.Kind = kindString(rerr.Kind())
		case resolver.KindLocalHostUnavailable:
			status = http.StatusInternalServerError
			body.Kind = kindString(rerr.Kind())
		}
	}

	writeJSON(w, status, body)
}

func kindString(k resolver.Kind) string {
	switch k {
	case resolver.KindSubsystemNotReady:
		return "subsystem_not_ready"
	case resolver.KindSubsystemNotInitialized:
		return "subsystem_not_initialized"
	case resolver.KindHostNotFound:
		return "host_not_found"
	case resolver.KindTemporaryFailure:
		return "temporary_failure"
	case resolver.KindNonRecoverableFailure:
		return "non_recoverable_failure"
	case resolver.KindNoAddressFound:
		return "no_address_found"
	case resolver.KindIOFailure:
		return "io_failure"
	case resolver.KindLocalHostUnavailable:
		return "local_host_unavailable"
	default:
		return "unknown"
	}
}
