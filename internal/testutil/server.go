package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Server is an in-memory distribution server: it publishes registry.txt
// and serves artifacts by name.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	registry       []string
	artifacts      map[string][]byte
	registryStatus int
	artifactStatus map[string]int
	requests       map[string]int
}

// NewServer starts an empty distribution server that is closed when the
// test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		artifacts:      make(map[string][]byte),
		artifactStatus: make(map[string]int),
		requests:       make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Publish lists name in the registry and serves data for it.
func (s *Server) Publish(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listed := false
	for _, n := range s.registry {
		if n == name {
			listed = true
			break
		}
	}
	if !listed {
		s.registry = append(s.registry, name)
	}
	s.artifacts[name] = data
}

// SetRegistry replaces the published names without touching artifacts.
func (s *Server) SetRegistry(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = append([]string(nil), names...)
}

// FailRegistry makes registry.txt answer with status. Zero restores it.
func (s *Server) FailRegistry(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registryStatus = status
}

// FailArtifact makes the named artifact answer with status. Zero restores it.
func (s *Server) FailArtifact(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.artifactStatus, name)
		return
	}
	s.artifactStatus[name] = status
}

// Requests returns how many times path (e.g. "/img") was requested.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[r.URL.Path]++
	name := strings.TrimPrefix(r.URL.Path, "/")

	if name == "registry.txt" {
		if s.registryStatus != 0 {
			w.WriteHeader(s.registryStatus)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, n := range s.registry {
			_, _ = w.Write([]byte(n + "\n"))
		}
		return
	}

	if status, ok := s.artifactStatus[name]; ok {
		w.WriteHeader(status)
		return
	}
	data, ok := s.artifacts[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}
