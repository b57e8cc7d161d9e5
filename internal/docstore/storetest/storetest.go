// Package storetest provides an in-memory stand-in for the remote document
// database, backed by httptest. It mimics the store's observable behavior:
// whole-document get/put, child-merging patch (keys may contain slashes),
// null bodies for missing paths, and no multi-path atomicity.
package storetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

type Server struct {
	mu   sync.Mutex
	root map[string]interface{}
	srv  *httptest.Server

	// WriteCount tallies mutating calls per top-level path, so tests can
	// assert "exactly one stock write".
	WriteCount map[string]int

	// FailNext makes the next mutating request answer 500, simulating a
	// store outage.
	FailNext bool
}

func New() *Server {
	s := &Server{
		root:       map[string]interface{}{},
		WriteCount: map[string]int{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) URL() string { return s.srv.URL }
func (s *Server) Close()      { s.srv.Close() }

// Seed stores a value at path, replacing whatever was there.
func (s *Server) Seed(path string, val interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(splitPath(path), normalize(val))
}

// Value returns a deep copy of the document at path, or nil.
func (s *Server) Value(path string) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(splitPath(path))
}

// ValueJSON unmarshals the document at path into out and reports whether
// the document existed.
func (s *Server) ValueJSON(path string, out interface{}) bool {
	v := s.Value(path)
	if v == nil {
		return false
	}
	raw, _ := json.Marshal(v)
	_ = json.Unmarshal(raw, out)
	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func normalize(val interface{}) interface{} {
	raw, _ := json.Marshal(val)
	var out interface{}
	_ = json.Unmarshal(raw, &out)
	return out
}

func (s *Server) get(path []string) interface{} {
	var cur interface{} = s.root
	for _, seg := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[seg]
		if cur == nil {
			return nil
		}
	}
	return normalize(cur)
}

func (s *Server) set(path []string, val interface{}) {
	if len(path) == 0 {
		if m, ok := val.(map[string]interface{}); ok {
			s.root = m
		}
		return
	}
	cur := s.root
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[seg] = next
		}
		cur = next
	}
	if val == nil {
		delete(cur, path[len(path)-1])
	} else {
		cur[path[len(path)-1]] = val
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, ".json") {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	path := splitPath(strings.TrimSuffix(r.URL.Path, ".json"))
	top := ""
	if len(path) > 0 {
		top = path[0]
	}

	if r.Method != http.MethodGet {
		if s.FailNext {
			s.FailNext = false
			http.Error(w, "store unavailable", http.StatusInternalServerError)
			return
		}
		s.WriteCount[top]++
	}

	switch r.Method {
	case http.MethodGet:
		v := s.get(path)
		if v == nil {
			fmt.Fprint(w, "null")
			return
		}
		_ = json.NewEncoder(w).Encode(v)

	case http.MethodPut:
		val, ok := readBody(w, r)
		if !ok {
			return
		}
		s.set(path, val)
		_ = json.NewEncoder(w).Encode(val)

	case http.MethodPatch:
		val, ok := readBody(w, r)
		if !ok {
			return
		}
		fields, ok := val.(map[string]interface{})
		if !ok {
			http.Error(w, "patch body must be an object", http.StatusBadRequest)
			return
		}
		for k, v := range fields {
			s.set(append(append([]string{}, path...), splitPath(k)...), v)
		}
		_ = json.NewEncoder(w).Encode(fields)

	case http.MethodPost:
		val, ok := readBody(w, r)
		if !ok {
			return
		}
		key := fmt.Sprintf("k%d", s.WriteCount[top])
		s.set(append(append([]string{}, path...), key), val)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": key})

	case http.MethodDelete:
		s.set(path, nil)
		fmt.Fprint(w, "null")

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) (interface{}, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return nil, false
	}
	var val interface{}
	if err := json.Unmarshal(raw, &val); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return nil, false
	}
	return val, true
}
