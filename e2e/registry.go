//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Registry stands in for the members registry and the upload service. It
// answers the same routes the collaborator clients call.
type Registry struct {
	server *httptest.Server

	mu         sync.Mutex
	members    map[string]string
	referrals  map[string]bool
	uploads    []string
	registered []map[string]any
	down       bool
}

func NewRegistry() *Registry {
	reg := &Registry{
		members:   make(map[string]string),
		referrals: make(map[string]bool),
	}
	r := chi.NewRouter()
	r.Use(reg.availability)
	r.Get("/members/lookup", reg.lookup)
	r.Get("/referrals/{code}", reg.referral)
	r.Post("/members", reg.register)
	r.Post("/uploads", reg.upload)
	reg.server = httptest.NewServer(r)
	return reg
}

func (r *Registry) URL() string { return r.server.URL }

func (r *Registry) Close() { r.server.Close() }

func (r *Registry) AddMember(phone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[phone] = fmt.Sprintf("M-%04d", len(r.members)+1)
}

func (r *Registry) AddReferral(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.referrals[strings.ToUpper(code)] = true
}

// SetDown makes every route answer 503 until called again with false.
func (r *Registry) SetDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

// Registered returns the payloads received by POST /members.
func (r *Registry) Registered() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.registered...)
}

func (r *Registry) Uploads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uploads)
}

func (r *Registry) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		down := r.down
		r.mu.Unlock()
		if down {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Registry) lookup(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	_, exists := r.members[req.URL.Query().Get("phone")]
	r.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (r *Registry) referral(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	ok := r.referrals[chi.URLParam(req, "code")]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": chi.URLParam(req, "code")})
}

func (r *Registry) register(w http.ResponseWriter, req *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	phone, _ := payload["phone"].(string)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.members[phone]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "phone already registered"})
		return
	}
	id := fmt.Sprintf("M-%04d", len(r.members)+1)
	r.members[phone] = id
	r.registered = append(r.registered, payload)
	writeJSON(w, http.StatusCreated, map[string]string{"memberId": id})
}

func (r *Registry) upload(w http.ResponseWriter, req *http.Request) {
	file, header, err := req.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, header.Filename)
	writeJSON(w, http.StatusCreated, map[string]string{
		"url": fmt.Sprintf("%s/files/%d/%s", r.server.URL, len(r.uploads), header.Filename),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
