// clearpasstest/server.go
/* Package clearpasstest provides an in-memory ClearPass API for tests. It serves the
OAuth token route, the filtered endpoint and certificate collections, and the
per-item delete, update and revoke routes, and records every request it sees. */
package clearpasstest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
)

const (
	DefaultClientID  = "QuickAccess"
	DefaultUsername  = "apiuser"
	DefaultPassword  = "apipass"
	DefaultToken     = "test-access-token"
	DefaultExpiresIn = 28800
)

// Endpoint is the server side endpoint record. Owner is the social_username attribute.
type Endpoint struct {
	ID         int64
	MACAddress string
	Owner      string
	Attributes map[string]any
}

// Certificate is the server side certificate record.
type Certificate struct {
	ID                int64
	CAID              int64
	SubjectCommonName string
	Revoked           bool
}

// RecordedRequest is a request as the server received it.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	ContentType   string
	Body          []byte
	Form          url.Values // populated for the token route only
}

// Server is a fake ClearPass API backed by httptest.Server.
type Server struct {
	*httptest.Server

	ClientID string
	Username string
	Password string
	Token    string

	mu           sync.Mutex
	endpoints    map[string]*Endpoint
	certificates map[int64]*Certificate
	failures     map[string]int
	authStatus   int
	requests     []RecordedRequest
	nextID       int64
}

// NewServer starts a fake ClearPass server accepting the Default* credentials.
// Callers must Close it.
func NewServer() *Server {
	s := &Server{
		ClientID:     DefaultClientID,
		Username:     DefaultUsername,
		Password:     DefaultPassword,
		Token:        DefaultToken,
		endpoints:    make(map[string]*Endpoint),
		certificates: make(map[int64]*Certificate),
		failures:     make(map[string]int),
		nextID:       3000,
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc("/api/oauth", s.handleToken).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireBearer, s.injectFailure)
	api.HandleFunc("/endpoint", s.handleListEndpoints).Methods(http.MethodGet)
	api.HandleFunc("/endpoint/mac-address/{mac}", s.handleDeleteEndpoint).Methods(http.MethodDelete)
	api.HandleFunc("/endpoint/mac-address/{mac}", s.handleUpdateEndpoint).Methods(http.MethodPatch)
	api.HandleFunc("/certificate", s.handleListCertificates).Methods(http.MethodGet)
	api.HandleFunc("/certificate/{id:[0-9]+}/revoke", s.handleRevokeCertificate).Methods(http.MethodPost)

	return r
}

// AddEndpoint stores an endpoint owned by owner.
func (s *Server) AddEndpoint(owner, mac string, attrs map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attrs == nil {
		attrs = map[string]any{}
	}
	s.nextID++
	s.endpoints[mac] = &Endpoint{ID: s.nextID, MACAddress: mac, Owner: owner, Attributes: attrs}
}

// AddCertificate stores a certificate issued by caID to subject.
func (s *Server) AddCertificate(id, caID int64, subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certificates[id] = &Certificate{ID: id, CAID: caID, SubjectCommonName: subject}
}

// Endpoint returns a copy of the stored endpoint for mac.
func (s *Server) Endpoint(mac string) (Endpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.endpoints[mac]
	if !ok {
		return Endpoint{}, false
	}
	out := *e
	out.Attributes = make(map[string]any, len(e.Attributes))
	for k, v := range e.Attributes {
		out.Attributes[k] = v
	}
	return out, true
}

// Certificate returns a copy of the stored certificate with id.
func (s *Server) Certificate(id int64) (Certificate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.certificates[id]
	if !ok {
		return Certificate{}, false
	}
	return *c, true
}

// FailAuth makes the token route answer status.
func (s *Server) FailAuth(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authStatus = status
}

// FailRequest makes every request for method and path answer status, e.g.
// FailRequest(http.MethodDelete, "/api/endpoint/mac-address/aa", 500).
func (s *Server) FailRequest(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// ClientEnv returns the CLEARPASS_* environment that points a client at this server
// with credentials it accepts. Logging is switched off.
func (s *Server) ClientEnv() map[string]string {
	return map[string]string{
		"CLEARPASS_HOST":      s.URL,
		"CLEARPASS_CLIENT_ID": s.ClientID,
		"CLEARPASS_USERNAME":  s.Username,
		"CLEARPASS_PASSWORD":  s.Password,
		"CLEARPASS_LOG_LEVEL": "none",
	}
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsFor returns the recorded requests with the given method.
func (s *Server) RequestsFor(method string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		}
		if r.URL.Path == "/api/oauth" {
			rec.Form, _ = url.ParseQuery(string(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		s.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "The bearer token is missing or invalid")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if ok {
			writeProblem(w, status, http.StatusText(status), "Injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	authStatus := s.authStatus
	s.mu.Unlock()

	if authStatus != 0 && authStatus != http.StatusOK {
		writeProblem(w, authStatus, http.StatusText(authStatus), "Authentication failed")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if r.PostForm.Get("grant_type") != "password" ||
		r.PostForm.Get("client_id") != s.ClientID ||
		r.PostForm.Get("username") != s.Username ||
		r.PostForm.Get("password") != s.Password {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "Invalid client or user credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.Token,
		"expires_in":   DefaultExpiresIn,
		"token_type":   "Bearer",
		"scope":        nil,
	})
}

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseFilter(w, r, "social_username")
	if !ok {
		return
	}

	s.mu.Lock()
	items := make([]map[string]any, 0)
	for _, e := range s.sortedEndpoints() {
		if e.Owner != owner {
			continue
		}
		attrs := map[string]any{"social_username": e.Owner}
		for k, v := range e.Attributes {
			attrs[k] = v
		}
		items = append(items, map[string]any{
			"id":          e.ID,
			"mac_address": e.MACAddress,
			"status":      "Known",
			"attributes":  attrs,
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, halCollection(r, items))
}

func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	mac := mux.Vars(r)["mac"]

	s.mu.Lock()
	_, ok := s.endpoints[mac]
	delete(s.endpoints, mac)
	s.mu.Unlock()

	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "Endpoint "+mac+" not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	mac := mux.Vars(r)["mac"]

	var payload struct {
		Attributes map[string]any `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	s.mu.Lock()
	e, ok := s.endpoints[mac]
	if ok {
		for k, v := range payload.Attributes {
			e.Attributes[k] = v
		}
	}
	s.mu.Unlock()

	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "Endpoint "+mac+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": e.ID, "mac_address": mac, "attributes": payload.Attributes})
}

func (s *Server) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	subject, ok := parseFilter(w, r, "subject_common_name")
	if !ok {
		return
	}

	s.mu.Lock()
	ids := make([]int64, 0, len(s.certificates))
	for id := range s.certificates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]map[string]any, 0)
	for _, id := range ids {
		c := s.certificates[id]
		if c.SubjectCommonName != subject {
			continue
		}
		items = append(items, map[string]any{
			"id":                  c.ID,
			"ca_id":               c.CAID,
			"subject_common_name": c.SubjectCommonName,
			"revoked":             c.Revoked,
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, halCollection(r, items))
}

func (s *Server) handleRevokeCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	var payload struct {
		CAID          int64 `json:"ca_id"`
		ConfirmRevoke bool  `json:"confirm_revoke"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	s.mu.Lock()
	c, ok := s.certificates[id]
	if !ok {
		s.mu.Unlock()
		writeProblem(w, http.StatusNotFound, "Not Found", "Certificate not found")
		return
	}
	if c.CAID != payload.CAID {
		s.mu.Unlock()
		writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "Certificate was not issued by this CA")
		return
	}
	if payload.ConfirmRevoke {
		c.Revoked = true
	}
	revoked := c.Revoked
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "ca_id": payload.CAID, "revoked": revoked})
}

// sortedEndpoints returns endpoints ordered by id. Callers hold s.mu.
func (s *Server) sortedEndpoints() []*Endpoint {
	out := make([]*Endpoint, 0, len(s.endpoints))
	for _, e := range s.endpoints {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// parseFilter extracts the single field value from the filter query parameter.
func parseFilter(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return "", true
	}

	var filter map[string]string
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "Invalid filter: "+err.Error())
		return "", false
	}
	return filter[field], true
}

func halCollection(r *http.Request, items []map[string]any) map[string]any {
	return map[string]any{
		"_links": map[string]any{
			"self": map[string]string{"href": r.URL.String()},
		},
		"_embedded": map[string]any{
			"items": items,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "http://www.w3.org/Protocols/rfc2616/rfc2616-sec10.html",
		"title":  title,
		"status": status,
		"detail": detail,
	})
}
