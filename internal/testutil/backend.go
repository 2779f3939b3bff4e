// Package testutil provides an in-memory stand-in for the sector selection
// backend, speaking the same JSON contract over httptest.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/sectors/internal/domain"
	"github.com/google/uuid"
)

// SessionCookie is the cookie name the fake backend keys selections on.
const SessionCookie = "JSESSIONID"

// Call is one request observed by the fake backend.
type Call struct {
	Method string
	Path   string
}

// Backend is a fake sector service. Selections are scoped to the session
// cookie, mirroring the real server.
type Backend struct {
	Server *httptest.Server

	mu         sync.Mutex
	sectors    []domain.SectorNode
	selections map[string]*domain.SavedSelection
	calls      []Call
	nextID     int64

	// SectorsStatus, when non-zero, makes GET /sectors fail with that status.
	SectorsStatus int
	// SelectionStatus, when non-zero, makes GET /user-selections/me fail.
	SelectionStatus int
	// SaveStatus, when non-zero, makes create and update fail with a plain
	// problem body carrying that status.
	SaveStatus int
}

// DefaultSectors returns a small tree with one branch.
func DefaultSectors() []domain.SectorNode {
	return []domain.SectorNode{
		{ID: 1, Name: "Manufacturing", Children: []domain.SectorNode{
			{ID: 19, Name: "Construction materials", Children: []domain.SectorNode{}},
			{ID: 6, Name: "Food and Beverage", Children: []domain.SectorNode{
				{ID: 342, Name: "Bakery & confectionery products", Children: []domain.SectorNode{}},
			}},
		}},
		{ID: 2, Name: "Service", Children: []domain.SectorNode{}},
	}
}

// NewBackend starts a fake backend serving sectors. It is closed when the
// test completes.
func NewBackend(t *testing.T, sectors []domain.SectorNode) *Backend {
	t.Helper()
	b := &Backend{
		sectors:    sectors,
		selections: make(map[string]*domain.SavedSelection),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sectors", b.handleSectors)
	mux.HandleFunc("GET /api/v1/user-selections/me", b.handleGetMine)
	mux.HandleFunc("POST /api/v1/user-selections", b.handleCreate)
	mux.HandleFunc("PUT /api/v1/user-selections/me", b.handleUpdate)
	b.Server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the server root, without the API prefix.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Calls returns a copy of the requests seen so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// SessionJar returns a cookie jar already carrying sessionID for this
// backend, so a client using it sees selections seeded for that session.
func (b *Backend) SessionJar(t *testing.T, sessionID string) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	u, err := url.Parse(b.Server.URL)
	if err != nil {
		t.Fatalf("parsing server url: %v", err)
	}
	jar.SetCookies(u, []*http.Cookie{{Name: SessionCookie, Value: sessionID, Path: "/"}})
	return jar
}

// Seed stores a selection for the given session ID.
func (b *Backend) Seed(sessionID string, sel domain.SavedSelection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if sel.ID == 0 {
		sel.ID = b.nextID
	}
	b.selections[sessionID] = &sel
}

// Selection returns the stored selection for a session, if any.
func (b *Backend) Selection(sessionID string) (*domain.SavedSelection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sel, ok := b.selections[sessionID]
	if !ok {
		return nil, false
	}
	cp := *sel
	return &cp, true
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, Call{Method: r.Method, Path: r.URL.Path})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
	return id
}

func (b *Backend) handleSectors(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status, sectors := b.SectorsStatus, b.sectors
	b.mu.Unlock()
	if status != 0 {
		writeProblem(w, r, status, http.StatusText(status), "Sector lookup failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, sectors)
}

func (b *Backend) handleGetMine(w http.ResponseWriter, r *http.Request) {
	sid := b.session(w, r)
	b.mu.Lock()
	status := b.SelectionStatus
	sel, ok := b.selections[sid]
	b.mu.Unlock()
	if status != 0 {
		writeProblem(w, r, status, http.StatusText(status), "Selection lookup failed", nil)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	b.save(w, r, true)
}

func (b *Backend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	b.save(w, r, false)
}

func (b *Backend) save(w http.ResponseWriter, r *http.Request, create bool) {
	sid := b.session(w, r)

	var req domain.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "Bad Request", "Malformed request body", nil)
		return
	}
	if errs := validate(req); len(errs) > 0 {
		writeProblem(w, r, http.StatusBadRequest, "Validation Error", "Validation failed", errs)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.SaveStatus != 0 {
		writeProblem(w, r, b.SaveStatus, http.StatusText(b.SaveStatus), "Save failed", nil)
		return
	}

	known := domain.SectorNames(b.sectors)
	for _, id := range req.SectorIDs {
		if _, ok := known[id]; !ok {
			writeProblem(w, r, http.StatusBadRequest, "Bad Request", "One or more sector IDs are invalid.", nil)
			return
		}
	}

	existing, ok := b.selections[sid]
	now := domain.Timestamp{Time: time.Now().UTC()}
	ids := domain.NewSelectionSet(req.SectorIDs...).IDs()

	if create {
		if ok {
			writeProblem(w, r, http.StatusConflict, "Conflict", "Selection already exists for this session. Use update instead.", nil)
			return
		}
		b.nextID++
		sel := &domain.SavedSelection{
			ID: b.nextID, Name: req.Name, SectorIDs: ids, AgreeToTerms: req.AgreeToTerms,
			CreatedAt: now, UpdatedAt: now,
		}
		b.selections[sid] = sel
		writeJSON(w, http.StatusCreated, sel)
		return
	}

	if !ok {
		writeProblem(w, r, http.StatusConflict, "Conflict", "No selection found for this session. Use create instead.", nil)
		return
	}
	existing.Name = req.Name
	existing.SectorIDs = ids
	existing.AgreeToTerms = req.AgreeToTerms
	existing.UpdatedAt = now
	writeJSON(w, http.StatusOK, existing)
}

func validate(req domain.SelectionRequest) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "Name is required"
	}
	if len(req.SectorIDs) == 0 {
		errs["sectorIds"] = "At least one sector must be selected"
	}
	if !req.AgreeToTerms {
		errs["agreeToTerms"] = "You must agree to the terms"
	}
	return errs
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, title, detail string, errs map[string]string) {
	body := map[string]any{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   detail,
		"instance": r.URL.Path,
	}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
