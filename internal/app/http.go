package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Public share links resolve before anything else; a token is the
	// only credential they need.
	if strings.HasPrefix(r.URL.Path, "/share/") {
		token := strings.TrimPrefix(r.URL.Path, "/share/")
		if token != "" {
			s.handleSharedBrief(w, r, token)
			return
		}
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	if r.URL.Path == "/api/projects" {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListProjects(r.Context())
			if err != nil {
				s.respondError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
		case http.MethodPost:
			var body CreateProjectInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateProject(r.Context(), body)
			if err != nil {
				s.respondError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, payload)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "projects" {
		s.handleProject(w, r, parts[2], parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleProject(w http.ResponseWriter, r *http.Request, projectID string, rest []string) {
	ctx := r.Context()

	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		payload, err := s.service.GetProject(ctx, projectID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	switch rest[0] {
	case "graph":
		if len(rest) == 1 && r.Method == http.MethodGet {
			s.respond(w, r)(s.service.ProjectGraph(ctx, projectID))
			return
		}
	case "intersections":
		if len(rest) == 1 && r.Method == http.MethodGet {
			s.respond(w, r)(s.service.Intersections(ctx, projectID))
			return
		}
	case "board":
		if len(rest) == 1 && r.Method == http.MethodGet {
			s.respond(w, r)(s.service.Board(ctx, projectID))
			return
		}
	case "audiences":
		if len(rest) == 1 && r.Method == http.MethodPost {
			var body CreateAudienceInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respondCreated(w, r)(s.service.CreateAudience(ctx, projectID, body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodPut {
			var body UpdateAudienceInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respond(w, r)(s.service.UpdateAudience(ctx, projectID, rest[1], body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodDelete {
			s.respond(w, r)(s.service.DeleteAudience(ctx, projectID, rest[1]))
			return
		}
		if len(rest) == 3 && rest[2] == "reorder" && r.Method == http.MethodPost {
			var body ReorderInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respond(w, r)(s.service.ReorderAudience(ctx, projectID, rest[1], body))
			return
		}
	case "pain-desires":
		if len(rest) == 1 && r.Method == http.MethodPost {
			var body CreatePainDesireInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respondCreated(w, r)(s.service.CreatePainDesire(ctx, projectID, body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodPut {
			var body UpdatePainDesireInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respond(w, r)(s.service.UpdatePainDesire(ctx, projectID, rest[1], body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodDelete {
			s.respond(w, r)(s.service.DeletePainDesire(ctx, projectID, rest[1]))
			return
		}
		if len(rest) == 3 && rest[2] == "reorder" && r.Method == http.MethodPost {
			var body ReorderInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respond(w, r)(s.service.ReorderPainDesire(ctx, projectID, rest[1], body))
			return
		}
	case "links":
		if len(rest) == 1 && r.Method == http.MethodPost {
			var body CreateLinkInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respondCreated(w, r)(s.service.CreateLink(ctx, projectID, body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodDelete {
			s.respond(w, r)(s.service.DeleteLink(ctx, projectID, rest[1]))
			return
		}
	case "angles":
		if s.handleAngles(w, r, projectID, rest) {
			return
		}
	case "hooks":
		if s.handleHooks(w, r, projectID, rest) {
			return
		}
	case "executions":
		if len(rest) == 1 && r.Method == http.MethodPost {
			var body CreateExecutionInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respondCreated(w, r)(s.service.CreateExecution(ctx, projectID, body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodPut {
			var body UpdateExecutionInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respond(w, r)(s.service.UpdateExecution(ctx, projectID, rest[1], body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodDelete {
			s.respond(w, r)(s.service.DeleteExecution(ctx, projectID, rest[1]))
			return
		}
		if len(rest) == 3 && rest[2] == "reorder" && r.Method == http.MethodPost {
			var body ReorderInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respond(w, r)(s.service.ReorderExecution(ctx, projectID, rest[1], body))
			return
		}
	case "brief":
		if s.handleBrief(w, r, projectID, rest) {
			return
		}
	case "exports":
		if len(rest) == 1 && r.Method == http.MethodGet {
			limit := queryInt(r, "limit", 50)
			s.respond(w, r)(s.service.ExportHistory(ctx, projectID, limit))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodGet {
			payload, err := s.service.ExportedBrief(ctx, projectID, rest[1])
			if err != nil {
				s.respondError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(payload)
			return
		}
	case "share-links":
		if len(rest) == 1 && r.Method == http.MethodPost {
			var body CreateShareLinkInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			s.respondCreated(w, r)(s.service.CreateShareLink(ctx, projectID, actor(r), body))
			return
		}
		if len(rest) == 2 && r.Method == http.MethodDelete {
			s.respond(w, r)(s.service.RevokeShareLink(ctx, rest[1]))
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleAngles(w http.ResponseWriter, r *http.Request, projectID string, rest []string) bool {
	ctx := r.Context()

	if len(rest) == 1 && r.Method == http.MethodPost {
		var body CreateAngleInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respondCreated(w, r)(s.service.CreateAngle(ctx, projectID, body))
		return true
	}
	if len(rest) == 2 && r.Method == http.MethodPut {
		var body UpdateAngleInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respond(w, r)(s.service.UpdateAngle(ctx, projectID, rest[1], body))
		return true
	}
	if len(rest) == 2 && r.Method == http.MethodDelete {
		s.respond(w, r)(s.service.DeleteAngle(ctx, projectID, rest[1]))
		return true
	}
	if len(rest) == 3 && rest[2] == "reorder" && r.Method == http.MethodPost {
		var body ReorderInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respond(w, r)(s.service.ReorderAngle(ctx, projectID, rest[1], body))
		return true
	}
	if len(rest) == 3 && rest[2] == "suggestions" && r.Method == http.MethodPost {
		count := queryInt(r, "count", 5)
		s.respond(w, r)(s.service.SuggestHooks(ctx, projectID, rest[1], count))
		return true
	}
	if len(rest) == 4 && rest[2] == "suggestions" && rest[3] == "accept" && r.Method == http.MethodPost {
		var body AcceptSuggestionsInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respondCreated(w, r)(s.service.AcceptSuggestions(ctx, projectID, rest[1], body))
		return true
	}
	return false
}

func (s *HTTPServer) handleHooks(w http.ResponseWriter, r *http.Request, projectID string, rest []string) bool {
	ctx := r.Context()

	if len(rest) == 1 && r.Method == http.MethodPost {
		var body CreateHookInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respondCreated(w, r)(s.service.CreateHook(ctx, projectID, body))
		return true
	}
	if len(rest) == 2 && r.Method == http.MethodPut {
		var body UpdateHookInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respond(w, r)(s.service.UpdateHook(ctx, projectID, rest[1], body))
		return true
	}
	if len(rest) == 2 && r.Method == http.MethodDelete {
		s.respond(w, r)(s.service.DeleteHook(ctx, projectID, rest[1]))
		return true
	}
	if len(rest) == 3 && rest[2] == "move" && r.Method == http.MethodPost {
		var body MoveHookInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respond(w, r)(s.service.MoveHook(ctx, projectID, rest[1], body))
		return true
	}
	if len(rest) == 3 && rest[2] == "star" && r.Method == http.MethodPost {
		var body StarHookInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return true
		}
		s.respond(w, r)(s.service.StarHook(ctx, projectID, rest[1], body))
		return true
	}
	return false
}

func (s *HTTPServer) handleBrief(w http.ResponseWriter, r *http.Request, projectID string, rest []string) bool {
	ctx := r.Context()

	if len(rest) == 1 && r.Method == http.MethodGet {
		doc, err := s.service.Brief(ctx, projectID)
		if err != nil {
			s.respondError(w, r, err)
			return true
		}
		writeJSON(w, http.StatusOK, doc)
		return true
	}
	if len(rest) == 2 && rest[1] == "pdf" && r.Method == http.MethodGet {
		pdf, filename, err := s.service.BriefPDF(ctx, projectID)
		if err != nil {
			s.respondError(w, r, err)
			return true
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
		return true
	}
	if len(rest) == 2 && rest[1] == "export" && r.Method == http.MethodPost {
		s.respondCreated(w, r)(s.service.ExportBrief(ctx, projectID, actor(r)))
		return true
	}
	return false
}

func (s *HTTPServer) handleSharedBrief(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	password := r.Header.Get("X-Share-Password")
	if password == "" {
		password = r.URL.Query().Get("password")
	}
	payload, err := s.service.SharedBrief(r.Context(), token, password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))
	projectID := strings.TrimSpace(r.URL.Query().Get("projectId"))
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	payload, err := s.service.Search(r.Context(), q, filterType, projectID, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// respond writes the (payload, error) pair of a service call, so the
// routing table above stays one line per route.
func (s *HTTPServer) respond(w http.ResponseWriter, r *http.Request) func(map[string]any, error) {
	return func(payload map[string]any, err error) {
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func (s *HTTPServer) respondCreated(w http.ResponseWriter, r *http.Request) func(map[string]any, error) {
	return func(payload map[string]any, err error) {
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)
	}
}

func (s *HTTPServer) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Actor, X-Share-Password, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// actor names who performed a request. There is no authentication;
// clients self-report through a header and the default is anonymous.
func actor(r *http.Request) string {
	name := strings.TrimSpace(r.Header.Get("X-Actor"))
	if name == "" {
		return "anonymous"
	}
	return name
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
