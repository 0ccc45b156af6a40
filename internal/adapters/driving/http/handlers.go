package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/quillhq/docsync/internal/core/ports/driving"
)

// ErrorResponse is the uniform API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Source endpoints

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	sources, err := s.sourceService.List(r.Context(), authCtx.TenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var input driving.SourceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.sourceService.Upsert(r.Context(), authCtx.TenantID, authCtx.UserID, "", input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	source, err := s.sourceService.Get(r.Context(), authCtx.TenantID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var input driving.SourceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.sourceService.Upsert(r.Context(), authCtx.TenantID, authCtx.UserID, r.PathValue("id"), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if err := s.sourceService.Delete(r.Context(), authCtx.TenantID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connection endpoints

func (s *Server) handleGetConnectionStatus(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	status, err := s.sourceService.GetConnectionStatus(r.Context(), authCtx.TenantID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleDisconnectSource(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if err := s.sourceService.Disconnect(r.Context(), authCtx.TenantID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *Server) handleListRemoteFolders(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	parent := r.URL.Query().Get("parent")

	folders, err := s.sourceService.ListRemoteFolders(r.Context(), authCtx.TenantID, r.PathValue("id"), parent)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (s *Server) handleSelectFolder(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req struct {
		FolderID   string `json:"folder_id"`
		FolderName string `json:"folder_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.sourceService.SelectFolder(r.Context(), authCtx.TenantID, r.PathValue("id"), req.FolderID, req.FolderName); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "selected"})
}

func (s *Server) handleRotateRunSecret(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	secret, err := s.sourceService.RotateRunSecret(r.Context(), authCtx.TenantID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Shown exactly once; only the hash is stored.
	writeJSON(w, http.StatusOK, map[string]string{"secret": secret})
}

// Run endpoints

func (s *Server) handleRunSource(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	limit := queryInt(r, "limit")

	result, err := s.runService.RunSource(r.Context(), authCtx.TenantID, r.PathValue("id"), limit)
	if err != nil && result == nil {
		writeServiceError(w, err)
		return
	}
	// Failed and refused runs still return the result body.
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTestSource(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	result, err := s.runService.TestSource(r.Context(), authCtx.TenantID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRunState(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	state, err := s.runService.GetRunState(r.Context(), authCtx.TenantID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleRunHook triggers a run from an external system, authenticated by
// the source's rotated hook secret rather than a platform token.
func (s *Server) handleRunHook(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Run-Secret")
	if secret == "" {
		writeError(w, http.StatusUnauthorized, "missing run secret")
		return
	}

	source, err := s.sourceService.VerifyRunSecret(r.Context(), r.PathValue("id"), secret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := s.runService.RunSource(r.Context(), source.TenantID, source.ID, queryInt(r, "limit"))
	if err != nil && result == nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Provider config endpoints

func (s *Server) handleGetProviderConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.providerService.GetProviderConfig(r.Context(), domain.ProviderType(r.PathValue("type")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSaveProviderConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		Enabled      *bool  `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := &domain.ProviderConfig{
		ProviderType: domain.ProviderType(r.PathValue("type")),
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Enabled:      true,
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}

	if err := s.providerService.SaveProviderConfig(r.Context(), cfg); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleDeleteProviderConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.providerService.DeleteProviderConfig(r.Context(), domain.ProviderType(r.PathValue("type"))); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OAuth endpoints

func (s *Server) handleOAuthAuthorize(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req struct {
		RedirectURI string `json:"redirect_uri"`
	}
	// Body is optional; the default callback URI is used when absent.
	_ = json.NewDecoder(r.Body).Decode(&req)

	resp, err := s.oauthService.Authorize(r.Context(), driving.AuthorizeRequest{
		TenantID:    authCtx.TenantID,
		SourceID:    r.PathValue("id"),
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("provider returned error: %s", errCode))
		return
	}

	result, err := s.oauthService.Callback(r.Context(), driving.CallbackRequest{
		State: q.Get("state"),
		Code:  q.Get("code"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Helpers

func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnsupportedProvider):
		writeError(w, http.StatusBadRequest, "unsupported provider")
	case errors.Is(err, domain.ErrNotConfigured):
		writeError(w, http.StatusConflict, "provider not configured")
	case errors.Is(err, domain.ErrNotConnected),
		errors.Is(err, domain.ErrReauthRequired):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNoFolderSelected):
		writeError(w, http.StatusConflict, "no folder selected")
	case errors.Is(err, domain.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run already in progress")
	case errors.Is(err, domain.ErrBrowseNotSupported):
		writeError(w, http.StatusBadRequest, "folder browsing not supported")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
