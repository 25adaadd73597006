package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks database and queue connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleLogin godoc
// @Summary      User login
// @Description  Authenticate with email and password to receive a JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials or account disabled"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.deps.Auth.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "account disabled")
		default:
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh godoc
// @Summary      Refresh token
// @Description  Exchange a refresh token for a new JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid refresh token"
// @Router       /auth/refresh [post]
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.deps.Auth.RefreshToken(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Logout user
// @Description  Invalidate the current session token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	// Logout failures are not surfaced: the token is gone either way
	_ = s.deps.Auth.Logout(r.Context(), token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChangePassword godoc
// @Summary      Change password
// @Description  Change the password for the authenticated user
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ChangePasswordRequest  true  "Current and new password"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body or weak password"
// @Failure      401      {object}  ErrorResponse  "Wrong current password"
// @Router       /auth/password [post]
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Auth.ChangePassword(r.Context(), authCtx.UserID, req); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "wrong current password")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSetup godoc
// @Summary      Initial setup
// @Description  Create the initial admin user. Only works when no users exist.
// @Tags         Setup
// @Accept       json
// @Produce      json
// @Param        request  body      driving.SetupRequest  true  "Admin user details"
// @Success      201      {object}  driving.SetupResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      409      {object}  ErrorResponse  "Setup already completed"
// @Router       /setup [post]
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req driving.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.deps.Users.Setup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "setup already completed")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "setup failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// User endpoints

// handleGetMe godoc
// @Summary      Get current user
// @Description  Returns the authenticated user's profile
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  ErrorResponse
// @Router       /me [get]
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := s.deps.Users.Get(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleListUsers godoc
// @Summary      List users
// @Description  Returns all user accounts (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  ErrorResponse
// @Router       /users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// handleCreateUser godoc
// @Summary      Create user
// @Description  Creates a new user account (admin only)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CreateUserRequest  true  "User details"
// @Success      201      {object}  domain.User
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      409      {object}  ErrorResponse  "Email already in use"
// @Router       /users [post]
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.deps.Users.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "email already in use")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleDeleteUser godoc
// @Summary      Delete user
// @Description  Deletes a user account (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [delete]
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.deps.Users.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Email record endpoints

// handleListEmails godoc
// @Summary      List email records
// @Description  Returns stored email records, newest first. Filter by status, priority or sender.
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Filter by status"    Enums(unread, processing, read, responded, failed)
// @Param        priority  query     string  false  "Filter by priority"  Enums(urgent, high, medium, low)
// @Param        sender    query     string  false  "Filter by sender address"
// @Param        limit     query     int     false  "Max records (default 50)"
// @Param        offset    query     int     false  "Pagination offset"
// @Success      200       {array}   domain.EmailRecord
// @Failure      400       {object}  ErrorResponse  "Invalid filter value"
// @Router       /emails [get]
func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	filter := driven.EmailFilter{Limit: 50}

	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := domain.EmailStatus(v)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.Priority(v)
		if !priority.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid priority filter")
			return
		}
		filter.Priority = priority
	}
	filter.Sender = q.Get("sender")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	emails, err := s.deps.Emails.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list emails")
		return
	}

	writeJSON(w, http.StatusOK, emails)
}

// handleEmailStats godoc
// @Summary      Email statistics
// @Description  Returns aggregate record and response counts
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.EmailStats
// @Router       /emails/stats [get]
func (s *Server) handleEmailStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Emails.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleGetEmail godoc
// @Summary      Get email record
// @Description  Returns a single email record by ID
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Email record ID"
// @Success      200  {object}  domain.EmailRecord
// @Failure      404  {object}  ErrorResponse
// @Router       /emails/{id} [get]
func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	email, err := s.deps.Emails.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "email not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get email")
		return
	}

	writeJSON(w, http.StatusOK, email)
}

// handleUpdateEmail godoc
// @Summary      Update email record
// @Description  Applies a manual status or priority change. Status changes go through the record state machine.
// @Tags         Emails
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Email record ID"
// @Param        request  body      driving.UpdateEmailRequest  true  "Fields to update"
// @Success      200      {object}  domain.EmailRecord
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse  "Illegal status transition"
// @Router       /emails/{id} [patch]
func (s *Server) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req driving.UpdateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email, err := s.deps.Emails.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "email not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update email")
		}
		return
	}

	writeJSON(w, http.StatusOK, email)
}

// handleDeleteEmail godoc
// @Summary      Delete email record
// @Description  Removes an email record and its responses (admin only)
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Email record ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /emails/{id} [delete]
func (s *Server) handleDeleteEmail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.deps.Emails.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "email not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleProcessEmail godoc
// @Summary      Process email
// @Description  Runs the analysis pipeline for one record synchronously
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Email record ID"
// @Success      200  {object}  domain.EmailRecord
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse  "Record is not processable in its current status"
// @Router       /emails/{id}/process [post]
func (s *Server) handleProcessEmail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	email, err := s.deps.Emails.Process(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "email not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "processing failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, email)
}

// handleGenerateResponse godoc
// @Summary      Generate response
// @Description  Produces and stores a draft response for a record without sending it
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Email record ID"
// @Success      201  {object}  domain.ResponseRecord
// @Failure      404  {object}  ErrorResponse
// @Router       /emails/{id}/responses [post]
func (s *Server) handleGenerateResponse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	resp, err := s.deps.Emails.GenerateResponse(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "email not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to generate response")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// handleListResponses godoc
// @Summary      List responses
// @Description  Returns all stored responses for an email, newest first
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Email record ID"
// @Success      200  {array}   domain.ResponseRecord
// @Failure      404  {object}  ErrorResponse
// @Router       /emails/{id}/responses [get]
func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	responses, err := s.deps.Emails.Responses(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "email not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list responses")
		return
	}

	writeJSON(w, http.StatusOK, responses)
}

// handleSendResponse godoc
// @Summary      Send response
// @Description  Dispatches a stored response through the mail provider and moves the email to responded
// @Tags         Emails
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Response ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse  "Mail provider unavailable"
// @Router       /responses/{id}/send [post]
func (s *Server) handleSendResponse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.deps.Emails.SendResponse(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "response not found")
		case errors.Is(err, domain.ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to send response")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// Knowledge base endpoints

// handleAddKnowledge godoc
// @Summary      Add knowledge document
// @Description  Stores a document, chunks it, embeds the chunks and indexes them (admin only)
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.AddDocumentRequest  true  "Document contents"
// @Success      201      {object}  domain.KnowledgeDocument
// @Failure      400      {object}  ErrorResponse  "Invalid request body or empty content"
// @Failure      503      {object}  ErrorResponse  "Embedding service not configured"
// @Router       /knowledge [post]
func (s *Server) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req driving.AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.deps.Knowledge.AddDocument(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to add document")
		}
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// handleListKnowledge godoc
// @Summary      List knowledge documents
// @Description  Returns knowledge documents with pagination, newest first
// @Tags         Knowledge
// @Produce      json
// @Security     BearerAuth
// @Param        active  query     bool  false  "Only active documents"
// @Param        limit   query     int   false  "Max documents (default 50)"
// @Param        offset  query     int   false  "Pagination offset"
// @Success      200     {array}   domain.KnowledgeDocument
// @Router       /knowledge [get]
func (s *Server) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly := q.Get("active") == "true"

	limit := 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = n
	}

	docs, err := s.deps.Knowledge.List(r.Context(), activeOnly, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// handleGetKnowledge godoc
// @Summary      Get knowledge document
// @Description  Returns a single knowledge document by ID
// @Tags         Knowledge
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.KnowledgeDocument
// @Failure      404  {object}  ErrorResponse
// @Router       /knowledge/{id} [get]
func (s *Server) handleGetKnowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := s.deps.Knowledge.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// SearchRequest represents a knowledge base search query
// @Description Knowledge base search query
type SearchRequest struct {
	Query string `json:"query" example:"refund policy"`
	TopK  int    `json:"top_k,omitempty" example:"5"`
}

// handleSearchKnowledge godoc
// @Summary      Search knowledge base
// @Description  Returns the most relevant chunks for a query. Chunks of deactivated documents are excluded.
// @Tags         Knowledge
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SearchRequest  true  "Search query"
// @Success      200      {array}   domain.SearchHit
// @Failure      400      {object}  ErrorResponse  "Empty query"
// @Failure      503      {object}  ErrorResponse  "Embedding service not configured"
// @Router       /knowledge/search [post]
func (s *Server) handleSearchKnowledge(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	hits, err := s.deps.Knowledge.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "search failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, hits)
}

// handleDeactivateKnowledge godoc
// @Summary      Deactivate document
// @Description  Soft-deletes a document: it stays stored but no longer appears in search results (admin only)
// @Tags         Knowledge
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /knowledge/{id}/deactivate [post]
func (s *Server) handleDeactivateKnowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.deps.Knowledge.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// handleReactivateKnowledge godoc
// @Summary      Reactivate document
// @Description  Makes a deactivated document searchable again (admin only)
// @Tags         Knowledge
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /knowledge/{id}/reactivate [post]
func (s *Server) handleReactivateKnowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.deps.Knowledge.Reactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to reactivate document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reactivated"})
}

// RebuildResponse reports how many chunks were re-indexed
// @Description Knowledge index rebuild result
type RebuildResponse struct {
	IndexedChunks int `json:"indexed_chunks" example:"128"`
}

// handleRebuildKnowledge godoc
// @Summary      Rebuild knowledge index
// @Description  Re-chunks and re-embeds every active document into a fresh index (admin only)
// @Tags         Knowledge
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RebuildResponse
// @Failure      503  {object}  ErrorResponse  "Embedding service not configured"
// @Router       /knowledge/rebuild [post]
func (s *Server) handleRebuildKnowledge(w http.ResponseWriter, r *http.Request) {
	indexed, err := s.deps.Knowledge.Rebuild(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrServiceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, RebuildResponse{IndexedChunks: indexed})
}

// handleKnowledgeStats godoc
// @Summary      Knowledge statistics
// @Description  Summarises the knowledge base
// @Tags         Knowledge
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.KnowledgeStats
// @Router       /knowledge/stats [get]
func (s *Server) handleKnowledgeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Knowledge.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Agent job endpoints

// handleTriggerSweep godoc
// @Summary      Trigger ingestion sweep
// @Description  Fetches a batch of unread mail and processes each message (admin only)
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SweepResult
// @Failure      409  {object}  ErrorResponse  "A sweep is already running"
// @Router       /agent/sweep [post]
func (s *Server) handleTriggerSweep(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Orchestrator.RunSweep(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSweepInProgress) {
			writeError(w, http.StatusConflict, "sweep already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSweepState godoc
// @Summary      Sweep state
// @Description  Returns the state of the most recent ingestion sweep
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SweepState
// @Router       /agent/sweep [get]
func (s *Server) handleSweepState(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Orchestrator.SweepState(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get sweep state")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// handleTriggerCleanup godoc
// @Summary      Trigger retention cleanup
// @Description  Deletes records processed before the retention window. Urgent records are exempt. (admin only)
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CleanupResult
// @Router       /agent/cleanup [post]
func (s *Server) handleTriggerCleanup(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Orchestrator.RunCleanup(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleTriggerRefresh godoc
// @Summary      Trigger knowledge refresh
// @Description  Feeds recently responded threads back into the knowledge base (admin only)
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.RefreshResult
// @Failure      503  {object}  ErrorResponse  "Embedding service not configured"
// @Router       /agent/refresh [post]
func (s *Server) handleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Orchestrator.RunRefresh(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrServiceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListJobs godoc
// @Summary      List scheduled jobs
// @Description  Returns all configured scheduled jobs (admin only)
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.ScheduledJob
// @Router       /agent/jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler disabled")
		return
	}

	jobs, err := s.deps.Scheduler.ListJobs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

// handleTriggerJob godoc
// @Summary      Trigger scheduled job
// @Description  Enqueues a job's task immediately, outside its schedule (admin only)
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /agent/jobs/{id}/trigger [post]
func (s *Server) handleTriggerJob(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler disabled")
		return
	}

	id := r.PathValue("id")

	if err := s.deps.Scheduler.TriggerJob(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to trigger job")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "triggered"})
}

// SetEnabledRequest toggles a scheduled job
// @Description Scheduled job toggle
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetJobEnabled godoc
// @Summary      Enable/disable scheduled job
// @Description  Enables or disables a scheduled job (admin only)
// @Tags         Agent
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Job ID"
// @Param        request  body      SetEnabledRequest  true  "Desired state"
// @Success      200      {object}  StatusResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /agent/jobs/{id}/enabled [put]
func (s *Server) handleSetJobEnabled(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler disabled")
		return
	}

	id := r.PathValue("id")

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.deps.Scheduler.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update job")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleQueueStats godoc
// @Summary      Task queue statistics
// @Description  Returns pending/processing/completed/failed task counts (admin only)
// @Tags         Agent
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driven.QueueStats
// @Failure      503  {object}  ErrorResponse
// @Router       /agent/queue [get]
func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.TaskQueue == nil {
		writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	stats, err := s.deps.TaskQueue.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Settings endpoints

// handleGetSettings godoc
// @Summary      Get settings
// @Description  Returns the current agent settings (admin only)
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Settings
// @Router       /settings [get]
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings godoc
// @Summary      Update settings
// @Description  Updates agent settings (admin only)
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.UpdateSettingsRequest  true  "Settings to update"
// @Success      200      {object}  domain.Settings
// @Failure      400      {object}  ErrorResponse  "Invalid settings value"
// @Router       /settings [put]
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req driving.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.deps.Settings.Update(r.Context(), authCtx.UserID, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// handleGetAISettings godoc
// @Summary      Get AI settings
// @Description  Returns the current AI configuration with API keys redacted (admin only)
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AISettings
// @Router       /settings/ai [get]
func (s *Server) handleGetAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings.GetAISettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get AI settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateAISettings godoc
// @Summary      Update AI settings
// @Description  Updates AI configuration and hot-reloads services (admin only)
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.UpdateAISettingsRequest  true  "AI configuration"
// @Success      200      {object}  driving.AISettingsStatus
// @Failure      400      {object}  ErrorResponse  "Invalid or unsupported AI configuration"
// @Router       /settings/ai [put]
func (s *Server) handleUpdateAISettings(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateAISettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := s.deps.Settings.UpdateAISettings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid AI configuration")
		case errors.Is(err, domain.ErrInvalidProvider):
			writeError(w, http.StatusBadRequest, "unsupported AI provider")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleGetAIStatus godoc
// @Summary      AI service status
// @Description  Returns the availability of the configured AI services
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.AISettingsStatus
// @Router       /settings/ai/status [get]
func (s *Server) handleGetAIStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Settings.GetAIStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get AI status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleTestAIConnection godoc
// @Summary      Test AI connection
// @Description  Tests the configured AI provider connection (admin only)
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "Provider unreachable or not configured"
// @Router       /settings/ai/test [post]
func (s *Server) handleTestAIConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Settings.TestConnection(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
