// ABOUTME: HTTP handlers for accounts and tasks plus their response DTOs
// ABOUTME: Handlers decode input, call the services and translate failures at the boundary

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/2389/taskgate/internal/account"
	"github.com/2389/taskgate/internal/apperr"
	"github.com/2389/taskgate/internal/auth"
	"github.com/2389/taskgate/internal/store"
	"github.com/2389/taskgate/internal/tasks"
)

// Success bodies returned as text/plain.
const (
	msgRegistered         = "User registered success!"
	msgTaskCreated        = "Task created!"
	msgTaskDeleted        = "Task deleted!"
	msgTitleChanged       = "Title changed!"
	msgDescriptionChanged = "Description changed!"
	msgDateChanged        = "Date changed!"
	msgUserChanged        = "User changed!"
)

// UserResponse is the JSON shape of a user in GET /api/user/showAll.
type UserResponse struct {
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// TaskResponse is the JSON shape of a task in GET /api/task/show/myTasks.
type TaskResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// CreateTaskRequest is the JSON request body for POST /api/task/create.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func toUserResponse(u *store.User) UserResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return UserResponse{Email: u.Email, Username: u.Username, Roles: roles}
}

func toTaskResponse(t *store.Task) TaskResponse {
	return TaskResponse{
		Title:       t.Title,
		Description: t.Description,
		Date:        t.DueDate.Format(store.DateLayout),
	}
}

// api holds the handler dependencies.
type api struct {
	accounts *account.Service
	tasks    *tasks.Service
	logger   *slog.Logger
}

func sendText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody parses a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput("invalid JSON body")
	}
	return nil
}

// parsePage reads offset and limit query parameters. Range checks are left
// to the services.
func parsePage(r *http.Request) (store.Page, error) {
	var page store.Page
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, apperr.InvalidInput("offset must be an integer")
		}
		page.Offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, apperr.InvalidInput("limit must be an integer")
		}
		page.Limit = n
	}
	return page, nil
}

// actingEmail returns the authenticated identifier. The access gate
// guarantees a principal on task routes; a missing one still fails closed.
func actingEmail(r *http.Request) (string, error) {
	p := auth.FromContext(r.Context())
	if p == nil {
		return "", apperr.Unauthorized("unauthorized")
	}
	return p.Identifier, nil
}

// handleRegister handles POST /api/auth/register.
func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	if err := a.accounts.Register(r.Context(), req); err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	sendText(w, http.StatusOK, msgRegistered)
}

// handleLogin handles POST /api/auth/login. The body is the bare token.
func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	token, err := a.accounts.Login(r.Context(), req)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	sendText(w, http.StatusOK, token)
}

// handleListUsers handles GET /api/user/showAll.
func (a *api) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	users, err := a.accounts.ListUsers(r.Context(), page)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	sendJSON(w, http.StatusOK, resp)
}

// handleCreateTask handles POST /api/task/create.
func (a *api) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	email, err := actingEmail(r)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	var req CreateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	due, err := tasks.ParseDate(req.Date)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	in := tasks.NewTask{Title: req.Title, Description: req.Description, DueDate: due}
	if err := a.tasks.Create(r.Context(), email, in); err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	sendText(w, http.StatusCreated, msgTaskCreated)
}

// handleDeleteTask handles DELETE /api/task/delete/{title}.
func (a *api) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	email, err := actingEmail(r)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	if err := a.tasks.Delete(r.Context(), email, mux.Vars(r)["title"]); err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	sendText(w, http.StatusOK, msgTaskDeleted)
}

// handleMyTasks handles GET /api/task/show/myTasks.
func (a *api) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	email, err := actingEmail(r)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	list, err := a.tasks.ListMine(r.Context(), email, page)
	if err != nil {
		sendError(w, r, a.logger, err)
		return
	}
	resp := make([]TaskResponse, 0, len(list))
	for _, t := range list {
		resp = append(resp, toTaskResponse(t))
	}
	sendJSON(w, http.StatusOK, resp)
}

// editHandler adapts a single-field task edit to an HTTP handler. param is
// the query parameter carrying the new value.
func (a *api) editHandler(param, success string, edit func(r *http.Request, email, title, value string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := actingEmail(r)
		if err != nil {
			sendError(w, r, a.logger, err)
			return
		}
		title := mux.Vars(r)["title"]
		if err := edit(r, email, title, r.URL.Query().Get(param)); err != nil {
			sendError(w, r, a.logger, err)
			return
		}
		sendText(w, http.StatusOK, success)
	}
}

func (a *api) editTitle(r *http.Request, email, title, value string) error {
	return a.tasks.EditTitle(r.Context(), email, title, value)
}

func (a *api) editDescription(r *http.Request, email, title, value string) error {
	return a.tasks.EditDescription(r.Context(), email, title, value)
}

func (a *api) editDate(r *http.Request, email, title, value string) error {
	due, err := tasks.ParseDate(value)
	if err != nil {
		return err
	}
	return a.tasks.EditDate(r.Context(), email, title, due)
}

func (a *api) editOwner(r *http.Request, email, title, value string) error {
	return a.tasks.EditOwner(r.Context(), email, title, value)
}

// notFound answers unknown routes in the same JSON error shape.
func notFound(w http.ResponseWriter, _ *http.Request) {
	sendJSONError(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}
