package rule

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/transport"
)

// maxRuleFileBytes bounds YAML rule file uploads.
const maxRuleFileBytes = 1 << 20

type ServiceAPI interface {
	List(userID int64) ([]RuleResponse, error)
	Get(id, userID int64) (*RuleResponse, error)
	Create(userID int64, userPermissions []string, dto CreateRuleDTO) (*RuleResponse, error)
	Update(id, userID int64, userPermissions []string, dto UpdateRuleDTO) (*RuleResponse, error)
	Delete(id, userID int64, userPermissions []string) error
	Test(userID int64, dto TestRuleDTO) (*TestResult, error)
	BulkImport(userID int64, userPermissions []string, dto BulkImportDTO) (*BulkImportResult, error)
	ApplyToAll(ctx context.Context, userID int64) (*ApplyResult, error)
	ExportYAML(userID int64, scope Scope) ([]byte, error)
	ImportYAML(userID int64, userPermissions []string, scope Scope, data []byte) (*BulkImportResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	rules, err := h.Service.List(user.ID)
	if err != nil {
		h.Logger.Error("ListRules: failed to list rules", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RulesResponse{Rules: rules})
}

func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}

	rule, err := h.Service.Get(id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.Service.Create(user.ID, user.Permissions, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}

	var dto UpdateRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.Service.Update(id, user.ID, user.Permissions, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(id, user.ID, user.Permissions); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "rule deleted"})
}

func (h *Handler) TestRule(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto TestRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Test(user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) BulkImport(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto BulkImportDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "rules must be a list")
		return
	}

	result, err := h.Service.BulkImport(user.ID, user.Permissions, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ApplyRules(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Service.ApplyToAll(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("ApplyRules: failed to apply rules", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ExportRules(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}

	out, err := h.Service.ExportYAML(user.ID, scope)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="rules-`+string(scope)+`.yml"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.Logger.Error("ExportRules: failed to write response", "error", err)
	}
}

func (h *Handler) ImportRules(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxRuleFileBytes))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := h.Service.ImportYAML(user.ID, user.Permissions, scope, data)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ruleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid rule id")
		return 0, false
	}
	return id, true
}

func (h *Handler) scopeParam(w http.ResponseWriter, r *http.Request) (Scope, bool) {
	switch Scope(r.URL.Query().Get("scope")) {
	case "", ScopePersonal:
		return ScopePersonal, true
	case ScopeSystem:
		return ScopeSystem, true
	}
	h.HandleServiceError(w, internal.NewValidationError("scope must be personal or system", internal.ErrCodeValidationFailed))
	return "", false
}
