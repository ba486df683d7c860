package category

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/finance-tracker/internal/transport"
)

type ServiceAPI interface {
	List(userID int64, filter ListFilter) ([]CategoryResponse, error)
	Get(id, userID int64) (*CategoryResponse, error)
	Subcategories(id, userID int64) ([]CategoryResponse, error)
	Create(userID int64, userPermissions []string, dto CreateCategoryDTO) (*CategoryResponse, error)
	Update(id, userID int64, userPermissions []string, dto UpdateCategoryDTO) (*CategoryResponse, error)
	SetDefault(id, userID int64, userPermissions []string) (*CategoryResponse, error)
	Delete(id, userID int64, userPermissions []string) (*DeleteResult, error)
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

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("type"))
}

func (h *Handler) GetCategoriesByType(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "type"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, categoryType string) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Type:               categoryType,
		ParentsOnly:        q.Get("parents_only") == "true",
		IncludeSubcategory: q.Get("include_subcategories") == "true",
	}

	categories, err := h.Service.List(user.ID, filter)
	if err != nil {
		h.Logger.Error("GetCategories: failed to get categories", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CategoriesResponse{
		Categories: categories,
	})
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Get(id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) GetSubcategories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	subs, err := h.Service.Subcategories(id, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CategoriesResponse{Categories: subs})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateCategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.Create(user.ID, user.Permissions, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	var dto UpdateCategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.Update(id, user.ID, user.Permissions, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) SetDefaultCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.SetDefault(id, user.ID, user.Permissions)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.categoryID(w, r)
	if !ok {
		return
	}

	result, err := h.Service.Delete(id, user.ID, user.Permissions)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) categoryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid category id")
		return 0, false
	}
	return id, true
}
