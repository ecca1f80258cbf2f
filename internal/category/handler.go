package category

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-classified/internal/pagination"
	"go-classified/internal/web"
)

// Store is what the handlers need from the repository.
type Store interface {
	FindAll(ctx context.Context) ([]Category, error)
	FindAllPaginated(ctx context.Context, page int) (*pagination.Page[Category], error)
	FindOneByID(ctx context.Context, id int) (*Category, error)
	Save(ctx context.Context, c *Category) error
	Delete(ctx context.Context, c *Category) error
}

type Handler struct {
	Repo Store
}

func NewHandler(r Store) *Handler {
	return &Handler{Repo: r}
}

// Index is the paginated category listing.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := h.Repo.FindAllPaginated(r.Context(), page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

// All returns every category, for form selects.
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Repo.FindAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []Category{}
	}
	web.JSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := validateName(req.Name); msg != "" {
		web.FieldErrors(w, map[string]string{"name": msg})
		return
	}

	c := &Category{Name: strings.TrimSpace(req.Name)}
	if err := h.Repo.Save(r.Context(), c); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusCreated, "/api/categories", web.FlashSuccess, "record added")
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	c, err := h.Repo.FindOneByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if c == nil {
		web.FlashRedirect(w, http.StatusNotFound, "/api/categories", web.FlashWarning, "record not found")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := validateName(req.Name); msg != "" {
		web.FieldErrors(w, map[string]string{"name": msg})
		return
	}

	c.Name = strings.TrimSpace(req.Name)
	if err := h.Repo.Save(r.Context(), c); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/categories", web.FlashSuccess, "record saved")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	c, err := h.Repo.FindOneByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if c == nil {
		web.FlashRedirect(w, http.StatusNotFound, "/api/categories", web.FlashWarning, "record not found")
		return
	}

	if err := h.Repo.Delete(r.Context(), c); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/categories", web.FlashSuccess, "record deleted")
}

func validateName(name string) string {
	v := strings.TrimSpace(name)
	switch {
	case v == "":
		return "must not be blank"
	case len(v) < 3:
		return "must be at least 3 characters"
	case len(v) > 45:
		return "must be at most 45 characters"
	}
	return ""
}
