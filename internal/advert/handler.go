package advert

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-classified/internal/middleware"
	"go-classified/internal/pagination"
	"go-classified/internal/web"
)

// RoleChecker is what we need from the user service.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID int) bool
}

// Store is what the handlers need from the repository.
type Store interface {
	FindAllPaginated(ctx context.Context, page int) (*pagination.Page[Advert], error)
	FindAllActivePaginated(ctx context.Context, page int) (*pagination.Page[Advert], error)
	FindSearchPaginated(ctx context.Context, criteria *SearchCriteria, page int) (*pagination.Page[Advert], error)
	FindOneByID(ctx context.Context, id int) (*Advert, error)
	Save(ctx context.Context, a *Advert) error
	Delete(ctx context.Context, a *Advert) error
	FindPhotosByAdvert(ctx context.Context, advertID int) ([]Photo, error)
	FindPhotoByID(ctx context.Context, id int) (*Photo, error)
	SavePhoto(ctx context.Context, p *Photo) error
	DeletePhoto(ctx context.Context, p *Photo) error
}

type Handler struct {
	Repo     Store
	Roles    RoleChecker
	Uploader *Uploader
}

func NewHandler(repo Store, roles RoleChecker, uploader *Uploader) *Handler {
	return &Handler{Repo: repo, Roles: roles, Uploader: uploader}
}

// Index lists adverts. Admins see every advert, everyone else active ones.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	var err error
	var result interface{}
	if h.isAdmin(r) {
		result, err = h.Repo.FindAllPaginated(r.Context(), page)
	} else {
		result, err = h.Repo.FindAllActivePaginated(r.Context(), page)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

// View returns one advert with its photos. Inactive adverts exist only for
// their owner and admins; everyone else gets a plain 404.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a, err := h.Repo.FindOneByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil {
		web.FlashRedirect(w, http.StatusNotFound, "/api/adverts", web.FlashWarning, "record not found")
		return
	}

	if !a.IsActive {
		userID, _, _ := middleware.Identity(r.Context())
		if a.UserID != userID && !h.isAdmin(r) {
			http.NotFound(w, r)
			return
		}
	}

	photos, err := h.Repo.FindPhotosByAdvert(r.Context(), a.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if photos == nil {
		photos = []Photo{}
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"advert": a,
		"photos": photos,
	})
}

// Search runs the homepage search over active adverts.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	criteria := &SearchCriteria{
		Topic: q.Get("topic"),
		City:  q.Get("city"),
		Type:  q.Get("type"),
	}

	errs := map[string]string{}
	if v := q.Get("price_from"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs["price_from"] = "must be numeric"
		}
		criteria.PriceFrom = f
	}
	if v := q.Get("price_to"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs["price_to"] = "must be numeric"
		}
		criteria.PriceTo = f
	}
	if v := q.Get("category_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs["category_id"] = "must be an id"
		}
		criteria.CategoryID = n
	}
	if criteria.Type != "" && !ValidType(criteria.Type) {
		errs["type"] = "unknown advert type"
	}
	if len(errs) > 0 {
		web.FieldErrors(w, errs)
		return
	}

	result, err := h.Repo.FindSearchPaginated(r.Context(), criteria, page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

type advertRequest struct {
	CategoryID int     `json:"category_id"`
	Topic      string  `json:"topic"`
	City       string  `json:"city"`
	Price      float64 `json:"price"`
	Type       string  `json:"type"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req advertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errs := validateAdvert(&req); len(errs) > 0 {
		web.FieldErrors(w, errs)
		return
	}

	a := &Advert{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Topic:      strings.TrimSpace(req.Topic),
		City:       strings.TrimSpace(req.City),
		Price:      req.Price,
		Type:       req.Type,
		IsActive:   true,
	}
	if err := h.Repo.Save(r.Context(), a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusCreated, "/api/adverts", web.FlashSuccess, "record added")
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	a, ok := h.ownedAdvert(w, r)
	if !ok {
		return
	}

	var req advertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errs := validateAdvert(&req); len(errs) > 0 {
		web.FieldErrors(w, errs)
		return
	}

	a.CategoryID = req.CategoryID
	a.Topic = strings.TrimSpace(req.Topic)
	a.City = strings.TrimSpace(req.City)
	a.Price = req.Price
	a.Type = req.Type
	if err := h.Repo.Save(r.Context(), a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/adverts", web.FlashSuccess, "record saved")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.ownedAdvert(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Delete(r.Context(), a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/adverts", web.FlashSuccess, "record deleted")
}

// Activity toggles the advert between active and deactivated.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	a, ok := h.ownedAdvert(w, r)
	if !ok {
		return
	}

	a.IsActive = !a.IsActive
	if err := h.Repo.Save(r.Context(), a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	msg := "record deactivated"
	if a.IsActive {
		msg = "record activated"
	}
	web.FlashRedirect(w, http.StatusOK, "/api/adverts", web.FlashSuccess, msg)
}

// Photos lists an advert's photos.
func (h *Handler) Photos(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	photos, err := h.Repo.FindPhotosByAdvert(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if photos == nil {
		photos = []Photo{}
	}
	web.JSON(w, http.StatusOK, photos)
}

// AddPhoto accepts a multipart upload for an advert the caller owns.
func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	a, ok := h.ownedAdvert(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(MaxPhotoSize); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		web.FieldErrors(w, map[string]string{"photo": "must not be blank"})
		return
	}
	defer file.Close()

	if header.Size > MaxPhotoSize {
		web.FieldErrors(w, map[string]string{"photo": "file too large"})
		return
	}

	name, err := h.Uploader.Upload(file, header)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	p := &Photo{
		AdvertID: a.ID,
		Title:    r.FormValue("title"),
		Filepath: name,
	}
	if err := h.Repo.SavePhoto(r.Context(), p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusCreated, "/api/adverts/"+strconv.Itoa(a.ID), web.FlashSuccess, "record added")
}

func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	p, err := h.Repo.FindPhotoByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.NotFound(w, r)
		return
	}

	a, err := h.Repo.FindOneByID(r.Context(), p.AdvertID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	userID, _, _ := middleware.Identity(r.Context())
	if a == nil || (a.UserID != userID && !h.isAdmin(r)) {
		http.NotFound(w, r)
		return
	}

	if err := h.Repo.DeletePhoto(r.Context(), p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.Uploader.Remove(p.Filepath); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/adverts", web.FlashSuccess, "record deleted")
}

// ownedAdvert loads the advert from the URL and enforces owner-or-admin. A
// failed ownership check is a 404, existence is not leaked.
func (h *Handler) ownedAdvert(w http.ResponseWriter, r *http.Request) (*Advert, bool) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a, err := h.Repo.FindOneByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}

	userID, _, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	if a == nil || (a.UserID != userID && !h.isAdmin(r)) {
		http.NotFound(w, r)
		return nil, false
	}
	return a, true
}

func (h *Handler) isAdmin(r *http.Request) bool {
	userID, _, ok := middleware.Identity(r.Context())
	return ok && h.Roles.IsAdmin(r.Context(), userID)
}

func validateAdvert(req *advertRequest) map[string]string {
	errs := map[string]string{}

	topic := strings.TrimSpace(req.Topic)
	switch {
	case topic == "":
		errs["topic"] = "must not be blank"
	case len(topic) < 3:
		errs["topic"] = "must be at least 3 characters"
	case len(topic) > 45:
		errs["topic"] = "must be at most 45 characters"
	}

	city := strings.TrimSpace(req.City)
	switch {
	case city == "":
		errs["city"] = "must not be blank"
	case len(city) > 45:
		errs["city"] = "must be at most 45 characters"
	}

	if req.Price < 0 {
		errs["price"] = "must not be negative"
	}
	if !ValidType(req.Type) {
		errs["type"] = "unknown advert type"
	}
	if req.CategoryID < 1 {
		errs["category_id"] = "must not be blank"
	}
	return errs
}
