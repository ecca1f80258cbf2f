package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-classified/internal/middleware"
	"go-classified/internal/web"
)

type Handler struct {
	Service *Service
	Repo    *Repository
}

func NewHandler(s *Service, r *Repository) *Handler {
	return &Handler{Service: s, Repo: r}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if errs := validateRegistration(&req); len(errs) > 0 {
		web.FieldErrors(w, errs)
		return
	}

	if err := h.Service.Register(r.Context(), &req); err != nil {
		switch {
		case errors.Is(err, ErrLoginTaken):
			web.FieldErrors(w, map[string]string{"login": "login already taken"})
		case errors.Is(err, ErrEmailTaken):
			web.FieldErrors(w, map[string]string{"email": "email already taken"})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	web.FlashRedirect(w, http.StatusCreated, "/login", web.FlashSuccess, "registration successful")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	web.JSON(w, http.StatusOK, res)
}

// Account returns the caller's profile.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	_, login, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	p := h.Service.Account(r.Context(), login)
	if p == nil {
		web.FlashRedirect(w, http.StatusNotFound, "/", web.FlashWarning, "record not found")
		return
	}
	web.JSON(w, http.StatusOK, p)
}

type editDataRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

func (h *Handler) EditData(w http.ResponseWriter, r *http.Request) {
	_, login, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req editDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	errs := map[string]string{}
	validateLength(errs, "name", req.Name)
	validateLength(errs, "surname", req.Surname)
	validateEmail(errs, req.Email)
	if len(errs) > 0 {
		web.FieldErrors(w, errs)
		return
	}

	err := h.Service.UpdateData(r.Context(), login, req.Name, req.Surname, req.Email)
	switch {
	case err == nil:
		web.FlashRedirect(w, http.StatusOK, "/api/account", web.FlashSuccess, "data saved")
	case errors.Is(err, ErrEmailTaken):
		web.FieldErrors(w, map[string]string{"email": "email already taken"})
	case errors.Is(err, ErrNotFound):
		web.FlashRedirect(w, http.StatusNotFound, "/", web.FlashWarning, "record not found")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type editPasswordRequest struct {
	Current  string `json:"current"`
	Password string `json:"password"`
}

func (h *Handler) EditPassword(w http.ResponseWriter, r *http.Request) {
	_, login, ok := middleware.Identity(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req editPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		web.FieldErrors(w, map[string]string{"password": "must be at least 6 characters"})
		return
	}

	err := h.Service.UpdatePassword(r.Context(), login, req.Current, req.Password)
	switch {
	case err == nil:
		web.FlashRedirect(w, http.StatusOK, "/api/account", web.FlashSuccess, "data saved")
	case errors.Is(err, ErrWrongPassword):
		web.FlashRedirect(w, http.StatusOK, "/api/account/password", web.FlashDanger, "wrong current password")
	case errors.Is(err, ErrNotFound):
		web.FlashRedirect(w, http.StatusNotFound, "/", web.FlashWarning, "record not found")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Index is the admin user listing.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := h.Repo.FindAllPaginated(r.Context(), page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.JSON(w, http.StatusOK, result)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a, err := h.Repo.FindOneByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil {
		web.FlashRedirect(w, http.StatusNotFound, "/api/users", web.FlashWarning, "record not found")
		return
	}
	web.JSON(w, http.StatusOK, a)
}

type adminEditRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	RoleID   int    `json:"role_id"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a, err := h.Repo.FindOneByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil {
		web.FlashRedirect(w, http.StatusNotFound, "/api/users", web.FlashWarning, "record not found")
		return
	}

	var req adminEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	errs := map[string]string{}
	validateLength(errs, "login", req.Login)
	validateLength(errs, "name", req.Name)
	validateLength(errs, "surname", req.Surname)
	validateEmail(errs, req.Email)
	if req.RoleID != RoleAdmin && req.RoleID != RoleUser {
		errs["role_id"] = "unknown role"
	}
	if len(errs) > 0 {
		web.FieldErrors(w, errs)
		return
	}

	if free, err := h.Repo.UniqueLogin(r.Context(), req.Login, a.UserID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	} else if !free {
		web.FieldErrors(w, map[string]string{"login": "login already taken"})
		return
	}
	if free, err := h.Repo.UniqueEmail(r.Context(), req.Email, a.UserID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	} else if !free {
		web.FieldErrors(w, map[string]string{"email": "email already taken"})
		return
	}

	a.Login = req.Login
	a.Name = req.Name
	a.Surname = req.Surname
	a.Email = req.Email

	hashed := ""
	if req.Password != "" {
		var hashErr error
		hashed, hashErr = hashPassword(req.Password)
		if hashErr != nil {
			http.Error(w, hashErr.Error(), http.StatusInternalServerError)
			return
		}
	}

	if err := h.Repo.Update(r.Context(), a, hashed, req.RoleID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/users", web.FlashSuccess, "record saved")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a, err := h.Repo.FindOneByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if a == nil {
		web.FlashRedirect(w, http.StatusNotFound, "/api/users", web.FlashWarning, "record not found")
		return
	}

	// The bootstrap admin stays.
	if a.UserID == 1 {
		web.FlashRedirect(w, http.StatusOK, "/api/users", web.FlashWarning, "this user cannot be deleted")
		return
	}

	if err := h.Repo.Delete(r.Context(), a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	web.FlashRedirect(w, http.StatusOK, "/api/users", web.FlashSuccess, "record deleted")
}

func validateRegistration(req *RegisterRequest) map[string]string {
	errs := map[string]string{}
	validateLength(errs, "login", req.Login)
	validateLength(errs, "name", req.Name)
	validateLength(errs, "surname", req.Surname)
	validateEmail(errs, req.Email)
	if len(req.Password) < 6 {
		errs["password"] = "must be at least 6 characters"
	}
	return errs
}

func validateLength(errs map[string]string, field, value string) {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		errs[field] = "must not be blank"
	case len(v) < 3:
		errs[field] = "must be at least 3 characters"
	case len(v) > 45:
		errs[field] = "must be at most 45 characters"
	}
}

func validateEmail(errs map[string]string, email string) {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || len(email) > 190 {
		errs["email"] = "invalid email address"
	}
}
