package advert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-classified/internal/middleware"
	"go-classified/internal/pagination"
)

// fakeStore keeps the repository's upsert contract: a row with an id updates
// in place, a row without gets a generated id and a new slot.
type fakeStore struct {
	rows   map[int]Advert
	photos map[int]Photo
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[int]Advert{}, photos: map[int]Photo{}, nextID: 1}
}

func (f *fakeStore) all(active bool) []Advert {
	var out []Advert
	for id := f.nextID - 1; id >= 1; id-- {
		a, ok := f.rows[id]
		if ok && (!active || a.IsActive) {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeStore) page(ctx context.Context, rows []Advert, page int) (*pagination.Page[Advert], error) {
	fetch := func(ctx context.Context, limit, offset int) ([]Advert, error) {
		if offset >= len(rows) {
			return nil, nil
		}
		end := offset + limit
		if end > len(rows) {
			end = len(rows)
		}
		return rows[offset:end], nil
	}
	count := func(ctx context.Context) (int, error) { return len(rows), nil }

	p := pagination.New(fetch, count)
	p.SetCurrentPage(page)
	p.SetMaxPerPage(NumItems)
	return p.CurrentPageResults(ctx)
}

func (f *fakeStore) FindAllPaginated(ctx context.Context, page int) (*pagination.Page[Advert], error) {
	return f.page(ctx, f.all(false), page)
}

func (f *fakeStore) FindAllActivePaginated(ctx context.Context, page int) (*pagination.Page[Advert], error) {
	return f.page(ctx, f.all(true), page)
}

func (f *fakeStore) FindSearchPaginated(ctx context.Context, criteria *SearchCriteria, page int) (*pagination.Page[Advert], error) {
	var out []Advert
	for _, a := range f.all(true) {
		if criteria.Topic == "" || strings.Contains(a.Topic, criteria.Topic) {
			out = append(out, a)
		}
	}
	return f.page(ctx, out, page)
}

func (f *fakeStore) FindOneByID(ctx context.Context, id int) (*Advert, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeStore) Save(ctx context.Context, a *Advert) error {
	if a.ID == 0 {
		a.ID = f.nextID
		f.nextID++
	}
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, a *Advert) error {
	delete(f.rows, a.ID)
	return nil
}

func (f *fakeStore) FindPhotosByAdvert(ctx context.Context, advertID int) ([]Photo, error) {
	var out []Photo
	for _, p := range f.photos {
		if p.AdvertID == advertID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) FindPhotoByID(ctx context.Context, id int) (*Photo, error) {
	p, ok := f.photos[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) SavePhoto(ctx context.Context, p *Photo) error {
	if p.ID == 0 {
		p.ID = f.nextID
		f.nextID++
	}
	f.photos[p.ID] = *p
	return nil
}

func (f *fakeStore) DeletePhoto(ctx context.Context, p *Photo) error {
	delete(f.photos, p.ID)
	return nil
}

type fakeRoles bool

func (f fakeRoles) IsAdmin(ctx context.Context, userID int) bool { return bool(f) }

// identity injects an authenticated caller the way the auth middleware does.
func identity(userID int, login string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserKey, userID)
			ctx = context.WithValue(ctx, middleware.LoginKey, login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func testRouter(h *Handler, userID int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(identity(userID, "tester"))
	r.Post("/api/adverts", h.Add)
	r.Put("/api/adverts/{id}", h.Edit)
	r.Delete("/api/adverts/{id}", h.Delete)
	r.Put("/api/adverts/{id}/activity", h.Activity)
	return r
}

const advertBody = `{"category_id":1,"topic":"Mountain bike","city":"Warsaw","price":350,"type":"sale"}`

func TestAddInsertsWithGeneratedID(t *testing.T) {
	store := newFakeStore()
	router := testRouter(NewHandler(store, fakeRoles(false), nil), 7)

	req := httptest.NewRequest("POST", "/api/adverts", strings.NewReader(advertBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.rows, 1)
	a := store.rows[1]
	assert.Equal(t, 7, a.UserID)
	assert.Equal(t, "Mountain bike", a.Topic)
	assert.True(t, a.IsActive)

	// The generated id makes the row retrievable.
	got, err := store.FindOneByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestEditUpdatesInPlace(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(context.Background(), &Advert{
		UserID: 7, CategoryID: 1, Topic: "Mountain bike", City: "Warsaw",
		Price: 350, Type: TypeSale, IsActive: true,
	}))
	router := testRouter(NewHandler(store, fakeRoles(false), nil), 7)

	body := `{"category_id":1,"topic":"Road bike","city":"Warsaw","price":300,"type":"sale"}`
	req := httptest.NewRequest("PUT", "/api/adverts/1", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// Still one row, same id and owner, new content.
	require.Len(t, store.rows, 1)
	a := store.rows[1]
	assert.Equal(t, 7, a.UserID)
	assert.Equal(t, "Road bike", a.Topic)
	assert.Equal(t, 300.0, a.Price)
}

func TestEditByNonOwnerIsNotFound(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(context.Background(), &Advert{
		UserID: 7, CategoryID: 1, Topic: "Mountain bike", City: "Warsaw",
		Price: 350, Type: TypeSale, IsActive: true,
	}))
	router := testRouter(NewHandler(store, fakeRoles(false), nil), 9)

	req := httptest.NewRequest("PUT", "/api/adverts/1", strings.NewReader(advertBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Mountain bike", store.rows[1].Topic)
}

func TestActivityTogglesViaUpdate(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(context.Background(), &Advert{
		UserID: 7, CategoryID: 1, Topic: "Mountain bike", City: "Warsaw",
		Price: 350, Type: TypeSale, IsActive: true,
	}))
	router := testRouter(NewHandler(store, fakeRoles(false), nil), 7)

	req := httptest.NewRequest("PUT", "/api/adverts/1/activity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.rows, 1)
	assert.False(t, store.rows[1].IsActive)
}

func validRequest() advertRequest {
	return advertRequest{
		CategoryID: 1,
		Topic:      "Mountain bike",
		City:       "Warsaw",
		Price:      350,
		Type:       TypeSale,
	}
}

func TestValidateAdvert(t *testing.T) {
	assert.Empty(t, validateAdvert(&advertRequest{
		CategoryID: 1, Topic: "abc", City: "X", Price: 0, Type: TypeSwap,
	}))

	cases := []struct {
		name   string
		mutate func(*advertRequest)
		field  string
	}{
		{"blank topic", func(r *advertRequest) { r.Topic = "  " }, "topic"},
		{"short topic", func(r *advertRequest) { r.Topic = "ab" }, "topic"},
		{"long topic", func(r *advertRequest) { r.Topic = strings.Repeat("x", 46) }, "topic"},
		{"blank city", func(r *advertRequest) { r.City = "" }, "city"},
		{"long city", func(r *advertRequest) { r.City = strings.Repeat("x", 46) }, "city"},
		{"negative price", func(r *advertRequest) { r.Price = -1 }, "price"},
		{"unknown type", func(r *advertRequest) { r.Type = "rent" }, "type"},
		{"missing category", func(r *advertRequest) { r.CategoryID = 0 }, "category_id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			errs := validateAdvert(&req)
			assert.Contains(t, errs, tc.field)
			assert.Len(t, errs, 1)
		})
	}
}

func TestValidType(t *testing.T) {
	for _, typ := range []string{TypePurchase, TypeSale, TypeReturn, TypeSwap} {
		assert.True(t, ValidType(typ), typ)
	}
	assert.False(t, ValidType(""))
	assert.False(t, ValidType("rent"))
	assert.False(t, ValidType("Sale"))
}

func TestBuildSearchFilter(t *testing.T) {
	where, args := buildSearchFilter(&SearchCriteria{})
	assert.Equal(t, "WHERE a.is_active", where)
	assert.Empty(t, args)

	where, args = buildSearchFilter(&SearchCriteria{
		Topic:      "bike",
		City:       "Warsaw",
		PriceFrom:  10,
		PriceTo:    500,
		Type:       TypeSale,
		CategoryID: 3,
	})
	assert.Equal(t,
		"WHERE a.is_active AND a.topic ILIKE $1 AND a.city ILIKE $2"+
			" AND a.price >= $3 AND a.price <= $4 AND a.type = $5 AND a.category_id = $6",
		where)
	assert.Equal(t, []interface{}{"%bike%", "%Warsaw%", 10.0, 500.0, TypeSale, 3}, args)
}
