package category

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-classified/internal/pagination"
)

// fakeStore keeps the repository's upsert contract: a row with an id updates
// in place, a row without gets a generated id and a new slot.
type fakeStore struct {
	rows   map[int]Category
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[int]Category{}, nextID: 1}
}

func (f *fakeStore) FindAll(ctx context.Context) ([]Category, error) {
	var out []Category
	for id := 1; id < f.nextID; id++ {
		if c, ok := f.rows[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) FindAllPaginated(ctx context.Context, page int) (*pagination.Page[Category], error) {
	rows, _ := f.FindAll(ctx)
	fetch := func(ctx context.Context, limit, offset int) ([]Category, error) {
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

func (f *fakeStore) FindOneByID(ctx context.Context, id int) (*Category, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeStore) Save(ctx context.Context, c *Category) error {
	if c.ID == 0 {
		c.ID = f.nextID
		f.nextID++
	}
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, c *Category) error {
	delete(f.rows, c.ID)
	return nil
}

func testRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/categories", h.Index)
	r.Get("/api/categories/all", h.All)
	r.Post("/api/categories", h.Add)
	r.Put("/api/categories/{id}", h.Edit)
	r.Delete("/api/categories/{id}", h.Delete)
	return r
}

func TestAddInsertsWithGeneratedID(t *testing.T) {
	store := newFakeStore()
	router := testRouter(NewHandler(store))

	req := httptest.NewRequest("POST", "/api/categories", strings.NewReader(`{"name":"Bikes"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "Bikes", store.rows[1].Name)

	// The generated id makes the row retrievable.
	c, err := store.FindOneByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 1, c.ID)
}

func TestEditUpdatesInPlace(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(context.Background(), &Category{Name: "Bikes"}))
	router := testRouter(NewHandler(store))

	req := httptest.NewRequest("PUT", "/api/categories/1", strings.NewReader(`{"name":"Cars"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// Still one row, same id, new name.
	require.Len(t, store.rows, 1)
	assert.Equal(t, "Cars", store.rows[1].Name)
}

func TestEditUnknownCategory(t *testing.T) {
	store := newFakeStore()
	router := testRouter(NewHandler(store))

	req := httptest.NewRequest("PUT", "/api/categories/9", strings.NewReader(`{"name":"Cars"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "record not found")
}

func TestDeleteRemovesRow(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(context.Background(), &Category{Name: "Bikes"}))
	router := testRouter(NewHandler(store))

	req := httptest.NewRequest("DELETE", "/api/categories/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.rows)
}

func TestValidateName(t *testing.T) {
	assert.Equal(t, "must not be blank", validateName(""))
	assert.Equal(t, "must not be blank", validateName("   "))
	assert.Equal(t, "must be at least 3 characters", validateName("ab"))
	assert.Equal(t, "must be at most 45 characters", validateName(strings.Repeat("x", 46)))
	assert.Empty(t, validateName("abc"))
	assert.Empty(t, validateName(strings.Repeat("x", 45)))
	assert.Empty(t, validateName("  Bikes  "))
}
