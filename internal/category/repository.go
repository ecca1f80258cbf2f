package category

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/pkg/errors"

	"go-classified/internal/pagination"
)

// NumItems is the category listing page size.
const NumItems = 5

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindAll(ctx context.Context) ([]Category, error) {
	return r.fetch(ctx, "SELECT id, name FROM si_categories ORDER BY id")
}

func (r *Repository) FindAllPaginated(ctx context.Context, page int) (*pagination.Page[Category], error) {
	fetch := func(ctx context.Context, limit, offset int) ([]Category, error) {
		return r.fetch(ctx, "SELECT id, name FROM si_categories ORDER BY id LIMIT $1 OFFSET $2", limit, offset)
	}
	count := func(ctx context.Context) (int, error) {
		var total int
		err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT id) FROM si_categories").Scan(&total)
		if err != nil {
			return 0, errors.Wrap(err, "count categories")
		}
		return total, nil
	}

	paginator := pagination.New(fetch, count)
	paginator.SetCurrentPage(page)
	paginator.SetMaxPerPage(NumItems)
	return paginator.CurrentPageResults(ctx)
}

func (r *Repository) FindOneByID(ctx context.Context, id int) (*Category, error) {
	c := &Category{}
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM si_categories WHERE id = $1", id).
		Scan(&c.ID, &c.Name)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find category by id")
	}
	return c, nil
}

// Save is an upsert: a row with an id updates, a row without inserts. Forms
// reuse the same path for create and edit, so both live behind one method.
func (r *Repository) Save(ctx context.Context, c *Category) error {
	if c.ID > 0 {
		_, err := r.db.ExecContext(ctx, "UPDATE si_categories SET name = $1 WHERE id = $2", c.Name, c.ID)
		return errors.Wrap(err, "update category")
	}

	err := r.db.QueryRowContext(ctx, "INSERT INTO si_categories (name) VALUES ($1) RETURNING id", c.Name).
		Scan(&c.ID)
	return errors.Wrap(err, "insert category")
}

func (r *Repository) Delete(ctx context.Context, c *Category) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM si_categories WHERE id = $1", c.ID)
	return errors.Wrap(err, "delete category")
}

func (r *Repository) fetch(ctx context.Context, query string, args ...interface{}) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query categories")
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, errors.Wrap(err, "scan category row")
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
