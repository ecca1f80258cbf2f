package advert

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"go-classified/internal/pagination"
)

// NumItems is the advert listing page size.
const NumItems = 10

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const queryAll = `
	SELECT a.id, a.user_id, a.category_id, a.topic, a.city, a.price, a.type,
	       a.is_active, a.created_at, a.modified_at, c.name, u.login
	FROM si_adverts a
	JOIN si_categories c ON c.id = a.category_id
	JOIN si_users u ON u.id = a.user_id
`

func (r *Repository) FindAllPaginated(ctx context.Context, page int) (*pagination.Page[Advert], error) {
	return r.paginate(ctx, page, "", nil)
}

func (r *Repository) FindAllActivePaginated(ctx context.Context, page int) (*pagination.Page[Advert], error) {
	return r.paginate(ctx, page, "WHERE a.is_active", nil)
}

// FindSearchPaginated applies the homepage search filters over active adverts.
func (r *Repository) FindSearchPaginated(ctx context.Context, criteria *SearchCriteria, page int) (*pagination.Page[Advert], error) {
	where, args := buildSearchFilter(criteria)
	return r.paginate(ctx, page, where, args)
}

func (r *Repository) FindOneByID(ctx context.Context, id int) (*Advert, error) {
	rows, err := r.fetch(ctx, queryAll+" WHERE a.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Save is an upsert: a row with an id updates (stamping modified_at), a row
// without inserts with both timestamps set to now.
func (r *Repository) Save(ctx context.Context, a *Advert) error {
	now := time.Now()
	if a.ID > 0 {
		a.ModifiedAt = now
		_, err := r.db.ExecContext(
			ctx,
			`UPDATE si_adverts
			 SET category_id = $1, topic = $2, city = $3, price = $4, type = $5,
			     is_active = $6, modified_at = $7
			 WHERE id = $8`,
			a.CategoryID, a.Topic, a.City, a.Price, a.Type, a.IsActive, a.ModifiedAt, a.ID,
		)
		return errors.Wrap(err, "update advert")
	}

	a.CreatedAt = now
	a.ModifiedAt = now
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO si_adverts
		 (user_id, category_id, topic, city, price, type, is_active, created_at, modified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		a.UserID, a.CategoryID, a.Topic, a.City, a.Price, a.Type, a.IsActive, a.CreatedAt, a.ModifiedAt,
	).Scan(&a.ID)
	return errors.Wrap(err, "insert advert")
}

func (r *Repository) Delete(ctx context.Context, a *Advert) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM si_adverts WHERE id = $1", a.ID)
	return errors.Wrap(err, "delete advert")
}

func (r *Repository) FindPhotosByAdvert(ctx context.Context, advertID int) ([]Photo, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT id, advert_id, COALESCE(title, ''), filepath FROM si_advert_photos WHERE advert_id = $1 ORDER BY id",
		advertID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query advert photos")
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.AdvertID, &p.Title, &p.Filepath); err != nil {
			return nil, errors.Wrap(err, "scan photo row")
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *Repository) FindPhotoByID(ctx context.Context, id int) (*Photo, error) {
	p := &Photo{}
	err := r.db.QueryRowContext(
		ctx,
		"SELECT id, advert_id, COALESCE(title, ''), filepath FROM si_advert_photos WHERE id = $1",
		id,
	).Scan(&p.ID, &p.AdvertID, &p.Title, &p.Filepath)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find photo by id")
	}
	return p, nil
}

func (r *Repository) SavePhoto(ctx context.Context, p *Photo) error {
	err := r.db.QueryRowContext(
		ctx,
		"INSERT INTO si_advert_photos (advert_id, title, filepath) VALUES ($1, $2, $3) RETURNING id",
		p.AdvertID, p.Title, p.Filepath,
	).Scan(&p.ID)
	return errors.Wrap(err, "insert photo")
}

func (r *Repository) DeletePhoto(ctx context.Context, p *Photo) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM si_advert_photos WHERE id = $1", p.ID)
	return errors.Wrap(err, "delete photo")
}

func (r *Repository) paginate(ctx context.Context, page int, where string, args []interface{}) (*pagination.Page[Advert], error) {
	fetch := func(ctx context.Context, limit, offset int) ([]Advert, error) {
		query := fmt.Sprintf(
			"%s %s ORDER BY a.id DESC LIMIT $%d OFFSET $%d",
			queryAll, where, len(args)+1, len(args)+2,
		)
		return r.fetch(ctx, query, append(append([]interface{}{}, args...), limit, offset)...)
	}
	count := func(ctx context.Context) (int, error) {
		query := fmt.Sprintf(
			`SELECT COUNT(DISTINCT a.id) FROM si_adverts a
			 JOIN si_categories c ON c.id = a.category_id
			 JOIN si_users u ON u.id = a.user_id %s`,
			where,
		)
		var total int
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
			return 0, errors.Wrap(err, "count adverts")
		}
		return total, nil
	}

	paginator := pagination.New(fetch, count)
	paginator.SetCurrentPage(page)
	paginator.SetMaxPerPage(NumItems)
	return paginator.CurrentPageResults(ctx)
}

func (r *Repository) fetch(ctx context.Context, query string, args ...interface{}) ([]Advert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query adverts")
	}
	defer rows.Close()

	var adverts []Advert
	for rows.Next() {
		var a Advert
		err := rows.Scan(
			&a.ID, &a.UserID, &a.CategoryID, &a.Topic, &a.City, &a.Price, &a.Type,
			&a.IsActive, &a.CreatedAt, &a.ModifiedAt, &a.CategoryName, &a.Author,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan advert row")
		}
		adverts = append(adverts, a)
	}
	return adverts, rows.Err()
}

// buildSearchFilter turns the optional criteria into a WHERE clause over
// active adverts with matching positional args.
func buildSearchFilter(criteria *SearchCriteria) (string, []interface{}) {
	clauses := []string{"a.is_active"}
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if criteria.Topic != "" {
		add("a.topic ILIKE $%d", "%"+criteria.Topic+"%")
	}
	if criteria.City != "" {
		add("a.city ILIKE $%d", "%"+criteria.City+"%")
	}
	if criteria.PriceFrom > 0 {
		add("a.price >= $%d", criteria.PriceFrom)
	}
	if criteria.PriceTo > 0 {
		add("a.price <= $%d", criteria.PriceTo)
	}
	if criteria.Type != "" {
		add("a.type = $%d", criteria.Type)
	}
	if criteria.CategoryID > 0 {
		add("a.category_id = $%d", criteria.CategoryID)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}
