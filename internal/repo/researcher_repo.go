package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"research-cms-server/internal/models"
)

type ResearcherRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

type ResearcherFilters struct {
	Search        string
	Field         string
	PublishedOnly bool
	SortBy        string
	SortDir       string
	Page          int
	PerPage       int
}

func NewResearcherRepo(pool *pgxpool.Pool, timeout time.Duration) *ResearcherRepo {
	return &ResearcherRepo{pool: pool, timeout: timeout}
}

const researcherColumns = `id, name, title, field, bio, email, photo_url,
	display_rank, is_published, created_at, updated_at`

func (r *ResearcherRepo) Create(ctx context.Context, res *models.Researcher) (*models.Researcher, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO researchers (name, title, field, bio, email, photo_url, display_rank, is_published)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at
	`,
		res.Name,
		res.Title,
		res.Field,
		res.Bio,
		res.Email,
		res.PhotoURL,
		res.DisplayRank,
		res.IsPublished,
	)

	if err := row.Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert researcher: %w", err)
	}
	return res, nil
}

func (r *ResearcherRepo) GetByID(ctx context.Context, id int64) (*models.Researcher, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM researchers WHERE id = $1
	`, researcherColumns), id)
	return scanResearcher(row)
}

func (r *ResearcherRepo) Update(ctx context.Context, res *models.Researcher) (*models.Researcher, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE researchers
		SET name = $1, title = $2, field = $3, bio = $4, email = $5,
			photo_url = $6, display_rank = $7, is_published = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING %s
	`, researcherColumns),
		res.Name,
		res.Title,
		res.Field,
		res.Bio,
		res.Email,
		res.PhotoURL,
		res.DisplayRank,
		res.IsPublished,
		res.ID,
	)
	return scanResearcher(row)
}

func (r *ResearcherRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx, "DELETE FROM researchers WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete researcher: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ResearcherRepo) List(ctx context.Context, filters ResearcherFilters) ([]models.Researcher, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	whereSQL, args := buildResearcherFilters(filters)

	sortColumn := mapResearcherSortColumn(filters.SortBy)
	sortDir := "ASC"
	if strings.ToLower(filters.SortDir) == "desc" {
		sortDir = "DESC"
	}

	limit := filters.PerPage
	if limit <= 0 {
		limit = 10
	}
	offset := (filters.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM researchers
		%s
		ORDER BY %s %s
		LIMIT %d OFFSET %d
	`, researcherColumns, whereSQL, sortColumn, sortDir, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list researchers: %w", err)
	}
	defer rows.Close()

	var results []models.Researcher
	for rows.Next() {
		res, err := scanResearcher(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan researcher: %w", err)
		}
		results = append(results, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate researchers: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM researchers %s`, whereSQL)
	row := r.pool.QueryRow(ctx, countQuery, args...)
	var total int64
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count researchers: %w", err)
	}

	return results, total, nil
}

func scanResearcher(row pgx.Row) (*models.Researcher, error) {
	var res models.Researcher
	if err := row.Scan(
		&res.ID,
		&res.Name,
		&res.Title,
		&res.Field,
		&res.Bio,
		&res.Email,
		&res.PhotoURL,
		&res.DisplayRank,
		&res.IsPublished,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func buildResearcherFilters(filters ResearcherFilters) (string, []any) {
	clauses := []string{"WHERE 1=1"}
	args := []any{}
	index := 1

	if filters.Search != "" {
		clauses = append(clauses, fmt.Sprintf("AND (name ILIKE $%d OR title ILIKE $%d)", index, index))
		args = append(args, "%"+filters.Search+"%")
		index++
	}

	if filters.Field != "" {
		clauses = append(clauses, fmt.Sprintf("AND field = $%d", index))
		args = append(args, filters.Field)
		index++
	}

	if filters.PublishedOnly {
		clauses = append(clauses, "AND is_published = TRUE")
	}

	return strings.Join(clauses, "\n"), args
}

func mapResearcherSortColumn(sortBy string) string {
	switch strings.ToLower(sortBy) {
	case "name":
		return "name"
	case "field":
		return "field"
	case "created":
		return "created_at"
	default:
		return "display_rank"
	}
}
