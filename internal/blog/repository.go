package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Repository defines single-record persistence operations for posts.
// Save writes content only and never touches the delete latch; ConsumeLatch is
// the only write to it. Save, ConsumeLatch and Remove report shared.ErrNotFound
// when the post no longer exists.
type Repository interface {
	FindByID(ctx context.Context, id string) (Post, error)
	FindAll(ctx context.Context, filter Filter) ([]Post, error)
	Insert(ctx context.Context, post Post) (Post, error)
	Save(ctx context.Context, post Post) (Post, error)
	ConsumeLatch(ctx context.Context, id string) error
	Remove(ctx context.Context, post Post) error
}

const postColumns = `id, title, content, author, author_email, can_delete, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByID fetches a single post.
func (r *PGRepository) FindByID(ctx context.Context, id string) (Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

// FindAll returns the posts matching filter, newest first.
func (r *PGRepository) FindAll(ctx context.Context, filter Filter) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	var args []any
	if email, ok := filter.AuthorEmail(); ok {
		query += ` WHERE author_email = $1`
		args = append(args, email)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("blog: list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blog: list posts: %w", err)
	}
	return posts, nil
}

// Insert stores a new post.
func (r *PGRepository) Insert(ctx context.Context, post Post) (Post, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO posts (id, title, content, author, author_email, can_delete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+postColumns,
		post.ID, post.Title, post.Content, post.Author, post.AuthorEmail, post.CanDelete, post.CreatedAt, post.UpdatedAt)
	return scanPost(row)
}

// Save writes title, content and updated_at. The returned post carries the
// latch as currently stored.
func (r *PGRepository) Save(ctx context.Context, post Post) (Post, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE posts SET title = $2, content = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+postColumns,
		post.ID, post.Title, post.Content, post.UpdatedAt)
	return scanPost(row)
}

// ConsumeLatch clears can_delete. It never sets it back.
func (r *PGRepository) ConsumeLatch(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET can_delete = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("blog: consume delete latch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Remove deletes post.
func (r *PGRepository) Remove(ctx context.Context, post Post) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, post.ID)
	if err != nil {
		return fmt.Errorf("blog: delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.AuthorEmail, &p.CanDelete, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, shared.ErrNotFound
		}
		return Post{}, fmt.Errorf("blog: scan post: %w", err)
	}
	return p, nil
}

var _ Repository = (*PGRepository)(nil)
