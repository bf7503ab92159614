package blog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

type memoryRecord struct {
	post Post
	seq  uint64
}

// MemoryRepository keeps posts in process memory. Every method is atomic for a
// single record and returns copies, mirroring what a database driver hands out.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	seq     uint64
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]memoryRecord)}
}

// FindByID fetches a single post.
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Post{}, shared.ErrNotFound
	}
	return rec.post, nil
}

// FindAll returns the posts matching filter, newest first.
func (r *MemoryRepository) FindAll(ctx context.Context, filter Filter) ([]Post, error) {
	r.mu.RLock()
	matched := make([]memoryRecord, 0, len(r.records))
	for _, rec := range r.records {
		if filter.Matches(rec.post) {
			matched = append(matched, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})
	posts := make([]Post, len(matched))
	for i, rec := range matched {
		posts[i] = rec.post
	}
	return posts, nil
}

// Insert stores a new post.
func (r *MemoryRepository) Insert(ctx context.Context, post Post) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[post.ID]; exists {
		return Post{}, fmt.Errorf("%w: post %s already exists", shared.ErrConflict, post.ID)
	}
	r.seq++
	r.records[post.ID] = memoryRecord{post: post, seq: r.seq}
	return post, nil
}

// Save writes title, content and UpdatedAt of post.
func (r *MemoryRepository) Save(ctx context.Context, post Post) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[post.ID]
	if !ok {
		return Post{}, shared.ErrNotFound
	}
	rec.post.Title = post.Title
	rec.post.Content = post.Content
	rec.post.UpdatedAt = post.UpdatedAt
	r.records[post.ID] = rec
	return rec.post, nil
}

// ConsumeLatch clears the delete latch of the post with id.
func (r *MemoryRepository) ConsumeLatch(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	rec.post.CanDelete = false
	r.records[id] = rec
	return nil
}

// Remove deletes post.
func (r *MemoryRepository) Remove(ctx context.Context, post Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[post.ID]; !ok {
		return shared.ErrNotFound
	}
	delete(r.records, post.ID)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
