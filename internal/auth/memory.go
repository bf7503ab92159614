package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// MemoryRepository keeps accounts in process memory. It backs the memory storage
// driver and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]User), byEmail: make(map[string]string)}
}

// FindByEmail fetches a user by email.
func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

// FindByID fetches a user by identifier.
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

// Create stores the user unless the email is already registered.
func (r *MemoryRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return fmt.Errorf("%w: email already registered", shared.ErrConflict)
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

// DeleteAll drops every account.
func (r *MemoryRepository) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.byID))
	r.byID = make(map[string]User)
	r.byEmail = make(map[string]string)
	return n, nil
}

var _ Repository = (*MemoryRepository)(nil)
