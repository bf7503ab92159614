package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// MutationRecorder counts successful post mutations.
type MutationRecorder interface {
	PostMutated(action string)
}

// Service enforces authorship and the delete latch on every post mutation.
// Reads are public; mutations require a verified identity.
type Service struct {
	repo     Repository
	cache    FeedCache
	recorder MutationRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceConfig groups optional collaborators of Service.
type ServiceConfig struct {
	Cache    FeedCache
	Recorder MutationRecorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, cache: cfg.Cache, recorder: cfg.Recorder, logger: logger, now: now}
}

// Create stores a post authored by identity. Author fields are taken from the
// identity only, never from client input.
func (s *Service) Create(ctx context.Context, identity *shared.Identity, input CreateInput) (Post, error) {
	if identity == nil {
		return Post{}, shared.ErrUnauthenticated
	}
	if strings.TrimSpace(input.Title) == "" {
		return Post{}, shared.Validationf("title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return Post{}, shared.Validationf("content is required")
	}
	now := s.now().UTC()
	post, err := s.repo.Insert(ctx, Post{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Content:     input.Content,
		Author:      identity.Name,
		AuthorEmail: identity.Email,
		CanDelete:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Post{}, err
	}
	s.mutated(ctx, "create")
	return post, nil
}

// Update applies the non-empty fields of input to a post owned by identity.
// The delete latch is left as stored.
func (s *Service) Update(ctx context.Context, identity *shared.Identity, id string, input UpdateInput) (Post, error) {
	if identity == nil {
		return Post{}, shared.ErrUnauthenticated
	}
	post, err := s.find(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if post.AuthorEmail != identity.Email {
		return Post{}, fmt.Errorf("%w: not authorized to update this blog", shared.ErrForbidden)
	}

	// an empty value cannot clear a field; it keeps what is stored
	if strings.TrimSpace(input.Title) != "" {
		post.Title = input.Title
	}
	if strings.TrimSpace(input.Content) != "" {
		post.Content = input.Content
	}
	post.UpdatedAt = s.now().UTC()

	saved, err := s.repo.Save(ctx, post)
	if err != nil {
		return Post{}, s.storageErr(id, err)
	}
	s.mutated(ctx, "update")
	return saved, nil
}

// Delete removes a post owned by identity. The delete latch is cleared and
// persisted before the record is removed; a request that looked the post up
// before the latch write landed can still get past the check.
func (s *Service) Delete(ctx context.Context, identity *shared.Identity, id string) error {
	if identity == nil {
		return shared.ErrUnauthenticated
	}
	post, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorEmail != identity.Email {
		return fmt.Errorf("%w: not authorized to delete this blog", shared.ErrForbidden)
	}
	if !post.CanDelete {
		return shared.ErrDeleteConsumed
	}

	if err := s.repo.ConsumeLatch(ctx, post.ID); err != nil {
		return s.storageErr(id, err)
	}
	if err := s.repo.Remove(ctx, post); err != nil {
		// the latch write above is visible even though the removal failed
		s.invalidate(ctx, "delete")
		return s.storageErr(id, err)
	}
	s.mutated(ctx, "delete")
	return nil
}

// List returns the posts selected by filter, newest first. Each call queries
// the repository again unless a still valid cached listing exists.
func (s *Service) List(ctx context.Context, filter Filter) ([]Post, error) {
	load := func(ctx context.Context) ([]Post, error) {
		return s.repo.FindAll(ctx, filter)
	}
	if s.cache == nil {
		return load(ctx)
	}
	posts, err := s.cache.Fetch(ctx, filter, load)
	if err != nil {
		s.logger.Warn("feed cache fetch", slog.Any("error", err))
		return load(ctx)
	}
	return posts, nil
}

// Get returns a single post.
func (s *Service) Get(ctx context.Context, id string) (Post, error) {
	return s.find(ctx, id)
}

func (s *Service) find(ctx context.Context, id string) (Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Post{}, notFound(id)
	}
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Post{}, s.storageErr(id, err)
	}
	return post, nil
}

func (s *Service) storageErr(id string, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return notFound(id)
	}
	return err
}

func (s *Service) mutated(ctx context.Context, action string) {
	if s.recorder != nil {
		s.recorder.PostMutated(action)
	}
	s.invalidate(ctx, action)
}

func (s *Service) invalidate(ctx context.Context, action string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("feed cache invalidate", slog.String("action", action), slog.Any("error", err))
	}
}

func notFound(id string) error {
	return fmt.Errorf("blog %s: %w", id, shared.ErrNotFound)
}
