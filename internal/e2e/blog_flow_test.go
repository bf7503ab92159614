package e2e

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/app"
	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/client"
	"github.com/inkwell-blog/inkwell/internal/observability"
	"github.com/inkwell-blog/inkwell/internal/shared"
	_ "github.com/inkwell-blog/inkwell/testing"
)

type recordingNotifier struct {
	mu    sync.Mutex
	users []auth.User
}

func (n *recordingNotifier) UserRegistered(_ context.Context, user auth.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, user)
	return nil
}

type stack struct {
	url      string
	notifier *recordingNotifier
}

// newStack serves the full API with memory storage and a miniredis backed
// feed cache.
func newStack(t *testing.T) stack {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &app.Config{
		StorageDriver: app.StorageMemory,
		JWTSecret:     "e2e-secret",
		BcryptCost:    4,
	}
	notifier := &recordingNotifier{}
	handler, err := app.NewHTTPHandler(cfg, app.Infra{
		Redis:    rdb,
		Notifier: notifier,
		Metrics:  observability.NewMetrics(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return stack{url: srv.URL, notifier: notifier}
}

func (s stack) session(t *testing.T) *client.Session {
	t.Helper()
	session, err := client.New(s.url)
	require.NoError(t, err)
	return session
}

func TestRegisterLoginCreate(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	ann := st.session(t)

	_, err := ann.Register(ctx, "Ann", "ann@x.com", "pw1")
	require.NoError(t, err)
	ann.Logout()

	account, err := ann.Login(ctx, "ann@x.com", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, account.Token)

	post, err := ann.CreatePost(ctx, "Hello", "World")
	require.NoError(t, err)
	require.Equal(t, "Ann", post.Author)
	require.Equal(t, "ann@x.com", post.AuthorEmail)
	require.True(t, post.CanDelete)

	require.Len(t, st.notifier.users, 1)
	require.Equal(t, "ann@x.com", st.notifier.users[0].Email)
}

func TestNonAuthorCannotUpdate(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	ann, bob := st.session(t), st.session(t)
	_, err := ann.Register(ctx, "Ann", "ann@x.com", "pw1")
	require.NoError(t, err)
	_, err = bob.Register(ctx, "Bob", "bob@x.com", "pw2")
	require.NoError(t, err)

	post, err := ann.CreatePost(ctx, "Original", "Body")
	require.NoError(t, err)

	_, err = bob.UpdatePost(ctx, post.ID, "Hijacked", "")
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.ErrorIs(t, bob.DeletePost(ctx, post.ID), shared.ErrForbidden)

	stored, err := bob.Post(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "Original", stored.Title)
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	ann := st.session(t)
	_, err := ann.Register(ctx, "Ann", "ann@x.com", "pw1")
	require.NoError(t, err)

	post, err := ann.CreatePost(ctx, "t", "c")
	require.NoError(t, err)
	require.NoError(t, ann.DeletePost(ctx, post.ID))
	require.ErrorIs(t, ann.DeletePost(ctx, post.ID), shared.ErrNotFound)

	feed, err := ann.Feed(ctx)
	require.NoError(t, err)
	require.Empty(t, feed)
}

func TestPartialUpdateKeepsContent(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	ann := st.session(t)
	_, err := ann.Register(ctx, "Ann", "ann@x.com", "pw1")
	require.NoError(t, err)

	post, err := ann.CreatePost(ctx, "Old", "Body")
	require.NoError(t, err)

	updated, err := ann.UpdatePost(ctx, post.ID, "New", "")
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, "Body", updated.Content)

	// the cached feed must reflect the update
	feed, err := ann.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "New", feed[0].Title)
}

func TestFeedsAndLogout(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	ann, bob := st.session(t), st.session(t)
	_, err := ann.Register(ctx, "Ann", "ann@x.com", "pw1")
	require.NoError(t, err)
	_, err = bob.Register(ctx, "Bob", "bob@x.com", "pw2")
	require.NoError(t, err)

	_, err = ann.CreatePost(ctx, "first", "c")
	require.NoError(t, err)
	_, err = bob.CreatePost(ctx, "second", "c")
	require.NoError(t, err)
	_, err = ann.CreatePost(ctx, "third", "c")
	require.NoError(t, err)

	feed, err := bob.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	require.Equal(t, "third", feed[0].Title)

	mine, err := ann.MyPosts(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	profile, err := ann.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ann", profile.Name)

	ann.Logout()
	_, err = ann.MyPosts(ctx)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
	_, err = ann.CreatePost(ctx, "x", "y")
	require.ErrorIs(t, err, shared.ErrUnauthenticated)

	// reads stay public
	feed, err = ann.Feed(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 3)
}

func TestDuplicateRegistrationAndBadLogin(t *testing.T) {
	st := newStack(t)
	ctx := context.Background()
	ann := st.session(t)
	_, err := ann.Register(ctx, "Ann", "ann@x.com", "pw1")
	require.NoError(t, err)

	other := st.session(t)
	_, err = other.Register(ctx, "Imposter", "ann@x.com", "pw9")
	require.ErrorIs(t, err, shared.ErrConflict)
	_, err = other.Login(ctx, "ann@x.com", "wrong")
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
	require.False(t, other.SignedIn())
}
