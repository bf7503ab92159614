// Package blog holds blog posts and the ownership rules that guard their mutation.
package blog

import "time"

// Post is a blog entry. AuthorEmail is the ownership key and never changes after
// creation; CanDelete is a one-shot latch that is cleared right before removal.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"authorEmail"`
	CanDelete   bool      `json:"canDelete"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries the client supplied fields of a new post.
type CreateInput struct {
	Title   string
	Content string
}

// UpdateInput carries a partial update. Empty fields keep their stored value.
type UpdateInput struct {
	Title   string
	Content string
}

// Filter selects which posts List returns.
type Filter struct {
	authorEmail string
	byAuthor    bool
}

// All selects every post.
func All() Filter {
	return Filter{}
}

// ByAuthorEmail selects the posts owned by email.
func ByAuthorEmail(email string) Filter {
	return Filter{authorEmail: email, byAuthor: true}
}

// AuthorEmail reports the author restriction, if any.
func (f Filter) AuthorEmail() (string, bool) {
	return f.authorEmail, f.byAuthor
}

// Matches reports whether p passes the filter.
func (f Filter) Matches(p Post) bool {
	return !f.byAuthor || p.AuthorEmail == f.authorEmail
}

func (f Filter) cacheKey() []string {
	if f.byAuthor {
		return []string{"author", f.authorEmail}
	}
	return []string{"all"}
}
