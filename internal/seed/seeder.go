// Package seed populates the store with a reproducible benchmark dataset:
// users, follow edges, and posts, written in store-limit-sized batches.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/Moustapha2526/TinyIsnta/internal/social"
	"github.com/Moustapha2526/TinyIsnta/store"
)

// ErrInvalidParams is returned before any store access when parameters are
// out of range.
var ErrInvalidParams = errors.New("seed: invalid parameters")

// Params controls one seeding run.
type Params struct {
	// Users is the number of users to target (required, > 0).
	Users int

	// PostsPerUser is the number of posts generated per user.
	PostsPerUser int

	// FolloweesPerUser is the follow count sampled per user, capped at the
	// number of other users.
	FolloweesPerUser int

	// Prefix builds usernames as prefix + 1-based index. Default "user".
	Prefix string

	// Seed makes the run reproducible. Zero means a time-based source.
	Seed int64

	// Clean wipes all users and posts before seeding.
	Clean bool

	// DryRun logs the full plan without performing any store mutation.
	DryRun bool
}

func (p *Params) validate() error {
	if p.Prefix == "" {
		p.Prefix = "user"
	}
	if p.Users <= 0 {
		return fmt.Errorf("%w: users must be positive, got %d", ErrInvalidParams, p.Users)
	}
	if p.PostsPerUser < 0 {
		return fmt.Errorf("%w: posts per user must not be negative, got %d", ErrInvalidParams, p.PostsPerUser)
	}
	if p.FolloweesPerUser < 0 {
		return fmt.Errorf("%w: followees per user must not be negative, got %d", ErrInvalidParams, p.FolloweesPerUser)
	}
	return nil
}

// Result reports what a run did (or, for a dry run, would have done).
type Result struct {
	UsersTargeted int `json:"users_total"`
	UsersCreated  int `json:"users_created"`
	PostsCreated  int `json:"posts_created"`
	UsersWiped    int `json:"users_wiped,omitempty"`
	PostsWiped    int `json:"posts_wiped,omitempty"`
}

// Pipeline seeds the social dataset. Steps run strictly in order (wipe,
// users, follows, posts) because each step reads what the previous one
// wrote. Only the user-creation step is idempotent; re-running follows and
// posts reshuffles edges and duplicates posts.
type Pipeline struct {
	store store.Store
	graph *social.Graph
	posts *social.Posts
	log   zerolog.Logger

	// now is injected for deterministic tests.
	now func() time.Time
}

// NewPipeline wires a seeding pipeline onto a document store.
func NewPipeline(s store.Store, graph *social.Graph, posts *social.Posts, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store: s,
		graph: graph,
		posts: posts,
		log:   log,
		now:   time.Now,
	}
}

// Usernames derives the n seeded usernames for a prefix (1-based index).
func Usernames(prefix string, n int) []string {
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("%s%d", prefix, i))
	}
	return names
}

// Run executes the pipeline. On a partial batch failure the returned Result
// still counts the units durably written before the error.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	source := params.Seed
	if source == 0 {
		source = p.now().UnixNano()
	}
	rng := rand.New(rand.NewSource(source))

	names := Usernames(params.Prefix, params.Users)
	result := &Result{UsersTargeted: params.Users}

	p.log.Info().
		Int("users", params.Users).
		Int("posts_per_user", params.PostsPerUser).
		Int("followees_per_user", params.FolloweesPerUser).
		Str("prefix", params.Prefix).
		Int64("seed", params.Seed).
		Bool("clean", params.Clean).
		Bool("dry_run", params.DryRun).
		Msg("seeding plan")

	if params.Clean && !params.DryRun {
		users, posts, err := p.Wipe(ctx)
		result.UsersWiped = users
		result.PostsWiped = posts
		if err != nil {
			return result, err
		}
	}

	created, err := p.ensureUsers(ctx, names, params.DryRun)
	result.UsersCreated = created
	if err != nil {
		return result, err
	}
	p.log.Info().Int("created", created).Msg("users ensured")

	if params.DryRun {
		p.log.Info().Int("per_user", params.FolloweesPerUser).Msg("would assign followees")
	} else if err := p.graph.AssignFollowees(ctx, names, params.FolloweesPerUser, rng); err != nil {
		return result, err
	} else {
		p.log.Info().Int("per_user", params.FolloweesPerUser).Msg("followees assigned")
	}

	posted, err := p.createPosts(ctx, names, params.PostsPerUser, params.DryRun)
	result.PostsCreated = posted
	if err != nil {
		return result, err
	}
	p.log.Info().Int("created", posted).Msg("posts created")

	return result, nil
}

// Wipe deletes all users and all posts, reporting how many of each were
// removed before any failure.
func (p *Pipeline) Wipe(ctx context.Context) (usersDeleted, postsDeleted int, err error) {
	usersDeleted, err = p.wipe(ctx, social.KindUser)
	if err != nil {
		return usersDeleted, 0, err
	}
	p.log.Info().Str("kind", social.KindUser).Int("deleted", usersDeleted).Msg("wiped")

	postsDeleted, err = p.wipe(ctx, social.KindPost)
	if err != nil {
		return usersDeleted, postsDeleted, err
	}
	p.log.Info().Str("kind", social.KindPost).Int("deleted", postsDeleted).Msg("wiped")
	return usersDeleted, postsDeleted, nil
}

// wipe deletes every document of a kind, paging the key space in
// delete-batch-sized pages so memory use stays bounded regardless of
// dataset size. Each page is its own batch; a failure leaves earlier pages
// deleted.
func (p *Pipeline) wipe(ctx context.Context, kind string) (int, error) {
	deleted := 0
	cursor := ""
	for {
		keys, next, err := p.store.Keys(ctx, kind, cursor, store.MaxBatchDelete)
		if err != nil {
			return deleted, fmt.Errorf("wipe %s after %d deletions: %w", kind, deleted, err)
		}
		if len(keys) == 0 {
			return deleted, nil
		}
		if err := p.store.DeleteMulti(ctx, kind, keys); err != nil {
			return deleted, fmt.Errorf("wipe %s after %d deletions: %w", kind, deleted, err)
		}
		deleted += len(keys)
		if next == "" {
			return deleted, nil
		}
		cursor = next
	}
}

// ensureUsers creates the missing users only, in one bulk lookup plus
// chunked writes. This is the run's idempotency anchor: re-running without
// a wipe never duplicates users.
func (p *Pipeline) ensureUsers(ctx context.Context, names []string, dry bool) (int, error) {
	existing, err := p.graph.GetMulti(ctx, names)
	if err != nil {
		return 0, err
	}

	missing := make([]*social.User, 0)
	for i, u := range existing {
		if u == nil {
			missing = append(missing, &social.User{Name: names[i], Follows: []string{}})
		}
	}
	if dry || len(missing) == 0 {
		return len(missing), nil
	}

	if err := p.graph.PutMulti(ctx, missing); err != nil {
		var partial *store.PartialError
		if errors.As(err, &partial) {
			return partial.Done, err
		}
		return 0, err
	}
	return len(missing), nil
}

// createPosts generates PostsPerUser posts for every user, buffering drafts
// and flushing whenever the buffer reaches the store's batch-write size.
// A single global sequence offsets each post's timestamp by one millisecond
// from a common base, making the ordering total and collision-free across
// the whole run.
func (p *Pipeline) createPosts(ctx context.Context, names []string, perUser int, dry bool) (int, error) {
	total := len(names) * perUser
	if total == 0 {
		return 0, nil
	}
	if dry {
		return total, nil
	}

	base := p.now().UTC()
	seq := 0
	written := 0
	buf := make([]social.Post, 0, store.MaxBatchPut)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		n, err := p.posts.BulkCreate(ctx, buf)
		written += n
		if err != nil {
			cause := err
			var partial *store.PartialError
			if errors.As(err, &partial) {
				cause = partial.Err
			}
			return &store.PartialError{Op: "seed posts", Done: written, Total: total, Err: cause}
		}
		buf = buf[:0]
		return nil
	}

	for _, author := range names {
		for j := 0; j < perUser; j++ {
			buf = append(buf, social.Post{
				Author:  author,
				Content: fmt.Sprintf("Seed post %d by %s", j+1, author),
				Created: base.Add(-time.Duration(seq) * time.Millisecond).UnixNano(),
			})
			seq++
			if len(buf) == store.MaxBatchPut {
				if err := flush(); err != nil {
					return written, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}
