// Package feed computes per-user timelines with fan-out-on-read: one
// bounded, sorted post query per followed author, merged at read time.
// Nothing is cached or pre-materialized; every read recomputes from the
// store. This trades read cost for simplicity and only suits small follow
// graphs.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Moustapha2526/TinyIsnta/internal/social"
)

const (
	// DefaultLimit is the timeline length used when the caller gives none.
	DefaultLimit = 20

	// MaxLimit is the largest timeline a caller may request.
	MaxLimit = 100
)

// ErrInvalidLimit is returned for limits outside [1, MaxLimit].
var ErrInvalidLimit = errors.New("feed: limit out of range")

// Clamp forces a requested limit into [1, MaxLimit].
func Clamp(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Service aggregates timelines from the social graph and post stores.
type Service struct {
	graph *social.Graph
	posts *social.Posts
}

// NewService creates a timeline aggregator.
func NewService(graph *social.Graph, posts *social.Posts) *Service {
	return &Service{graph: graph, posts: posts}
}

// GetTimeline returns the limit most recent posts authored by user or by
// anyone user follows, newest first.
//
// One capped query runs per author; capping at limit is safe because no
// single author can contribute more than limit posts to a top-limit merge.
// The queries are independent reads and run concurrently; the final sort is
// deterministic (created descending, post id as tie breaker), so the result
// never depends on completion order. Any single author query failure aborts
// the whole read: a silently partial timeline would be indistinguishable
// from a complete one.
func (s *Service) GetTimeline(ctx context.Context, user string, limit int) ([]social.Post, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	u, err := s.graph.Get(ctx, user)
	if err != nil {
		return nil, err
	}

	// The user always sees their own posts.
	authors := make([]string, 0, len(u.Follows)+1)
	seen := map[string]bool{user: true}
	authors = append(authors, user)
	for _, f := range u.Follows {
		if !seen[f] {
			seen[f] = true
			authors = append(authors, f)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		merged []social.Post
		wg     sync.WaitGroup
	)
	errs := make(chan error, len(authors))

	for _, author := range authors {
		wg.Add(1)
		go func(author string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := s.posts.ListByAuthor(ctx, author, limit)
			if err != nil {
				errs <- fmt.Errorf("timeline query for %q: %w", author, err)
				cancel()
				return
			}
			mu.Lock()
			merged = append(merged, batch...)
			mu.Unlock()
		}(author)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Created != merged[j].Created {
			return merged[i].Created > merged[j].Created
		}
		return merged[i].ID < merged[j].ID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}
