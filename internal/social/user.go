// Package social owns the User and Post entities and their store access.
//
// Users are keyed directly by username; the follow set lives inline on the
// user document as a sorted, deduplicated list that never contains the
// user's own name. Posts are immutable and keyed by an opaque generated id.
package social

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/Moustapha2526/TinyIsnta/store"
)

// Document kinds used by the social layer.
const (
	KindUser = "User"
	KindPost = "Post"
)

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("social: user not found")

// User is a social graph node. The username is globally unique and doubles
// as the storage key.
type User struct {
	Name    string   `dynamodbav:"-"`
	Follows []string `dynamodbav:"follows"`
}

// Graph provides access to users and their follow edges.
type Graph struct {
	store store.Store
}

// NewGraph creates a Graph on top of a document store.
func NewGraph(s store.Store) *Graph {
	return &Graph{store: s}
}

// Get loads a user by name, returning ErrUserNotFound if absent.
func (g *Graph) Get(ctx context.Context, name string) (*User, error) {
	doc, err := g.store.Get(ctx, KindUser, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrUserNotFound, name)
		}
		return nil, err
	}
	return docToUser(doc)
}

// GetMulti loads users by name, chunking the lookup to the store's batch
// limit. Absent users come back as nil entries, in input order.
func (g *Graph) GetMulti(ctx context.Context, names []string) ([]*User, error) {
	users := make([]*User, 0, len(names))
	for start := 0; start < len(names); start += store.MaxBatchGet {
		end := min(start+store.MaxBatchGet, len(names))

		docs, err := g.store.GetMulti(ctx, KindUser, names[start:end])
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if doc == nil {
				users = append(users, nil)
				continue
			}
			u, err := docToUser(doc)
			if err != nil {
				return nil, err
			}
			users = append(users, u)
		}
	}
	return users, nil
}

// EnsureUser creates the user with an empty follow set if and only if it is
// absent. It reports whether a user was created. Two concurrent calls for
// the same new name may both write; the converged state is identical.
func (g *Graph) EnsureUser(ctx context.Context, name string) (bool, error) {
	_, err := g.store.Get(ctx, KindUser, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	doc, err := userToDoc(&User{Name: name, Follows: []string{}})
	if err != nil {
		return false, err
	}
	if err := g.store.Put(ctx, *doc); err != nil {
		return false, err
	}
	return true, nil
}

// Follow appends target to user's follow set and persists the full updated
// set. Self-follows and duplicates are silent no-ops. The target must exist
// at assignment time. Read-modify-write: a concurrent Follow on the same
// user can lose one update (accepted, last write wins).
func (g *Graph) Follow(ctx context.Context, user, target string) error {
	if user == target {
		return nil
	}

	u, err := g.Get(ctx, user)
	if err != nil {
		return err
	}
	for _, name := range u.Follows {
		if name == target {
			return nil
		}
	}

	if _, err := g.Get(ctx, target); err != nil {
		return err
	}

	u.Follows = append(u.Follows, target)
	sort.Strings(u.Follows)

	doc, err := userToDoc(u)
	if err != nil {
		return err
	}
	return g.store.Put(ctx, *doc)
}

// PutMulti writes users back in store-limit-sized chunks. A chunk failure
// surfaces as a PartialError counting the users already committed.
func (g *Graph) PutMulti(ctx context.Context, users []*User) error {
	written := 0
	for start := 0; start < len(users); start += store.MaxBatchPut {
		end := min(start+store.MaxBatchPut, len(users))

		docs := make([]store.Document, 0, end-start)
		for _, u := range users[start:end] {
			doc, err := userToDoc(u)
			if err != nil {
				return err
			}
			docs = append(docs, *doc)
		}
		if err := g.store.PutMulti(ctx, docs); err != nil {
			return &store.PartialError{Op: "bulk write users", Done: written, Total: len(users), Err: err}
		}
		written = end
	}
	return nil
}

// AssignFollowees overwrites every named user's follow set with a
// deterministic sample of exactly min(perUser, len(names)-1) distinct other
// names, drawn from the injected random source, then bulk-writes the users.
func (g *Graph) AssignFollowees(ctx context.Context, names []string, perUser int, rng *rand.Rand) error {
	users, err := g.GetMulti(ctx, names)
	if err != nil {
		return err
	}

	updated := make([]*User, 0, len(users))
	for i, u := range users {
		if u == nil {
			// Tolerated: another writer removed the user between steps.
			continue
		}
		u.Follows = sampleFollowees(names, names[i], perUser, rng)
		updated = append(updated, u)
	}
	return g.PutMulti(ctx, updated)
}

// sampleFollowees picks count distinct names excluding self, without
// replacement, and returns them sorted. The draw consumes the rng in a
// fixed order so that equal seeds reproduce equal graphs.
func sampleFollowees(names []string, self string, count int, rng *rand.Rand) []string {
	others := make([]string, 0, len(names))
	for _, n := range names {
		if n != self {
			others = append(others, n)
		}
	}
	if count > len(others) {
		count = len(others)
	}
	if count <= 0 {
		return []string{}
	}

	picked := make([]string, 0, count)
	for _, idx := range rng.Perm(len(others))[:count] {
		picked = append(picked, others[idx])
	}
	sort.Strings(picked)
	return picked
}

func userToDoc(u *User) (*store.Document, error) {
	attrs, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user %q: %w", u.Name, err)
	}
	return &store.Document{Kind: KindUser, Key: u.Name, Attrs: attrs}, nil
}

func docToUser(doc *store.Document) (*User, error) {
	var u User
	if err := attributevalue.UnmarshalMap(doc.Attrs, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user %q: %w", doc.Key, err)
	}
	u.Name = doc.Key
	if u.Follows == nil {
		u.Follows = []string{}
	}
	return &u, nil
}
