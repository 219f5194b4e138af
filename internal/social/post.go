package social

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/Moustapha2526/TinyIsnta/store"
)

// Post is one immutable feed item. Created holds UnixNano so that ordering
// stays total even when posts are generated faster than the store's native
// timestamp resolution.
type Post struct {
	ID      string `dynamodbav:"-"`
	Author  string `dynamodbav:"author"`
	Content string `dynamodbav:"content"`
	Created int64  `dynamodbav:"created"`
}

// CreatedTime returns the creation timestamp as a time.Time in UTC.
func (p Post) CreatedTime() time.Time {
	return time.Unix(0, p.Created).UTC()
}

// Posts provides access to post documents.
type Posts struct {
	store     store.Store
	batchSize int
}

// NewPosts creates a Posts store chunking bulk writes to the store's
// batch-write limit.
func NewPosts(s store.Store) *Posts {
	return &Posts{store: s, batchSize: store.MaxBatchPut}
}

// Create appends a single post. The author must exist by convention; it is
// not verified here.
func (p *Posts) Create(ctx context.Context, author, content string, created time.Time) (*Post, error) {
	post := Post{
		ID:      store.NewKey(),
		Author:  author,
		Content: content,
		Created: created.UnixNano(),
	}
	doc, err := postToDoc(post)
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(ctx, *doc); err != nil {
		return nil, err
	}
	return &post, nil
}

// BulkCreate writes drafts in fixed-size chunks, assigning ids to drafts
// that lack one. Chunks commit independently: on a mid-run failure the
// earlier chunks stay durably written and the returned PartialError reports
// how many posts made it. No rollback.
func (p *Posts) BulkCreate(ctx context.Context, drafts []Post) (int, error) {
	written := 0
	for start := 0; start < len(drafts); start += p.batchSize {
		end := min(start+p.batchSize, len(drafts))

		docs := make([]store.Document, 0, end-start)
		for i := start; i < end; i++ {
			if drafts[i].ID == "" {
				drafts[i].ID = store.NewKey()
			}
			doc, err := postToDoc(drafts[i])
			if err != nil {
				return written, err
			}
			docs = append(docs, *doc)
		}
		if err := p.store.PutMulti(ctx, docs); err != nil {
			return written, &store.PartialError{Op: "bulk create posts", Done: written, Total: len(drafts), Err: err}
		}
		written = end
	}
	return written, nil
}

// ListByAuthor returns the author's most recent posts, newest first,
// capped at limit.
func (p *Posts) ListByAuthor(ctx context.Context, author string, limit int) ([]Post, error) {
	docs, err := p.store.Query(ctx, store.Query{
		Kind:       KindPost,
		Eq:         store.Filter{Field: "author", Value: author},
		OrderBy:    "created",
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(docs))
	for i := range docs {
		post, err := docToPost(&docs[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

func postToDoc(p Post) (*store.Document, error) {
	attrs, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal post %q: %w", p.ID, err)
	}
	return &store.Document{Kind: KindPost, Key: p.ID, Attrs: attrs}, nil
}

func docToPost(doc *store.Document) (*Post, error) {
	var p Post
	if err := attributevalue.UnmarshalMap(doc.Attrs, &p); err != nil {
		return nil, fmt.Errorf("unmarshal post %q: %w", doc.Key, err)
	}
	p.ID = doc.Key
	return &p, nil
}
