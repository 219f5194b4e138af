package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Memory is an in-process Store used by tests and the local driver.
// It enforces the same batch limits and query shape as Dynamo.
type Memory struct {
	mu    sync.RWMutex
	kinds map[string]map[string]map[string]types.AttributeValue
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		kinds: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

// Get retrieves a document by key, returning ErrNotFound if missing.
func (m *Memory) Get(ctx context.Context, kind, key string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs, ok := m.kinds[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Kind: kind, Key: key, Attrs: cloneAttrs(attrs)}, nil
}

// GetMulti retrieves up to MaxBatchGet documents, preserving key order.
func (m *Memory) GetMulti(ctx context.Context, kind string, keys []string) ([]*Document, error) {
	if len(keys) > MaxBatchGet {
		return nil, fmt.Errorf("%w: %d keys, limit %d", ErrBatchTooLarge, len(keys), MaxBatchGet)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*Document, len(keys))
	for i, key := range keys {
		if attrs, ok := m.kinds[kind][key]; ok {
			docs[i] = &Document{Kind: kind, Key: key, Attrs: cloneAttrs(attrs)}
		}
	}
	return docs, nil
}

// Put writes a single document.
func (m *Memory) Put(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(doc)
	return nil
}

// PutMulti writes up to MaxBatchPut documents as one batch.
func (m *Memory) PutMulti(ctx context.Context, docs []Document) error {
	if len(docs) > MaxBatchPut {
		return fmt.Errorf("%w: %d documents, limit %d", ErrBatchTooLarge, len(docs), MaxBatchPut)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range docs {
		m.put(doc)
	}
	return nil
}

func (m *Memory) put(doc Document) {
	if m.kinds[doc.Kind] == nil {
		m.kinds[doc.Kind] = make(map[string]map[string]types.AttributeValue)
	}
	m.kinds[doc.Kind][doc.Key] = cloneAttrs(doc.Attrs)
}

// DeleteMulti removes up to MaxBatchDelete keys. Missing keys are ignored.
func (m *Memory) DeleteMulti(ctx context.Context, kind string, keys []string) error {
	if len(keys) > MaxBatchDelete {
		return fmt.Errorf("%w: %d keys, limit %d", ErrBatchTooLarge, len(keys), MaxBatchDelete)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.kinds[kind], key)
	}
	return nil
}

// Query filters by the single equality condition, sorts by the order
// attribute with the document key as tie breaker, and applies the limit.
func (m *Memory) Query(ctx context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for key, attrs := range m.kinds[q.Kind] {
		if attrString(attrs[q.Eq.Field]) != q.Eq.Value {
			continue
		}
		docs = append(docs, Document{Kind: q.Kind, Key: key, Attrs: cloneAttrs(attrs)})
	}

	sort.Slice(docs, func(i, j int) bool {
		c := compareAttr(docs[i].Attrs[q.OrderBy], docs[j].Attrs[q.OrderBy])
		if c == 0 {
			c = compareStrings(docs[i].Key, docs[j].Key)
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// Keys pages through the kind's keys in lexicographic order.
func (m *Memory) Keys(ctx context.Context, kind, cursor string, pageSize int) ([]string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]string, 0, len(m.kinds[kind]))
	for key := range m.kinds[kind] {
		if cursor == "" || key > cursor {
			all = append(all, key)
		}
	}
	sort.Strings(all)

	if pageSize > 0 && len(all) > pageSize {
		page := all[:pageSize]
		return page, page[len(page)-1], nil
	}
	return all, "", nil
}

// Len reports the number of documents stored under a kind.
func (m *Memory) Len(kind string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.kinds[kind])
}

func cloneAttrs(attrs map[string]types.AttributeValue) map[string]types.AttributeValue {
	clone := make(map[string]types.AttributeValue, len(attrs))
	for k, v := range attrs {
		clone[k] = v
	}
	return clone
}

// attrString extracts the comparable string form of an attribute.
func attrString(attr types.AttributeValue) string {
	switch v := attr.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}

// compareAttr orders two attributes: numbers numerically, strings
// lexicographically. Mismatched or missing attributes compare equal.
func compareAttr(a, b types.AttributeValue) int {
	an, aok := a.(*types.AttributeValueMemberN)
	bn, bok := b.(*types.AttributeValueMemberN)
	if aok && bok {
		ai, aerr := strconv.ParseInt(an.Value, 10, 64)
		bi, berr := strconv.ParseInt(bn.Value, 10, 64)
		if aerr == nil && berr == nil {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			default:
				return 0
			}
		}
	}

	as, aok := a.(*types.AttributeValueMemberS)
	bs, bok := b.(*types.AttributeValueMemberS)
	if aok && bok {
		return compareStrings(as.Value, bs.Value)
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
