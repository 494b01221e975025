package documents

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // userID -> documents in upload order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

func (r *MemoryRepo) Upsert(ctx context.Context, doc Document) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs, prev := upsertDocument(r.data[doc.UserID], doc)
	r.data[doc.UserID] = docs
	return prev, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, len(r.data[userID]))
	copy(out, r.data[userID])
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, fileName string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := indexOf(r.data[userID], fileName); i >= 0 {
		return r.data[userID][i], nil
	}
	return Document{}, ErrNotFound
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, fileName string) (Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs, removed, ok := removeDocument(r.data[userID], fileName)
	if !ok {
		return Document{}, false, nil
	}
	if len(docs) == 0 {
		delete(r.data, userID)
	} else {
		r.data[userID] = docs
	}
	return removed, true, nil
}

func (r *MemoryRepo) DeleteAllForUser(ctx context.Context, userID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[userID]
	delete(r.data, userID)
	return docs, nil
}

// upsertDocument replaces the entry with doc.FileName in place, keeping its
// position, id and creation time, or appends doc when there is none.
func upsertDocument(docs []Document, doc Document) ([]Document, *Document) {
	i := indexOf(docs, doc.FileName)
	if i < 0 {
		return append(docs, doc), nil
	}
	prev := docs[i]
	doc.ID = prev.ID
	doc.CreatedAt = prev.CreatedAt
	out := make([]Document, len(docs))
	copy(out, docs)
	out[i] = doc
	return out, &prev
}

func removeDocument(docs []Document, fileName string) ([]Document, Document, bool) {
	i := indexOf(docs, fileName)
	if i < 0 {
		return docs, Document{}, false
	}
	removed := docs[i]
	out := make([]Document, 0, len(docs)-1)
	out = append(out, docs[:i]...)
	out = append(out, docs[i+1:]...)
	return out, removed, true
}

func indexOf(docs []Document, fileName string) int {
	for i := range docs {
		if docs[i].FileName == fileName {
			return i
		}
	}
	return -1
}

var _ Repo = (*MemoryRepo)(nil)
