package documents

import (
	"context"

	"sortir-backend/internal/shared/storage/jsondb"
)

// JSONRepo keeps every owner's documents in one shared JSON file.
type JSONRepo struct {
	col *jsondb.Collection[map[string][]Document]
}

// NewJSONRepo stores documents in the "documents" section of f.
func NewJSONRepo(f *jsondb.File) *JSONRepo {
	return &JSONRepo{col: jsondb.NewCollection[map[string][]Document](f, "documents")}
}

func (r *JSONRepo) Upsert(ctx context.Context, doc Document) (*Document, error) {
	var prev *Document
	err := r.col.Update(ctx, func(data *map[string][]Document) error {
		if *data == nil {
			*data = map[string][]Document{}
		}
		var docs []Document
		docs, prev = upsertDocument((*data)[doc.UserID], doc)
		(*data)[doc.UserID] = docs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

func (r *JSONRepo) List(ctx context.Context, userID string) ([]Document, error) {
	var out []Document
	err := r.col.View(ctx, func(data map[string][]Document) error {
		out = append([]Document{}, data[userID]...)
		return nil
	})
	return out, err
}

func (r *JSONRepo) Get(ctx context.Context, userID, fileName string) (Document, error) {
	var doc Document
	err := r.col.View(ctx, func(data map[string][]Document) error {
		docs := data[userID]
		if i := indexOf(docs, fileName); i >= 0 {
			doc = docs[i]
			return nil
		}
		return ErrNotFound
	})
	return doc, err
}

func (r *JSONRepo) Delete(ctx context.Context, userID, fileName string) (Document, bool, error) {
	var removed Document
	var found bool
	err := r.col.Update(ctx, func(data *map[string][]Document) error {
		var docs []Document
		docs, removed, found = removeDocument((*data)[userID], fileName)
		if !found {
			return nil
		}
		if len(docs) == 0 {
			delete(*data, userID)
		} else {
			(*data)[userID] = docs
		}
		return nil
	})
	if err != nil {
		return Document{}, false, err
	}
	return removed, found, nil
}

func (r *JSONRepo) DeleteAllForUser(ctx context.Context, userID string) ([]Document, error) {
	var removed []Document
	err := r.col.Update(ctx, func(data *map[string][]Document) error {
		removed = (*data)[userID]
		delete(*data, userID)
		return nil
	})
	return removed, err
}

var _ Repo = (*JSONRepo)(nil)
