package documents

import "context"

// Repo persists document metadata and extracted text.
type Repo interface {
	// Upsert stores doc, replacing any entry with the same owner and file name.
	// The replaced entry is returned, or nil when doc is new.
	Upsert(ctx context.Context, doc Document) (*Document, error)
	// List returns the owner's documents in upload order.
	List(ctx context.Context, userID string) ([]Document, error)
	Get(ctx context.Context, userID, fileName string) (Document, error)
	// Delete removes one entry. The bool is false when nothing matched.
	Delete(ctx context.Context, userID, fileName string) (Document, bool, error)
	DeleteAllForUser(ctx context.Context, userID string) ([]Document, error)
}
