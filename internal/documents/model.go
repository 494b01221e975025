package documents

import "time"

// Document is one uploaded PDF: its extracted text plus where the raw bytes live.
// (UserID, FileName) is unique.
type Document struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	FileName        string    `json:"fileName"`
	Text            string    `json:"text"`
	MimeType        string    `json:"mimeType"`
	SizeBytes       int64     `json:"sizeBytes"`
	StorageProvider string    `json:"storageProvider"`
	StorageKey      string    `json:"storageKey"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
