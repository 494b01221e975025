package documents

import "time"

// DocumentResponse is the outward-facing metadata of a document. The
// extracted text stays server-side.
type DocumentResponse struct {
	DocumentID string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	TextChars  int       `json:"textChars"`
	UploadedAt time.Time `json:"uploadedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type deleteFileRequest struct {
	FileName string `json:"filename"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		TextChars:  len([]rune(doc.Text)),
		UploadedAt: doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func fileNames(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.FileName)
	}
	return out
}
