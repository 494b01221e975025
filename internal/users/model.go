package users

import "time"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	FullName     string    `json:"fullName"`
	PictureURL   string    `json:"pictureUrl"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
