package media

import "context"

// UploadResult is the media host's reference to a stored image.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Host stores uploaded images and returns a URL plus a reference id.
// Destroy of an unknown public id is not an error.
type Host interface {
	Upload(ctx context.Context, filePath string) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}
