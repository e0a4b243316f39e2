package services

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const avatarKeyPrefix = "avatars/"

// ObjectStore is the slice of object storage the avatar service needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// AvatarService uploads avatar files to object storage and replaces the
// previous asset once the new one is in place.
type AvatarService struct {
	store ObjectStore
}

func NewAvatarService(store ObjectStore) *AvatarService {
	return &AvatarService{store: store}
}

// Store uploads the file and returns the new storage key and public URL.
// previousKey may be empty on the first upload. The previous object is
// removed only after the upload succeeded; a failed removal is logged and
// ignored since the new avatar is already live.
func (s *AvatarService) Store(ctx context.Context, filename string, r io.Reader, size int64, contentType string, previousKey string) (string, string, error) {
	key := avatarKeyPrefix + uuid.NewString() + fileExtension(filename)

	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		return "", "", err
	}

	if previousKey != "" {
		if err := s.store.Delete(ctx, previousKey); err != nil {
			log.Warn().Err(err).Str("key", previousKey).Msg("failed to remove previous avatar")
		}
	}

	return key, s.store.URL(key), nil
}

func fileExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	}
	return ""
}
