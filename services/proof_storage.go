package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/utils"
)

// ProofStorage stores proof-of-delivery images
type ProofStorage interface {
	// Save validates and stores an image file, returns the storage key
	Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// URL returns where a client can fetch the image
	URL(ctx context.Context, key string) (string, error)

	// Delete removes an image; missing images are not an error
	Delete(ctx context.Context, key string) error
}

const proofKeyPrefix = "proofs/"

var proofStorageInstance ProofStorage

// InitProofStorage picks S3 when a bucket is configured and local disk otherwise
func InitProofStorage(ctx context.Context, cfg *config.Config) (ProofStorage, error) {
	if cfg.UsesS3() {
		store, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		proofStorageInstance = NewS3ProofStorage(store)
		return proofStorageInstance, nil
	}

	utils.UploadDir = cfg.UploadDir
	proofStorageInstance = NewLocalProofStorage(cfg.UploadDir)
	return proofStorageInstance, nil
}

// GetProofStorage returns the initialized storage instance
func GetProofStorage() ProofStorage {
	return proofStorageInstance
}

// SetProofStorage sets the storage instance (primarily for testing)
func SetProofStorage(storage ProofStorage) {
	proofStorageInstance = storage
}

// S3ProofStorage keeps images as private objects and hands out presigned links
type S3ProofStorage struct {
	store ObjectStore
}

// NewS3ProofStorage wraps an object store
func NewS3ProofStorage(store ObjectStore) *S3ProofStorage {
	return &S3ProofStorage{store: store}
}

func (s *S3ProofStorage) Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateProofImage(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	key := proofKeyPrefix + utils.ProofImageName(fileHeader.Filename)
	if err := s.store.Put(ctx, key, file, fileHeader.Size, "image/png"); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

func (s *S3ProofStorage) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	url, err := s.store.PresignGet(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

func (s *S3ProofStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// LocalProofStorage keeps images on local disk and serves them through /api/uploads
type LocalProofStorage struct {
	dir string
}

// NewLocalProofStorage stores files under dir
func NewLocalProofStorage(dir string) *LocalProofStorage {
	return &LocalProofStorage{dir: dir}
}

func (s *LocalProofStorage) Save(_ context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateProofImage(fileHeader); err != nil {
		return "", err
	}
	return utils.SaveProofImage(fileHeader, s.dir)
}

func (s *LocalProofStorage) URL(_ context.Context, key string) (string, error) {
	return utils.ProofImageURL(key), nil
}

func (s *LocalProofStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
