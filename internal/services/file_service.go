package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/config"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// FileStore persists archive records
type FileStore interface {
	Create(file *models.File) error
	GetByID(id string) (*models.File, error)
}

type FileService struct {
	fileRepo   FileStore
	baseURL    string
	storageDir string
	jwtSecret  []byte
	now        func() time.Time
}

// FileDownloadClaims represents JWT claims for file download token
type FileDownloadClaims struct {
	FileID string `json:"file_id"`
	RunID  string `json:"run_id"`
	jwt.RegisteredClaims
}

const downloadTokenTTL = 1 * time.Hour

func NewFileService(fileRepo FileStore, baseURL string, cfg config.StorageConfig) *FileService {
	storageDir := filepath.Join(cfg.Dir, "bundles")

	// Create storage directory if it doesn't exist
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		logrus.Warnf("Failed to create storage directory %s: %v", storageDir, err)
	}

	// Get JWT secret for signing download tokens
	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		jwtSecret = []byte("default-secret-key-change-in-production")
		logrus.Warn("JWT_SECRET not set, using default secret for bundle download tokens")
	}

	return &FileService{
		fileRepo:   fileRepo,
		baseURL:    baseURL,
		storageDir: storageDir,
		jwtSecret:  jwtSecret,
		now:        time.Now,
	}
}

// StoreArchive writes a finished bundle to storage and records it
func (s *FileService) StoreArchive(runID, originalName string, data []byte) (*models.File, error) {
	runDir := filepath.Join(s.storageDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	fileName := uuid.New().String() + filepath.Ext(originalName)
	filePath := filepath.Join(runDir, fileName)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		os.Remove(filePath) // Clean up on error
		return nil, fmt.Errorf("failed to save archive: %w", err)
	}

	fileModel := &models.File{
		ID:           uuid.New().String(),
		BundleRunID:  runID,
		FileName:     fileName,
		OriginalName: originalName,
		MimeType:     "application/zip",
		FileSize:     int64(len(data)),
		FilePath:     filePath,
	}
	if err := s.fileRepo.Create(fileModel); err != nil {
		os.Remove(filePath) // Clean up on error
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	logrus.Infof("Bundle archive stored: %s (ID: %s, Size: %d bytes)", originalName, fileModel.ID, fileModel.FileSize)
	return fileModel, nil
}

// Open returns the record and content of a stored archive
func (s *FileService) Open(fileID string) (*models.File, *os.File, error) {
	file, err := s.fileRepo.GetByID(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("file not found: %w", err)
	}

	f, err := os.Open(file.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, f, nil
}

// GenerateSignedDownloadURL generates a download URL for a run's archive.
// Token expires in 1 hour.
func (s *FileService) GenerateSignedDownloadURL(runID, fileID string) (string, error) {
	now := s.now()
	claims := &FileDownloadClaims{
		FileID: fileID,
		RunID:  runID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(downloadTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "tutorial-bundler-backend",
			Subject:   fileID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return fmt.Sprintf("%s/api/v1/bundles/%s/download?token=%s", strings.TrimSuffix(s.baseURL, "/"), runID, tokenString), nil
}

// ValidateDownloadToken validates a download token for a run and returns the file ID
func (s *FileService) ValidateDownloadToken(runID, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &FileDownloadClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*FileDownloadClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	if claims.RunID != runID {
		return "", fmt.Errorf("token does not belong to bundle %s", runID)
	}
	return claims.FileID, nil
}
