// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

// ObjectStorage stores uploaded files and returns their public location.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

type StorageService struct {
	s3Client     *s3.S3
	config       config.AWSConfig
	localDir     string
	localBaseURL string
}

type UploadInput struct {
	Filename string
	Data     []byte
	Options  UploadOptions
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	// Checksum is the hex SHA-256 of the uploaded bytes.
	Checksum string `json:"checksum"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

// NewStorageService returns an S3-backed store, or one writing under localDir
// when no AWS credentials are configured.
func NewStorageService(cfg config.AWSConfig, localDir, localBaseURL string) (*StorageService, error) {
	if cfg.AccessKeyID == "" {
		return &StorageService{config: cfg, localDir: localDir, localBaseURL: localBaseURL}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client:     s3.New(sess),
		config:       cfg,
		localDir:     localDir,
		localBaseURL: localBaseURL,
	}, nil
}

func (s *StorageService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	options := input.Options
	size := int64(len(input.Data))

	if size == 0 {
		return nil, apperrors.Validation(i18n.KeyFileRequired, "file is empty")
	}
	if options.MaxSize > 0 && size > options.MaxSize {
		return nil, apperrors.Validation(i18n.KeyFileTooLarge,
			fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", size, options.MaxSize))
	}

	ext := strings.ToLower(filepath.Ext(input.Filename))
	if len(options.AllowedTypes) > 0 && !containsString(options.AllowedTypes, ext) {
		return nil, apperrors.Validation(i18n.KeyFileInvalidType, fmt.Sprintf("file type %s is not allowed", ext))
	}

	contentType := http.DetectContentType(input.Data)
	if !isImageContentType(contentType) {
		return nil, apperrors.Validation(i18n.KeyFileInvalidType, fmt.Sprintf("content type %s is not an image", contentType))
	}

	key := s.generateFileName(ext, options.Folder)
	checksum := utils.HashBytes(input.Data)

	var (
		result *UploadResult
		err    error
	)
	if s.s3Client != nil {
		result, err = s.uploadToS3(ctx, input.Data, key, contentType, checksum, options.IsPublic)
	} else {
		result, err = s.uploadToLocal(input.Data, key, contentType)
	}
	if err != nil {
		return nil, err
	}
	result.Checksum = checksum
	return result, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType, checksum string, isPublic bool) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]*string{"sha256": aws.String(checksum)},
	}
	if isPublic {
		params.ACL = aws.String(s3.ObjectCannedACLPublicRead)
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, apperrors.Upstream(i18n.KeyFileUploadFailed, "failed to upload to S3", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.localDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	logrus.WithField("key", key).Debug("S3 not configured, stored upload locally")

	return &UploadResult{
		URL:      fmt.Sprintf("%s/uploads/%s", strings.TrimRight(s.localBaseURL, "/"), key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	if s.s3Client == nil {
		err := os.Remove(filepath.Join(s.localDir, filepath.FromSlash(key)))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func GetDefaultUploadOptions(category string) UploadOptions {
	switch category {
	case "avatars":
		return UploadOptions{
			Folder:       "avatars",
			MaxSize:      5 * 1024 * 1024, // 5MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
			IsPublic:     true,
		}
	default:
		return UploadOptions{
			Folder:       "general",
			MaxSize:      5 * 1024 * 1024, // 5MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png"},
			IsPublic:     false,
		}
	}
}

func (s *StorageService) generateFileName(ext, folder string) string {
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.NewString(), ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}
	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.S3Bucket, s.config.Region, key)
}

func isImageContentType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
