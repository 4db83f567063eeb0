// Package media отправляет файлы во внешний хостинг картинок.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"taskTracker/internal/logger"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

const DefaultFolder = "my_todo_app"

var ErrNotConfigured = errors.New("media storage is not configured")

type Credentials struct {
	CloudName string
	APIKey    string
	APISecret string
}

func (c Credentials) empty() bool {
	return c.CloudName == "" && c.APIKey == "" && c.APISecret == ""
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary берёт явные ключи, а без них - CLOUDINARY_URL из окружения
func NewCloudinary(creds Credentials, folder string) (*Cloudinary, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if creds.empty() {
		if os.Getenv("CLOUDINARY_URL") == "" {
			return nil, ErrNotConfigured
		}
		cld, err = cloudinary.New()
	} else {
		cld, err = cloudinary.NewFromParams(creds.CloudName, creds.APIKey, creds.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	if folder == "" {
		folder = DefaultFolder
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// Upload стримит файл в облако без локального сохранения и возвращает https-ссылку
func (c *Cloudinary) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	start := time.Now()

	result, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: c.folder,
	})
	if err != nil {
		logger.Error("Media: Ошибка загрузки файла", err, zap.String("filename", filename))
		return "", err
	}
	if result.Error.Message != "" {
		logger.Warn("Media: Сервис отклонил файл",
			zap.String("filename", filename),
			zap.String("reason", result.Error.Message))
		return "", errors.New(result.Error.Message)
	}

	logger.Info("Media: Файл загружен",
		zap.String("filename", filename),
		zap.String("public_id", result.PublicID),
		zap.Duration("ms", time.Since(start)))
	return result.SecureURL, nil
}

// Disabled отвечает ошибкой настройки на любую загрузку
type Disabled struct {
	Err error
}

func (d Disabled) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	if d.Err != nil {
		return "", d.Err
	}
	return "", ErrNotConfigured
}
