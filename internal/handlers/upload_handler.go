package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"taskTracker/internal/handlers/dto"
	"taskTracker/internal/logger"
	"time"

	"go.uber.org/zap"
)

const uploadField = "file"

type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
}

type UploadHandler struct {
	Uploader Uploader
}

func NewUploadHandler(uploader Uploader) *UploadHandler {
	return &UploadHandler{Uploader: uploader}
}

// Upload читает multipart потоково и сразу передаёт часть "file" в хостинг,
// ничего не сохраняя на диск
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	reader, err := r.MultipartReader()
	if err != nil {
		logger.Warn("HTTP: Тело не multipart",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "request must be multipart/form-data")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("HTTP: Ошибка чтения multipart", zap.Error(err))
			responseWithError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
			return
		}

		if part.FormName() != uploadField {
			part.Close()
			continue
		}

		url, err := h.Uploader.Upload(r.Context(), part.FileName(), part)
		part.Close()
		if err != nil {
			logger.Error("HTTP: Ошибка загрузки файла", err,
				zap.String("filename", part.FileName()),
				zap.Duration("ms", time.Since(start)))

			responseWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		logger.Info("HTTP_OUT: Файл загружен",
			zap.String("url", url),
			zap.Duration("ms", time.Since(start)),
			zap.Int("http_status", http.StatusOK))

		responseWithJSON(w, http.StatusOK, dto.UploadResponse{URL: url})
		return
	}

	logger.Warn("HTTP: Нет файла в запросе",
		zap.String("field", uploadField),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusBadRequest, "field 'file' is required")
}
