package handlers

import (
	"mime"
	"net/http"
)

// checkContentType: пустой Content-Type допускаем, клиенты часто его не ставят
func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}
