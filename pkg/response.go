package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse, REST endpoint'lerinin ortak zarfı.
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": "not found: playlist 7"}
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// statusBySentinel, errors.Is sırasıyla denenir; eşleşme yoksa 500.
var statusBySentinel = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrRateLimited, http.StatusTooManyRequests},
}

// JSON, data'yı success zarfı içinde yazar.
func JSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, APIResponse{Success: true, Data: data})
}

// Error, err'ün zincirindeki sentinel'e göre status seçer; mesaj olduğu gibi döner.
func Error(w http.ResponseWriter, err error) {
	writeEnvelope(w, StatusFor(err), APIResponse{Error: err.Error()})
}

// ErrorWithMessage, sentinel eşlemesi olmadan sabit status ile hata yazar.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, APIResponse{Error: message})
}

// Raw, zarfsız gövde yazar (M3U8 export). filename verilirse indirme adı olur.
func Raw(w http.ResponseWriter, status int, contentType, filename string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	if filename != "" {
		h.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// StatusFor, err için REST status code'unu döner.
func StatusFor(err error) int {
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// Header yazıldıktan sonra encode hatası istemciye iletilemez; bağlantı
// zaten yarıda kalmıştır.
func writeEnvelope(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
