// Package pkg, syncwave'in paketler arası paylaşılan yardımcılarını barındırır:
// domain error'ları ve REST yanıt zarfı.
//
// Repository ve service katmanı sentinel'leri %w ile sarar:
//
//	return fmt.Errorf("%w: playlist %d", pkg.ErrNotFound, id)
//
// REST tarafında Error() bunları status code'a çevirir. Sync dispatcher'da
// ErrNotFound sessiz no-op anlamına gelir; gönderene hiçbir şey iletilmez.
package pkg

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrRateLimited   = errors.New("too many requests")
	ErrInternal      = errors.New("internal error")
)
