package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultDisplayName, user_join isim göndermezse kullanılır.
const DefaultDisplayName = "Anonymous"

// MaxDisplayNameLength, nickname için üst sınır (rune).
const MaxDisplayNameLength = 32

// User, nickname tabanlı kimlik. ID istemci tarafından verilir
// (/ws/{user_id}); parola veya token YOKTUR.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// UpdateUserRequest, PATCH /api/users/{id} gövdesi.
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// Validate, yeni ismi normalize eder ve kontrol eder.
func (r *UpdateUserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(r.Name) > MaxDisplayNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxDisplayNameLength)
	}
	return nil
}

// NormalizeDisplayName, user_join ile gelen ismi kırpar, boşsa varsayılanı,
// uzunsa ilk MaxDisplayNameLength rune'u döner.
func NormalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDisplayName
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		runes := []rune(name)
		name = strings.TrimSpace(string(runes[:MaxDisplayNameLength]))
	}
	return name
}
