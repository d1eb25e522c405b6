// Package main: Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB'yi alır ve interface döner.
package main

import (
	"database/sql"

	"github.com/akinalp/syncwave/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
type Repositories struct {
	Track    repository.TrackRepository
	Playlist repository.PlaylistRepository
	User     repository.UserRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
// sql.DB thread-safe bir connection pool'dur; paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Track:    repository.NewSQLiteTrackRepo(conn),
		Playlist: repository.NewSQLitePlaylistRepo(conn),
		User:     repository.NewSQLiteUserRepo(conn),
	}
}
