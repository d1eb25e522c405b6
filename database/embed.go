package database

import (
	"embed"
	"io/fs"
)

// embeddedMigrations, migrations/ dizinindeki SQL dosyalarını binary'ye gömer.
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations, gömülü migration dosyalarını kök dizin olarak sunan fs.FS döner.
// database.New'e doğrudan verilebilir.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// "migrations" sabit ve derleme zamanında var; buraya düşülmez.
		panic(err)
	}
	return sub
}
