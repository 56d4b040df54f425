package database

import (
	"fmt"
	"strings"

	"ideafoundry/internal/models"

	"gorm.io/gorm"
)

// PersistentModels lists every model managed by AutoMigrate, parents first.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Post{},
	}
}

// ExpectedColumns is the column set the application reads and writes, per table.
var ExpectedColumns = map[string][]string{
	"users": {"id", "username", "display_name", "email", "bio", "role", "posts_count", "is_active", "created_at", "updated_at"},
	"posts": {"id", "author_id", "title", "slug", "content", "excerpt", "category", "tags", "reading_minutes",
		"cover_image_url", "status", "published_at", "created_at", "updated_at"},
}

// SchemaError lists the tables and columns missing from the live schema.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema is missing %s; run migrations before seeding", strings.Join(e.Missing, ", "))
}

// RequireColumns verifies that every table and column in ExpectedColumns exists.
func RequireColumns(db *gorm.DB) error {
	m := db.Migrator()
	var missing []string

	for _, table := range []string{"users", "posts"} {
		if !m.HasTable(table) {
			missing = append(missing, "table "+table)
			continue
		}
		for _, column := range ExpectedColumns[table] {
			if !m.HasColumn(table, column) {
				missing = append(missing, table+"."+column)
			}
		}
	}

	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// IsSchemaMissingError reports whether err was caused by a missing table or
// column (sqlite and Postgres wording).
func IsSchemaMissingError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "undefined column") ||
		strings.Contains(msg, "undefined table")
}
