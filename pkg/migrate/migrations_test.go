package migrate

import (
	"path/filepath"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir(filepath.Join("migrations")); err != nil {
		t.Fatalf("migration dir failed validation: %v", err)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Columns!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("migration created outside dir: %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration failed validation: %v", err)
	}
}
