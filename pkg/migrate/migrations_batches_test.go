package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBatchesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_batches.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no batches migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS batches",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_batches_supply_lot_unit",
		"CHECK (current_qty >= 0)",
		"CHECK (status IN ('active', 'low', 'expired', 'blocked'))",
		"DROP TABLE IF EXISTS batches",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMovementsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_movements.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no movements migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS movements",
		"FOREIGN KEY (batch_id) REFERENCES batches(id)",
		"CHECK (quantity > 0)",
		"CHECK (type IN ('entry', 'exit', 'transfer', 'reversal'))",
		"DROP TABLE IF EXISTS movements",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no migrations found")
	}
}
