package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "migrations"

func readAllMigrations(t *testing.T) string {
	t.Helper()
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var sb strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(migrationsDir, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		sb.Write(b)
	}
	return sb.String()
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := ValidateDir(migrationsDir); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestMigrationsCoverCoreTables(t *testing.T) {
	sql := readAllMigrations(t)

	tables := []string{
		"users", "profiles",
		"communities", "community_members", "community_topics", "community_posts",
		"sessions", "session_participants", "session_feedback", "articles",
		"mentor_profiles", "mentee_profiles", "mentorship_relationships",
		"point_events", "badges", "badge_awards", "notifications",
	}
	for _, table := range tables {
		if !strings.Contains(sql, "CREATE TABLE "+table+" (") {
			t.Errorf("missing CREATE TABLE for %s", table)
		}
	}
}

func TestMigrationsEnforceGamificationConstraints(t *testing.T) {
	sql := readAllMigrations(t)

	if !strings.Contains(sql, "idx_point_events_dedup") {
		t.Error("point event dedup index missing")
	}
	if !strings.Contains(sql, "WHERE source_id IS NOT NULL") {
		t.Error("dedup index should be partial on source_id")
	}
	if !strings.Contains(sql, "idx_badge_awards_user_badge") {
		t.Error("badge award uniqueness index missing")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Example Table!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_example_table.sql") {
		t.Fatalf("unexpected filename: %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}
