package db

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

func TestInitCreatesParentDirectory(t *testing.T) {
	previous := DB
	t.Cleanup(func() { DB = previous })

	path := filepath.Join(t.TempDir(), "nested", "data", "wellnest.db")
	if err := Init(path); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if DB == nil {
		t.Fatal("expected global DB to be set")
	}

	for _, table := range []string{"users", "moods", "habits", "habit_logs", "reflections"} {
		if !DB.Migrator().HasTable(table) {
			t.Fatalf("expected table %s to be migrated", table)
		}
	}

	sqlDB, err := DB.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:db-ensure-user-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := EnsureUser(gdb, "  root ", " s3cret-pass "); err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if err := EnsureUser(gdb, "root", "another-pass"); err != nil {
		t.Fatalf("EnsureUser second call returned error: %v", err)
	}
	if err := EnsureUser(gdb, "", "ignored"); err != nil {
		t.Fatalf("blank username should be ignored, got %v", err)
	}

	var users []User
	if err := gdb.Find(&users).Error; err != nil {
		t.Fatalf("failed to list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(users))
	}
	if users[0].Username != "root" {
		t.Fatalf("username should be trimmed, got %q", users[0].Username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("s3cret-pass")); err != nil {
		t.Fatalf("stored password should match the first call: %v", err)
	}
}

func TestCheckInHasNote(t *testing.T) {
	empty := ""
	note := "went for a walk"

	cases := []struct {
		name  string
		notes *string
		want  bool
	}{
		{name: "absent", notes: nil, want: false},
		{name: "empty", notes: &empty, want: false},
		{name: "present", notes: &note, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := (CheckIn{Notes: tc.notes}).HasNote(); got != tc.want {
				t.Fatalf("HasNote() = %v, want %v", got, tc.want)
			}
		})
	}
}
