package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"roombook/api"
	"roombook/dashboard"
	"roombook/storage"
)

func cachedLoader(t *testing.T) *dashboard.Loader {
	t.Helper()
	db, err := storage.OpenCacheDBAt(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &dashboard.Loader{
		DB:     db,
		Scope:  "student:ivanov",
		Now:    func() time.Time { return time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC) },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestLoadRooms_FallsBackToCache(t *testing.T) {
	loader := cachedLoader(t)
	down := errors.New("connection refused")

	t.Run("no snapshot yet is a hard error", func(t *testing.T) {
		_, _, err := loadRooms(context.Background(), loader, func(context.Context) ([]api.Room, error) {
			return nil, down
		})
		if !errors.Is(err, down) {
			t.Fatalf("expected the fetch error, got %v", err)
		}
	})

	t.Run("failed fetch shows the last list", func(t *testing.T) {
		rooms, notices, err := loadRooms(context.Background(), loader, func(context.Context) ([]api.Room, error) {
			return []api.Room{{ID: 1, Name: "A-101"}, {ID: 2, Name: "B-7"}}, nil
		})
		if err != nil || len(rooms) != 2 || len(notices) != 0 {
			t.Fatalf("unexpected fresh load: %v %v %v", rooms, notices, err)
		}

		rooms, notices, err = loadRooms(context.Background(), loader, func(context.Context) ([]api.Room, error) {
			return nil, down
		})
		if err != nil {
			t.Fatalf("expected the cached list, got %v", err)
		}
		if len(rooms) != 2 || rooms[0].Name != "A-101" {
			t.Fatalf("unexpected cached rooms %+v", rooms)
		}
		if len(notices) != 1 {
			t.Fatalf("expected a cache notice, got %v", notices)
		}
	})
}

func TestFreeRooms(t *testing.T) {
	now := time.Date(2025, time.May, 2, 11, 0, 0, 0, time.UTC)
	rooms := []api.Room{
		{ID: 1, Status: "available"},
		{ID: 2, Status: "maintenance"},
		{ID: 3, Status: "available", Schedule: []api.Interval{{Start: "2025-05-02T10:00:00Z", End: "2025-05-02T12:00:00Z"}}},
	}
	free := freeRooms(rooms, now)
	if len(free) != 1 || free[0].ID != 1 {
		t.Fatalf("expected only room 1, got %+v", free)
	}
}

func TestLogout_DropsCachedLists(t *testing.T) {
	t.Setenv("ROOMBOOK_CONFIG_DIR", t.TempDir())

	db, err := storage.OpenCacheDB()
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	rooms := []api.Room{{ID: 1, Name: "A-101"}}
	if err := storage.SaveSnapshot(db, "rooms", "student:ivanov", rooms, time.Now()); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	_ = db.Close()

	if err := logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}

	db, err = storage.OpenCacheDB()
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer db.Close()
	_, _, found, err := storage.LoadSnapshot[api.Room](db, "rooms", "student:ivanov")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if found {
		t.Fatalf("expected the snapshot to be gone after logout")
	}
}
