package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) (*ActivityRepo, func()) {
	t.Helper()

	repo, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepo() failed: %v", err)
	}

	return repo, func() {
		repo.Close()
	}
}

func testActivity(t *testing.T, repo *ActivityRepo, createdAt int64, outcome string) *ActivityRecord {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	record := &ActivityRecord{
		Id:         id.String(),
		Recipient:  "a@b.com",
		StatusCode: 200,
		Outcome:    outcome,
		CreatedAt:  createdAt,
	}
	if err := repo.InsertActivity(context.Background(), record); err != nil {
		t.Fatalf("inserting activity: %v", err)
	}
	return record
}

func TestActivityRepo_SelectRecentActivity(t *testing.T) {
	t.Run("should return empty slice when no activity exists", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		got, err := repo.SelectRecentActivity(context.Background(), 10)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", len(got))
		}
	})

	t.Run("should return newest first and honor the limit", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		testActivity(t, repo, 1000, "sent")
		newest := testActivity(t, repo, 3000, "rejected")
		testActivity(t, repo, 2000, "failed")

		got, err := repo.SelectRecentActivity(context.Background(), 2)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}
		if got[0].Id != newest.Id {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", newest.Id, got[0].Id)
		}
		if got[1].CreatedAt != 2000 {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", 2000, got[1].CreatedAt)
		}
	})

	t.Run("should keep the error text", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		errText := "mailbox full"
		record := &ActivityRecord{
			Id:         uuid.NewString(),
			Recipient:  "a@b.com",
			StatusCode: 503,
			Outcome:    "rejected",
			Error:      &errText,
			CreatedAt:  1000,
		}
		if err := repo.InsertActivity(context.Background(), record); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.SelectRecentActivity(context.Background(), 1)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got[0].Error == nil || *got[0].Error != errText {
			t.Fatalf("\nwanted:\n%s\ngot:\n%v", errText, got[0].Error)
		}
	})
}

func TestActivityRepo_DeleteActivityOlderThan(t *testing.T) {
	t.Run("should delete only records before the cutoff", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		testActivity(t, repo, 1000, "sent")
		testActivity(t, repo, 2000, "sent")
		testActivity(t, repo, 3000, "sent")

		deleted, err := repo.DeleteActivityOlderThan(context.Background(), 2500)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if deleted != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", deleted)
		}

		left, err := repo.SelectRecentActivity(context.Background(), 10)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if len(left) != 1 || left[0].CreatedAt != 3000 {
			t.Fatalf("\nwanted:\n1 record at 3000\ngot:\n%+v", left)
		}
	})
}

func TestActivityRepo_Reopen(t *testing.T) {
	t.Run("should not fail when migrations were already applied", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")

		repo, err := NewSQLiteRepo(path)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		repo.Close()

		repo, err = NewSQLiteRepo(path)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		defer repo.Close()

		if err := repo.Optimize(context.Background()); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})
}
