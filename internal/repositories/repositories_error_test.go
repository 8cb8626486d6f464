package repositories

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/shared"
)

var errDisk = errors.New("disk I/O error")

func setupMockRepo(t *testing.T) (*TrackRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewTrackRepository(db), mock
}

func expectSequence(mock sqlmock.Sqlmock, value int) {
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tracks_sequence SET value").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT value FROM tracks_sequence").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(value))
	mock.ExpectCommit()
}

func TestTrackRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			track := models.NewTrack(0, models.TrackInfo{Title: "No URL"})
			if err := repo.Create(track); !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected validation error, got %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("validation failure should not touch the database: %v", err)
			}
		})

		t.Run("SequenceFailure", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE tracks_sequence SET value").WillReturnError(errDisk)
			mock.ExpectRollback()

			err := repo.Create(newTrack("Rain", "rain.mp3"))
			if !errors.Is(err, errDisk) {
				t.Fatalf("expected wrapped disk error, got %v", err)
			}
			if !strings.Contains(err.Error(), "failed to generate sequence") {
				t.Errorf("unexpected error message: %v", err)
			}
		})

		t.Run("InsertFailure", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			expectSequence(mock, 7)
			mock.ExpectExec("INSERT INTO tracks").WillReturnError(errDisk)

			err := repo.Create(newTrack("Rain", "rain.mp3"))
			if !errors.Is(err, errDisk) {
				t.Fatalf("expected wrapped disk error, got %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("QueryFailure", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			mock.ExpectQuery("SELECT (.+) FROM tracks WHERE id = (.+) AND deleted_at IS NULL").WillReturnError(errDisk)

			_, err := repo.Get(shared.GenerateID())
			if !errors.Is(err, errDisk) {
				t.Fatalf("expected wrapped disk error, got %v", err)
			}
			if errors.Is(err, shared.ErrTrackNotFound) {
				t.Error("I/O failures must not be reported as not found")
			}
		})

		t.Run("NoRows", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			mock.ExpectQuery("SELECT (.+) FROM tracks").
				WillReturnRows(sqlmock.NewRows(strings.Split(trackColumns, ", ")))

			if _, err := repo.Get(shared.GenerateID()); !errors.Is(err, shared.ErrTrackNotFound) {
				t.Fatalf("expected ErrTrackNotFound, got %v", err)
			}
		})

		t.Run("ScanFailure", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			mock.ExpectQuery("SELECT (.+) FROM tracks").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("only-one-column"))

			_, err := repo.Get(shared.GenerateID())
			if err == nil || !strings.Contains(err.Error(), "failed to scan track") {
				t.Fatalf("expected scan error, got %v", err)
			}
		})

		t.Run("MalformedIDSkipsQuery", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			if _, err := repo.Get("42"); !errors.Is(err, shared.ErrTrackNotFound) {
				t.Fatalf("expected ErrTrackNotFound, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unexpected database access: %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("ExecFailure", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			mock.ExpectExec("UPDATE tracks SET deleted_at").WillReturnError(errDisk)

			if err := repo.Delete(shared.GenerateID()); !errors.Is(err, errDisk) {
				t.Fatalf("expected wrapped disk error, got %v", err)
			}
		})

		t.Run("RowsAffectedFailure", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			mock.ExpectExec("UPDATE tracks SET deleted_at").WillReturnResult(sqlmock.NewErrorResult(errDisk))

			err := repo.Delete(shared.GenerateID())
			if !errors.Is(err, errDisk) {
				t.Fatalf("expected wrapped disk error, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("QueryFailure", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			mock.ExpectQuery("SELECT (.+) FROM tracks WHERE deleted_at IS NULL").WillReturnError(errDisk)

			if _, err := repo.List(nil); !errors.Is(err, errDisk) {
				t.Fatalf("expected wrapped disk error, got %v", err)
			}
		})

		t.Run("RowError", func(t *testing.T) {
			repo, mock := setupMockRepo(t)

			rows := sqlmock.NewRows(strings.Split(trackColumns, ", ")).
				AddRow(shared.GenerateID(), 1, "A", "", "", 0, "a.mp3", nowUTC(), nowUTC(), nil).
				RowError(0, errDisk)
			mock.ExpectQuery("SELECT (.+) FROM tracks").WillReturnRows(rows)

			if _, err := repo.List(map[string]any{}); !errors.Is(err, errDisk) {
				t.Fatalf("expected wrapped row error, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		repo, mock := setupMockRepo(t)

		track := newTrack("Rain", "rain.mp3")
		track.SetID(shared.GenerateID())

		mock.ExpectExec("UPDATE tracks").WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.Update(track); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected ErrTrackNotFound for zero affected rows, got %v", err)
		}
	})
}

func nowUTC() time.Time { return time.Now().UTC() }
