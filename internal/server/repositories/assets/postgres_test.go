package assets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avelins/classmedia/internal/common"
	"github.com/avelins/classmedia/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleAsset() *models.Asset {
	return &models.Asset{
		ID:          "a-1",
		OwnerID:     "u-1",
		Class:       "resource",
		StorageKey:  "resource/2026/03/14/abc.pdf",
		FileName:    "notes.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		Title:       "Notes",
		Status:      models.AssetStatusActive,
		CreatedAt:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func assetRows(a *models.Asset) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "class", "storage_key", "file_name", "content_type",
		"size_bytes", "title", "description", "status", "created_at",
	}).AddRow(a.ID, a.OwnerID, a.Class, a.StorageKey, a.FileName, a.ContentType,
		a.SizeBytes, a.Title, a.Description, string(a.Status), a.CreatedAt)
}

const insertQ = `(?s)^\s*INSERT\s+INTO\s+assets\s*\(.+\)\s*VALUES\s*\(.+\)\s*ON\s+CONFLICT\s*\(storage_key\)\s*DO\s+NOTHING\s*$`

func TestCreate_Inserted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()
	mock.ExpectExec(insertQ).
		WithArgs(a.ID, a.OwnerID, a.Class, a.StorageKey, a.FileName, a.ContentType,
			a.SizeBytes, a.Title, a.Description, string(a.Status), a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !inserted {
		t.Fatalf("expected inserted=true")
	}
}

func TestCreate_ConflictOnStorageKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()
	mock.ExpectExec(insertQ).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if inserted {
		t.Fatalf("conflict must report inserted=false")
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleAsset())
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()
	mock.ExpectQuery(`(?s)^\s*SELECT\s+.+\s+FROM\s+assets\s+WHERE\s+id=\$1\s*$`).
		WithArgs("a-1").
		WillReturnRows(assetRows(a))

	got, err := repo.GetByID(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.StorageKey != a.StorageKey || got.Status != models.AssetStatusActive {
		t.Fatalf("unexpected asset: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\s+.+\s+FROM\s+assets\s+WHERE\s+id=\$1\s*$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByStorageKey_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()
	mock.ExpectQuery(`(?s)^\s*SELECT\s+.+\s+FROM\s+assets\s+WHERE\s+storage_key=\$1\s*$`).
		WithArgs(a.StorageKey).
		WillReturnRows(assetRows(a))

	got, err := repo.GetByStorageKey(context.Background(), a.StorageKey)
	if err != nil {
		t.Fatalf("GetByStorageKey error: %v", err)
	}
	if got.ID != "a-1" {
		t.Fatalf("unexpected asset: %+v", got)
	}
}

func TestGetByStorageKey_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*SELECT\s+.+\s+FROM\s+assets\s+WHERE\s+storage_key=\$1\s*$`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByStorageKey(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestListByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()
	mock.ExpectQuery(`(?s)^\s*SELECT\s+.+\s+FROM\s+assets\s+WHERE\s+owner_id=\$1\s+AND\s+status=\$2\s+ORDER\s+BY\s+created_at\s+DESC\s*$`).
		WithArgs("u-1", "active").
		WillReturnRows(assetRows(a))

	got, err := repo.ListByOwner(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a-1" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestMarkDeleted_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*UPDATE\s+assets\s+SET\s+status=\$1\s+WHERE\s+id=\$2\s+AND\s+status=\$3\s*$`).
		WithArgs("deleted", "a-1", "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkDeleted(context.Background(), "a-1"); err != nil {
		t.Fatalf("MarkDeleted error: %v", err)
	}
}

func TestMarkDeleted_NotActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*UPDATE\s+assets\s+SET\s+status=\$1\s+WHERE\s+id=\$2\s+AND\s+status=\$3\s*$`).
		WithArgs("deleted", "a-1", "active").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkDeleted(context.Background(), "a-1")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}
