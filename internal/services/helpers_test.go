package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLite-compatible versions of the catalog and circulation models. The
// production models use uuid columns; plain strings keep the in-memory
// driver happy while the table and column names stay identical.

type testCategory struct {
	ID   string `gorm:"primary_key"`
	Name string `gorm:"not null"`
}

func (testCategory) TableName() string { return "categories" }

type testAuthor struct {
	ID   string `gorm:"primary_key"`
	Name string `gorm:"not null"`
}

func (testAuthor) TableName() string { return "authors" }

type testPublisher struct {
	ID   string `gorm:"primary_key"`
	Name string `gorm:"not null"`
}

func (testPublisher) TableName() string { return "publishers" }

type testBook struct {
	ID          string `gorm:"primary_key"`
	Title       string
	CategoryID  string `gorm:"index"`
	AuthorID    string `gorm:"index"`
	PublisherID string `gorm:"index"`
	PublishYear int
	AddedAt     time.Time
}

func (testBook) TableName() string { return "books" }

type testBorrowSlip struct {
	ID         string `gorm:"primary_key"`
	ReaderID   string `gorm:"index"`
	BookID     string `gorm:"index"`
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     string `gorm:"default:'borrowed'"`
}

func (testBorrowSlip) TableName() string { return "borrow_slips" }

type testPenalty struct {
	ID           string `gorm:"primary_key"`
	BorrowSlipID string `gorm:"index"`
	ReaderID     string `gorm:"index"`
	Amount       float64
	Reason       string
	CreatedAt    time.Time
}

func (testPenalty) TableName() string { return "penalties" }

type testReader struct {
	ID        string `gorm:"primary_key"`
	FullName  string
	CardStart time.Time
}

func (testReader) TableName() string { return "readers" }

// setupTestDB creates a SQLite in-memory database with the full library
// schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to create SQLite in-memory database")

	err = db.AutoMigrate(
		&testCategory{},
		&testAuthor{},
		&testPublisher{},
		&testBook{},
		&testBorrowSlip{},
		&testPenalty{},
		&testReader{},
	)
	require.NoError(t, err)

	return db
}

var testIDSeq int

// nextID produces unique primary keys for seeded rows.
func nextID(prefix string) string {
	testIDSeq++
	return fmt.Sprintf("%s_%d", prefix, testIDSeq)
}

// midMonth anchors a timestamp to the 15th so AddDate month arithmetic in
// the tests never normalizes across a month boundary.
func midMonth(monthsAgo int) time.Time {
	now := time.Now().UTC()
	base := time.Date(now.Year(), now.Month(), 15, 12, 0, 0, 0, time.UTC)
	return base.AddDate(0, -monthsAgo, 0)
}

// seedBorrowSlips inserts n slips with the given borrow date.
func seedBorrowSlips(t *testing.T, db *gorm.DB, bookID string, borrowDate time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		returned := borrowDate.AddDate(0, 0, 7)
		slip := testBorrowSlip{
			ID:         nextID("slip"),
			ReaderID:   nextID("reader_ref"),
			BookID:     bookID,
			BorrowDate: borrowDate,
			DueDate:    borrowDate.AddDate(0, 0, 14),
			ReturnDate: &returned,
			Status:     "returned",
		}
		require.NoError(t, db.Create(&slip).Error)
	}
}
