package store

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a record does not exist (or, for
	// notes, has been soft-deleted).
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("record already exists")
)

// Store bundles the repositories over one sqlite database.
type Store struct {
	db *gorm.DB

	Users  *UserRepository
	Notes  *NoteRepository
	Tags   *TagRepository
	Shares *ShareRepository
}

// Open opens (creating if needed) the database at path and migrates the
// schema. Pass ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Every pooled connection to :memory: would otherwise see its own
	// empty database.
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// WAL keeps readers from blocking the relay-independent save path
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&User{}, &Note{}, &Tag{}, &NoteShare{}); err != nil {
		return nil, err
	}

	log.Printf("Database initialized at %s", path)
	return &Store{
		db:     db,
		Users:  &UserRepository{db: db},
		Notes:  &NoteRepository{db: db},
		Tags:   &TagRepository{db: db},
		Shares: &ShareRepository{db: db},
	}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats returns store-wide totals for the stats endpoint.
func (s *Store) Stats() (map[string]int64, error) {
	var users, notes int64
	if err := s.db.Model(&User{}).Count(&users).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&Note{}).Count(&notes).Error; err != nil {
		return nil, err
	}
	return map[string]int64{
		"user_count": users,
		"note_count": notes,
	}, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
