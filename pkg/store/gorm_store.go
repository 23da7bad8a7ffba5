package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"orcus/pkg/domain"
)

const migrateLockID int64 = 67227672

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&BookModel{}, &DownloadEventModel{}, &SettingModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveBook stores or updates a book.
func (s *GormStore) SaveBook(b domain.Book) error {
	model := bookToModel(b)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "author", "description", "tags", "link", "file", "is_approved"}),
	}).Create(&model).Error
}

// GetBook retrieves a book.
func (s *GormStore) GetBook(id string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// ListRecentBooks returns the newest approved books.
func (s *GormStore) ListRecentBooks(limit int) ([]domain.BookSummary, error) {
	return s.listSummaries(limit)
}

// SearchBooks matches approved books on title/author/tags. Wildcard
// characters in the query are escaped so they match literally.
func (s *GormStore) SearchBooks(query string, limit int) ([]domain.BookSummary, error) {
	like := "%" + escapeLike(strings.ToLower(query)) + "%"
	cond := `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`
	return s.listSummaries(limit, cond, like, like, like)
}

func (s *GormStore) listSummaries(limit int, conds ...any) ([]domain.BookSummary, error) {
	var models []BookModel
	tx := s.db.Model(&BookModel{}).
		Select("id", "title", "author", "description", "tags", "file", "link").
		Where("is_approved = ?", true).
		Order("created_at DESC").
		Limit(limit)
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.BookSummary, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m).Summary())
	}
	return res, nil
}

// RecordDownload appends one download event.
func (s *GormStore) RecordDownload(e domain.DownloadEvent) error {
	model := DownloadEventModel{
		ID:         e.ID,
		BookID:     e.BookID,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Referrer:   e.Referrer,
		OccurredAt: e.OccurredAt,
	}
	return s.db.Create(&model).Error
}

// GetSetting returns the stored value or "" when the key is absent.
func (s *GormStore) GetSetting(key string) (string, error) {
	var model SettingModel
	if err := s.db.First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return model.Value, nil
}

// SetSetting upserts a setting, last write wins.
func (s *GormStore) SetSetting(key, value string) error {
	model := SettingModel{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model).Error
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Tags:        b.Tags,
		Link:        b.Link,
		File:        b.File,
		IsApproved:  b.IsApproved,
		CreatedAt:   b.CreatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:          m.ID,
		Title:       m.Title,
		Author:      m.Author,
		Description: m.Description,
		Tags:        m.Tags,
		Link:        m.Link,
		File:        m.File,
		IsApproved:  m.IsApproved,
		CreatedAt:   m.CreatedAt,
	}
}
