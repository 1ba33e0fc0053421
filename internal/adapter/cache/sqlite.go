package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite" // Sqlite driver based on CGO
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"quickfx/internal/domain/model"
	"quickfx/pkg/logger"
)

type quoteRow struct {
	PairKey   string `gorm:"primaryKey"`
	Base      string
	Term      string
	Rate      string
	FetchedAt time.Time
	StoredAt  time.Time
}

func (quoteRow) TableName() string { return "quotes" }

type errorRow struct {
	Kind       string `gorm:"primaryKey"`
	Message    string
	StatusCode int
	RecordedAt time.Time
}

func (errorRow) TableName() string { return "error_slots" }

type pendingRow struct {
	PairKey   string `gorm:"primaryKey"`
	ExpiresAt time.Time
}

func (pendingRow) TableName() string { return "pending_fetches" }

// SQLiteStore keeps the cache in a single file so one-shot invocations and detached
// fetch workers see the same state. Times are stored in UTC.
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
	log *logger.Logger
}

func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %s: %w", path, err)
	}
	if err := db.AutoMigrate(&quoteRow{}, &errorRow{}, &pendingRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite cache: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		now: time.Now,
		log: log,
	}, nil
}

func (s *SQLiteStore) GetQuote(ctx context.Context, key string) (*model.CacheEntry, bool, error) {
	var row quoteRow
	err := s.db.WithContext(ctx).First(&row, "pair_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("Cache miss", "key", key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get %s: %w", key, err)
	}

	rate, err := decimal.NewFromString(row.Rate)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite decode rate %s: %w", key, err)
	}

	s.log.Debug("Cache hit", "key", key)
	return &model.CacheEntry{
		Quote: model.RateQuote{
			Pair:      model.CurrencyPair{Base: model.Code(row.Base), Term: model.Code(row.Term)},
			Rate:      rate,
			FetchedAt: row.FetchedAt,
		},
		StoredAt: row.StoredAt,
	}, true, nil
}

func (s *SQLiteStore) SetQuote(ctx context.Context, key string, entry *model.CacheEntry) error {
	row := quoteRow{
		PairKey:   key,
		Base:      entry.Quote.Pair.Base.String(),
		Term:      entry.Quote.Pair.Term.String(),
		Rate:      entry.Quote.Rate.String(),
		FetchedAt: entry.Quote.FetchedAt.UTC(),
		StoredAt:  entry.StoredAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	s.log.Debug("Cache set", "key", key)
	return nil
}

func (s *SQLiteStore) SetError(ctx context.Context, rec *model.ErrorRecord) error {
	row := errorRow{
		Kind:       string(rec.Kind),
		Message:    rec.Message,
		StatusCode: rec.StatusCode,
		RecordedAt: rec.RecordedAt.UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (s *SQLiteStore) TakeError(ctx context.Context, kind model.ErrorKind) (*model.ErrorRecord, error) {
	var rec *model.ErrorRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row errorRow
		err := tx.First(&row, "kind = ?", string(kind)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&errorRow{}, "kind = ?", string(kind)).Error; err != nil {
			return err
		}
		rec = &model.ErrorRecord{
			Kind:       model.ErrorKind(row.Kind),
			Message:    row.Message,
			StatusCode: row.StatusCode,
			RecordedAt: row.RecordedAt,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite take error %s: %w", kind, err)
	}
	return rec, nil
}

func (s *SQLiteStore) AcquirePending(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now().UTC()
	acquired := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&pendingRow{}, "pair_key = ? AND expires_at <= ?", key, now).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&pendingRow{PairKey: key, ExpiresAt: now.Add(ttl)})
		if res.Error != nil {
			return res.Error
		}
		acquired = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("sqlite acquire pending %s: %w", key, err)
	}
	return acquired, nil
}

func (s *SQLiteStore) IsPending(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&pendingRow{}).
		Where("pair_key = ? AND expires_at > ?", key, s.now().UTC()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("sqlite is pending %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ReleasePending(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&pendingRow{}, "pair_key = ?", key).Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
