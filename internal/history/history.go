// Package history records CLI generations in a local SQLite database.
// This package is internal and should not be imported by external projects.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Record 一次生成的留痕。
type Record struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index"`

	// Kind 操作类别：image / text / chat / speech / transcribe / describe
	Kind string `gorm:"size:16;index"`

	Prompt     string `gorm:"size:4096"`
	Model      string `gorm:"size:64"`
	Seed       int64
	OutputPath string `gorm:"size:1024"`

	// Bytes 响应体大小；文本操作记录字符数。
	Bytes int

	DurationMS int64
	Cached     bool
	Error      string `gorm:"size:1024"`
}

// Store 封装底层数据库。
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// DefaultPath 返回默认的历史库位置（~/.blossom/history.db）。
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, ".blossom", "history.db"), nil
}

// Open 打开（必要时创建）历史库并迁移表结构。
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history db: %w", err)
	}

	logger.Debug("history store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Append 追加一条记录。ID 与时间戳由 Store 填充。
func (s *Store) Append(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

// Recent 返回最近的 n 条记录，新的在前。kind 为空时不过滤。
func (s *Store) Recent(n int, kind string) ([]Record, error) {
	if n <= 0 {
		n = 20
	}
	q := s.db.Order("created_at DESC").Limit(n)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}

	var records []Record
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return records, nil
}

// Prune 删除早于 cutoff 的记录，返回删除条数。
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune history: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.logger.Debug("history pruned", zap.Int64("removed", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// Count 返回记录总数。
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&Record{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
