package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"profit_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists trade intents and token metadata in SQLite.
// It implements domain.TradeLedger.
type Storage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStorage opens (or creates) the database at dbPath.
// The ledger table is created on first use, see Append.
func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: empty DB path", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.TokenInfo{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db, logger: slog.Default().With("module", "ledger")}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Ledger Operations
// ======================================================================================

// Append inserts a trade intent. If the ledger table does not exist yet it is
// created and the insert is retried once.
func (s *Storage) Append(ctx context.Context, intent domain.TradeIntent) error {
	err := s.db.WithContext(ctx).Create(&intent).Error
	if err == nil {
		return nil
	}
	if !isMissingTable(err) {
		return fmt.Errorf("append trade intent: %w", err)
	}

	s.logger.Info("Ledger table missing, creating", slog.String("table", intent.TableName()))
	if err := s.CreateTableIfMissing(ctx); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&intent).Error; err != nil {
		return fmt.Errorf("append trade intent after create: %w", err)
	}
	return nil
}

// CreateTableIfMissing creates the ledger table. Safe to call repeatedly.
func (s *Storage) CreateTableIfMissing(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&domain.TradeIntent{}); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// ListIntents returns the most recent intents, newest first. limit <= 0 returns all.
func (s *Storage) ListIntents(ctx context.Context, limit int) ([]domain.TradeIntent, error) {
	var intents []domain.TradeIntent
	q := s.db.WithContext(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&intents).Error
	if isMissingTable(err) {
		return nil, nil // nothing recorded yet
	}
	return intents, err
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// ======================================================================================
// Token Operations
// ======================================================================================

// UpsertToken creates or updates token metadata
func (s *Storage) UpsertToken(token *domain.TokenInfo) error {
	return s.db.Save(token).Error
}

// GetToken retrieves token metadata by mint
func (s *Storage) GetToken(mint string) (*domain.TokenInfo, error) {
	var token domain.TokenInfo
	err := s.db.First(&token, "mint = ?", mint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// GetAllTokens retrieves all cached tokens
func (s *Storage) GetAllTokens() ([]domain.TokenInfo, error) {
	var tokens []domain.TokenInfo
	err := s.db.Find(&tokens).Error
	return tokens, err
}
