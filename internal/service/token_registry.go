package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"profit_go/internal/domain"
)

// TokenStore is the persistent cache behind the registry.
type TokenStore interface {
	GetToken(mint string) (*domain.TokenInfo, error)
	UpsertToken(token *domain.TokenInfo) error
	GetAllTokens() ([]domain.TokenInfo, error)
}

// TokenRegistry resolves mint metadata from memory, then the store, then the remote API.
// Remote hits are written back to both caches. It implements domain.TokenResolver.
type TokenRegistry struct {
	mu     sync.RWMutex
	tokens map[string]domain.TokenInfo
	store  TokenStore           // optional
	remote domain.TokenResolver // optional
	logger *slog.Logger
}

// NewTokenRegistry creates a registry. Either backend may be nil.
func NewTokenRegistry(store TokenStore, remote domain.TokenResolver) *TokenRegistry {
	return &TokenRegistry{
		tokens: make(map[string]domain.TokenInfo),
		store:  store,
		remote: remote,
		logger: slog.Default().With("module", "tokens"),
	}
}

// Register adds metadata known ahead of time (e.g. the native mint).
func (r *TokenRegistry) Register(info domain.TokenInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[info.Mint] = info
}

// Warm loads every cached token from the store into memory.
func (r *TokenRegistry) Warm(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	tokens, err := r.store.GetAllTokens()
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tokens {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		r.tokens[t.Mint] = t
	}
	return len(tokens), nil
}

// Resolve implements domain.TokenResolver.
func (r *TokenRegistry) Resolve(ctx context.Context, mint string) (domain.TokenInfo, error) {
	r.mu.RLock()
	info, ok := r.tokens[mint]
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	if r.store != nil {
		cached, err := r.store.GetToken(mint)
		if err != nil {
			r.logger.Warn("Token cache read failed", slog.String("mint", mint), slog.Any("error", err))
		} else if cached != nil {
			r.Register(*cached)
			return *cached, nil
		}
	}

	if r.remote == nil {
		return domain.TokenInfo{}, domain.NewRejectedError("resolve_token", "unknown mint "+mint)
	}
	info, err := r.remote.Resolve(ctx, mint)
	if err != nil {
		return domain.TokenInfo{}, err
	}

	r.Register(info)
	if r.store != nil {
		if err := r.store.UpsertToken(&info); err != nil {
			r.logger.Warn("Token cache write failed", slog.String("mint", mint), slog.Any("error", err))
		}
	}
	r.logger.Debug("Token resolved", slog.String("mint", mint), slog.String("symbol", info.Symbol))
	return info, nil
}

// All returns the in-memory tokens sorted by symbol.
func (r *TokenRegistry) All() []domain.TokenInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.TokenInfo, 0, len(r.tokens))
	for _, t := range r.tokens {
		result = append(result, t)
	}

	// Sort by symbol for consistent ordering
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}
