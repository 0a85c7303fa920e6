package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/simonhust/trailer/internal/domain"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// MappingRepository reads the published lookup table. Writes happen only
// through the moderation transaction in SubmissionRepository.
type MappingRepository struct {
	db *sqlx.DB
}

// NewMappingRepository creates a mapping repository.
func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// Lookup returns the published mapping for a source id, or
// domain.ErrNotFound when no approval exists.
func (r *MappingRepository) Lookup(ctx context.Context, sourceID string) (*domain.Mapping, error) {
	mapping := &domain.Mapping{}
	err := r.db.GetContext(ctx, mapping, `
		SELECT source_id, url, reviewed_by, approved_at
		FROM mappings
		WHERE source_id = $1`,
		sourceID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lookup mapping: %w", err)
	}
	return mapping, nil
}

// Recent returns the most recently approved mappings, newest first.
// The limit is clamped to [1, 100]; non-positive values use the default.
func (r *MappingRepository) Recent(ctx context.Context, limit int) ([]domain.Mapping, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	mappings := []domain.Mapping{}
	err := r.db.SelectContext(ctx, &mappings, `
		SELECT source_id, url, reviewed_by, approved_at
		FROM mappings
		ORDER BY approved_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent mappings: %w", err)
	}
	return mappings, nil
}
