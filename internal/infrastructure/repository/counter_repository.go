package repository

import (
	"context"
	"fmt"

	"docuflow/internal/domain/repository"
	"docuflow/internal/infrastructure/database"
)

type counterRepository struct {
	db *database.Database
}

func NewCounterRepository(db *database.Database) repository.CounterRepository {
	return &counterRepository{
		db: db,
	}
}

func (r *counterRepository) Next(ctx context.Context, division string) (int, error) {
	// Upsert: create at 1 on first use, otherwise increment (PostgreSQL syntax).
	// Atomic, so concurrent creates in one division never share a sequence.
	query := `
		INSERT INTO counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT(name) DO UPDATE SET
			value = counters.value + 1
		RETURNING value
	`

	var value int
	if err := r.db.DB.QueryRowContext(ctx, query, division).Scan(&value); err != nil {
		return 0, fmt.Errorf("failed to advance counter for %s: %w", division, err)
	}

	return value, nil
}
