package bas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConfigNotFound indicates a clinic without a BAS category config.
var ErrConfigNotFound = errors.New("bas: category config not found")

// ConfigRepository loads category configs saved by the settings screens.
type ConfigRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository constructs the Postgres config reader.
func NewConfigRepository(pool *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{pool: pool}
}

// CategoryConfig returns the clinic's stored config.
func (r *ConfigRepository) CategoryConfig(ctx context.Context, clinicID string) (CategoryConfig, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT bas_config FROM clinic_settings WHERE clinic_id=$1`, clinicID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CategoryConfig{}, ErrConfigNotFound
		}
		return CategoryConfig{}, fmt.Errorf("bas: load config: %w", err)
	}
	if len(payload) == 0 || string(payload) == "null" {
		return CategoryConfig{}, ErrConfigNotFound
	}
	var cfg CategoryConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return CategoryConfig{}, fmt.Errorf("bas: decode config: %w", err)
	}
	return cfg, nil
}
