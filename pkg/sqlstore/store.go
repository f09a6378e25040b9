package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize bounds the rows per INSERT statement.
const upsertBatchSize = 100

// Store implements the page loader's store on a gorm database.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New wraps db and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil database handle")
	}
	if err := db.AutoMigrate(&breweryRow{}, &freshnessRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{
		db:     db,
		logger: log.With().Str("component", "sqlstore").Str("dialect", db.Dialector.Name()).Logger(),
	}, nil
}

// OpenStore opens the configured database and wraps it.
func OpenStore(cfg Config) (*Store, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return New(db)
}

// UpsertBreweries inserts or fully replaces breweries by id.
func (s *Store) UpsertBreweries(ctx context.Context, breweries []brewery.Brewery) error {
	if len(breweries) == 0 {
		return nil
	}

	rows := make([]breweryRow, 0, len(breweries))
	for _, b := range breweries {
		if err := b.Validate(); err != nil {
			return err
		}
		rows = append(rows, toRow(b))
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		CreateInBatches(rows, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("upsert breweries: %w", err)
	}

	s.logger.Debug().Int("count", len(rows)).Msg("Upserted breweries")
	return nil
}

// QueryPage returns breweries of a type ordered by id.
func (s *Store) QueryPage(ctx context.Context, breweryType string, limit, offset int) ([]brewery.Brewery, error) {
	var rows []breweryRow
	err := s.db.WithContext(ctx).
		Where("brewery_type = ?", breweryType).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query %s page: %w", breweryType, err)
	}

	out := make([]brewery.Brewery, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toBrewery())
	}
	return out, nil
}

// GetByID returns brewery.ErrNotFound if the id is not stored.
func (s *Store) GetByID(ctx context.Context, id string) (*brewery.Brewery, error) {
	var row breweryRow
	err := s.db.WithContext(ctx).Take(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, brewery.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get brewery %s: %w", id, err)
	}
	b := row.toBrewery()
	return &b, nil
}

// GetFreshness returns brewery.ErrNotFound for pages never fetched.
func (s *Store) GetFreshness(ctx context.Context, breweryType string, page int) (int64, error) {
	var row freshnessRow
	err := s.db.WithContext(ctx).
		Take(&row, "brewery_type = ? AND page_number = ?", breweryType, page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, brewery.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get freshness %s/%d: %w", breweryType, page, err)
	}
	return row.LastUpdated, nil
}

// SetFreshness replaces the freshness record of (type, page).
func (s *Store) SetFreshness(ctx context.Context, f brewery.PageFreshness) error {
	row := freshnessRow{Type: f.Type, Page: f.Page, LastUpdated: f.LastUpdated}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "brewery_type"}, {Name: "page_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_updated"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("set freshness %s/%d: %w", f.Type, f.Page, err)
	}
	return nil
}

// ClearFreshness deletes the freshness records of one type. Breweries stay.
func (s *Store) ClearFreshness(ctx context.Context, breweryType string) error {
	res := s.db.WithContext(ctx).Where("brewery_type = ?", breweryType).Delete(&freshnessRow{})
	if res.Error != nil {
		return fmt.Errorf("clear freshness %s: %w", breweryType, res.Error)
	}
	s.logger.Info().Str("type", breweryType).Int64("pages", res.RowsAffected).Msg("Cleared page freshness")
	return nil
}

// CountBreweries returns the number of stored breweries of a type, or of all
// types when breweryType is empty.
func (s *Store) CountBreweries(ctx context.Context, breweryType string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&breweryRow{})
	if breweryType != "" {
		q = q.Where("brewery_type = ?", breweryType)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count breweries: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
