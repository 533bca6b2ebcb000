package mysql

import (
	"fmt"

	"pixelgate/pkg/config"
)

// Repository aggregates the archive repositories
type Repository struct {
	ds *Datastore

	Request      *RequestRepository
	ScalingEvent *ScalingEventRepository
}

// NewRepository opens the archive database and prepares its repositories
func NewRepository(cfg config.MySQLConfig) (*Repository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}
	if err := ds.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate archive tables: %w", err)
	}

	return &Repository{
		ds:           ds,
		Request:      NewRequestRepository(ds),
		ScalingEvent: NewScalingEventRepository(ds),
	}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
