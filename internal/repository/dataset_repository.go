package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/heatmap-viewer-go/internal/database"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
)

// ErrNotFound is returned when a dataset does not exist.
var ErrNotFound = errors.New("not found")

// DatasetRepository handles database operations for datasets and their samples
type DatasetRepository struct {
	db *sql.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create stores a dataset and its samples in one transaction. Samples keep
// their order.
func (r *DatasetRepository) Create(ds *models.Dataset, samples []models.Sample) error {
	ds.SampleCount = len(samples)
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now()
	}

	return database.WithTx(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO datasets
			(id, name, sample_count, range_x_min, range_x_max, range_y_min, range_y_max, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ds.ID, ds.Name, ds.SampleCount,
			ds.RangeX.Min, ds.RangeX.Max, ds.RangeY.Min, ds.RangeY.Max,
			ds.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert dataset: %w", err)
		}

		stmt, err := tx.Prepare("INSERT INTO samples (dataset_id, seq, name, x, y, z) VALUES (?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare sample insert: %w", err)
		}
		defer stmt.Close()

		for i, s := range samples {
			if _, err := stmt.Exec(ds.ID, i, s.Name, s.X, s.Y, s.Z); err != nil {
				return fmt.Errorf("failed to insert sample %d: %w", i, err)
			}
		}
		return nil
	})
}

const datasetColumns = `id, name, sample_count, range_x_min, range_x_max, range_y_min, range_y_max, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (models.Dataset, error) {
	var ds models.Dataset
	var created int64
	err := row.Scan(&ds.ID, &ds.Name, &ds.SampleCount,
		&ds.RangeX.Min, &ds.RangeX.Max, &ds.RangeY.Min, &ds.RangeY.Max, &created)
	if err != nil {
		return ds, err
	}
	ds.RangeX.Span = ds.RangeX.Max - ds.RangeX.Min
	ds.RangeY.Span = ds.RangeY.Max - ds.RangeY.Min
	ds.CreatedAt = time.UnixMilli(created)
	return ds, nil
}

// GetByID retrieves a dataset without its samples
func (r *DatasetRepository) GetByID(id string) (*models.Dataset, error) {
	row := r.db.QueryRow("SELECT "+datasetColumns+" FROM datasets WHERE id = ?", id)
	ds, err := scanDataset(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return &ds, nil
}

// List retrieves all datasets, newest first
func (r *DatasetRepository) List() ([]models.Dataset, error) {
	rows, err := r.db.Query("SELECT " + datasetColumns + " FROM datasets ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, rows.Err()
}

// Delete removes a dataset and its samples
func (r *DatasetRepository) Delete(id string) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM samples WHERE dataset_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete samples: %w", err)
		}
		res, err := tx.Exec("DELETE FROM datasets WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete dataset: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete dataset: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Samples returns every sample of a dataset in stored order
func (r *DatasetRepository) Samples(id string) ([]models.Sample, error) {
	return r.querySamples("SELECT name, x, y, z FROM samples WHERE dataset_id = ? ORDER BY seq", id)
}

// SamplesPage returns one page of a dataset's samples
func (r *DatasetRepository) SamplesPage(id string, offset, limit int) ([]models.Sample, error) {
	return r.querySamples("SELECT name, x, y, z FROM samples WHERE dataset_id = ? ORDER BY seq LIMIT ? OFFSET ?", id, limit, offset)
}

func (r *DatasetRepository) querySamples(query string, args ...any) ([]models.Sample, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	samples := []models.Sample{}
	for rows.Next() {
		var s models.Sample
		if err := rows.Scan(&s.Name, &s.X, &s.Y, &s.Z); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
