package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// querier is the subset of pgxpool.Pool the loader needs; pgxmock satisfies it.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadFromPostgres reads catalog reference data from a Postgres database.
// The tables are managed outside this service; the loader is read-only and runs
// once at startup. Slot labels stay the built-in set regardless of source.
func LoadFromPostgres(ctx context.Context, db querier) (*Catalog, error) {
	services, err := loadServices(ctx, db)
	if err != nil {
		return nil, err
	}
	doctors, err := loadDoctors(ctx, db)
	if err != nil {
		return nil, err
	}
	return New(services, doctors, seedSlots()), nil
}

func loadServices(ctx context.Context, db querier) ([]Service, error) {
	rows, err := db.Query(ctx,
		`SELECT id, name, description, image, price FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Image, &s.Price); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate services: %w", err)
	}
	return services, nil
}

func loadDoctors(ctx context.Context, db querier) ([]Doctor, error) {
	rows, err := db.Query(ctx,
		`SELECT id, name, specialty, qualifications, experience, image FROM doctors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.Qualifications, &d.Experience, &d.Image); err != nil {
			return nil, fmt.Errorf("catalog: scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate doctors: %w", err)
	}
	return doctors, nil
}
