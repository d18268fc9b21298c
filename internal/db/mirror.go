package db

import (
	"context"
	"fmt"
)

// SaveMirror upserts m in a single transaction. Locations are written first
// so companies and job requisitions can reference their ids.
func (db *DB) SaveMirror(ctx context.Context, m Mirror) (SaveStats, error) {
	var stats SaveStats

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make(map[LocationKey]int64, len(m.Locations))
	for _, loc := range m.Locations {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO locations (location, country, city, longitude, latitude, region, population, capital)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (country, city) DO UPDATE SET
			     location = EXCLUDED.location,
			     longitude = COALESCE(EXCLUDED.longitude, locations.longitude),
			     latitude = COALESCE(EXCLUDED.latitude, locations.latitude)
			 RETURNING id`,
			loc.Location, nullIfEmpty(loc.Key.Country), nullIfEmpty(loc.Key.City),
			loc.Longitude, loc.Latitude, loc.Region, loc.Population, loc.Capital,
		).Scan(&id)
		if err != nil {
			return stats, fmt.Errorf("failed to upsert location %q: %w", loc.Location, err)
		}
		ids[loc.Key] = id
		stats.Locations++
	}

	locationID := func(key *LocationKey) *int64 {
		if key == nil {
			return nil
		}
		id, ok := ids[*key]
		if !ok {
			return nil
		}
		return &id
	}

	for _, c := range m.Companies {
		_, err := tx.Exec(ctx,
			`INSERT INTO companies (company_name, location_id, size, founded, type, industry, sector, revenue, rating)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (company_name) DO UPDATE SET
			     location_id = COALESCE(EXCLUDED.location_id, companies.location_id),
			     size = COALESCE(EXCLUDED.size, companies.size),
			     founded = COALESCE(EXCLUDED.founded, companies.founded),
			     type = COALESCE(EXCLUDED.type, companies.type),
			     industry = COALESCE(EXCLUDED.industry, companies.industry),
			     sector = COALESCE(EXCLUDED.sector, companies.sector),
			     revenue = COALESCE(EXCLUDED.revenue, companies.revenue),
			     rating = COALESCE(EXCLUDED.rating, companies.rating)`,
			c.Name, locationID(c.HQ), c.Size, c.Founded, c.Type, c.Industry, c.Sector, c.Revenue, c.Rating,
		)
		if err != nil {
			return stats, fmt.Errorf("failed to upsert company %q: %w", c.Name, err)
		}
		stats.Companies++
	}

	for _, j := range m.Jobs {
		_, err := tx.Exec(ctx,
			`INSERT INTO job_reqs (job_id, title, description, company, scrape_date, location_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (job_id) DO UPDATE SET
			     title = EXCLUDED.title,
			     description = EXCLUDED.description,
			     company = EXCLUDED.company,
			     scrape_date = EXCLUDED.scrape_date,
			     location_id = EXCLUDED.location_id`,
			j.JobID, j.Title, j.Description, j.Company, j.ScrapeDate, locationID(j.Location),
		)
		if err != nil {
			return stats, fmt.Errorf("failed to upsert job %s: %w", j.JobID, err)
		}
		stats.Jobs++
	}

	if err := tx.Commit(ctx); err != nil {
		return SaveStats{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stats, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
