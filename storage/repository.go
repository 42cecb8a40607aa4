package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/hwi-pipeline/catalog"
	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/interfaces"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/metrics"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
	"github.com/jackc/pgx/v5"
)

const dateLayout = "2006-01-02"

var _ interfaces.ResultSink = (*DB)(nil)

// Run is one row of pipeline_runs.
type Run struct {
	ID         string
	Command    string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Periods    int
	Scores     int
	Files      pipeline.FileStats
	Error      string
}

// forEachChunk calls fn on consecutive [start, end) windows of at most size
// items and stops at the first error.
func forEachChunk(ctx context.Context, n, size int, fn func(ctx context.Context, start, end int) error) error {
	if size <= 0 {
		size = defaultBatchSize
	}
	chunks := (n + size - 1) / size

	for i := 0; i < chunks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := i * size
		end := min(start+size, n)
		if err := fn(ctx, start, end); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, chunks, err)
		}
	}
	return nil
}

// upsertChunked queues one statement per row. Each chunk runs in its own transaction.
func (db *DB) upsertChunked(ctx context.Context, table string, n int, queue func(b *pgx.Batch, i int)) error {
	err := forEachChunk(ctx, n, db.batchSize, func(ctx context.Context, start, end int) error {
		return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			for i := start; i < end; i++ {
				queue(batch, i)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
			metrics.StorageRowsUpserted.WithLabelValues(table).Add(float64(end - start))
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", table, err)
	}

	logging.Debug("Upserted rows", "table", table, "rows", n)
	return nil
}

// dateOrNil converts a YYYY-MM-DD string to a date parameter, NULL when malformed.
func dateOrNil(s string) any {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return t
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (db *DB) UpsertPharmacyProfiles(ctx context.Context, pharmacies []catalog.Pharmacy) error {
	const q = `
		INSERT INTO pharmacy_profiles (id, name, region, region_label, departement, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			region = EXCLUDED.region,
			region_label = EXCLUDED.region_label,
			departement = EXCLUDED.departement,
			location = EXCLUDED.location,
			updated_at = now()`

	return db.upsertChunked(ctx, "pharmacy_profiles", len(pharmacies), func(b *pgx.Batch, i int) {
		p := pharmacies[i]
		b.Queue(q, p.ID, p.Name, p.Region, p.RegionLabel, p.Departement, p.Location)
	})
}

type productSaleRow struct {
	PharmacyID  string
	Year        int
	PeriodLabel string
	Code        string
	Designation string
	Quantity    int
	LineNo      int
	PeriodStart string
	PeriodEnd   string
}

// productSaleRows flattens periods into one row per product, numbering lines
// from 1 within each period.
func productSaleRows(periods []entities.PeriodRecord) []productSaleRow {
	var rows []productSaleRow
	for _, p := range periods {
		for i, product := range p.Products {
			rows = append(rows, productSaleRow{
				PharmacyID:  p.PharmacyID,
				Year:        p.Year,
				PeriodLabel: p.PeriodLabel,
				Code:        product.Code,
				Designation: product.Designation,
				Quantity:    product.Quantity,
				LineNo:      i + 1,
				PeriodStart: p.PeriodStart,
				PeriodEnd:   p.PeriodEnd,
			})
		}
	}
	return rows
}

func (db *DB) UpsertProductSales(ctx context.Context, periods []entities.PeriodRecord) error {
	const q = `
		INSERT INTO vrac_product_sales
			(pharmacy_id, year, period_label, code, designation, quantity_sold, line_no, period_start, period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (pharmacy_id, year, period_label, line_no) DO UPDATE SET
			code = EXCLUDED.code,
			designation = EXCLUDED.designation,
			quantity_sold = EXCLUDED.quantity_sold,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			updated_at = now()`

	rows := productSaleRows(periods)
	err := db.upsertChunked(ctx, "vrac_product_sales", len(rows), func(b *pgx.Batch, i int) {
		r := rows[i]
		b.Queue(q, r.PharmacyID, r.Year, r.PeriodLabel, r.Code, r.Designation, r.Quantity, r.LineNo,
			dateOrNil(r.PeriodStart), dateOrNil(r.PeriodEnd))
	})
	if err != nil {
		return err
	}

	return db.pruneProductSales(ctx, periods)
}

// pruneProductSales deletes lines numbered past the end of each period, left
// over from a longer extract persisted earlier for the same period.
func (db *DB) pruneProductSales(ctx context.Context, periods []entities.PeriodRecord) error {
	const q = `
		DELETE FROM vrac_product_sales
		WHERE pharmacy_id = $1 AND year = $2 AND period_label = $3 AND line_no > $4`

	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range periods {
			batch.Queue(q, p.PharmacyID, p.Year, p.PeriodLabel, len(p.Products))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to prune vrac_product_sales: %w", err)
		}
		return nil
	})
}

func (db *DB) UpsertPeriodAggregates(ctx context.Context, aggregates []pipeline.PeriodAggregate) error {
	const q = `
		INSERT INTO vrac_period_aggregates
			(pharmacy_id, year, period_label, period_start, period_end, total_quantity,
			 antimalarial_quantity, antibiotic_quantity, analgesic_quantity, antimalarial_share)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (pharmacy_id, year, period_label) DO UPDATE SET
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			total_quantity = EXCLUDED.total_quantity,
			antimalarial_quantity = EXCLUDED.antimalarial_quantity,
			antibiotic_quantity = EXCLUDED.antibiotic_quantity,
			analgesic_quantity = EXCLUDED.analgesic_quantity,
			antimalarial_share = EXCLUDED.antimalarial_share,
			updated_at = now()`

	return db.upsertChunked(ctx, "vrac_period_aggregates", len(aggregates), func(b *pgx.Batch, i int) {
		a := aggregates[i]
		b.Queue(q, a.PharmacyID, a.Year, a.PeriodLabel, dateOrNil(a.PeriodStart), dateOrNil(a.PeriodEnd),
			a.TotalQuantity, a.AntimalarialQuantity, a.AntibioticQuantity, a.AnalgesicQuantity, a.AntimalarialShare)
	})
}

func (db *DB) UpsertHealthIndex(ctx context.Context, rows []pipeline.RegionalHealthIndex) error {
	const q = `
		INSERT INTO vrac_regional_health_index
			(pharmacy_id, year, period_label, antimalarial_quantity, total_quantity, antimalarial_share)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pharmacy_id, year, period_label) DO UPDATE SET
			antimalarial_quantity = EXCLUDED.antimalarial_quantity,
			total_quantity = EXCLUDED.total_quantity,
			antimalarial_share = EXCLUDED.antimalarial_share,
			updated_at = now()`

	return db.upsertChunked(ctx, "vrac_regional_health_index", len(rows), func(b *pgx.Batch, i int) {
		r := rows[i]
		b.Queue(q, r.PharmacyID, r.Year, r.PeriodLabel, r.AntimalarialQuantity, r.TotalQuantity, r.AntimalarialShare)
	})
}

func (db *DB) UpsertCategoryAggregates(ctx context.Context, rows []hwi.PeriodCategory) error {
	const q = `
		INSERT INTO vrac_category_aggregates (pharmacy_id, year, period_label, category, quantity, share)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pharmacy_id, year, period_label, category) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			share = EXCLUDED.share,
			updated_at = now()`

	return db.upsertChunked(ctx, "vrac_category_aggregates", len(rows), func(b *pgx.Batch, i int) {
		r := rows[i]
		b.Queue(q, r.PharmacyID, r.Year, r.PeriodLabel, string(r.Category), r.Quantity, r.Share)
	})
}

func (db *DB) UpsertScores(ctx context.Context, scores []hwi.Score) error {
	const q = `
		INSERT INTO household_welfare_index
			(pharmacy_id, year, period_label, departement, region, hwi_score,
			 components, category_breakdown, alert_level, total_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (pharmacy_id, year, period_label) DO UPDATE SET
			departement = EXCLUDED.departement,
			region = EXCLUDED.region,
			hwi_score = EXCLUDED.hwi_score,
			components = EXCLUDED.components,
			category_breakdown = EXCLUDED.category_breakdown,
			alert_level = EXCLUDED.alert_level,
			total_quantity = EXCLUDED.total_quantity,
			updated_at = now()`

	return db.upsertChunked(ctx, "household_welfare_index", len(scores), func(b *pgx.Batch, i int) {
		s := scores[i]
		b.Queue(q, s.PharmacyID, s.Year, s.PeriodLabel, s.Departement, nullIfEmpty(s.Region), s.HWIScore,
			s.Components, s.CategoryBreakdown, string(s.AlertLevel), s.TotalQuantity)
	})
}

func (db *DB) RecordRun(ctx context.Context, run Run) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO pipeline_runs
			(id, command, status, started_at, finished_at, periods, scores,
			 files_parsed, files_empty, files_missing, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			error = EXCLUDED.error`,
		run.ID, run.Command, run.Status, run.StartedAt, run.FinishedAt, run.Periods, run.Scores,
		run.Files.Parsed, run.Files.Empty, run.Files.Missing, nullIfEmpty(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record pipeline run: %w", err)
	}
	return nil
}

// SaveResult upserts every table derived from a run, in dependency order.
func (db *DB) SaveResult(ctx context.Context, result *pipeline.Result) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"pharmacy profiles", func(ctx context.Context) error { return db.UpsertPharmacyProfiles(ctx, catalog.Pharmacies()) }},
		{"product sales", func(ctx context.Context) error { return db.UpsertProductSales(ctx, result.Periods) }},
		{"period aggregates", func(ctx context.Context) error { return db.UpsertPeriodAggregates(ctx, result.PeriodAggregates) }},
		{"regional health index", func(ctx context.Context) error { return db.UpsertHealthIndex(ctx, result.HealthIndex) }},
		{"category aggregates", func(ctx context.Context) error { return db.UpsertCategoryAggregates(ctx, result.CategoryAggregates) }},
		{"hwi scores", func(ctx context.Context) error { return db.UpsertScores(ctx, result.Scores) }},
	}

	for _, step := range steps {
		start := time.Now()
		if err := step.fn(ctx); err != nil {
			return err
		}
		logging.Info("Persisted "+step.name, "duration", time.Since(start).String())
	}
	return nil
}

type periodRow struct {
	PharmacyID  string     `db:"pharmacy_id"`
	Year        int        `db:"year"`
	PeriodLabel string     `db:"period_label"`
	PeriodStart *time.Time `db:"period_start"`
	PeriodEnd   *time.Time `db:"period_end"`
}

type saleRow struct {
	PharmacyID  string `db:"pharmacy_id"`
	Year        int    `db:"year"`
	PeriodLabel string `db:"period_label"`
	Code        string `db:"code"`
	Designation string `db:"designation"`
	Quantity    int    `db:"quantity_sold"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func periodKey(pharmacyID string, year int, label string) string {
	return fmt.Sprintf("%s|%d|%s", pharmacyID, year, label)
}

// LoadPeriods rebuilds period records from persisted product sales, with
// products in their original line order.
func (db *DB) LoadPeriods(ctx context.Context) ([]entities.PeriodRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT pharmacy_id, year, period_label, period_start, period_end
		FROM vrac_period_aggregates
		ORDER BY pharmacy_id, year DESC, period_label`)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	periodRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[periodRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan periods: %w", err)
	}

	rows, err = db.Pool.Query(ctx, `
		SELECT pharmacy_id, year, period_label, code, designation, quantity_sold
		FROM vrac_product_sales
		ORDER BY pharmacy_id, year, period_label, line_no`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product sales: %w", err)
	}
	sales, err := pgx.CollectRows(rows, pgx.RowToStructByName[saleRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan product sales: %w", err)
	}

	return assemblePeriods(periodRows, sales), nil
}

func assemblePeriods(periodRows []periodRow, sales []saleRow) []entities.PeriodRecord {
	products := make(map[string][]entities.ProductSale)
	for _, s := range sales {
		key := periodKey(s.PharmacyID, s.Year, s.PeriodLabel)
		products[key] = append(products[key], entities.ProductSale{
			Code:        s.Code,
			Designation: s.Designation,
			Quantity:    s.Quantity,
		})
	}

	periods := make([]entities.PeriodRecord, 0, len(periodRows))
	for _, p := range periodRows {
		record := entities.PeriodRecord{
			PharmacyID:  p.PharmacyID,
			Year:        p.Year,
			PeriodLabel: p.PeriodLabel,
			PeriodStart: formatDate(p.PeriodStart),
			PeriodEnd:   formatDate(p.PeriodEnd),
			Products:    products[periodKey(p.PharmacyID, p.Year, p.PeriodLabel)],
		}
		record.TotalQuantity = record.SumQuantities()
		periods = append(periods, record)
	}
	return periods
}
