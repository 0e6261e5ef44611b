package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/barscore/internal/domain"
)

const (
	defaultListLimit = 25
	maxListLimit     = 200
)

// ShiftsRepository persists scored shifts.
type ShiftsRepository struct {
	pool *pgxpool.Pool
}

const shiftColumns = `
    id,
    seq,
    bar_id,
    spot_id,
    bartender_name,
    shift_date,
    personal_sales_volume,
    total_bar_sales,
    personal_tips,
    hours_worked,
    transactions_count,
    pct_of_bar_sales,
    tip_pct,
    sales_per_hour,
    score_total,
    score_version,
    breakdown,
    quality_flags,
    created_at
`

// ShiftCreateParams bundles a validated input with everything computed from it.
type ShiftCreateParams struct {
	Input        domain.RawShiftInput
	Metrics      domain.DerivedMetrics
	ScoreTotal   *float64
	ScoreVersion string
	Breakdown    domain.Breakdown
	QualityFlags []domain.WarningCode
}

// ScoreUpdate rewrites the score stamp of one shift, provided it still
// carries FromVersion.
type ScoreUpdate struct {
	ID          string
	FromVersion string
	Total       float64
	Version     string
	Breakdown   domain.Breakdown
}

// Create inserts a shift in a single statement and returns the stored row.
func (r *ShiftsRepository) Create(ctx context.Context, params ShiftCreateParams) (domain.Shift, error) {
	if (params.ScoreTotal == nil) != (params.ScoreVersion == "") {
		return domain.Shift{}, fmt.Errorf("create shift: score total and version must be set together")
	}

	breakdownJSON, err := marshalBreakdown(params.Breakdown)
	if err != nil {
		return domain.Shift{}, err
	}

	in := params.Input
	query := fmt.Sprintf(`
        INSERT INTO shifts (
            id, bar_id, spot_id, bartender_name, shift_date,
            personal_sales_volume, total_bar_sales, personal_tips, hours_worked, transactions_count,
            pct_of_bar_sales, tip_pct, sales_per_hour,
            score_total, score_version, breakdown, quality_flags
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING %s
    `, shiftColumns)

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		in.BarID,
		in.SpotID,
		in.BartenderName,
		domain.CalendarDate(in.ShiftDate),
		in.PersonalSalesVolume,
		in.TotalBarSales,
		in.PersonalTips,
		in.HoursWorked,
		in.TransactionsCount,
		params.Metrics.PctOfBarSales,
		params.Metrics.TipPct,
		params.Metrics.SalesPerHour,
		params.ScoreTotal,
		nullableString(params.ScoreVersion),
		breakdownJSON,
		flagStrings(params.QualityFlags),
	)
	shift, err := scanShift(row)
	if err != nil {
		return domain.Shift{}, fmt.Errorf("insert shift: %w", err)
	}
	return shift, nil
}

// GetByID fetches a shift by its identifier.
func (r *ShiftsRepository) GetByID(ctx context.Context, id string) (domain.Shift, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Shift{}, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1`, shiftColumns)
	shift, err := scanShift(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Shift{}, ErrNotFound
		}
		return domain.Shift{}, err
	}
	return shift, nil
}

// Delete removes a shift.
func (r *ShiftsRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByBar returns a bar's shifts newest first by shift date, most recently
// inserted first within a day.
func (r *ShiftsRepository) ListByBar(ctx context.Context, barID int64, limit int) ([]domain.Shift, error) {
	if limit <= 0 {
		limit = defaultListLimit
	} else if limit > maxListLimit {
		limit = maxListLimit
	}

	query := fmt.Sprintf(`
        SELECT %s FROM shifts
        WHERE bar_id = $1
        ORDER BY shift_date DESC, seq DESC
        LIMIT $2
    `, shiftColumns)
	return r.query(ctx, query, barID, limit)
}

// ListForLeaderboard returns every shift of a bar whose date falls inside the
// inclusive window. Nil bounds leave that side open. Rows come back unordered.
func (r *ShiftsRepository) ListForLeaderboard(ctx context.Context, barID int64, start, end *time.Time) ([]domain.Shift, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, fmt.Sprintf("bar_id = %s", arg(barID)))
	if start != nil {
		where = append(where, fmt.Sprintf("shift_date >= %s", arg(domain.CalendarDate(*start))))
	}
	if end != nil {
		where = append(where, fmt.Sprintf("shift_date <= %s", arg(domain.CalendarDate(*end))))
	}

	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE %s`, shiftColumns, strings.Join(where, " AND "))
	return r.query(ctx, query, args...)
}

// ListBarIDs returns every bar that has at least one shift.
func (r *ShiftsRepository) ListBarIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT bar_id FROM shifts ORDER BY bar_id`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("list bar ids: %w", err)
	}
	return ids, nil
}

// ListStale pages through scored shifts of a bar whose version differs from
// version, in insertion order after afterSeq.
func (r *ShiftsRepository) ListStale(ctx context.Context, barID int64, version string, afterSeq int64, limit int) ([]domain.Shift, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM shifts
        WHERE bar_id = $1
          AND score_total IS NOT NULL
          AND score_version <> $2
          AND seq > $3
        ORDER BY seq
        LIMIT $4
    `, shiftColumns)
	return r.query(ctx, query, barID, version, afterSeq, limit)
}

// ApplyScores rewrites score stamps in one transaction. Total, version and
// breakdown change together; rows whose version moved on are skipped.
func (r *ShiftsRepository) ApplyScores(ctx context.Context, updates []ScoreUpdate) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	const query = `
        UPDATE shifts
        SET score_total = $2, score_version = $3, breakdown = $4
        WHERE id = $1 AND score_version = $5
    `

	var applied int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, u := range updates {
			breakdownJSON, err := marshalBreakdown(u.Breakdown)
			if err != nil {
				return err
			}
			batch.Queue(query, u.ID, u.Total, u.Version, breakdownJSON, u.FromVersion)
		}

		results := tx.SendBatch(ctx, batch)
		for range updates {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return err
			}
			applied += tag.RowsAffected()
		}
		return results.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("apply scores: %w", err)
	}
	return applied, nil
}

func (r *ShiftsRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Shift, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanShift(row pgx.Row) (domain.Shift, error) {
	var (
		shift         domain.Shift
		txCount       *int
		scoreTotal    *float64
		scoreVersion  *string
		breakdownJSON []byte
		flags         []string
	)

	err := row.Scan(
		&shift.ID,
		&shift.Seq,
		&shift.BarID,
		&shift.SpotID,
		&shift.BartenderName,
		&shift.ShiftDate,
		&shift.PersonalSalesVolume,
		&shift.TotalBarSales,
		&shift.PersonalTips,
		&shift.HoursWorked,
		&txCount,
		&shift.PctOfBarSales,
		&shift.TipPct,
		&shift.SalesPerHour,
		&scoreTotal,
		&scoreVersion,
		&breakdownJSON,
		&flags,
		&shift.CreatedAt,
	)
	if err != nil {
		return domain.Shift{}, err
	}

	shift.TransactionsCount = txCount
	shift.ScoreTotal = scoreTotal
	if scoreVersion != nil {
		shift.ScoreVersion = *scoreVersion
	}
	for _, f := range flags {
		shift.QualityFlags = append(shift.QualityFlags, domain.WarningCode(f))
	}

	if len(breakdownJSON) > 0 {
		var breakdown domain.Breakdown
		if err := json.Unmarshal(breakdownJSON, &breakdown); err != nil {
			return domain.Shift{}, err
		}
		shift.Breakdown = breakdown
	}

	return shift, nil
}

func marshalBreakdown(b domain.Breakdown) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func flagStrings(flags []domain.WarningCode) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}
