package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/mediaops/intake-cli/internal/db"
	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// bookingColumns is the canonical column order for booking reads and
// writes. Scan helpers and INSERT placeholders both follow it.
const bookingColumns = `id, submitted_by, client_name, contact_name, contact_email, contact_phone,
	address, industry_segment, tax_registration_no, campaign_name, campaign_ref,
	start_date, end_date, creative_delivery_date, media_type, placement_preferences,
	gross_amount, partner_discount, additional_charges, net_amount,
	creative_file_link, creative_specs, special_instructions,
	signatory_name, signatory_title, signature_date,
	status, progress, priority, created_at, updated_at`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"update_booking_status": `UPDATE bookings SET status = $1, progress = $2, updated_at = $3 WHERE id = $4`,
	"insert_history":        `INSERT INTO booking_status_history (id, booking_id, status, notes, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"get_timeline":          `SELECT status, created_at FROM booking_status_history WHERE booking_id = $1 ORDER BY created_at ASC`,
	"update_rep_status":     `UPDATE sales_rep_inbox SET rep_status = $1, updated_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS bookings (
	id                     TEXT PRIMARY KEY,
	submitted_by           TEXT NOT NULL,
	client_name            TEXT,
	contact_name           TEXT,
	contact_email          TEXT,
	contact_phone          TEXT,
	address                TEXT,
	industry_segment       TEXT,
	tax_registration_no    TEXT,
	campaign_name          TEXT,
	campaign_ref           TEXT UNIQUE,
	start_date             TEXT,
	end_date               TEXT,
	creative_delivery_date TEXT,
	media_type             TEXT,
	placement_preferences  TEXT,
	gross_amount           DOUBLE PRECISION,
	partner_discount       DOUBLE PRECISION,
	additional_charges     DOUBLE PRECISION,
	net_amount             DOUBLE PRECISION,
	creative_file_link     TEXT,
	creative_specs         TEXT,
	special_instructions   TEXT,
	signatory_name         TEXT,
	signatory_title        TEXT,
	signature_date         TEXT,
	status                 TEXT NOT NULL DEFAULT 'submitted',
	progress               INTEGER NOT NULL DEFAULT 0,
	priority               TEXT NOT NULL DEFAULT 'Medium',
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);
CREATE INDEX IF NOT EXISTS idx_bookings_submitted_by ON bookings(submitted_by);
CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at DESC);

CREATE TABLE IF NOT EXISTS booking_status_history (
	id         TEXT PRIMARY KEY,
	booking_id TEXT NOT NULL REFERENCES bookings(id),
	status     TEXT NOT NULL,
	notes      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_history_booking_id ON booking_status_history(booking_id, created_at);

CREATE TABLE IF NOT EXISTS sales_rep_inbox (
	id         TEXT PRIMARY KEY,
	booking_id TEXT NOT NULL UNIQUE REFERENCES bookings(id),
	priority   TEXT NOT NULL,
	rep_status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_inbox_created_at ON sales_rep_inbox(created_at DESC);

CREATE TABLE IF NOT EXISTS settings (
	owner            TEXT PRIMARY KEY,
	email_recipients JSONB NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// CreateBooking inserts the booking, its review-queue entry, and the
// initial audit event in one transaction. A duplicate campaign reference
// surfaces as a conflict fault and nothing is written.
func (s *PostgresStore) CreateBooking(ctx context.Context, b *model.Booking, note string) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.RepStatus == "" {
		b.RepStatus = model.RepPending
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin create booking")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		 $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)`,
		b.ID, b.SubmittedBy, b.ClientName, b.ContactName, b.ContactEmail, b.ContactPhone,
		b.Address, b.IndustrySegment, b.TaxRegistrationNo, b.CampaignName, b.CampaignRef,
		b.StartDate, b.EndDate, b.CreativeDeliveryDate, b.MediaType, b.PlacementPreferences,
		b.GrossAmount, b.PartnerDiscount, b.AdditionalCharges, b.NetAmount,
		b.CreativeFileLink, b.CreativeSpecs, b.SpecialInstructions,
		b.SignatoryName, b.SignatoryTitle, b.SignatureDate,
		string(b.Status), b.Progress, string(b.Priority), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapPgWriteError(err, "postgres: insert booking")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO sales_rep_inbox (id, booking_id, priority, rep_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), b.ID, string(b.Priority), string(b.RepStatus), now, now,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert inbox item")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO booking_status_history (id, booking_id, status, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), b.ID, string(b.Status), note, now,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert status history")
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit create booking")
	}
	return nil
}

const bookingSelect = `SELECT b.id, b.submitted_by, b.client_name, b.contact_name, b.contact_email, b.contact_phone,
	b.address, b.industry_segment, b.tax_registration_no, b.campaign_name, b.campaign_ref,
	b.start_date, b.end_date, b.creative_delivery_date, b.media_type, b.placement_preferences,
	b.gross_amount, b.partner_discount, b.additional_charges, b.net_amount,
	b.creative_file_link, b.creative_specs, b.special_instructions,
	b.signatory_name, b.signatory_title, b.signature_date,
	b.status, b.progress, b.priority, b.created_at, b.updated_at,
	COALESCE(i.rep_status, 'pending')
	FROM bookings b LEFT JOIN sales_rep_inbox i ON i.booking_id = b.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.SubmittedBy, &b.ClientName, &b.ContactName, &b.ContactEmail, &b.ContactPhone,
		&b.Address, &b.IndustrySegment, &b.TaxRegistrationNo, &b.CampaignName, &b.CampaignRef,
		&b.StartDate, &b.EndDate, &b.CreativeDeliveryDate, &b.MediaType, &b.PlacementPreferences,
		&b.GrossAmount, &b.PartnerDiscount, &b.AdditionalCharges, &b.NetAmount,
		&b.CreativeFileLink, &b.CreativeSpecs, &b.SpecialInstructions,
		&b.SignatoryName, &b.SignatoryTitle, &b.SignatureDate,
		&b.Status, &b.Progress, &b.Priority, &b.CreatedAt, &b.UpdatedAt,
		&b.RepStatus,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "booking not found")
		}
		return nil, eris.Wrapf(err, "postgres: get booking %s", id)
	}
	return b, nil
}

func (s *PostgresStore) GetBookingByRef(ctx context.Context, campaignRef string) (*model.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, bookingSelect+` WHERE b.campaign_ref = $1`, campaignRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "booking not found")
		}
		return nil, eris.Wrapf(err, "postgres: get booking by ref %s", campaignRef)
	}
	return b, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	query := bookingSelect + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND b.status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Priority != "" {
		query += fmt.Sprintf(` AND b.priority = $%d`, argIdx)
		args = append(args, string(filter.Priority))
		argIdx++
	}
	if filter.SubmittedBy != "" {
		query += fmt.Sprintf(` AND b.submitted_by = $%d`, argIdx)
		args = append(args, filter.SubmittedBy)
		argIdx++
	}
	query += ` ORDER BY b.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list bookings")
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, eris.Wrap(rows.Err(), "postgres: list bookings rows")
}

// UpdateBookingStatus applies a transition and appends its audit event in
// one transaction.
func (s *PostgresStore) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus, progress int, note string) error {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin status update")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE bookings SET status = $1, progress = $2, updated_at = $3 WHERE id = $4`,
		string(status), progress, now, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update booking status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindNotFound, "booking not found")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO booking_status_history (id, booking_id, status, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), id, string(status), note, now,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert status history")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit status update")
}

func (s *PostgresStore) Timeline(ctx context.Context, bookingID string) ([]model.TimelineEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, created_at FROM booking_status_history WHERE booking_id = $1 ORDER BY created_at ASC`,
		bookingID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: timeline")
	}
	defer rows.Close()

	var entries []model.TimelineEntry
	for rows.Next() {
		var e model.TimelineEntry
		if err := rows.Scan(&e.Status, &e.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan timeline entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: timeline rows")
}

const inboxSelect = `SELECT i.id, i.booking_id, i.priority, i.rep_status, i.created_at, i.updated_at,
	b.campaign_name, b.client_name, b.net_amount
	FROM sales_rep_inbox i JOIN bookings b ON b.id = i.booking_id`

func scanInboxItem(row rowScanner) (*model.InboxItem, error) {
	var it model.InboxItem
	err := row.Scan(
		&it.ID, &it.BookingID, &it.Priority, &it.RepStatus, &it.CreatedAt, &it.UpdatedAt,
		&it.CampaignName, &it.ClientName, &it.NetAmount,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *PostgresStore) ListInbox(ctx context.Context, filter InboxFilter) ([]model.InboxItem, error) {
	query := inboxSelect
	args := []any{}
	argIdx := 1

	if filter.SubmittedBy != "" {
		query += fmt.Sprintf(` WHERE b.submitted_by = $%d`, argIdx)
		args = append(args, filter.SubmittedBy)
		argIdx++
	}
	query += ` ORDER BY i.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list inbox")
	}
	defer rows.Close()

	var items []model.InboxItem
	for rows.Next() {
		it, err := scanInboxItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan inbox item")
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list inbox rows")
}

func (s *PostgresStore) GetInboxItem(ctx context.Context, id string) (*model.InboxItem, error) {
	it, err := scanInboxItem(s.pool.QueryRow(ctx, inboxSelect+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "sales rep inbox item not found")
		}
		return nil, eris.Wrapf(err, "postgres: get inbox item %s", id)
	}
	return it, nil
}

func (s *PostgresStore) UpdateRepStatus(ctx context.Context, inboxID string, rep model.RepStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sales_rep_inbox SET rep_status = $1, updated_at = $2 WHERE id = $3`,
		string(rep), time.Now().UTC(), inboxID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update rep status %s", inboxID)
	}
	if tag.RowsAffected() == 0 {
		return fault.New(fault.KindNotFound, "sales rep inbox item not found")
	}
	return nil
}

func (s *PostgresStore) GetSettings(ctx context.Context, owner string) (*model.Settings, error) {
	var recipientsJSON []byte
	st := model.Settings{Owner: owner}

	err := s.pool.QueryRow(ctx,
		`SELECT email_recipients, updated_at FROM settings WHERE owner = $1`,
		owner,
	).Scan(&recipientsJSON, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "settings not found")
		}
		return nil, eris.Wrapf(err, "postgres: get settings %s", owner)
	}

	if err := json.Unmarshal(recipientsJSON, &st.EmailRecipients); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal recipients")
	}
	return &st, nil
}

func (s *PostgresStore) PutSettings(ctx context.Context, st model.Settings) error {
	recipientsJSON, err := json.Marshal(st.EmailRecipients)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recipients")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO settings (owner, email_recipients, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (owner) DO UPDATE SET email_recipients = EXCLUDED.email_recipients, updated_at = EXCLUDED.updated_at`,
		st.Owner, recipientsJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: put settings %s", st.Owner)
}

func (s *PostgresStore) ReportSummary(ctx context.Context) (*Summary, error) {
	var sum Summary
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(net_amount), 0), COUNT(*), COUNT(DISTINCT client_name) FROM bookings`,
	).Scan(&sum.TotalRevenue, &sum.TotalBookings, &sum.ActiveClients)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: report summary")
	}
	if sum.TotalBookings > 0 {
		sum.AverageValue = sum.TotalRevenue / float64(sum.TotalBookings)
	}
	return &sum, nil
}

func (s *PostgresStore) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM bookings GROUP BY status ORDER BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: status distribution")
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: status distribution rows")
}

func (s *PostgresStore) MonthlyPerformance(ctx context.Context, since time.Time) ([]MonthlyBucket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT to_char(created_at, 'YYYY-MM') AS month, COALESCE(SUM(net_amount), 0), COUNT(*)
		 FROM bookings WHERE created_at >= $1 GROUP BY 1 ORDER BY 1`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: monthly performance")
	}
	defer rows.Close()

	var buckets []MonthlyBucket
	for rows.Next() {
		var b MonthlyBucket
		if err := rows.Scan(&b.Month, &b.Revenue, &b.Bookings); err != nil {
			return nil, eris.Wrap(err, "postgres: scan monthly bucket")
		}
		buckets = append(buckets, b)
	}
	return buckets, eris.Wrap(rows.Err(), "postgres: monthly performance rows")
}

func (s *PostgresStore) TopClients(ctx context.Context, limit int) ([]ClientLeader, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx,
		`SELECT client_name, COALESCE(SUM(net_amount), 0) AS revenue, COUNT(*)
		 FROM bookings WHERE client_name IS NOT NULL GROUP BY client_name ORDER BY revenue DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top clients")
	}
	defer rows.Close()

	var leaders []ClientLeader
	for rows.Next() {
		var l ClientLeader
		if err := rows.Scan(&l.Name, &l.Revenue, &l.Bookings); err != nil {
			return nil, eris.Wrap(err, "postgres: scan client leader")
		}
		leaders = append(leaders, l)
	}
	return leaders, eris.Wrap(rows.Err(), "postgres: top clients rows")
}

// mapPgWriteError converts a unique-constraint violation into a conflict
// fault; anything else keeps the wrapped operational context.
func mapPgWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fault.Wrap(err, fault.KindConflict, "campaign reference already exists")
	}
	return eris.Wrap(err, op)
}
