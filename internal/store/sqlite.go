package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	sqlite "modernc.org/sqlite"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// SQLite extended result codes for unique constraint violations.
const (
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	gross_amount           REAL,
	partner_discount       REAL,
	additional_charges     REAL,
	net_amount             REAL,
	creative_file_link     TEXT,
	creative_specs         TEXT,
	special_instructions   TEXT,
	signatory_name         TEXT,
	signatory_title        TEXT,
	signature_date         TEXT,
	status                 TEXT NOT NULL DEFAULT 'submitted',
	progress               INTEGER NOT NULL DEFAULT 0,
	priority               TEXT NOT NULL DEFAULT 'Medium',
	created_at             DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);
CREATE INDEX IF NOT EXISTS idx_bookings_submitted_by ON bookings(submitted_by);
CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at);

CREATE TABLE IF NOT EXISTS booking_status_history (
	id         TEXT PRIMARY KEY,
	booking_id TEXT NOT NULL REFERENCES bookings(id),
	status     TEXT NOT NULL,
	notes      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_history_booking_id ON booking_status_history(booking_id, created_at);

CREATE TABLE IF NOT EXISTS sales_rep_inbox (
	id         TEXT PRIMARY KEY,
	booking_id TEXT NOT NULL UNIQUE REFERENCES bookings(id),
	priority   TEXT NOT NULL,
	rep_status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_inbox_created_at ON sales_rep_inbox(created_at);

CREATE TABLE IF NOT EXISTS settings (
	owner            TEXT PRIMARY KEY,
	email_recipients TEXT NOT NULL,
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBooking(ctx context.Context, b *model.Booking, note string) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.RepStatus == "" {
		b.RepStatus = model.RepPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin create booking")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		 ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SubmittedBy, b.ClientName, b.ContactName, b.ContactEmail, b.ContactPhone,
		b.Address, b.IndustrySegment, b.TaxRegistrationNo, b.CampaignName, b.CampaignRef,
		b.StartDate, b.EndDate, b.CreativeDeliveryDate, b.MediaType, b.PlacementPreferences,
		b.GrossAmount, b.PartnerDiscount, b.AdditionalCharges, b.NetAmount,
		b.CreativeFileLink, b.CreativeSpecs, b.SpecialInstructions,
		b.SignatoryName, b.SignatoryTitle, b.SignatureDate,
		string(b.Status), b.Progress, string(b.Priority), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapSQLiteWriteError(err, "sqlite: insert booking")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales_rep_inbox (id, booking_id, priority, rep_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), b.ID, string(b.Priority), string(b.RepStatus), now, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert inbox item")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_status_history (id, booking_id, status, notes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), b.ID, string(b.Status), note, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert status history")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit create booking")
}

func (s *SQLiteStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "booking not found")
		}
		return nil, eris.Wrapf(err, "sqlite: get booking %s", id)
	}
	return b, nil
}

func (s *SQLiteStore) GetBookingByRef(ctx context.Context, campaignRef string) (*model.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, bookingSelect+` WHERE b.campaign_ref = ?`, campaignRef))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "booking not found")
		}
		return nil, eris.Wrapf(err, "sqlite: get booking by ref %s", campaignRef)
	}
	return b, nil
}

func (s *SQLiteStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	query := bookingSelect + ` WHERE true`
	args := []any{}

	if filter.Status != "" {
		query += ` AND b.status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		query += ` AND b.priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.SubmittedBy != "" {
		query += ` AND b.submitted_by = ?`
		args = append(args, filter.SubmittedBy)
	}
	query += ` ORDER BY b.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list bookings")
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, eris.Wrap(rows.Err(), "sqlite: list bookings rows")
}

func (s *SQLiteStore) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus, progress int, note string) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin status update")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, progress = ?, updated_at = ? WHERE id = ?`,
		string(status), progress, now, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update booking status %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.New(fault.KindNotFound, "booking not found")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_status_history (id, booking_id, status, notes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), id, string(status), note, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert status history")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit status update")
}

func (s *SQLiteStore) Timeline(ctx context.Context, bookingID string) ([]model.TimelineEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, created_at FROM booking_status_history WHERE booking_id = ? ORDER BY created_at ASC`,
		bookingID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: timeline")
	}
	defer rows.Close()

	var entries []model.TimelineEntry
	for rows.Next() {
		var e model.TimelineEntry
		if err := rows.Scan(&e.Status, &e.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan timeline entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: timeline rows")
}

func (s *SQLiteStore) ListInbox(ctx context.Context, filter InboxFilter) ([]model.InboxItem, error) {
	query := inboxSelect
	args := []any{}

	if filter.SubmittedBy != "" {
		query += ` WHERE b.submitted_by = ?`
		args = append(args, filter.SubmittedBy)
	}
	query += ` ORDER BY i.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list inbox")
	}
	defer rows.Close()

	var items []model.InboxItem
	for rows.Next() {
		it, err := scanInboxItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan inbox item")
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list inbox rows")
}

func (s *SQLiteStore) GetInboxItem(ctx context.Context, id string) (*model.InboxItem, error) {
	it, err := scanInboxItem(s.db.QueryRowContext(ctx, inboxSelect+` WHERE i.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "sales rep inbox item not found")
		}
		return nil, eris.Wrapf(err, "sqlite: get inbox item %s", id)
	}
	return it, nil
}

func (s *SQLiteStore) UpdateRepStatus(ctx context.Context, inboxID string, rep model.RepStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sales_rep_inbox SET rep_status = ?, updated_at = ? WHERE id = ?`,
		string(rep), time.Now().UTC(), inboxID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update rep status %s", inboxID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.New(fault.KindNotFound, "sales rep inbox item not found")
	}
	return nil
}

func (s *SQLiteStore) GetSettings(ctx context.Context, owner string) (*model.Settings, error) {
	var recipientsJSON []byte
	st := model.Settings{Owner: owner}

	err := s.db.QueryRowContext(ctx,
		`SELECT email_recipients, updated_at FROM settings WHERE owner = ?`,
		owner,
	).Scan(&recipientsJSON, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.KindNotFound, "settings not found")
		}
		return nil, eris.Wrapf(err, "sqlite: get settings %s", owner)
	}

	if err := json.Unmarshal(recipientsJSON, &st.EmailRecipients); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal recipients")
	}
	return &st, nil
}

func (s *SQLiteStore) PutSettings(ctx context.Context, st model.Settings) error {
	recipientsJSON, err := json.Marshal(st.EmailRecipients)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recipients")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (owner, email_recipients, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (owner) DO UPDATE SET email_recipients = excluded.email_recipients, updated_at = excluded.updated_at`,
		st.Owner, recipientsJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put settings %s", st.Owner)
}

func (s *SQLiteStore) ReportSummary(ctx context.Context) (*Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(net_amount), 0), COUNT(*), COUNT(DISTINCT client_name) FROM bookings`,
	).Scan(&sum.TotalRevenue, &sum.TotalBookings, &sum.ActiveClients)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: report summary")
	}
	if sum.TotalBookings > 0 {
		sum.AverageValue = sum.TotalRevenue / float64(sum.TotalBookings)
	}
	return &sum, nil
}

func (s *SQLiteStore) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM bookings GROUP BY status ORDER BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: status distribution")
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: status distribution rows")
}

func (s *SQLiteStore) MonthlyPerformance(ctx context.Context, since time.Time) ([]MonthlyBucket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', created_at) AS month, COALESCE(SUM(net_amount), 0), COUNT(*)
		 FROM bookings WHERE created_at >= ? GROUP BY 1 ORDER BY 1`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: monthly performance")
	}
	defer rows.Close()

	var buckets []MonthlyBucket
	for rows.Next() {
		var b MonthlyBucket
		if err := rows.Scan(&b.Month, &b.Revenue, &b.Bookings); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan monthly bucket")
		}
		buckets = append(buckets, b)
	}
	return buckets, eris.Wrap(rows.Err(), "sqlite: monthly performance rows")
}

func (s *SQLiteStore) TopClients(ctx context.Context, limit int) ([]ClientLeader, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT client_name, COALESCE(SUM(net_amount), 0) AS revenue, COUNT(*)
		 FROM bookings WHERE client_name IS NOT NULL GROUP BY client_name ORDER BY revenue DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top clients")
	}
	defer rows.Close()

	var leaders []ClientLeader
	for rows.Next() {
		var l ClientLeader
		if err := rows.Scan(&l.Name, &l.Revenue, &l.Bookings); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan client leader")
		}
		leaders = append(leaders, l)
	}
	return leaders, eris.Wrap(rows.Err(), "sqlite: top clients rows")
}

// mapSQLiteWriteError converts a unique-constraint violation into a
// conflict fault.
func mapSQLiteWriteError(err error, op string) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return fault.Wrap(err, fault.KindConflict, "campaign reference already exists")
		}
	}
	return eris.Wrap(err, op)
}

