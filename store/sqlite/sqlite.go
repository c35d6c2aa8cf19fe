/*
Package sqlite provides the SQLite-backed implementation of subscription.Store.

PURPOSE:
  Persists savers, the phone catalog, subscriptions, and applied payments.
  The same patterns apply to PostgreSQL in production - only minor SQL
  dialect differences.

KEY TABLES:
  savers:        Saver accounts (unique email)
  phones:        Phone catalog (upserted by seed)
  subscriptions: One row per subscription, with a version column
  payments:      Applied payments, append-only, unique payment key

CONCURRENCY:
  The at-most-one-writer guarantee per subscription is enforced here:
  - UPDATE ... WHERE id = ? AND version = ? implements the optimistic
    compare-and-swap; zero rows affected means another writer won and the
    caller gets ErrVersionConflict.
  - The payments.key UNIQUE index rejects a replayed payment inside the
    same transaction that carries the ledger update, so a payment and its
    ledger effect commit or fail together.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, a single writer at a time, better crash
  recovery.

USAGE:
  store, err := sqlite.New("./data/kopichu.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - subscription/store.go: Interface definition and sentinel errors
  - subscription/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/kopichu/savings-engine/accrual"
	"github.com/kopichu/savings-engine/catalog"
	"github.com/kopichu/savings-engine/subscription"
)

// Store implements subscription.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ subscription.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS savers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS phones (
		id TEXT PRIMARY KEY,
		brand TEXT NOT NULL,
		model TEXT NOT NULL,
		price TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		spec_storage TEXT NOT NULL DEFAULT '',
		spec_ram TEXT NOT NULL DEFAULT '',
		spec_screen TEXT NOT NULL DEFAULT '',
		spec_camera TEXT NOT NULL DEFAULT '',
		spec_battery TEXT NOT NULL DEFAULT '',
		spec_processor TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		in_stock INTEGER NOT NULL DEFAULT 1,
		popularity INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_phones_brand_model ON phones(brand, model);
	CREATE INDEX IF NOT EXISTS idx_phones_category ON phones(category);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		saver_id TEXT NOT NULL REFERENCES savers(id),
		phone_id TEXT NOT NULL REFERENCES phones(id),
		target_price TEXT NOT NULL,
		cadence TEXT NOT NULL,
		payment_amount TEXT NOT NULL,
		total_paid TEXT NOT NULL,
		last_payment_at TEXT,
		next_due_at TEXT,
		status TEXT NOT NULL,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_saver ON subscriptions(saver_id);
	-- The scheduler's scan: active subscriptions ordered by due date.
	CREATE INDEX IF NOT EXISTS idx_subscriptions_due
		ON subscriptions(next_due_at) WHERE status = 'active';

	-- Applied payments (append-only). The unique key is the idempotency
	-- guarantee: the same payment can never be counted twice.
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		subscription_id TEXT NOT NULL REFERENCES subscriptions(id),
		payment_key TEXT NOT NULL UNIQUE,
		requested TEXT NOT NULL,
		applied TEXT NOT NULL,
		source TEXT NOT NULL,
		paid_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_subscription ON payments(subscription_id, paid_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVERS
// =============================================================================

func (s *Store) CreateSaver(ctx context.Context, saver subscription.Saver) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO savers (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		saver.ID, saver.Name, saver.Email, formatTime(saver.CreatedAt))
	if isUniqueViolation(err) {
		return subscription.ErrEmailTaken
	}
	return err
}

func (s *Store) GetSaver(ctx context.Context, id string) (subscription.Saver, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM savers WHERE id = ?`, id)
	return scanSaver(row)
}

func (s *Store) ListSavers(ctx context.Context) ([]subscription.Saver, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM savers ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []subscription.Saver
	for rows.Next() {
		saver, err := scanSaver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saver)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaver(row scanner) (subscription.Saver, error) {
	var saver subscription.Saver
	var createdAt string
	err := row.Scan(&saver.ID, &saver.Name, &saver.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Saver{}, subscription.ErrSaverNotFound
	}
	if err != nil {
		return subscription.Saver{}, err
	}
	saver.CreatedAt, err = parseTime(createdAt)
	return saver, err
}

// =============================================================================
// PHONES
// =============================================================================

const phoneColumns = `id, brand, model, price, image, description,
	spec_storage, spec_ram, spec_screen, spec_camera, spec_battery, spec_processor,
	category, in_stock, popularity`

func (s *Store) PutPhones(ctx context.Context, phones []catalog.Phone) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := `INSERT INTO phones (` + phoneColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			brand = excluded.brand, model = excluded.model, price = excluded.price,
			image = excluded.image, description = excluded.description,
			spec_storage = excluded.spec_storage, spec_ram = excluded.spec_ram,
			spec_screen = excluded.spec_screen, spec_camera = excluded.spec_camera,
			spec_battery = excluded.spec_battery, spec_processor = excluded.spec_processor,
			category = excluded.category, in_stock = excluded.in_stock,
			popularity = excluded.popularity`

	for _, p := range phones {
		_, err := tx.ExecContext(ctx, stmt,
			p.ID, p.Brand, p.Model, p.Price.String(), p.Image, p.Description,
			p.Specifications.Storage, p.Specifications.RAM, p.Specifications.Screen,
			p.Specifications.Camera, p.Specifications.Battery, p.Specifications.Processor,
			string(p.Category), p.InStock, p.Popularity)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetPhone(ctx context.Context, id string) (catalog.Phone, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+phoneColumns+` FROM phones WHERE id = ?`, id)
	return scanPhone(row)
}

func (s *Store) ListPhones(ctx context.Context) ([]catalog.Phone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+phoneColumns+` FROM phones ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Phone
	for rows.Next() {
		phone, err := scanPhone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, phone)
	}
	return out, rows.Err()
}

func scanPhone(row scanner) (catalog.Phone, error) {
	var p catalog.Phone
	var price, category string
	err := row.Scan(&p.ID, &p.Brand, &p.Model, &price, &p.Image, &p.Description,
		&p.Specifications.Storage, &p.Specifications.RAM, &p.Specifications.Screen,
		&p.Specifications.Camera, &p.Specifications.Battery, &p.Specifications.Processor,
		&category, &p.InStock, &p.Popularity)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Phone{}, subscription.ErrPhoneNotFound
	}
	if err != nil {
		return catalog.Phone{}, err
	}
	p.Price, err = accrual.ParseMoney(price)
	if err != nil {
		return catalog.Phone{}, err
	}
	p.Category = catalog.Category(category)
	return p, nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

const subscriptionColumns = `id, saver_id, phone_id, target_price, cadence,
	payment_amount, total_paid, last_payment_at, next_due_at, status,
	completed_at, created_at, updated_at, version`

func (s *Store) CreateSubscription(ctx context.Context, sub subscription.Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.SaverID, sub.PhoneID,
		sub.Plan.TargetPrice.String(), string(sub.Plan.Cadence), sub.Plan.PaymentAmount.String(),
		sub.Ledger.TotalPaid.String(),
		formatTimePtr(sub.Ledger.LastPaymentDate), formatTimePtr(sub.Ledger.NextDueDate),
		string(sub.Ledger.Status), formatTimePtr(sub.Ledger.CompletedAt),
		formatTime(sub.CreatedAt), formatTime(sub.UpdatedAt), sub.Version)
	return err
}

func (s *Store) GetSubscription(ctx context.Context, id string) (subscription.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	return scanSubscription(row)
}

func (s *Store) ListBySaver(ctx context.Context, saverID string) ([]subscription.Subscription, error) {
	return s.querySubscriptions(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE saver_id = ? ORDER BY created_at DESC`, saverID)
}

func (s *Store) ListDue(ctx context.Context, now time.Time) ([]subscription.Subscription, error) {
	return s.querySubscriptions(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE status = 'active' AND next_due_at IS NOT NULL AND next_due_at <= ?
		 ORDER BY next_due_at`, formatTime(now))
}

func (s *Store) querySubscriptions(ctx context.Context, query string, args ...any) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubscription(row scanner) (subscription.Subscription, error) {
	var sub subscription.Subscription
	var targetPrice, cadence, paymentAmount, totalPaid, status string
	var lastPayment, nextDue, completedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&sub.ID, &sub.SaverID, &sub.PhoneID,
		&targetPrice, &cadence, &paymentAmount, &totalPaid,
		&lastPayment, &nextDue, &status, &completedAt,
		&createdAt, &updatedAt, &sub.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return subscription.Subscription{}, err
	}

	if sub.Plan.TargetPrice, err = accrual.ParseMoney(targetPrice); err != nil {
		return subscription.Subscription{}, err
	}
	sub.Plan.Cadence = accrual.Cadence(cadence)
	if sub.Plan.PaymentAmount, err = accrual.ParseMoney(paymentAmount); err != nil {
		return subscription.Subscription{}, err
	}
	if sub.Ledger.TotalPaid, err = accrual.ParseMoney(totalPaid); err != nil {
		return subscription.Subscription{}, err
	}
	sub.Ledger.Status = accrual.Status(status)
	if sub.Ledger.LastPaymentDate, err = parseTimePtr(lastPayment); err != nil {
		return subscription.Subscription{}, err
	}
	if sub.Ledger.NextDueDate, err = parseTimePtr(nextDue); err != nil {
		return subscription.Subscription{}, err
	}
	if sub.Ledger.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return subscription.Subscription{}, err
	}
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return subscription.Subscription{}, err
	}
	sub.UpdatedAt, err = parseTime(updatedAt)
	return sub, err
}

// ApplyUpdate persists the snapshot with a compare-and-swap on version, and
// records the payment in the same transaction when present.
func (s *Store) ApplyUpdate(ctx context.Context, sub subscription.Subscription, expectedVersion int64, payment *subscription.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if payment != nil {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO payments (id, subscription_id, payment_key, requested, applied, source, paid_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			payment.ID, payment.SubscriptionID, payment.Key,
			payment.Requested.String(), payment.Applied.String(),
			string(payment.Source), formatTime(payment.PaidAt))
		if isUniqueViolation(err) {
			return subscription.ErrDuplicatePayment
		}
		if err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE subscriptions SET
			cadence = ?, payment_amount = ?, total_paid = ?,
			last_payment_at = ?, next_due_at = ?, status = ?, completed_at = ?,
			updated_at = ?, version = ?
		 WHERE id = ? AND version = ?`,
		string(sub.Plan.Cadence), sub.Plan.PaymentAmount.String(), sub.Ledger.TotalPaid.String(),
		formatTimePtr(sub.Ledger.LastPaymentDate), formatTimePtr(sub.Ledger.NextDueDate),
		string(sub.Ledger.Status), formatTimePtr(sub.Ledger.CompletedAt),
		formatTime(sub.UpdatedAt), sub.Version,
		sub.ID, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or another writer bumped the version.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE id = ?)`, sub.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return subscription.ErrSubscriptionNotFound
		}
		return subscription.ErrVersionConflict
	}
	return tx.Commit()
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) PaymentExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE payment_key = ?)`, key).Scan(&exists)
	return exists, err
}

func (s *Store) ListPayments(ctx context.Context, subscriptionID string) ([]subscription.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subscription_id, payment_key, requested, applied, source, paid_at
		 FROM payments WHERE subscription_id = ? ORDER BY paid_at`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []subscription.Payment
	for rows.Next() {
		var p subscription.Payment
		var requested, applied, source, paidAt string
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &p.Key, &requested, &applied, &source, &paidAt); err != nil {
			return nil, err
		}
		if p.Requested, err = accrual.ParseMoney(requested); err != nil {
			return nil, err
		}
		if p.Applied, err = accrual.ParseMoney(applied); err != nil {
			return nil, err
		}
		p.Source = subscription.PaymentSource(source)
		if p.PaidAt, err = parseTime(paidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
