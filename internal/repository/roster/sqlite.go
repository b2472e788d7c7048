package roster

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Registers the "sqlite" database/sql driver.

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
)

// SQLiteRepository keeps the roster in a SQLite table.
// The row id is the record row, so identities survive deletes of other rows.
type SQLiteRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteRepository opens (and if needed creates) the roster database.
// Use ":memory:" for a throwaway database.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// An in-memory database lives as long as its only connection.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '0',
		payment_date TEXT NOT NULL DEFAULT ''
	);
	`

	_, err := r.db.Exec(schema)

	return err
}

// Fetch returns all named records ordered by row.
func (r *SQLiteRepository) Fetch(ctx context.Context) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, phone, status, payment_date FROM records WHERE TRIM(name) <> '' ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record

	for rows.Next() {
		var (
			row                              int
			name, phone, status, paymentDate string
		)

		if err := rows.Scan(&row, &name, &phone, &status, &paymentDate); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		name = strings.TrimSpace(name)
		records = append(records, domain.Record{
			ID:          domain.RecordID(row, name),
			Row:         row,
			Name:        name,
			Phone:       strings.TrimSpace(phone),
			Status:      domain.ParseStatus(status),
			PaymentDate: strings.TrimSpace(paymentDate),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// SetStatus writes the status of one record.
func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, status domain.Status) error {
	return r.exec(ctx, "set status", id, "UPDATE records SET status = ? WHERE id = ? AND name = ?", status.String())
}

// SetPhone replaces the phone number of a record.
func (r *SQLiteRepository) SetPhone(ctx context.Context, id, phone string) error {
	return r.exec(ctx, "set phone", id,
		"UPDATE records SET phone = ? WHERE id = ? AND name = ?", strings.TrimSpace(phone))
}

// SetPaymentDate sets or clears the payment date of a record.
func (r *SQLiteRepository) SetPaymentDate(ctx context.Context, id, paymentDate string) error {
	return r.exec(ctx, "set payment date", id,
		"UPDATE records SET payment_date = ? WHERE id = ? AND name = ?", strings.TrimSpace(paymentDate))
}

// Delete removes a record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete", id, "DELETE FROM records WHERE id = ? AND name = ?")
}

// Add inserts a record in the CheckedOut state.
func (r *SQLiteRepository) Add(ctx context.Context, name, phone, paymentDate string) (domain.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Record{}, errNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := domain.Record{
		Name:        name,
		Phone:       strings.TrimSpace(phone),
		Status:      domain.CheckedOut,
		PaymentDate: strings.TrimSpace(paymentDate),
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO records (name, phone, status, payment_date) VALUES (?, ?, ?, ?)",
		rec.Name, rec.Phone, rec.Status.String(), rec.PaymentDate,
	)
	if err != nil {
		return domain.Record{}, writeError("insert record", err)
	}

	row, err := res.LastInsertId()
	if err != nil {
		return domain.Record{}, writeError("insert record", err)
	}

	rec.Row = int(row)
	rec.ID = domain.RecordID(rec.Row, rec.Name)

	return rec, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// exec runs a single-record statement whose last two parameters are row and name.
func (r *SQLiteRepository) exec(ctx context.Context, op, id, query string, args ...any) error {
	row, name, err := splitID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, query, append(args, row, name)...)
	if err != nil {
		return writeError(op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return writeError(op, err)
	}

	if affected == 0 {
		return fmt.Errorf("%q: %w", id, ErrNotFound)
	}

	return nil
}

// splitID reverses domain.RecordID.
func splitID(id string) (int, string, error) {
	rawRow, name, ok := strings.Cut(id, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed id %q: %w", id, ErrNotFound)
	}

	var row int
	if _, err := fmt.Sscanf(rawRow, "%d", &row); err != nil {
		return 0, "", fmt.Errorf("malformed id %q: %w", id, ErrNotFound)
	}

	return row, name, nil
}
