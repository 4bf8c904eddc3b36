package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS pedidos (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		nome         TEXT NOT NULL,
		empresa      TEXT DEFAULT '',
		almoco       TEXT NOT NULL,
		salada       TEXT NOT NULL,
		sobremesa    TEXT NOT NULL,
		porcao       TEXT NOT NULL,
		carne_extra  TEXT DEFAULT '',
		observacoes  TEXT DEFAULT '',
		submitted_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pedidos_submitted_at ON pedidos(submitted_at);

	CREATE TABLE IF NOT EXISTS report_watermarks (
		kind    TEXT PRIMARY KEY,
		sent_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

// InsertOrder appends one order and returns its generated id. The
// submitted_at instant is stored in UTC.
func InsertOrder(ctx context.Context, db *sql.DB, o Order) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO pedidos (nome, empresa, almoco, salada, sobremesa, porcao, carne_extra, observacoes, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Nome, o.Empresa, o.Almoco, o.Salada, o.Sobremesa, o.Porcao,
		o.CarneExtra, o.Observacoes, o.SubmittedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert order: %v", ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert order id: %v", ErrPersistence, err)
	}
	return id, nil
}

const orderColumns = `id, nome, empresa, almoco, salada, sobremesa, porcao, carne_extra, observacoes, submitted_at`

func scanOrders(rows *sql.Rows) ([]Order, error) {
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID, &o.Nome, &o.Empresa, &o.Almoco, &o.Salada,
			&o.Sobremesa, &o.Porcao, &o.CarneExtra, &o.Observacoes, &o.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan order: %v", ErrPersistence, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read orders: %v", ErrPersistence, err)
	}
	return orders, nil
}

// OrdersByWindow returns orders with From <= submitted_at < To, ascending
// by submission time. Read-only and safe to call repeatedly.
func OrdersByWindow(ctx context.Context, db *sql.DB, w ReportWindow) ([]Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM pedidos
		 WHERE submitted_at >= ? AND submitted_at < ?
		 ORDER BY submitted_at ASC, id ASC`,
		w.From.UTC(), w.To.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query orders by window: %v", ErrPersistence, err)
	}
	return scanOrders(rows)
}

// AllOrders returns the full order log ascending by submission time.
func AllOrders(ctx context.Context, db *sql.DB) ([]Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM pedidos ORDER BY submitted_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query all orders: %v", ErrPersistence, err)
	}
	return scanOrders(rows)
}

// Watermark returns the last successfully reported instant for kind.
// The second value is false when no report of that kind was ever sent.
func Watermark(ctx context.Context, db *sql.DB, kind ReportKind) (time.Time, bool, error) {
	var sentAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT sent_at FROM report_watermarks WHERE kind = ?`, string(kind)).Scan(&sentAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: read watermark: %v", ErrPersistence, err)
	}
	return sentAt.UTC(), true, nil
}

// SetWatermark advances the watermark for kind. The read-modify-write
// runs in one transaction and never moves the watermark backwards, so a
// stale writer cannot undo a newer report.
func SetWatermark(ctx context.Context, db *sql.DB, kind ReportKind, sentAt time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin watermark tx: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	var current time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT sent_at FROM report_watermarks WHERE kind = ?`, string(kind)).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO report_watermarks (kind, sent_at) VALUES (?, ?)`,
			string(kind), sentAt.UTC())
	case err != nil:
		return fmt.Errorf("%w: read watermark: %v", ErrPersistence, err)
	case sentAt.After(current):
		_, err = tx.ExecContext(ctx,
			`UPDATE report_watermarks SET sent_at = ? WHERE kind = ?`,
			sentAt.UTC(), string(kind))
	default:
		return tx.Commit()
	}
	if err != nil {
		return fmt.Errorf("%w: write watermark: %v", ErrPersistence, err)
	}
	return tx.Commit()
}
