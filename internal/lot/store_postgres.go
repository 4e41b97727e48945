package lot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkspace/pkg/domain"
	"parkspace/pkg/platform/sentinel"
	txcontext "parkspace/pkg/platform/tx"
)

// Schema creates the tables this store needs. Applied by deploy tooling and
// by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS lots (
	id BIGSERIAL PRIMARY KEY,
	lender TEXT NOT NULL,
	renter TEXT NOT NULL,
	price BIGINT NOT NULL DEFAULT 0,
	deposit BIGINT NOT NULL DEFAULT 0,
	return_day BIGINT NOT NULL DEFAULT 0,
	rent_time BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_counts (
	wallet TEXT PRIMARY KEY,
	lots_held INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sale_prices (
	lot_id BIGINT PRIMARY KEY REFERENCES lots(id),
	price BIGINT NOT NULL
);
`

// PostgresStore persists lots in PostgreSQL. Reads and writes honor a
// transaction placed in context via pkg/platform/tx, falling back to the
// pool otherwise.
type PostgresStore struct {
	db           *sql.DB
	maxPerWallet int
}

func NewPostgres(db *sql.DB, maxPerWallet int) *PostgresStore {
	return &PostgresStore{db: db, maxPerWallet: maxPerWallet}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, owner domain.Address) (Lot, error) {
	// The conditional upsert below always succeeds for a wallet's first lot,
	// so a zero cap needs its own guard.
	if s.maxPerWallet < 1 {
		return Lot{}, fmt.Errorf("wallet %s: %w", owner, ErrWalletLimit)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Lot{}, fmt.Errorf("begin create lot: %w", err)
	}
	defer tx.Rollback()

	// Bump the wallet counter only while it is under the cap; the conditional
	// upsert makes the check-and-increment atomic under concurrent mints.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_counts (wallet, lots_held) VALUES ($1, 1)
		ON CONFLICT (wallet) DO UPDATE SET lots_held = wallet_counts.lots_held + 1
		WHERE wallet_counts.lots_held < $2`,
		owner.String(), s.maxPerWallet)
	if err != nil {
		return Lot{}, fmt.Errorf("increment wallet count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Lot{}, fmt.Errorf("increment wallet count: %w", err)
	}
	if affected == 0 {
		return Lot{}, fmt.Errorf("wallet %s: %w", owner, ErrWalletLimit)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO lots (lender, renter, status)
		VALUES ($1, $1, $2)
		RETURNING id`,
		owner.String(), string(StatusUnavailable)).Scan(&id)
	if err != nil {
		return Lot{}, fmt.Errorf("insert lot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Lot{}, fmt.Errorf("commit create lot: %w", err)
	}
	return Lot{
		ID:     domain.LotID(id),
		Lender: owner,
		Renter: owner,
		Status: StatusUnavailable,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.LotID) (Lot, error) {
	var rec Lot
	var lender, renter, status string
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, lender, renter, price, deposit, return_day, rent_time, status
		FROM lots WHERE id = $1`,
		uint64(id)).Scan(&rec.ID, &lender, &renter, &rec.Price, &rec.Deposit, &rec.ReturnDay, &rec.RentTime, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lot{}, fmt.Errorf("lot %d: %w", id, sentinel.ErrNotFound)
		}
		return Lot{}, fmt.Errorf("get lot: %w", err)
	}
	rec.Lender = domain.Address(lender)
	rec.Renter = domain.Address(renter)
	rec.Status = Status(status)
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec Lot) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE lots
		SET lender = $2, renter = $3, price = $4, deposit = $5, return_day = $6, rent_time = $7, status = $8
		WHERE id = $1`,
		uint64(rec.ID), rec.Lender.String(), rec.Renter.String(),
		rec.Price, rec.Deposit, rec.ReturnDay, rec.RentTime, string(rec.Status))
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %d: %w", rec.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CompleteSale(ctx context.Context, rec Lot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete sale: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE lots
		SET lender = $2, renter = $3, price = $4, deposit = $5, return_day = $6, rent_time = $7, status = $8
		WHERE id = $1`,
		uint64(rec.ID), rec.Lender.String(), rec.Renter.String(),
		rec.Price, rec.Deposit, rec.ReturnDay, rec.RentTime, string(rec.Status))
	if err != nil {
		return fmt.Errorf("complete sale: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete sale: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %d: %w", rec.ID, sentinel.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_prices WHERE lot_id = $1`, uint64(rec.ID)); err != nil {
		return fmt.Errorf("clear sale price: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete sale: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var n uint64
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM lots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lots: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) LotsHeld(ctx context.Context, owner domain.Address) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT lots_held FROM wallet_counts WHERE wallet = $1`,
		owner.String()).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lots held: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) SalePrice(ctx context.Context, id domain.LotID) (uint64, error) {
	var price uint64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT price FROM sale_prices WHERE lot_id = $1`,
		uint64(id)).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sale price: %w", err)
	}
	return price, nil
}

func (s *PostgresStore) SetSalePrice(ctx context.Context, id domain.LotID, price uint64) error {
	exec := s.execer(ctx)
	if price == 0 {
		if _, err := exec.ExecContext(ctx, `DELETE FROM sale_prices WHERE lot_id = $1`, uint64(id)); err != nil {
			return fmt.Errorf("clear sale price: %w", err)
		}
		return nil
	}
	res, err := exec.ExecContext(ctx, `
		INSERT INTO sale_prices (lot_id, price)
		SELECT id, $2 FROM lots WHERE id = $1
		ON CONFLICT (lot_id) DO UPDATE SET price = EXCLUDED.price`,
		uint64(id), price)
	if err != nil {
		return fmt.Errorf("set sale price: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set sale price: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
