package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pinky-service/internal/spylog"
)

type User struct {
	ID         int64
	Name       *string
	TStart     time.Time
	Balance    int
	IsReg      bool
	ReferrerID *int64
}

type Transaction struct {
	ID     int64
	Price  int
	Action string
	Ts     time.Time
	UserID int64
}

type PFunc struct {
	ID       int64
	Message  string
	Cls      *string
	Answer   string
	Ts       time.Time
	Position *string
	UserID   int64
	PayID    int64
}

type Task struct {
	ID       int64
	Ts       time.Time
	Text     string
	Date     time.Time
	IsActive bool
	UserID   int64
}

// TxRunner is what Store needs from DB; tests supply a fake.
type TxRunner interface {
	ReadTx(ctx context.Context, fn func(pgx.Tx) error) error
	WriteTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type Store struct {
	db TxRunner
}

func NewStore(db TxRunner) *Store {
	return &Store{db: db}
}

// NewUser inserts a user keyed by Telegram id. No idempotency beyond the
// primary-key constraint; a duplicate surfaces as ErrUserExists. Server
// defaults (tstart, balance, is_reg) are returned materialized.
func (s *Store) NewUser(ctx context.Context, id int64, name string) (User, error) {
	u := User{ID: id, Name: &name}
	err := s.db.WriteTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO userhub (id, name) VALUES ($1, $2)
			 RETURNING tstart, balance, is_reg`,
			id, name,
		).Scan(&u.TStart, &u.Balance, &u.IsReg)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("user %d: %w", id, ErrUserExists)
		}
		return User{}, err
	}
	return u, nil
}

// RegisterUser flips is_reg. An unknown id is ErrUserNotFound, distinct from
// any transient rollback.
func (s *Store) RegisterUser(ctx context.Context, id int64) error {
	return s.db.WriteTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE userhub SET is_reg = true WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("user %d: %w", id, ErrUserNotFound)
		}
		return nil
	})
}

// SetReferrer links a user to its referrer. The referrer relation is a tree:
// the ancestor chain of the proposed referrer is walked inside the
// serializable transaction and any path back to the user is rejected.
func (s *Store) SetReferrer(ctx context.Context, id, referrerID int64) error {
	if id == referrerID {
		return ErrReferralCycle
	}
	return s.db.WriteTx(ctx, func(tx pgx.Tx) error {
		cur := referrerID
		for {
			var next *int64
			err := tx.QueryRow(ctx,
				`SELECT referrer_id FROM userhub WHERE id = $1`, cur,
			).Scan(&next)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("referrer %d: %w", cur, ErrUserNotFound)
			}
			if err != nil {
				return err
			}
			if next == nil {
				break
			}
			if *next == id {
				return ErrReferralCycle
			}
			cur = *next
		}
		tag, err := tx.Exec(ctx,
			`UPDATE userhub SET referrer_id = $2 WHERE id = $1`, id, referrerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("user %d: %w", id, ErrUserNotFound)
		}
		return nil
	})
}

// AddTransaction appends a ledger row and debits the user's balance in the
// same unit of work.
func (s *Store) AddTransaction(ctx context.Context, userID int64, price int, action string) (Transaction, error) {
	tr := Transaction{Price: price, Action: action, UserID: userID}
	err := s.db.WriteTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE userhub SET balance = balance - $2 WHERE id = $1`, userID, price)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
		}
		return tx.QueryRow(ctx,
			`INSERT INTO transactions (price, action, user_id) VALUES ($1, $2, $3)
			 RETURNING id, ts`,
			price, action, userID,
		).Scan(&tr.ID, &tr.Ts)
	})
	if err != nil {
		return Transaction{}, err
	}
	return tr, nil
}

// AddPFunc stores a generated output referencing its paying transaction.
func (s *Store) AddPFunc(ctx context.Context, p PFunc) (PFunc, error) {
	err := s.db.WriteTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO pfunc (message, cls, answer, position, user_id, pay_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, ts`,
			p.Message, p.Cls, p.Answer, p.Position, p.UserID, p.PayID,
		).Scan(&p.ID, &p.Ts)
	})
	if err != nil {
		return PFunc{}, err
	}
	return p, nil
}

// AddTask schedules a task for a user.
func (s *Store) AddTask(ctx context.Context, t Task) (Task, error) {
	err := s.db.WriteTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO tasks (text, date, is_active, user_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, ts`,
			t.Text, t.Date, t.IsActive, t.UserID,
		).Scan(&t.ID, &t.Ts)
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// UserByID is a read-template lookup.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.db.ReadTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`SELECT id, name, tstart, balance, is_reg, referrer_id
			 FROM userhub WHERE id = $1`, id,
		).Scan(&u.ID, &u.Name, &u.TStart, &u.Balance, &u.IsReg, &u.ReferrerID)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// InsertEvents bulk-inserts one drained batch into the event log. One COPY
// per batch, all rows or none.
func (s *Store) InsertEvents(ctx context.Context, rows []spylog.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.UserID, r.Action, r.Ts}
	}
	var n int64
	err := s.db.WriteTx(ctx, func(tx pgx.Tx) error {
		var err error
		n, err = tx.CopyFrom(ctx,
			pgx.Identifier{"spylog"},
			[]string{"user_id", "action", "ts"},
			pgx.CopyFromRows(src),
		)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
