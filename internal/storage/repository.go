package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"caixa/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound       = errors.New("row not found")
	ErrNotPaid        = errors.New("schedule is not paid")
	ErrEmptySchedules = errors.New("schedule batch cannot be empty")
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateEntry inserts an entry and, when schedules is non-empty, its
// whole schedule batch in one transaction. The batch is all-or-none; a
// partially created schedule never exists.
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.LedgerEntry, schedules []core.PaymentSchedule) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO entries (account_id, client_id, item_id, quantity, value, payment_method, status, entry_date, due_date, payment_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.AccountID, e.ClientID, e.ItemID, e.Quantity, e.Value.StringFixed(2), e.PaymentMethod,
		string(e.Status), e.Date.UTC().Format(dateLayout), fmtDatePtr(e.DueDate), fmtDateTimePtr(e.PaymentDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry id: %w", err)
	}

	for _, s := range schedules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedules (entry_id, kind, installment_number, installments_total, due_date, amount, status, paid_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entryID, string(s.Kind), s.InstallmentNumber, s.InstallmentsTotal,
			s.DueDate.UTC().Format(dateLayout), s.Amount.StringFixed(2), string(s.Status), fmtDateTimePtr(s.PaidAt),
		)
		if err != nil {
			return 0, fmt.Errorf("insert schedule %d/%d: %w", s.InstallmentNumber, s.InstallmentsTotal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved",
		"entry_id", entryID,
		"account_id", e.AccountID,
		"value", e.Value.StringFixed(2),
		"schedules", len(schedules))
	return entryID, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, x core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (account_id, kind, category, value, expense_date, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		x.AccountID, string(x.Kind), x.Category, x.Value.StringFixed(2),
		x.Date.UTC().Format(dateLayout), string(x.Status),
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}
	return id, nil
}

// MarkSchedulePaid flips one schedule to paid with a paid-at timestamp.
func (r *SQLiteRepository) MarkSchedulePaid(ctx context.Context, scheduleID int64, paidAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET status = ?, paid_at = ? WHERE id = ?`,
		string(core.StatusPaid), paidAt.UTC().Format(dateTimeLayout), scheduleID,
	)
	if err != nil {
		return fmt.Errorf("mark schedule paid: %w", err)
	}
	return requireAffected(res)
}

// RevertSchedule is the admin-only paid->pending transition. The prior
// status and the acting admin are recorded in schedule_status_changes.
func (r *SQLiteRepository) RevertSchedule(ctx context.Context, scheduleID int64, actor string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var prior string
	err = tx.QueryRowContext(ctx, `SELECT status FROM schedules WHERE id = ?`, scheduleID).Scan(&prior)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	if prior != string(core.StatusPaid) {
		return ErrNotPaid
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE schedules SET status = ?, paid_at = NULL WHERE id = ?`,
		string(core.StatusPending), scheduleID,
	); err != nil {
		return fmt.Errorf("revert schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schedule_status_changes (schedule_id, prior_status, new_status, actor)
		VALUES (?, ?, ?, ?)`,
		scheduleID, prior, string(core.StatusPending), actor,
	); err != nil {
		return fmt.Errorf("record status change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revert: %w", err)
	}

	slog.InfoContext(ctx, "Schedule reverted to pending",
		"schedule_id", scheduleID,
		"actor", actor)
	return nil
}

func (r *SQLiteRepository) UpdateEntryStatus(ctx context.Context, entryID int64, status core.Status, paymentDate *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE entries SET status = ?, payment_date = ? WHERE id = ?`,
		string(status), fmtDateTimePtr(paymentDate), entryID,
	)
	if err != nil {
		return fmt.Errorf("update entry status: %w", err)
	}
	return requireAffected(res)
}

// SaveSubscriptionProfile upserts the billing collaborator's raw
// profile fields. The computation layer only ever reads this row.
func (r *SQLiteRepository) SaveSubscriptionProfile(ctx context.Context, p core.SubscriptionProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscription_profiles (id, raw_status, plan, selected_plan, trial_start, trial_end, trial_days, expiration_date, owner, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			raw_status = excluded.raw_status,
			plan = excluded.plan,
			selected_plan = excluded.selected_plan,
			trial_start = excluded.trial_start,
			trial_end = excluded.trial_end,
			trial_days = excluded.trial_days,
			expiration_date = excluded.expiration_date,
			owner = excluded.owner,
			updated_at = datetime('now')`,
		p.ID, p.RawStatus, p.Plan, p.SelectedPlan,
		fmtDateTimePtr(p.TrialStart), fmtDateTimePtr(p.TrialEnd), p.TrialDays,
		fmtDateTimePtr(p.ExpirationDate), boolToInt(p.Owner),
	)
	if err != nil {
		return fmt.Errorf("save subscription profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, accountID string) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, client_id, item_id, quantity, value, payment_method, status, entry_date, due_date, payment_date
		FROM entries WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		var (
			e                      core.LedgerEntry
			value                  string
			status                 string
			entryDate              string
			dueDate, paymentDate   sql.NullString
			clientID, itemID       sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &clientID, &itemID, &e.Quantity, &value, &e.PaymentMethod, &status, &entryDate, &dueDate, &paymentDate); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Value, err = core.ParseMoney(value); err != nil {
			return nil, fmt.Errorf("entry %d value %q: %w", e.ID, value, err)
		}
		if e.Status, err = parseStatus(status); err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		if e.Date, err = time.Parse(dateLayout, entryDate); err != nil {
			return nil, fmt.Errorf("entry %d date %q: %w", e.ID, entryDate, err)
		}
		if clientID.Valid {
			e.ClientID = &clientID.Int64
		}
		if itemID.Valid {
			e.ItemID = &itemID.Int64
		}
		if e.DueDate, err = parseDatePtr(dueDate); err != nil {
			return nil, fmt.Errorf("entry %d due date: %w", e.ID, err)
		}
		if e.PaymentDate, err = parseDateTimePtr(paymentDate); err != nil {
			return nil, fmt.Errorf("entry %d payment date: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, accountID string) ([]core.PaymentSchedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.entry_id, s.kind, s.installment_number, s.installments_total, s.due_date, s.amount, s.status, s.paid_at
		FROM schedules s
		JOIN entries e ON e.id = s.entry_id
		WHERE e.account_id = ?
		ORDER BY s.entry_id, s.installment_number`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []core.PaymentSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, scheduleID int64) (core.PaymentSchedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, entry_id, kind, installment_number, installments_total, due_date, amount, status, paid_at
		FROM schedules WHERE id = ?`, scheduleID)
	s, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentSchedule{}, ErrNotFound
	}
	return s, err
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, entryID int64) (core.LedgerEntry, error) {
	var (
		e                    core.LedgerEntry
		value, status, date  string
		dueDate, paymentDate sql.NullString
		clientID, itemID     sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, client_id, item_id, quantity, value, payment_method, status, entry_date, due_date, payment_date
		FROM entries WHERE id = ?`, entryID).
		Scan(&e.ID, &e.AccountID, &clientID, &itemID, &e.Quantity, &value, &e.PaymentMethod, &status, &date, &dueDate, &paymentDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, ErrNotFound
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	if e.Value, err = core.ParseMoney(value); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d value %q: %w", e.ID, value, err)
	}
	if e.Status, err = parseStatus(status); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d: %w", e.ID, err)
	}
	if e.Date, err = time.Parse(dateLayout, date); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d date %q: %w", e.ID, date, err)
	}
	if clientID.Valid {
		e.ClientID = &clientID.Int64
	}
	if itemID.Valid {
		e.ItemID = &itemID.Int64
	}
	if e.DueDate, err = parseDatePtr(dueDate); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d due date: %w", e.ID, err)
	}
	if e.PaymentDate, err = parseDateTimePtr(paymentDate); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d payment date: %w", e.ID, err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, accountID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, kind, category, value, expense_date, status
		FROM expenses WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			x                   core.Expense
			kind, value, status string
			date                string
		)
		if err := rows.Scan(&x.ID, &x.AccountID, &kind, &x.Category, &value, &date, &status); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if x.Value, err = core.ParseMoney(value); err != nil {
			return nil, fmt.Errorf("expense %d value %q: %w", x.ID, value, err)
		}
		if x.Status, err = parseStatus(status); err != nil {
			return nil, fmt.Errorf("expense %d: %w", x.ID, err)
		}
		if x.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("expense %d date %q: %w", x.ID, date, err)
		}
		switch core.ExpenseKind(kind) {
		case core.ExpenseFixed, core.ExpenseVariable:
			x.Kind = core.ExpenseKind(kind)
		default:
			return nil, fmt.Errorf("expense %d kind %q: %w", x.ID, kind, core.ErrInvalidKind)
		}
		expenses = append(expenses, x)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) GetSubscriptionProfile(ctx context.Context, accountID string) (core.SubscriptionProfile, error) {
	var (
		p                               core.SubscriptionProfile
		trialStart, trialEnd, expiresAt sql.NullString
		owner                           int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, raw_status, plan, selected_plan, trial_start, trial_end, trial_days, expiration_date, owner
		FROM subscription_profiles WHERE id = ?`, accountID).
		Scan(&p.ID, &p.RawStatus, &p.Plan, &p.SelectedPlan, &trialStart, &trialEnd, &p.TrialDays, &expiresAt, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SubscriptionProfile{}, ErrNotFound
	}
	if err != nil {
		return core.SubscriptionProfile{}, fmt.Errorf("get subscription profile: %w", err)
	}
	if p.TrialStart, err = parseDateTimePtr(trialStart); err != nil {
		return core.SubscriptionProfile{}, fmt.Errorf("profile %s trial start: %w", p.ID, err)
	}
	if p.TrialEnd, err = parseDateTimePtr(trialEnd); err != nil {
		return core.SubscriptionProfile{}, fmt.Errorf("profile %s trial end: %w", p.ID, err)
	}
	if p.ExpirationDate, err = parseDateTimePtr(expiresAt); err != nil {
		return core.SubscriptionProfile{}, fmt.Errorf("profile %s expiration: %w", p.ID, err)
	}
	p.Owner = owner != 0
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (core.PaymentSchedule, error) {
	var (
		s                   core.PaymentSchedule
		kind, amount, state string
		due                 string
		paidAt              sql.NullString
	)
	err := row.Scan(&s.ID, &s.EntryID, &kind, &s.InstallmentNumber, &s.InstallmentsTotal, &due, &amount, &state, &paidAt)
	if err != nil {
		return core.PaymentSchedule{}, err
	}
	if s.Amount, err = core.ParseMoney(amount); err != nil {
		return core.PaymentSchedule{}, fmt.Errorf("schedule %d amount %q: %w", s.ID, amount, err)
	}
	if s.Status, err = parseStatus(state); err != nil {
		return core.PaymentSchedule{}, fmt.Errorf("schedule %d: %w", s.ID, err)
	}
	if s.DueDate, err = time.Parse(dateLayout, due); err != nil {
		return core.PaymentSchedule{}, fmt.Errorf("schedule %d due date %q: %w", s.ID, due, err)
	}
	switch core.ScheduleKind(kind) {
	case core.KindSingle, core.KindInstallment, core.KindMonthlyPackage:
		s.Kind = core.ScheduleKind(kind)
	default:
		return core.PaymentSchedule{}, fmt.Errorf("schedule %d kind %q: %w", s.ID, kind, core.ErrInvalidKind)
	}
	if s.PaidAt, err = parseDateTimePtr(paidAt); err != nil {
		return core.PaymentSchedule{}, fmt.Errorf("schedule %d paid at: %w", s.ID, err)
	}
	return s, nil
}

func parseStatus(s string) (core.Status, error) {
	switch core.Status(s) {
	case core.StatusPending, core.StatusPaid:
		return core.Status(s), nil
	default:
		return "", fmt.Errorf("status %q: %w", s, core.ErrInvalidStatus)
	}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func fmtDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func fmtDateTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateTimeLayout)
}

func parseDatePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDateTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateTimeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
