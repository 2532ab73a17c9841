package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rmarch/car-config/internal/core/domain"
	"github.com/rmarch/car-config/internal/port"
)

// MySQLAdapter is the authoritative store. Commits run as serializable
// transactions; availability is derived per read, never stored.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// querier lets the same read queries run on the pool or inside a
// transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (m *MySQLAdapter) Models(ctx context.Context) ([]domain.Model, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, power, price, max_accessories
		FROM models ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var mo domain.Model
		if err := rows.Scan(&mo.ID, &mo.Name, &mo.Power, &mo.Price, &mo.MaxAccessories); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		models = append(models, mo)
	}
	return models, rows.Err()
}

func (m *MySQLAdapter) Accessories(ctx context.Context) ([]domain.Accessory, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, description, price, capacity, mandatory
		FROM accessories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query accessories: %w", err)
	}
	defer rows.Close()

	var accessories []domain.Accessory
	index := make(map[string]int)
	for rows.Next() {
		var (
			a         domain.Accessory
			mandatory sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Price, &a.Capacity, &mandatory); err != nil {
			return nil, fmt.Errorf("scan accessory: %w", err)
		}
		if mandatory.Valid {
			a.Mandatory = mandatory.String
		}
		index[a.ID] = len(accessories)
		accessories = append(accessories, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	incompatRows, err := m.db.QueryContext(ctx, `
		SELECT accessory_id, incompat_id FROM incompats ORDER BY accessory_id, incompat_id`)
	if err != nil {
		return nil, fmt.Errorf("query incompats: %w", err)
	}
	defer incompatRows.Close()

	for incompatRows.Next() {
		var accessoryID, incompatID string
		if err := incompatRows.Scan(&accessoryID, &incompatID); err != nil {
			return nil, fmt.Errorf("scan incompat: %w", err)
		}
		i, ok := index[accessoryID]
		if !ok {
			return nil, fmt.Errorf("%w: incompat row references unknown accessory %q",
				domain.ErrDataIntegrity, accessoryID)
		}
		accessories[i].Incompat = append(accessories[i].Incompat, incompatID)
	}
	return accessories, incompatRows.Err()
}

func (m *MySQLAdapter) Availability(ctx context.Context) (map[string]int, error) {
	return availability(ctx, m.db, false)
}

func (m *MySQLAdapter) ConfigurationByOwner(ctx context.Context, owner int64) (*domain.Configuration, error) {
	return configurationByOwner(ctx, m.db, owner)
}

func (m *MySQLAdapter) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(m.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, qualified FROM users WHERE username = ?`, username))
}

func (m *MySQLAdapter) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(m.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, qualified FROM users WHERE id = ?`, id))
}

// WithinTx runs fn in one serializable transaction. Deadlocks and lock
// timeouts, the store's way of saying another writer won, map to
// domain.ErrConcurrencyConflict; any error rolls everything back.
func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(tx port.StoreTx) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		return mapConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return mapConflict(fmt.Errorf("commit: %w", err))
	}
	return nil
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) Availability(ctx context.Context) (map[string]int, error) {
	// FOR UPDATE pins the accessory rows so no concurrent commit can
	// consume stock between this read and our write.
	return availability(ctx, t.tx, true)
}

func (t *mysqlTx) ConfigurationByOwner(ctx context.Context, owner int64) (*domain.Configuration, error) {
	return configurationByOwner(ctx, t.tx, owner)
}

func (t *mysqlTx) InsertConfiguration(ctx context.Context, cfg domain.Configuration) error {
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO configurations (user_id, model_id) VALUES (?, ?)`,
		cfg.Owner, cfg.ModelID,
	); err != nil {
		return fmt.Errorf("insert configuration: %w", err)
	}
	return t.AddSelections(ctx, cfg.Owner, cfg.Accessories)
}

func (t *mysqlTx) AddSelections(ctx context.Context, owner int64, accessoryIDs []string) error {
	for _, id := range accessoryIDs {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO selected_accessories (user_id, accessory_id) VALUES (?, ?)`,
			owner, id,
		); err != nil {
			return fmt.Errorf("insert selection %q: %w", id, err)
		}
	}
	return nil
}

func (t *mysqlTx) RemoveSelections(ctx context.Context, owner int64, accessoryIDs []string) error {
	for _, id := range accessoryIDs {
		if _, err := t.tx.ExecContext(ctx, `
			DELETE FROM selected_accessories WHERE user_id = ? AND accessory_id = ?`,
			owner, id,
		); err != nil {
			return fmt.Errorf("delete selection %q: %w", id, err)
		}
	}
	return nil
}

func (t *mysqlTx) DeleteConfiguration(ctx context.Context, owner int64) error {
	if _, err := t.tx.ExecContext(ctx, `
		DELETE FROM selected_accessories WHERE user_id = ?`, owner); err != nil {
		return fmt.Errorf("delete selections: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `
		DELETE FROM configurations WHERE user_id = ?`, owner); err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	return nil
}

func availability(ctx context.Context, q querier, lock bool) (map[string]int, error) {
	query := `
		SELECT a.id, a.capacity - COUNT(s.accessory_id)
		FROM accessories a
		LEFT JOIN selected_accessories s ON s.accessory_id = a.id
		GROUP BY a.id, a.capacity`
	if lock {
		query += " FOR UPDATE"
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	avail := make(map[string]int)
	for rows.Next() {
		var (
			id   string
			left int
		)
		if err := rows.Scan(&id, &left); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		if left < 0 {
			// Selections exceeding capacity mean a corrupted commit, not
			// an out-of-stock condition.
			return nil, fmt.Errorf("%w: accessory %q availability %d",
				domain.ErrDataIntegrity, id, left)
		}
		avail[id] = left
	}
	return avail, rows.Err()
}

func configurationByOwner(ctx context.Context, q querier, owner int64) (*domain.Configuration, error) {
	cfg := domain.Configuration{Owner: owner}
	err := q.QueryRowContext(ctx, `
		SELECT model_id FROM configurations WHERE user_id = ?`, owner,
	).Scan(&cfg.ModelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query configuration: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT accessory_id FROM selected_accessories WHERE user_id = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("query selections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		cfg.Accessories = append(cfg.Accessories, id)
	}
	return &cfg, rows.Err()
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Qualified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// mapConflict translates the driver's deadlock and lock-wait errors into
// the domain's conflict sentinel so callers and logs can tell losing a race
// apart from a rule violation.
func mapConflict(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1213, 1205: // ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
		}
	}
	return err
}
