package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"netcore/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Store using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if dbPath != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		ip_address TEXT NOT NULL UNIQUE,
		mac_address TEXT,
		hostname TEXT,
		vendor TEXT,
		label TEXT,
		image_url TEXT,
		device_type TEXT NOT NULL DEFAULT 'unknown',
		status TEXT NOT NULL DEFAULT 'unknown',
		x_pos REAL,
		y_pos REAL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		link_type TEXT NOT NULL DEFAULT 'ethernet',
		created_at TEXT NOT NULL,
		FOREIGN KEY (source_id) REFERENCES devices(id) ON DELETE CASCADE,
		FOREIGN KEY (target_id) REFERENCES devices(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_id);
	CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// ============================================================================
// Devices
// ============================================================================

// ListAddresses returns the set of every stored device address
func (r *Repository) ListAddresses(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ip_address FROM devices`)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addrs := make(map[string]struct{})
	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addrs[ip] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addrs, nil
}

// CreateDevice inserts a new device
func (r *Repository) CreateDevice(ctx context.Context, device *domain.Device) error {
	device.ApplyDefaults()
	if err := device.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, deviceInsertArgs(device)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create device %s: %w", device.IPAddress, domain.ErrDuplicateAddress)
		}
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

// ListDevices returns all devices ordered by address
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY ip_address`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var row deviceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		device, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

// GetDevice retrieves a single device by ID
func (r *Repository) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	var row deviceRow
	err := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id).
		Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	return row.toDomain()
}

// UpdateDevice applies a patch to the user-editable fields of a device
func (r *Repository) UpdateDevice(ctx context.Context, id string, patch domain.DevicePatch) (*domain.Device, error) {
	device, err := r.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(device); err != nil {
		return nil, err
	}

	x, y := positionToNull(device.Position)
	_, err = r.db.ExecContext(ctx, `
		UPDATE devices SET
			label = ?, hostname = ?, device_type = ?, image_url = ?,
			x_pos = ?, y_pos = ?, updated_at = ?
		WHERE id = ?
	`, stringToNull(device.Label), stringToNull(device.Hostname), string(device.Category),
		stringToNull(device.ImageURL), x, y, formatTime(device.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	return device, nil
}

// DeleteDevice removes a device; its links go with it via ON DELETE CASCADE
func (r *Repository) DeleteDevice(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return requireAffected(res, "device", id)
}

// ListProbeTargets returns the (id, address) of every device
func (r *Repository) ListProbeTargets(ctx context.Context) ([]domain.ProbeTarget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, ip_address FROM devices ORDER BY ip_address`)
	if err != nil {
		return nil, fmt.Errorf("failed to query probe targets: %w", err)
	}
	defer rows.Close()

	var targets []domain.ProbeTarget
	for rows.Next() {
		var t domain.ProbeTarget
		if err := rows.Scan(&t.DeviceID, &t.IPAddress); err != nil {
			return nil, fmt.Errorf("failed to scan probe target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating probe targets: %w", err)
	}
	return targets, nil
}

// UpdateStatuses writes a batch of liveness results in one transaction.
// Devices deleted since the round started are ignored.
func (r *Repository) UpdateStatuses(ctx context.Context, updates []domain.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE devices SET status = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, string(u.Status), u.DeviceID); err != nil {
			return fmt.Errorf("failed to update status for %s: %w", u.DeviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ============================================================================
// Links
// ============================================================================

// ListLinkPairs returns the normalized endpoint pair of every link
func (r *Repository) ListLinkPairs(ctx context.Context) ([]domain.Pair, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT source_id, target_id FROM links`)
	if err != nil {
		return nil, fmt.Errorf("failed to query link pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.Pair
	for rows.Next() {
		var source, target string
		if err := rows.Scan(&source, &target); err != nil {
			return nil, fmt.Errorf("failed to scan link pair: %w", err)
		}
		pairs = append(pairs, domain.NewPair(source, target))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link pairs: %w", err)
	}
	return pairs, nil
}

// CreateLink inserts a link. Unknown endpoints yield domain.ErrNotFound.
func (r *Repository) CreateLink(ctx context.Context, link *domain.Link) error {
	link.ApplyDefaults()
	if err := link.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?)
	`, linkInsertArgs(link)...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("link endpoint device: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

// ListLinks returns all links in creation order
func (r *Repository) ListLinks(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		var row linkRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		link, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

// GetLink retrieves a single link by ID
func (r *Repository) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	var row linkRow
	err := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id).
		Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query link: %w", err)
	}
	return row.toDomain()
}

// UpdateLink changes the link type
func (r *Repository) UpdateLink(ctx context.Context, id string, patch domain.LinkPatch) (*domain.Link, error) {
	link, err := r.GetLink(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Type == nil {
		return link, nil
	}
	if !patch.Type.Valid() {
		return nil, &domain.ValidationError{Field: "link_type", Reason: "unknown link type " + string(*patch.Type)}
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE links SET link_type = ? WHERE id = ?`, string(*patch.Type), id); err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	link.Type = *patch.Type
	return link, nil
}

// DeleteLink removes a link
func (r *Repository) DeleteLink(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return requireAffected(res, "link", id)
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// timeLayout is fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
