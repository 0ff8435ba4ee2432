// Package postgres implements the netcore store on PostgreSQL via a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"netcore/internal/domain"
)

const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
)

const schema = `
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
	x_pos DOUBLE PRECISION,
	y_pos DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS links (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	target_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
	link_type TEXT NOT NULL DEFAULT 'ethernet',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);
`

const (
	deviceColumns = `id, ip_address, mac_address, hostname, vendor, label, image_url,
	device_type, status, x_pos, y_pos, created_at, updated_at`
	linkColumns = `id, source_id, target_id, link_type, created_at`
)

// Repository implements repository.Store on a pgx pool
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to dsn and creates the schema when missing
func New(ctx context.Context, dsn string) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pool: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases every pooled connection
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// ListAddresses returns the set of every stored device address
func (r *Repository) ListAddresses(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT ip_address FROM devices`)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	ips, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan addresses: %w", err)
	}

	addrs := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		addrs[ip] = struct{}{}
	}
	return addrs, nil
}

// CreateDevice inserts a new device
func (r *Repository) CreateDevice(ctx context.Context, d *domain.Device) error {
	d.ApplyDefaults()
	if err := d.Validate(); err != nil {
		return err
	}

	x, y := position(d.Position)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, d.ID, d.IPAddress, nullable(d.MACAddress), nullable(d.Hostname), nullable(d.Vendor),
		nullable(d.Label), nullable(d.ImageURL), string(d.Category), string(d.Status),
		x, y, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if sqlState(err) == sqlstateUniqueViolation {
			return fmt.Errorf("create device %s: %w", d.IPAddress, domain.ErrDuplicateAddress)
		}
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

// ListDevices returns all devices ordered by address
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY ip_address`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	devices, err := pgx.CollectRows(rows, scanDevice)
	if err != nil {
		return nil, fmt.Errorf("failed to scan devices: %w", err)
	}
	return devices, nil
}

// GetDevice retrieves a single device by ID
func (r *Repository) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	d, err := pgx.CollectExactlyOneRow(rows, scanDevice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan device: %w", err)
	}
	return &d, nil
}

// UpdateDevice applies a patch to the user-editable fields of a device
func (r *Repository) UpdateDevice(ctx context.Context, id string, patch domain.DevicePatch) (*domain.Device, error) {
	d, err := r.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(d); err != nil {
		return nil, err
	}

	x, y := position(d.Position)
	tag, err := r.pool.Exec(ctx, `
		UPDATE devices SET
			label = $1, hostname = $2, device_type = $3, image_url = $4,
			x_pos = $5, y_pos = $6, updated_at = $7
		WHERE id = $8
	`, nullable(d.Label), nullable(d.Hostname), string(d.Category), nullable(d.ImageURL),
		x, y, d.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

// DeleteDevice removes a device; its links go with it via ON DELETE CASCADE
func (r *Repository) DeleteDevice(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListProbeTargets returns the (id, address) of every device
func (r *Repository) ListProbeTargets(ctx context.Context) ([]domain.ProbeTarget, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, ip_address FROM devices ORDER BY ip_address`)
	if err != nil {
		return nil, fmt.Errorf("failed to query probe targets: %w", err)
	}
	targets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ProbeTarget, error) {
		var t domain.ProbeTarget
		err := row.Scan(&t.DeviceID, &t.IPAddress)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan probe targets: %w", err)
	}
	return targets, nil
}

// UpdateStatuses sends one batch with an UPDATE per device
func (r *Repository) UpdateStatuses(ctx context.Context, updates []domain.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(`UPDATE devices SET status = $1 WHERE id = $2`, string(u.Status), u.DeviceID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for _, u := range updates {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to update status for %s: %w", u.DeviceID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListLinkPairs returns the normalized endpoint pair of every link
func (r *Repository) ListLinkPairs(ctx context.Context) ([]domain.Pair, error) {
	rows, err := r.pool.Query(ctx, `SELECT source_id, target_id FROM links`)
	if err != nil {
		return nil, fmt.Errorf("failed to query link pairs: %w", err)
	}
	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Pair, error) {
		var source, target string
		if err := row.Scan(&source, &target); err != nil {
			return domain.Pair{}, err
		}
		return domain.NewPair(source, target), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan link pairs: %w", err)
	}
	return pairs, nil
}

// CreateLink inserts a link. Unknown endpoints yield domain.ErrNotFound.
func (r *Repository) CreateLink(ctx context.Context, l *domain.Link) error {
	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO links (`+linkColumns+`) VALUES ($1, $2, $3, $4, $5)
	`, l.ID, l.SourceID, l.TargetID, string(l.Type), l.CreatedAt)
	if err != nil {
		if sqlState(err) == sqlstateForeignKeyViolation {
			return fmt.Errorf("link endpoint device: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

// ListLinks returns all links in creation order
func (r *Repository) ListLinks(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+linkColumns+` FROM links ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	links, err := pgx.CollectRows(rows, scanLink)
	if err != nil {
		return nil, fmt.Errorf("failed to scan links: %w", err)
	}
	return links, nil
}

// GetLink retrieves a single link by ID
func (r *Repository) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query link: %w", err)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanLink)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}
	return &l, nil
}

// UpdateLink changes the link type
func (r *Repository) UpdateLink(ctx context.Context, id string, patch domain.LinkPatch) (*domain.Link, error) {
	l, err := r.GetLink(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Type == nil {
		return l, nil
	}
	if !patch.Type.Valid() {
		return nil, &domain.ValidationError{Field: "link_type", Reason: "unknown link type " + string(*patch.Type)}
	}

	if _, err := r.pool.Exec(ctx, `UPDATE links SET link_type = $1 WHERE id = $2`, string(*patch.Type), id); err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	l.Type = *patch.Type
	return l, nil
}

// DeleteLink removes a link
func (r *Repository) DeleteLink(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("link %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// scanDevice reads one row in deviceColumns order
func scanDevice(row pgx.CollectableRow) (domain.Device, error) {
	var (
		d                                      domain.Device
		mac, hostname, vendor, label, imageURL *string
		category, status                       string
		x, y                                   *float64
		createdAt, updatedAt                   time.Time
	)
	err := row.Scan(&d.ID, &d.IPAddress, &mac, &hostname, &vendor, &label, &imageURL,
		&category, &status, &x, &y, &createdAt, &updatedAt)
	if err != nil {
		return d, err
	}

	d.MACAddress = deref(mac)
	d.Hostname = deref(hostname)
	d.Vendor = deref(vendor)
	d.Label = deref(label)
	d.ImageURL = deref(imageURL)
	d.Category = domain.Category(category)
	d.Status = domain.Status(status)
	if x != nil && y != nil {
		d.Position = &domain.Position{X: *x, Y: *y}
	}
	d.CreatedAt = createdAt.UTC()
	d.UpdatedAt = updatedAt.UTC()
	return d, nil
}

// scanLink reads one row in linkColumns order
func scanLink(row pgx.CollectableRow) (domain.Link, error) {
	var (
		l        domain.Link
		linkType string
	)
	if err := row.Scan(&l.ID, &l.SourceID, &l.TargetID, &linkType, &l.CreatedAt); err != nil {
		return l, err
	}
	l.Type = domain.LinkType(linkType)
	l.CreatedAt = l.CreatedAt.UTC()
	return l, nil
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func position(p *domain.Position) (*float64, *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.X, &p.Y
}
