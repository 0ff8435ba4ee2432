package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"netcore/internal/domain"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// positionToNull splits an optional position into nullable columns
func positionToNull(p *domain.Position) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.X, Valid: true}, sql.NullFloat64{Float64: p.Y, Valid: true}
}

// ============================================================================
// Constraint Errors
// ============================================================================

func sqliteCode(err error) (int, bool) {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

// isUniqueViolation reports a UNIQUE or PRIMARY KEY constraint failure
func isUniqueViolation(err error) bool {
	if code, ok := sqliteCode(err); ok {
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports a FOREIGN KEY constraint failure
func isForeignKeyViolation(err error) bool {
	if code, ok := sqliteCode(err); ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the devices table:
// 1. Add field to deviceRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update deviceColumns constant - APPEND to end
// 4. Update toDomain() and deviceInsertArgs()
// 5. Add the column to migrate() in sqlite.go and to the postgres schema
//
// CRITICAL: Column order must match between deviceColumns, scanArgs() and
// deviceInsertArgs(). Same pattern applies to links.

// ============================================================================
// Device Row Scanner
// ============================================================================

// deviceRow holds all columns from a device query for scanning
type deviceRow struct {
	ID         string
	IPAddress  string
	MACAddress sql.NullString
	Hostname   sql.NullString
	Vendor     sql.NullString
	Label      sql.NullString
	ImageURL   sql.NullString
	Category   string
	Status     string
	X          sql.NullFloat64
	Y          sql.NullFloat64
	CreatedAt  string
	UpdatedAt  string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match deviceColumns order exactly
func (r *deviceRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,         // 1
		&r.IPAddress,  // 2
		&r.MACAddress, // 3
		&r.Hostname,   // 4
		&r.Vendor,     // 5
		&r.Label,      // 6
		&r.ImageURL,   // 7
		&r.Category,   // 8
		&r.Status,     // 9
		&r.X,          // 10
		&r.Y,          // 11
		&r.CreatedAt,  // 12
		&r.UpdatedAt,  // 13
	}
}

// toDomain converts the scanned row to a domain.Device
func (r *deviceRow) toDomain() (*domain.Device, error) {
	d := &domain.Device{
		ID:         r.ID,
		IPAddress:  r.IPAddress,
		MACAddress: nullToString(r.MACAddress),
		Hostname:   nullToString(r.Hostname),
		Vendor:     nullToString(r.Vendor),
		Label:      nullToString(r.Label),
		ImageURL:   nullToString(r.ImageURL),
		Category:   domain.Category(r.Category),
		Status:     domain.Status(r.Status),
	}

	if r.X.Valid && r.Y.Valid {
		d.Position = &domain.Position{X: r.X.Float64, Y: r.Y.Float64}
	}

	var err error
	if d.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("device %s created_at: %w", r.ID, err)
	}
	if d.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("device %s updated_at: %w", r.ID, err)
	}
	return d, nil
}

// deviceColumns is the column list for device queries and inserts
const deviceColumns = `id, ip_address, mac_address, hostname, vendor, label, image_url,
	device_type, status, x_pos, y_pos, created_at, updated_at`

// deviceInsertArgs prepares arguments for device INSERT, in deviceColumns order
func deviceInsertArgs(d *domain.Device) []interface{} {
	x, y := positionToNull(d.Position)
	return []interface{}{
		d.ID,
		d.IPAddress,
		stringToNull(d.MACAddress),
		stringToNull(d.Hostname),
		stringToNull(d.Vendor),
		stringToNull(d.Label),
		stringToNull(d.ImageURL),
		string(d.Category),
		string(d.Status),
		x,
		y,
		formatTime(d.CreatedAt),
		formatTime(d.UpdatedAt),
	}
}

// ============================================================================
// Link Row Scanner
// ============================================================================

// linkRow holds all columns from a link query for scanning
type linkRow struct {
	ID        string
	SourceID  string
	TargetID  string
	Type      string
	CreatedAt string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match linkColumns order exactly: id, source_id, target_id, link_type, created_at
func (r *linkRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,        // 1
		&r.SourceID,  // 2
		&r.TargetID,  // 3
		&r.Type,      // 4
		&r.CreatedAt, // 5
	}
}

// toDomain converts the scanned row to a domain.Link
func (r *linkRow) toDomain() (*domain.Link, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("link %s created_at: %w", r.ID, err)
	}
	return &domain.Link{
		ID:        r.ID,
		SourceID:  r.SourceID,
		TargetID:  r.TargetID,
		Type:      domain.LinkType(r.Type),
		CreatedAt: created,
	}, nil
}

// linkColumns is the column list for link queries and inserts
const linkColumns = `id, source_id, target_id, link_type, created_at`

// linkInsertArgs prepares arguments for link INSERT, in linkColumns order
func linkInsertArgs(l *domain.Link) []interface{} {
	return []interface{}{
		l.ID,
		l.SourceID,
		l.TargetID,
		string(l.Type),
		formatTime(l.CreatedAt),
	}
}
