// Package paramdb is the sqlite-backed parameter store: a flat name/value
// table holding the persisted frame selection and the pose-source settings.
package paramdb

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/meridian-uas/setpoint.bridge/internal/monitoring"
)

// Well-known parameter names.
const (
	ParamMavFrame       = "mav_frame"
	ParamTFListen       = "tf_listen"
	ParamTFFrameID      = "tf_frame_id"
	ParamTFChildFrameID = "tf_child_frame_id"
	ParamTFRateLimit    = "tf_rate_limit"
)

type DB struct {
	*sql.DB
}

// Open opens (or creates) the parameter database at path and applies any
// pending migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pdb := &DB{db}
	if err := pdb.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return pdb, nil
}

// GetParam returns the value for name and whether it exists.
func (db *DB) GetParam(name string) (string, bool, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM params WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get param %q: %w", name, err)
	}
	return value, true, nil
}

// GetParamOrDefault returns the value for name, or def when the parameter is
// absent or the read fails. Read failures are logged, not propagated: a
// missing store must never stop the service from starting with defaults.
func (db *DB) GetParamOrDefault(name, def string) string {
	value, ok, err := db.GetParam(name)
	if err != nil {
		monitoring.Logf("failed to read param %q, using default %q: %v", name, def, err)
		return def
	}
	if !ok {
		return def
	}
	return value
}

// SetParam upserts a parameter value.
func (db *DB) SetParam(name, value string) error {
	_, err := db.Exec(`
		INSERT INTO params (name, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value)
	if err != nil {
		return fmt.Errorf("failed to set param %q: %w", name, err)
	}
	return nil
}

// SetParamIfAbsent writes a value only when the parameter does not exist
// yet. Used to seed the store from the startup config file without
// clobbering operator changes.
func (db *DB) SetParamIfAbsent(name, value string) error {
	_, err := db.Exec(`
		INSERT INTO params (name, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(name) DO NOTHING`,
		name, value)
	if err != nil {
		return fmt.Errorf("failed to seed param %q: %w", name, err)
	}
	return nil
}

// Params returns all stored parameters.
func (db *DB) Params() (map[string]string, error) {
	rows, err := db.Query(`SELECT name, value FROM params ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query params: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan param: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// AttachAdminRoutes mounts a tailSQL instance for live inspection of the
// parameter store under /debug/.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		monitoring.Logf("failed to create tailsql server: %v", err)
		return
	}
	tsql.SetDB("sqlite://params.db", db.DB, &tailsql.DBOptions{
		Label: "Setpoint params",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
