// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package session

import (
	"database/sql"
	"time"

	"aahframe.work/authn/config"
	"aahframe.work/authn/log"

	// pure Go sqlite driver, registered as "sqlite"
	_ "modernc.org/sqlite"
)

var _ Storer = (*SQLiteStore)(nil)

// SQLiteStore persists sessions in a SQLite database.
//
// Configuration:
//	security {
//	  session {
//	    store {
//	      type = "sqlite"
//	      dsn = "file:sessions.db"
//	    }
//	  }
//	}
type SQLiteStore struct {
	db *sql.DB
}

// Init method opens the database and creates the session table.
func (ss *SQLiteStore) Init(cfg *config.Config) error {
	dsn := cfg.StringDefault(keyPrefix+".store.dsn", "file:authn_sessions.db")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	// sqlite serializes writers anyway, a single connection also keeps
	// ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS authn_sessions (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return err
	}

	ss.db = db
	return nil
}

// Read method reads the encoded session for the given ID.
func (ss *SQLiteStore) Read(id string) ([]byte, error) {
	var data []byte
	err := ss.db.QueryRow(`SELECT data FROM authn_sessions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	return data, err
}

// Save method upserts the encoded session for the given ID.
func (ss *SQLiteStore) Save(id string, data []byte) error {
	_, err := ss.db.Exec(`INSERT INTO authn_sessions (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, data, time.Now().UnixNano())
	return err
}

// Delete method deletes the session for the given ID.
func (ss *SQLiteStore) Delete(id string) error {
	_, err := ss.db.Exec(`DELETE FROM authn_sessions WHERE id = ?`, id)
	return err
}

// IsExists method returns true if the session exists.
func (ss *SQLiteStore) IsExists(id string) bool {
	var n int
	if err := ss.db.QueryRow(`SELECT COUNT(1) FROM authn_sessions WHERE id = ?`, id).Scan(&n); err != nil {
		return false
	}
	return n > 0
}

// Cleanup method removes the expired rows.
func (ss *SQLiteStore) Cleanup(m *Manager) {
	cutoff := time.Now().Add(-m.TTL()).UnixNano()
	rows, err := ss.db.Query(`SELECT id, data FROM authn_sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		log.Errorf("session: sqlite cleanup: %v", err)
		return
	}

	expired := map[string][]byte{}
	for rows.Next() {
		var id string
		var data []byte
		if err = rows.Scan(&id, &data); err == nil {
			expired[id] = data
		}
	}
	_ = rows.Close()

	for id, data := range expired {
		if err = ss.Delete(id); err == nil {
			m.SessionExpired(id, data)
		}
	}
}

// Close method closes the database.
func (ss *SQLiteStore) Close() error {
	if ss.db == nil {
		return nil
	}
	return ss.db.Close()
}
