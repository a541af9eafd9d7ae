package connection

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS connections (
	id                  TEXT PRIMARY KEY,
	source_id           TEXT NOT NULL,
	target_id           TEXT NOT NULL,
	kind                TEXT NOT NULL,
	mutability          TEXT NOT NULL,
	confidence          REAL NOT NULL,
	evidence_count      INTEGER NOT NULL DEFAULT 0,
	learning_rate       REAL NOT NULL,
	decay_rate          REAL NOT NULL,
	pull_strength       REAL NOT NULL,
	preferred_distance  REAL NOT NULL,
	rigidity            REAL NOT NULL,
	target_rep          BLOB NOT NULL,
	manual              INTEGER NOT NULL DEFAULT 0,
	proposal_id         TEXT,
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_connections_source ON connections(source_id);
CREATE INDEX IF NOT EXISTS idx_connections_target ON connections(target_id);
`

// #endregion schema

// #region db
// DB persists the connection population in SQLite. Persistence sits on the
// slow path only; the resident Store is authoritative at runtime.
type DB struct {
	db *sql.DB
}

// OpenDB opens (or creates) the SQLite file and runs migrations.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// SQL returns the underlying *sql.DB for use by other packages (e.g. audit).
func (d *DB) SQL() *sql.DB {
	return d.db
}

// #endregion db

// #region save
// Save writes the full population as one transaction, replacing prior rows.
func (d *DB) Save(s *Store) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM connections`); err != nil {
		return fmt.Errorf("clear connections: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO connections (id, source_id, target_id, kind, mutability, confidence,
		 evidence_count, learning_rate, decay_rate, pull_strength, preferred_distance,
		 rigidity, target_rep, manual, proposal_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	s.ForEach(func(c Connection) {
		if insertErr != nil {
			return
		}
		var proposalPtr interface{}
		if !c.Provenance.Manual {
			proposalPtr = c.Provenance.ProposalID.String()
		}
		manual := 0
		if c.Provenance.Manual {
			manual = 1
		}
		_, insertErr = stmt.Exec(
			c.ID.String(), c.Source, c.Target, string(c.Kind), string(c.Mutability),
			c.Confidence, int64(c.EvidenceCount), c.LearningRate, c.DecayRate,
			c.PullStrength, c.PreferredDistance, c.Rigidity, encodeTarget(c.TargetRep),
			manual, proposalPtr,
			c.CreatedAt.Format(time.RFC3339Nano), c.UpdatedAt.Format(time.RFC3339Nano),
		)
	})
	if insertErr != nil {
		return fmt.Errorf("insert connection: %w", insertErr)
	}

	return tx.Commit()
}

// #endregion save

// #region load
// Load reads every persisted connection into the store.
func (d *DB) Load(s *Store) error {
	rows, err := d.db.Query(
		`SELECT id, source_id, target_id, kind, mutability, confidence, evidence_count,
		 learning_rate, decay_rate, pull_strength, preferred_distance, rigidity,
		 target_rep, manual, proposal_id, created_at, updated_at FROM connections`,
	)
	if err != nil {
		return fmt.Errorf("query connections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c           Connection
			idStr       string
			kindStr     string
			mutStr      string
			evidence    int64
			targetBlob  []byte
			manual      int
			proposalStr sql.NullString
			createdStr  string
			updatedStr  string
		)
		if err := rows.Scan(
			&idStr, &c.Source, &c.Target, &kindStr, &mutStr, &c.Confidence, &evidence,
			&c.LearningRate, &c.DecayRate, &c.PullStrength, &c.PreferredDistance,
			&c.Rigidity, &targetBlob, &manual, &proposalStr, &createdStr, &updatedStr,
		); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}

		c.ID, err = uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("parse id %s: %w", idStr, err)
		}
		c.Kind = Kind(kindStr)
		c.Mutability = Mutability(mutStr)
		if !c.Mutability.Valid() {
			return fmt.Errorf("connection %s: unknown mutability %q", idStr, mutStr)
		}
		c.EvidenceCount = uint64(evidence)
		c.TargetRep = decodeTarget(targetBlob)
		if manual == 1 {
			c.Provenance = ManualProvenance()
		} else if proposalStr.Valid {
			pid, err := uuid.Parse(proposalStr.String)
			if err != nil {
				return fmt.Errorf("parse proposal id %s: %w", proposalStr.String, err)
			}
			c.Provenance = ProposalProvenance(pid)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)

		s.Put(c)
	}
	return rows.Err()
}

// #endregion load

// #region target-encoding
func encodeTarget(t Target) []byte {
	buf := make([]byte, TargetSize)
	for i, v := range t {
		buf[i] = byte(v)
	}
	return buf
}

func decodeTarget(b []byte) Target {
	var t Target
	for i := range t {
		if i < len(b) {
			t[i] = int8(b[i])
		}
	}
	return t
}

// #endregion target-encoding
