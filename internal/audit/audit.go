package audit

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS proposal_audit (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	proposal_id   TEXT NOT NULL,
	connection_id TEXT,
	proposal_type TEXT NOT NULL,
	accepted      INTEGER NOT NULL,
	reason        TEXT,
	detail        TEXT,
	justification TEXT,
	created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS decision_audit (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	path          TEXT NOT NULL,
	confidence    REAL NOT NULL,
	elapsed_ns    INTEGER NOT NULL,
	connection_id TEXT,
	reason        TEXT,
	outcome       TEXT,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region logger
// Logger writes audit rows. It shares the connection database so one file
// carries both the population and its history.
type Logger struct {
	db *sql.DB
}

// NewLogger creates the audit tables if needed and returns a logger.
func NewLogger(db *sql.DB) (*Logger, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return &Logger{db: db}, nil
}

// #endregion logger

// #region log-proposal
// LogProposal records a validator verdict.
func (l *Logger) LogProposal(rec ProposalRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	accepted := 0
	if rec.Accepted {
		accepted = 1
	}
	_, err := l.db.Exec(
		`INSERT INTO proposal_audit (proposal_id, connection_id, proposal_type, accepted, reason, detail, justification, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ProposalID,
		nullIfEmpty(rec.ConnectionID),
		rec.ProposalType,
		accepted,
		nullIfEmpty(rec.Reason),
		nullIfEmpty(rec.Detail),
		nullIfEmpty(rec.Justification),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log proposal: %w", err)
	}
	return nil
}

// #endregion log-proposal

// #region log-decision
// LogDecision records an arbiter decision.
func (l *Logger) LogDecision(rec DecisionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.Exec(
		`INSERT INTO decision_audit (path, confidence, elapsed_ns, connection_id, reason, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Path,
		rec.Confidence,
		rec.ElapsedNanos,
		nullIfEmpty(rec.ConnectionID),
		nullIfEmpty(rec.Reason),
		nullIfEmpty(rec.Outcome),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recent
// RecentProposals returns the latest n proposal audit rows, newest first.
func (l *Logger) RecentProposals(n int) ([]ProposalRecord, error) {
	rows, err := l.db.Query(
		`SELECT proposal_id, connection_id, proposal_type, accepted, reason, detail, justification, created_at
		 FROM proposal_audit ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent proposals: %w", err)
	}
	defer rows.Close()

	var out []ProposalRecord
	for rows.Next() {
		var (
			rec        ProposalRecord
			connID     sql.NullString
			reason     sql.NullString
			detail     sql.NullString
			just       sql.NullString
			accepted   int
			createdStr string
		)
		if err := rows.Scan(&rec.ProposalID, &connID, &rec.ProposalType, &accepted,
			&reason, &detail, &just, &createdStr); err != nil {
			return nil, fmt.Errorf("scan proposal row: %w", err)
		}
		rec.Accepted = accepted == 1
		rec.ConnectionID = connID.String
		rec.Reason = reason.String
		rec.Detail = detail.String
		rec.Justification = just.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentDecisions returns the latest n decision audit rows, newest first.
func (l *Logger) RecentDecisions(n int) ([]DecisionRecord, error) {
	rows, err := l.db.Query(
		`SELECT path, confidence, elapsed_ns, connection_id, reason, outcome, created_at
		 FROM decision_audit ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var (
			rec        DecisionRecord
			connID     sql.NullString
			reason     sql.NullString
			outcome    sql.NullString
			createdStr string
		)
		if err := rows.Scan(&rec.Path, &rec.Confidence, &rec.ElapsedNanos,
			&connID, &reason, &outcome, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		rec.ConnectionID = connID.String
		rec.Reason = reason.String
		rec.Outcome = outcome.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion recent

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
