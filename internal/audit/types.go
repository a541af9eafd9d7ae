package audit

import "time"

// #region proposal-record
// ProposalRecord is one row in proposal_audit: a proposal and the verdict
// the validator reached on it.
type ProposalRecord struct {
	ProposalID    string
	ConnectionID  string
	ProposalType  string // "create" | "modify" | "promote" | "delete"
	Accepted      bool
	Reason        string // reject reason, empty when accepted
	Detail        string
	Justification string
	CreatedAt     time.Time
}

// #endregion proposal-record

// #region decision-record
// DecisionRecord is one row in decision_audit: an arbiter decision and its
// observed outcome, when known.
type DecisionRecord struct {
	Path         string // "reflex" | "reasoning" | "failsafe"
	Confidence   float64
	ElapsedNanos int64
	ConnectionID string // reflex only
	Reason       string // failsafe only
	Outcome      string // "success" | "failure" | "" when unknown
	CreatedAt    time.Time
}

// #endregion decision-record
