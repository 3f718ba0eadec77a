package entities

import "time"

type LedgerAction string

const (
	LedgerActionVote    LedgerAction = "vote"
	LedgerActionRequest LedgerAction = "request"
)

type BallotStatus string

const (
	BallotPending  BallotStatus = "pending"
	BallotApproved BallotStatus = "approved"
	BallotDenied   BallotStatus = "denied"
)

// LedgerEntry records one participant action against a counter. Votes are
// unique per (counter, participant); requests are appended.
type LedgerEntry struct {
	EntryID       string
	CounterID     string
	ParticipantID string
	Action        LedgerAction
	Status        BallotStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (e LedgerEntry) IsTerminal() bool {
	return e.Status == BallotApproved || e.Status == BallotDenied
}

// Tally summarizes vote entries of a counter.
type Tally struct {
	Approved int
	Denied   int
	Pending  int
}

// TallyVotes counts vote entries by status; request entries are ignored.
func TallyVotes(entries []LedgerEntry) Tally {
	var tally Tally
	for _, entry := range entries {
		if entry.Action != LedgerActionVote {
			continue
		}
		switch entry.Status {
		case BallotApproved:
			tally.Approved++
		case BallotDenied:
			tally.Denied++
		default:
			tally.Pending++
		}
	}
	return tally
}
