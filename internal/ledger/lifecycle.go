package ledger

import "fmt"

// Mutation names an operation checked against the ledger status.
type Mutation string

const (
	MutationUpsert         Mutation = "upsert"
	MutationPurchase       Mutation = "purchase"
	MutationTransfer       Mutation = "transfer"
	MutationReconciliation Mutation = "reconciliation"
	MutationRecalculate    Mutation = "recalculate"
	MutationFinalize       Mutation = "finalize"
	MutationUnfinalize     Mutation = "unfinalize"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusReconciled, StatusFinalized:
		return true
	}
	return false
}

// CheckMutation reports whether op may run against a ledger in status s.
func CheckMutation(s Status, op Mutation) error {
	switch op {
	case MutationFinalize:
		if s == StatusFinalized {
			return fmt.Errorf("%w: %w", ErrNotReconciled, ErrLedgerFinalized)
		}
		if s != StatusReconciled {
			return ErrNotReconciled
		}
		return nil
	case MutationUnfinalize:
		if s != StatusFinalized {
			return ErrNotFinalized
		}
		return nil
	}
	if s == StatusFinalized {
		return ErrLedgerFinalized
	}
	return nil
}

// NextStatus returns the status after op succeeds on a ledger in status s.
func NextStatus(s Status, op Mutation) Status {
	switch op {
	case MutationPurchase, MutationTransfer:
		if s == StatusDraft {
			return StatusInProgress
		}
	case MutationReconciliation:
		return StatusReconciled
	case MutationFinalize:
		return StatusFinalized
	case MutationUnfinalize:
		return StatusDraft
	}
	return s
}

// Transition applies op to l: it checks the gate and advances the status.
func Transition(l *Ledger, op Mutation) error {
	if err := CheckMutation(l.Status, op); err != nil {
		return err
	}
	l.Status = NextStatus(l.Status, op)
	return nil
}
