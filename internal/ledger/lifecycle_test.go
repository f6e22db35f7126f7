package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizeRequiresReconciled(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusInProgress, StatusFinalized} {
		require.ErrorIs(t, CheckMutation(s, MutationFinalize), ErrNotReconciled, "status %s", s)
	}
	require.NoError(t, CheckMutation(StatusReconciled, MutationFinalize))
}

func TestUnfinalizeRequiresFinalized(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusInProgress, StatusReconciled} {
		require.ErrorIs(t, CheckMutation(s, MutationUnfinalize), ErrNotFinalized)
	}
	l := &Ledger{Status: StatusFinalized}
	require.NoError(t, Transition(l, MutationUnfinalize))
	require.Equal(t, StatusDraft, l.Status)
}

func TestFinalizedLedgerRejectsMutations(t *testing.T) {
	for _, op := range []Mutation{MutationUpsert, MutationPurchase, MutationTransfer, MutationReconciliation, MutationRecalculate} {
		require.ErrorIs(t, CheckMutation(StatusFinalized, op), ErrLedgerFinalized, "op %s", op)
		require.NoError(t, CheckMutation(StatusReconciled, op), "op %s", op)
	}
}

func TestNextStatus(t *testing.T) {
	require.Equal(t, StatusInProgress, NextStatus(StatusDraft, MutationPurchase))
	require.Equal(t, StatusInProgress, NextStatus(StatusDraft, MutationTransfer))
	require.Equal(t, StatusReconciled, NextStatus(StatusReconciled, MutationTransfer))
	require.Equal(t, StatusReconciled, NextStatus(StatusInProgress, MutationReconciliation))
	require.Equal(t, StatusReconciled, NextStatus(StatusDraft, MutationReconciliation))
	require.Equal(t, StatusDraft, NextStatus(StatusDraft, MutationUpsert))
	require.Equal(t, StatusFinalized, NextStatus(StatusReconciled, MutationFinalize))
	require.False(t, Status("OPEN").Valid())
}
