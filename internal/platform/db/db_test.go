package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (s *stubTx) Commit(context.Context) error {
	s.committed = true
	return s.commitErr
}

func (s *stubTx) Rollback(context.Context) error {
	s.rolledBack = true
	return nil
}

type stubBeginner struct {
	tx   *stubTx
	err  error
	opts pgx.TxOptions
}

func (s *stubBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	b := &stubBeginner{tx: &stubTx{}}
	require.NoError(t, WithTx(context.Background(), b, func(pgx.Tx) error { return nil }))
	require.True(t, b.tx.committed)
	require.Equal(t, pgx.RepeatableRead, b.opts.IsoLevel)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	b := &stubBeginner{tx: &stubTx{}}
	boom := errors.New("boom")
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrConflict)
	require.False(t, b.tx.committed)
	require.True(t, b.tx.rolledBack)
}

func TestWithTxClassifiesSerializationFailures(t *testing.T) {
	b := &stubBeginner{tx: &stubTx{commitErr: &pgconn.PgError{Code: "40001"}}}
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return nil })
	require.ErrorIs(t, err, ErrConflict)

	b = &stubBeginner{tx: &stubTx{}}
	err = WithTx(context.Background(), b, func(pgx.Tx) error { return &pgconn.PgError{Code: "40P01"} })
	require.ErrorIs(t, err, ErrConflict)
}

func TestWithTxBeginError(t *testing.T) {
	b := &stubBeginner{err: errors.New("no conn")}
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return nil })
	require.ErrorContains(t, err, "begin tx")
}
