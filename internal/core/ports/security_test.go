package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStage struct {
	err   error
	name  string
	calls int
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Check(_ context.Context, _ *SecurityRequest) error {
	s.calls++
	return s.err
}

func TestSecurityChain_AllPass(t *testing.T) {
	first := &stubStage{name: "blocked"}
	second := &stubStage{name: "rate_limit"}
	chain := NewSecurityChain(first, second)

	stage, err := chain.Check(context.Background(), &SecurityRequest{Identity: "203.0.113.7"})
	require.NoError(t, err)
	assert.Empty(t, stage)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestSecurityChain_StopsAtFirstRejection(t *testing.T) {
	denied := errors.New("denied")
	first := &stubStage{name: "blocked"}
	second := &stubStage{name: "rate_limit", err: denied}
	third := &stubStage{name: "sql_scan"}
	chain := NewSecurityChain(first, second, third)

	stage, err := chain.Check(context.Background(), &SecurityRequest{})
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, "rate_limit", stage)
	assert.Zero(t, third.calls)
}

func TestSecurityChain_Empty(t *testing.T) {
	chain := NewSecurityChain()

	stage, err := chain.Check(context.Background(), &SecurityRequest{})
	assert.NoError(t, err)
	assert.Empty(t, stage)
	assert.Empty(t, chain.Stages())
}
