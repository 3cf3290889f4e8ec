package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"topar_market/internal/worker"
)

type expirerStub struct {
	expired int
	err     error
	calls   int
}

func (s *expirerStub) ExpireOverdue(_ context.Context) (int, error) {
	s.calls++

	return s.expired, s.err
}

func TestListingExpirer(t *testing.T) {
	rq := require.New(t)

	stub := &expirerStub{expired: 2}
	expirer := worker.NewListingExpirer(stub)

	rq.NoError(expirer.Handle(context.Background(), worker.NewListingExpireTask()))
	rq.Equal(1, stub.calls)
}

func TestListingExpirerPropagatesError(t *testing.T) {
	rq := require.New(t)

	stub := &expirerStub{err: errors.New("db down")}
	expirer := worker.NewListingExpirer(stub)

	rq.Error(expirer.Handle(context.Background(), worker.NewListingExpireTask()))
}
