package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"topar_market/internal/domain/value"
)

func TestDealStatusTransitions(t *testing.T) {
	rq := require.New(t)

	allStatuses := []value.DealStatus{
		value.DealStatusPending,
		value.DealStatusPaid,
		value.DealStatusShipped,
		value.DealStatusDelivered,
		value.DealStatusCompleted,
		value.DealStatusDisputed,
		value.DealStatusRefunded,
	}

	allowed := map[value.DealStatus][]value.DealStatus{
		value.DealStatusPending:   {value.DealStatusPaid, value.DealStatusDisputed},
		value.DealStatusPaid:      {value.DealStatusShipped, value.DealStatusDisputed},
		value.DealStatusShipped:   {value.DealStatusCompleted, value.DealStatusDisputed},
		value.DealStatusDelivered: {value.DealStatusCompleted, value.DealStatusDisputed},
		value.DealStatusDisputed:  {value.DealStatusRefunded},
		value.DealStatusCompleted: {},
		value.DealStatusRefunded:  {},
	}

	for _, from := range allStatuses {
		allowedSet := map[value.DealStatus]bool{}
		for _, to := range allowed[from] {
			allowedSet[to] = true
		}

		for _, to := range allStatuses {
			rq.Equal(
				allowedSet[to],
				from.CanTransitionTo(to),
				"transition %s -> %s", from, to,
			)
		}
	}
}

func TestDealStatusTerminal(t *testing.T) {
	rq := require.New(t)

	rq.True(value.DealStatusCompleted.IsTerminal())
	rq.True(value.DealStatusRefunded.IsTerminal())
	rq.False(value.DealStatusPending.IsTerminal())
	rq.False(value.DealStatusDisputed.IsTerminal())
}

func TestDealStatusCanDispute(t *testing.T) {
	rq := require.New(t)

	rq.True(value.DealStatusPending.CanDispute())
	rq.True(value.DealStatusPaid.CanDispute())
	rq.True(value.DealStatusShipped.CanDispute())
	rq.True(value.DealStatusDelivered.CanDispute())
	rq.False(value.DealStatusCompleted.CanDispute())
	rq.False(value.DealStatusDisputed.CanDispute())
	rq.False(value.DealStatusRefunded.CanDispute())
}

func TestParseDealStatus(t *testing.T) {
	rq := require.New(t)

	status, err := value.ParseDealStatus("paid")
	rq.NoError(err)
	rq.Equal(value.DealStatusPaid, status)

	_, err = value.ParseDealStatus("cancelled")
	rq.Error(err)
}

func TestParseDeliveryType(t *testing.T) {
	rq := require.New(t)

	dt, err := value.ParseDeliveryType("courier")
	rq.NoError(err)
	rq.Equal(value.DeliveryTypeCourier, dt)

	_, err = value.ParseDeliveryType("teleport")
	rq.Error(err)
}
