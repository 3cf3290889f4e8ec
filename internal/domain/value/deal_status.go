package value

import (
	"git.appkode.ru/pub/go/failure"

	"topar_market/pkg/errcodes"
)

// DealStatus статус Safe Deal сделки.
type DealStatus string

const (
	DealStatusPending   DealStatus = "pending"
	DealStatusPaid      DealStatus = "paid"
	DealStatusShipped   DealStatus = "shipped"
	DealStatusDelivered DealStatus = "delivered"
	DealStatusCompleted DealStatus = "completed"
	DealStatusDisputed  DealStatus = "disputed"
	DealStatusRefunded  DealStatus = "refunded"
)

func (s DealStatus) String() string {
	return string(s)
}

// dealTransitions описывает граф переходов статусов. Всё, чего здесь нет,
// запрещено: статусы двигаются только вперёд, откаты невозможны.
//
//nolint:gochecknoglobals
var dealTransitions = map[DealStatus]map[DealStatus]struct{}{
	DealStatusPending:   {DealStatusPaid: {}, DealStatusDisputed: {}},
	DealStatusPaid:      {DealStatusShipped: {}, DealStatusDisputed: {}},
	DealStatusShipped:   {DealStatusCompleted: {}, DealStatusDisputed: {}},
	DealStatusDelivered: {DealStatusCompleted: {}, DealStatusDisputed: {}},
	DealStatusDisputed:  {DealStatusRefunded: {}},
}

func (s DealStatus) CanTransitionTo(next DealStatus) bool {
	_, ok := dealTransitions[s][next]

	return ok
}

// IsTerminal сообщает, что из статуса нет ни одного перехода.
func (s DealStatus) IsTerminal() bool {
	return len(dealTransitions[s]) == 0
}

// CanDispute истинно для статусов, из которых любая из сторон может
// открыть спор.
func (s DealStatus) CanDispute() bool {
	return s.CanTransitionTo(DealStatusDisputed)
}

func ParseDealStatus(raw string) (DealStatus, error) {
	switch status := DealStatus(raw); status {
	case DealStatusPending, DealStatusPaid, DealStatusShipped, DealStatusDelivered,
		DealStatusCompleted, DealStatusDisputed, DealStatusRefunded:
		return status, nil
	default:
		return "", failure.NewInvalidArgumentError(
			"unknown deal status: "+raw,
			failure.WithCode(errcodes.InvalidDealStatus),
		)
	}
}
