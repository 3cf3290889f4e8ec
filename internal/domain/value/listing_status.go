package value

import (
	"git.appkode.ru/pub/go/failure"

	"topar_market/pkg/errcodes"
)

// ListingStatus статус доступности объявления. Для объявлений, участвующих
// в Safe Deal, статус является проекцией статуса активной сделки.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusReserved ListingStatus = "reserved"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusExpired  ListingStatus = "expired"
	ListingStatusDeleted  ListingStatus = "deleted"
)

func (s ListingStatus) String() string {
	return string(s)
}

func ParseListingStatus(raw string) (ListingStatus, error) {
	switch status := ListingStatus(raw); status {
	case ListingStatusActive, ListingStatusReserved, ListingStatusSold,
		ListingStatusExpired, ListingStatusDeleted:
		return status, nil
	default:
		return "", failure.NewInvalidArgumentError(
			"unknown listing status: "+raw,
			failure.WithCode(errcodes.InvalidListingStatus),
		)
	}
}
