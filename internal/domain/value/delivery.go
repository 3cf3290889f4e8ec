package value

import (
	"git.appkode.ru/pub/go/failure"

	"topar_market/pkg/errcodes"
)

type DeliveryType string

const (
	DeliveryTypePickup      DeliveryType = "pickup"
	DeliveryTypeCourier     DeliveryType = "courier"
	DeliveryTypePickupPoint DeliveryType = "pickup_point"
)

func (t DeliveryType) String() string {
	return string(t)
}

func ParseDeliveryType(raw string) (DeliveryType, error) {
	switch t := DeliveryType(raw); t {
	case DeliveryTypePickup, DeliveryTypeCourier, DeliveryTypePickupPoint:
		return t, nil
	default:
		return "", failure.NewInvalidArgumentError(
			"unknown delivery type: "+raw,
			failure.WithCode(errcodes.InvalidDeliveryOption),
		)
	}
}

// DeliveryOption один из способов получения товара, предложенных продавцом.
type DeliveryOption struct {
	Type        DeliveryType `json:"type"`
	Price       int64        `json:"price"`
	Description string       `json:"description"`
}

// DefaultDeliveryOptions варианты по умолчанию, если продавец ничего не указал.
func DefaultDeliveryOptions() []DeliveryOption {
	return []DeliveryOption{
		{Type: DeliveryTypePickup, Price: 0, Description: "Самовывоз"},
	}
}
