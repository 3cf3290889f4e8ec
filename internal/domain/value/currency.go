package value

import (
	"git.appkode.ru/pub/go/failure"

	"topar_market/pkg/errcodes"
)

type Currency string

const (
	CurrencyUZS Currency = "UZS"
	CurrencyUSD Currency = "USD"
)

func (c Currency) String() string {
	return string(c)
}

func ParseCurrency(raw string) (Currency, error) {
	if raw == "" {
		return CurrencyUZS, nil
	}

	switch c := Currency(raw); c {
	case CurrencyUZS, CurrencyUSD:
		return c, nil
	default:
		return "", failure.NewInvalidArgumentError(
			"unknown currency: "+raw,
			failure.WithCode(errcodes.ValidationError),
		)
	}
}
