package server

// Сервер объединяет специфичные HTTP сервера, отвечающие за обработку
// конкретных сущностей.
type Server struct {
	AccountServer
	ListingServer
	DealServer
	MessageServer
	PricingServer
}

func NewServer(
	accountServer AccountServer,
	listingServer ListingServer,
	dealServer DealServer,
	messageServer MessageServer,
	pricingServer PricingServer,
) Server {
	return Server{
		AccountServer: accountServer,
		ListingServer: listingServer,
		DealServer:    dealServer,
		MessageServer: messageServer,
		PricingServer: pricingServer,
	}
}
