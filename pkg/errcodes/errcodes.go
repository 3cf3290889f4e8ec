package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	AccessTokenExpired    failure.ErrorCode = "AccessTokenExpired"
	AccessTokenInvalid    failure.ErrorCode = "AccessTokenInvalid"
	CredentialsMismatch   failure.ErrorCode = "CredentialsMismatch"
	EmailAlreadyInUse     failure.ErrorCode = "EmailAlreadyInUse"
	UsernameAlreadyInUse  failure.ErrorCode = "UsernameAlreadyInUse"
	PhoneAlreadyInUse     failure.ErrorCode = "PhoneAlreadyInUse"
	InvalidPhoneNumber    failure.ErrorCode = "InvalidPhoneNumber"
	InvalidTelegramHandle failure.ErrorCode = "InvalidTelegramHandle"
	InvalidPasswordFormat failure.ErrorCode = "InvalidPasswordFormat"
	InvalidUserID         failure.ErrorCode = "InvalidUserID"
	UserNotFound          failure.ErrorCode = "UserNotFound"

	ListingNotFound       failure.ErrorCode = "ListingNotFound"
	InvalidListingID      failure.ErrorCode = "InvalidListingID"
	InvalidListingStatus  failure.ErrorCode = "InvalidListingStatus"
	ListingUnavailable    failure.ErrorCode = "ListingUnavailable"
	InvalidDeliveryOption failure.ErrorCode = "InvalidDeliveryOption"
	InvalidPrice          failure.ErrorCode = "InvalidPrice"
	FavoriteConflict      failure.ErrorCode = "FavoriteConflict" // Параллельный toggle той же пары, можно повторить
	InvalidPaging         failure.ErrorCode = "InvalidPaging"
	InvalidCategory       failure.ErrorCode = "InvalidCategory"

	// Коды для Safe Deal сделок
	DealNotFound        failure.ErrorCode = "DealNotFound"        // Когда ID есть, но в базе нет
	InvalidDealID       failure.ErrorCode = "InvalidDealID"       // Когда пришел мусор вместо ID
	InvalidDealStatus   failure.ErrorCode = "InvalidDealStatus"   // Переход не разрешён из текущего статуса
	SelfPurchase        failure.ErrorCode = "SelfPurchase"        // Покупка собственного объявления
	SafeDealUnavailable failure.ErrorCode = "SafeDealUnavailable" // Объявление не участвует в Safe Deal
	InvalidAmount       failure.ErrorCode = "InvalidAmount"

	InvalidMessageBody failure.ErrorCode = "InvalidMessageBody"
)
