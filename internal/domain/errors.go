package domain

import "errors"

var (
	// ErrStoreNotFound возвращается, если магазин источника не зарегистрирован.
	ErrStoreNotFound = errors.New("store not found")
	// ErrOrderNotFound возвращается, если источник не знает такой заказ.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCustomerNotFound — покупатель отсутствует в первичном каталоге.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrStoreDefaultsMissing — для магазина не настроены дефолты котировок.
	ErrStoreDefaultsMissing = errors.New("quotation defaults are not configured for store")
	// ErrCustomerMappingMissing — для магазина не настроен маппинг покупателя.
	ErrCustomerMappingMissing = errors.New("customer mapping is not configured for store")
	// ErrCatalogConnectionMissing — не настроено подключение к каталогу данной роли.
	ErrCatalogConnectionMissing = errors.New("catalog connection is not configured")
	// ErrAlreadyTransferred — заказ уже успешно перенесён; повторная обработка запрещена.
	ErrAlreadyTransferred = errors.New("order already transferred")
	// ErrNoLinesPersisted — заголовок создан, но ни одна строка не записалась.
	ErrNoLinesPersisted = errors.New("failed to create any quotation lines")
	// ErrProductNotFound возвращается каталогом при точечном поиске без результата.
	ErrProductNotFound = errors.New("product not found")
	// ErrLedgerRecordNotFound — запись истории переносов не найдена.
	ErrLedgerRecordNotFound = errors.New("transfer record not found")
	// ErrRoutingIDInvalid — идентификатор базы в номере документа должен быть одним символом.
	ErrRoutingIDInvalid = errors.New("routing id must be a single character")
)

// IsConfigurationError сообщает, относится ли ошибка к отсутствующей конфигурации.
// Такие ошибки фатальны для заказа и возникают до резолвинга.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrStoreDefaultsMissing) ||
		errors.Is(err, ErrCustomerMappingMissing) ||
		errors.Is(err, ErrCatalogConnectionMissing)
}

// IsNotFound сообщает, является ли ошибка отсутствием сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStoreNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrLedgerRecordNotFound)
}
