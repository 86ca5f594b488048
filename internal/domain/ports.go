package domain

import "time"

// OrderSource описывает взаимодействие с внешним источником заказов.
type OrderSource interface {
	// GetOrder возвращает заказ по идентификатору или ErrOrderNotFound.
	GetOrder(id string) (Order, error)
	// ListUnfulfilled возвращает невыполненные заказы за последние daysBack дней.
	ListUnfulfilled(daysBack int) ([]Order, error)
	// TestConnection проверяет доступность источника и возвращает описание магазина.
	TestConnection() (string, error)
}

// ConfigStore отдаёт конфигурацию переноса для магазина.
// Отсутствие обязательной конфигурации — фатальная для заказа ошибка.
type ConfigStore interface {
	// StoreDefaults возвращает дефолты котировок или ErrStoreDefaultsMissing.
	StoreDefaults(storeID int64) (StoreDefaults, error)
	// CustomerMapping возвращает маппинг покупателя или ErrCustomerMappingMissing.
	CustomerMapping(storeID int64) (CustomerMapping, error)
	// CatalogConnection возвращает дескриптор подключения каталога данной роли.
	CatalogConnection(role CatalogRole) (CatalogConnection, error)
}

// TransferLedger — append-only история переносов; источник истины для идемпотентности.
type TransferLedger interface {
	// HasSuccessfulTransfer сообщает, был ли заказ уже успешно перенесён.
	HasSuccessfulTransfer(storeID int64, orderID string) (bool, error)
	// Record добавляет запись об итоге переноса; записи не изменяются задним числом.
	Record(record TransferRecord) (TransferRecord, error)
	// List возвращает историю с фильтрами, новые записи первыми.
	List(filter LedgerFilter) ([]TransferRecord, error)
	// Delete удаляет одну запись истории.
	Delete(id string) error
	// DeleteFailed удаляет неуспешные записи; nil storeID означает все магазины.
	DeleteFailed(storeID *int64) (int, error)
	// DeleteFailedBefore удаляет неуспешные записи старше before, не более limit за вызов.
	DeleteFailedBefore(before time.Time, limit int) (int, error)
}
