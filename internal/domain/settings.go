package domain

import "time"

// SourceStore — зарегистрированный магазин внешнего источника заказов.
type SourceStore struct {
	ID      int64
	Name    string
	ShopURL string
	// APIToken — admin-токен источника; наружу не отдаётся.
	APIToken  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SourceStorePatch — частичное обновление магазина; nil-поля не трогаются.
type SourceStorePatch struct {
	Name     *string
	ShopURL  *string
	APIToken *string
}

// SettingsStore расширяет ConfigStore операциями управления настройками.
// Это зависимость API-слоя; conveyor переноса видит только ConfigStore.
type SettingsStore interface {
	ConfigStore

	// ListStores возвращает магазины; activeOnly ограничивает выборку активными.
	ListStores(activeOnly bool) ([]SourceStore, error)
	// GetStore возвращает магазин или ErrStoreNotFound.
	GetStore(id int64) (SourceStore, error)
	CreateStore(name, shopURL, apiToken string) (int64, error)
	UpdateStore(id int64, patch SourceStorePatch) error
	DeleteStore(id int64) error

	// ListCatalogConnections возвращает дескрипторы с расшифрованными паролями.
	ListCatalogConnections() ([]CatalogConnection, error)
	// UpsertCatalogConnection создаёт или заменяет подключение данной роли.
	UpsertCatalogConnection(conn CatalogConnection) error

	UpsertCustomerMapping(storeID int64, mapping CustomerMapping) error
	UpsertStoreDefaults(storeID int64, defaults StoreDefaults) error
}
