package domain

// CatalogRepository описывает требования к хранилищу товаров.
// Первичный и вторичный каталоги — два экземпляра одной реализации
// на разных подключениях.
type CatalogRepository interface {
	// GetByBarcodes выполняет batch-поиск: один запрос на весь список,
	// результат — map штрихкод → товар. Отсутствующие ключи опускаются.
	GetByBarcodes(barcodes []string) (map[string]CatalogProduct, error)
	// GetByBarcode возвращает один товар или ErrProductNotFound.
	GetByBarcode(barcode string) (CatalogProduct, error)
	// Insert создаёт товар и возвращает запись с присвоенным ID.
	Insert(product CatalogProduct) (CatalogProduct, error)
}

// QuotationRepository описывает требования к хранилищу котировок первичного каталога.
type QuotationRepository interface {
	// InsertHeader создаёт заголовок и возвращает присвоенный ID.
	InsertHeader(header QuotationHeader) (int64, error)
	// InsertLine создаёт строку, привязанную к заголовку.
	InsertLine(headerID int64, line QuotationLine) (int64, error)
	// MaxSequenceSuffix возвращает максимальный числовой суффикс среди номеров
	// с данным префиксом; ok == false, если таких номеров нет.
	MaxSequenceSuffix(prefix string) (suffix int64, ok bool, err error)
	// GetCustomer возвращает покупателя или ErrCustomerNotFound.
	GetCustomer(id int64) (Customer, error)
	// ListCustomers возвращает активных покупателей для выпадающих списков.
	ListCustomers(limit int) ([]Customer, error)
	// SearchCustomersByAccount ищет покупателей по части номера счёта.
	SearchCustomersByAccount(query string, limit int) ([]Customer, error)
	// UnitDescription возвращает описание единицы измерения; пустая строка, если нет.
	UnitDescription(unitID int64) (string, error)
}
