// Package api — REST-интерфейс сервиса: настройки, просмотр заказов,
// запуск переносов и история. Все ответы несут конверт {success, ...}.
package api

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/service/resolver"
	"github.com/vladislavdragonenkov/qts/internal/service/transfer"
)

// SourceFactory строит клиент источника заказов для магазина.
type SourceFactory func(store domain.SourceStore) domain.OrderSource

// OrchestratorFactory строит оркестратор переноса для магазина.
// Подключения каталогов читаются на момент вызова: настройки могли смениться.
type OrchestratorFactory func(store domain.SourceStore) (transfer.Orchestrator, error)

// ResolverFactory строит резолвер по текущим каталожным подключениям.
type ResolverFactory func() (*resolver.Resolver, error)

// QuotationFactory отдаёт репозиторий первичного каталога для чтения покупателей.
type QuotationFactory func() (domain.QuotationRepository, error)

// ConnectionTester проверяет доступность каталожной базы по дескриптору.
type ConnectionTester func(conn domain.CatalogConnection) error

// Config — зависимости API-слоя.
type Config struct {
	Settings      domain.SettingsStore
	Ledger        domain.TransferLedger
	Sources       SourceFactory
	Orchestrators OrchestratorFactory
	Resolvers     ResolverFactory
	Quotations    QuotationFactory
	TestCatalog   ConnectionTester
	Logger        *log.Entry
}

// Handlers объединяет HTTP-обработчики сервиса.
type Handlers struct {
	settings      domain.SettingsStore
	ledger        domain.TransferLedger
	sources       SourceFactory
	orchestrators OrchestratorFactory
	resolvers     ResolverFactory
	quotations    QuotationFactory
	testCatalog   ConnectionTester
	logger        *log.Entry
}

// NewHandlers создаёт обработчики API.
func NewHandlers(cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "api")
	}

	return &Handlers{
		settings:      cfg.Settings,
		ledger:        cfg.Ledger,
		sources:       cfg.Sources,
		orchestrators: cfg.Orchestrators,
		resolvers:     cfg.Resolvers,
		quotations:    cfg.Quotations,
		testCatalog:   cfg.TestCatalog,
		logger:        logger,
	}
}
