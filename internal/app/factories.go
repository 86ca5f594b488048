package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/api"
	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/qts/internal/service/resolver"
	"github.com/vladislavdragonenkov/qts/internal/service/transfer"
	"github.com/vladislavdragonenkov/qts/internal/shopify"
	"github.com/vladislavdragonenkov/qts/internal/storage/postgres"
)

// newSourceFactory строит клиенты Shopify по записи магазина.
func newSourceFactory(logger *log.Entry) api.SourceFactory {
	return func(store domain.SourceStore) domain.OrderSource {
		return shopify.NewClient(store.ShopURL, store.APIToken,
			shopify.WithLogger(logger.WithField("shop", store.Name)))
	}
}

// newResolverFactory строит резолвер по актуальным каталожным подключениям.
func newResolverFactory(catalogs *catalogPool, logger *log.Entry) api.ResolverFactory {
	return func() (*resolver.Resolver, error) {
		primary, err := catalogs.Get(domain.CatalogRolePrimary)
		if err != nil {
			return nil, err
		}
		secondary, err := catalogs.Get(domain.CatalogRoleSecondary)
		if err != nil {
			return nil, err
		}

		return resolver.New(
			postgres.NewCatalogRepository(primary),
			postgres.NewCatalogRepository(secondary),
			logger.WithField("component", "resolver"),
		), nil
	}
}

// newQuotationFactory отдаёт репозиторий первичного каталога.
func newQuotationFactory(catalogs *catalogPool) api.QuotationFactory {
	return func() (domain.QuotationRepository, error) {
		primary, err := catalogs.Get(domain.CatalogRolePrimary)
		if err != nil {
			return nil, err
		}
		return postgres.NewQuotationRepository(primary), nil
	}
}

// newOrchestratorFactory собирает конвейер переноса для магазина по
// актуальным настройкам. Оркестратор живёт один запрос, но аллокатор
// номеров берётся из пула: параллельные переносы обязаны делить один
// экземпляр, иначе его блокировки по префиксам ничего не защищают.
func newOrchestratorFactory(deps *Dependencies, catalogs *catalogPool, producer *kafka.Producer, logger *log.Entry) api.OrchestratorFactory {
	sources := newSourceFactory(logger)
	resolvers := newResolverFactory(catalogs, logger)

	return func(store domain.SourceStore) (transfer.Orchestrator, error) {
		productResolver, err := resolvers()
		if err != nil {
			return nil, err
		}

		primary, err := catalogs.Get(domain.CatalogRolePrimary)
		if err != nil {
			return nil, err
		}
		quotations := postgres.NewQuotationRepository(primary)

		allocator, err := catalogs.SequenceAllocator(logger)
		if err != nil {
			return nil, err
		}

		source := sources(store)
		transferLogger := logger.WithField("component", "transfer").WithField("shop", store.Name)

		if producer != nil {
			return transfer.NewOrchestratorWithKafka(
				source, deps.Settings, deps.Ledger, quotations,
				productResolver, allocator, producer, transferLogger,
			), nil
		}

		return transfer.NewOrchestrator(
			source, deps.Settings, deps.Ledger, quotations,
			productResolver, allocator, transferLogger,
		), nil
	}
}

// testCatalogConnection открывает подключение по дескриптору и сразу
// закрывает его. Open сам выполняет ping.
func testCatalogConnection(conn domain.CatalogConnection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := postgres.OpenCatalog(ctx, conn)
	if err != nil {
		return err
	}
	return store.Close()
}
