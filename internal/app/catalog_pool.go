package app

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/service/sequence"
	"github.com/vladislavdragonenkov/qts/internal/storage/postgres"
)

const catalogOpenTimeout = 10 * time.Second

// catalogPool кеширует открытые каталожные подключения по ролям.
// Дескриптор перечитывается из настроек на каждый запрос: если оператор
// сменил подключение через API, старый пул закрывается и открывается новый.
type catalogPool struct {
	mu       sync.Mutex
	settings domain.ConfigStore
	logger   *log.Entry
	open     func(ctx context.Context, conn domain.CatalogConnection) (*postgres.Store, error)
	stores   map[domain.CatalogRole]*pooledCatalog
}

type pooledCatalog struct {
	conn      domain.CatalogConnection
	store     *postgres.Store
	allocator *sequence.Allocator
}

func newCatalogPool(settings domain.ConfigStore, logger *log.Entry) *catalogPool {
	if logger == nil {
		logger = log.WithField("component", "catalog-pool")
	}
	return &catalogPool{
		settings: settings,
		logger:   logger,
		open:     postgres.OpenCatalog,
		stores:   make(map[domain.CatalogRole]*pooledCatalog),
	}
}

// Get возвращает открытое подключение каталога данной роли, переоткрывая
// его при смене дескриптора в настройках.
func (p *catalogPool) Get(role domain.CatalogRole) (*postgres.Store, error) {
	conn, err := p.settings.CatalogConnection(role)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cached, err := p.entryLocked(role, conn)
	if err != nil {
		return nil, err
	}
	return cached.store, nil
}

// SequenceAllocator возвращает аллокатор номеров котировок, привязанный к
// текущему подключению первичного каталога. Экземпляр один на подключение:
// внутренние блокировки аллокатора по префиксам исключают дубли номеров
// только пока все переносы делят его между собой. При смене дескриптора
// запись пула пересоздаётся, и аллокатор пересоздаётся вместе с ней.
func (p *catalogPool) SequenceAllocator(logger *log.Entry) (*sequence.Allocator, error) {
	if logger == nil {
		logger = p.logger
	}
	conn, err := p.settings.CatalogConnection(domain.CatalogRolePrimary)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cached, err := p.entryLocked(domain.CatalogRolePrimary, conn)
	if err != nil {
		return nil, err
	}
	if cached.allocator == nil {
		cached.allocator = sequence.New(
			postgres.NewQuotationRepository(cached.store),
			logger.WithField("component", "sequence"),
		)
	}
	return cached.allocator, nil
}

// entryLocked отдаёт запись пула для роли, переоткрывая подключение при
// смене дескриптора. Вызывается только под p.mu.
func (p *catalogPool) entryLocked(role domain.CatalogRole, conn domain.CatalogConnection) (*pooledCatalog, error) {
	if cached, ok := p.stores[role]; ok {
		if cached.conn == conn {
			return cached, nil
		}

		p.logger.WithField("role", string(role)).Info("catalog connection changed, reopening")
		if err := cached.store.Close(); err != nil {
			p.logger.WithError(err).Warn("failed to close stale catalog connection")
		}
		delete(p.stores, role)
	}

	ctx, cancel := context.WithTimeout(context.Background(), catalogOpenTimeout)
	defer cancel()

	store, err := p.open(ctx, conn)
	if err != nil {
		return nil, err
	}

	entry := &pooledCatalog{conn: conn, store: store}
	p.stores[role] = entry
	return entry, nil
}

// Close закрывает все открытые каталожные подключения.
func (p *catalogPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for role, cached := range p.stores {
		if err := cached.store.Close(); err != nil {
			p.logger.WithError(err).WithField("role", string(role)).Warn("failed to close catalog connection")
		}
		delete(p.stores, role)
	}
}
