package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/crypto"
	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/storage/postgres"
)

// Dependencies содержит зависимости приложения, живущие весь его срок.
// Каталожные подключения сюда не входят: они настраиваются через API
// и открываются catalogPool по мере надобности.
type Dependencies struct {
	Store    *postgres.Store
	Cipher   *crypto.Cipher
	Settings domain.SettingsStore
	Ledger   domain.TransferLedger
	Logger   *log.Entry
}

// NewDependencies открывает базу настроек, применяет миграции и собирает
// репозитории.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	cipher, err := crypto.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Dependencies{
		Store:    store,
		Cipher:   cipher,
		Settings: postgres.NewSettingsRepository(store, cipher),
		Ledger:   postgres.NewLedgerRepository(store),
		Logger:   logger,
	}, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
