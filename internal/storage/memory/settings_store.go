package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// SettingsStore — in-memory реализация domain.SettingsStore.
type SettingsStore struct {
	mu          sync.RWMutex
	nextStoreID int64
	stores      map[int64]domain.SourceStore
	defaults    map[int64]domain.StoreDefaults
	mappings    map[int64]domain.CustomerMapping
	connections map[domain.CatalogRole]domain.CatalogConnection
}

// NewSettingsStore возвращает пустое in-memory хранилище настроек.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		nextStoreID: 1,
		stores:      make(map[int64]domain.SourceStore),
		defaults:    make(map[int64]domain.StoreDefaults),
		mappings:    make(map[int64]domain.CustomerMapping),
		connections: make(map[domain.CatalogRole]domain.CatalogConnection),
	}
}

// StoreDefaults возвращает дефолты котировок или ErrStoreDefaultsMissing.
func (s *SettingsStore) StoreDefaults(storeID int64) (domain.StoreDefaults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.defaults[storeID]
	if !ok {
		return domain.StoreDefaults{}, domain.ErrStoreDefaultsMissing
	}
	return d, nil
}

// CustomerMapping возвращает маппинг покупателя или ErrCustomerMappingMissing.
func (s *SettingsStore) CustomerMapping(storeID int64) (domain.CustomerMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[storeID]
	if !ok {
		return domain.CustomerMapping{}, domain.ErrCustomerMappingMissing
	}
	return m, nil
}

// CatalogConnection возвращает дескриптор подключения каталога данной роли.
func (s *SettingsStore) CatalogConnection(role domain.CatalogRole) (domain.CatalogConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.connections[role]
	if !ok {
		return domain.CatalogConnection{}, domain.ErrCatalogConnectionMissing
	}
	return c, nil
}

// ListStores возвращает магазины; activeOnly ограничивает выборку активными.
func (s *SettingsStore) ListStores(activeOnly bool) ([]domain.SourceStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.SourceStore, 0, len(s.stores))
	for _, st := range s.stores {
		if activeOnly && !st.Active {
			continue
		}
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetStore возвращает магазин или ErrStoreNotFound.
func (s *SettingsStore) GetStore(id int64) (domain.SourceStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[id]
	if !ok {
		return domain.SourceStore{}, domain.ErrStoreNotFound
	}
	return st, nil
}

// CreateStore регистрирует магазин и возвращает присвоенный ID.
func (s *SettingsStore) CreateStore(name, shopURL, apiToken string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	id := s.nextStoreID
	s.nextStoreID++
	s.stores[id] = domain.SourceStore{
		ID:        id,
		Name:      name,
		ShopURL:   shopURL,
		APIToken:  apiToken,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

// UpdateStore применяет частичное обновление; nil-поля не трогаются.
func (s *SettingsStore) UpdateStore(id int64, patch domain.SourceStorePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[id]
	if !ok {
		return domain.ErrStoreNotFound
	}
	if patch.Name != nil {
		st.Name = *patch.Name
	}
	if patch.ShopURL != nil {
		st.ShopURL = *patch.ShopURL
	}
	if patch.APIToken != nil {
		st.APIToken = *patch.APIToken
	}
	st.UpdatedAt = time.Now().UTC()
	s.stores[id] = st
	return nil
}

// DeleteStore удаляет магазин вместе с его дефолтами и маппингом.
func (s *SettingsStore) DeleteStore(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stores[id]; !ok {
		return domain.ErrStoreNotFound
	}
	delete(s.stores, id)
	delete(s.defaults, id)
	delete(s.mappings, id)
	return nil
}

// ListCatalogConnections возвращает зарегистрированные подключения каталогов.
func (s *SettingsStore) ListCatalogConnections() ([]domain.CatalogConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CatalogConnection, 0, len(s.connections))
	for _, c := range s.connections {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Role < result[j].Role })
	return result, nil
}

// UpsertCatalogConnection создаёт или заменяет подключение данной роли.
func (s *SettingsStore) UpsertCatalogConnection(conn domain.CatalogConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[conn.Role] = conn
	return nil
}

// UpsertCustomerMapping создаёт или заменяет маппинг покупателя магазина.
func (s *SettingsStore) UpsertCustomerMapping(storeID int64, mapping domain.CustomerMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[storeID] = mapping
	return nil
}

// UpsertStoreDefaults создаёт или заменяет дефолты котировок магазина.
func (s *SettingsStore) UpsertStoreDefaults(storeID int64, defaults domain.StoreDefaults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[storeID] = defaults
	return nil
}

var _ domain.SettingsStore = (*SettingsStore)(nil)
