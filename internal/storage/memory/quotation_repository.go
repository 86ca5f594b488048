package memory

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// QuotationRepository — in-memory реализация domain.QuotationRepository.
type QuotationRepository struct {
	mu         sync.RWMutex
	nextHeader int64
	nextLine   int64
	headers    map[int64]domain.QuotationHeader
	lines      map[int64][]domain.QuotationLine
	customers  map[int64]domain.Customer
	units      map[int64]string
}

// NewQuotationRepository возвращает пустое in-memory хранилище котировок.
func NewQuotationRepository() *QuotationRepository {
	return &QuotationRepository{
		nextHeader: 1,
		nextLine:   1,
		headers:    make(map[int64]domain.QuotationHeader),
		lines:      make(map[int64][]domain.QuotationLine),
		customers:  make(map[int64]domain.Customer),
		units:      make(map[int64]string),
	}
}

// SeedCustomer добавляет покупателя.
func (r *QuotationRepository) SeedCustomer(c domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = c
}

// SeedUnit добавляет описание единицы измерения.
func (r *QuotationRepository) SeedUnit(id int64, desc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[id] = desc
}

// SeedHeaderNumber регистрирует существующий номер документа для сканирования
// последовательности.
func (r *QuotationRepository) SeedHeaderNumber(number string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextHeader
	r.nextHeader++
	r.headers[id] = domain.QuotationHeader{ID: id, Number: number}
}

// InsertHeader сохраняет заголовок и возвращает присвоенный ID.
func (r *QuotationRepository) InsertHeader(header domain.QuotationHeader) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	header.ID = r.nextHeader
	r.nextHeader++
	r.headers[header.ID] = header
	return header.ID, nil
}

// InsertLine сохраняет строку под заголовком.
func (r *QuotationRepository) InsertLine(headerID int64, line domain.QuotationLine) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line.ID = r.nextLine
	r.nextLine++
	line.HeaderID = headerID
	r.lines[headerID] = append(r.lines[headerID], line)
	return line.ID, nil
}

// MaxSequenceSuffix сканирует номера заголовков с данным префиксом и
// возвращает максимальный числовой суффикс.
func (r *QuotationRepository) MaxSequenceSuffix(prefix string) (int64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		max   int64
		found bool
	)
	for _, h := range r.headers {
		if !strings.HasPrefix(h.Number, prefix) {
			continue
		}
		suffix, err := strconv.ParseInt(h.Number[len(prefix):], 10, 64)
		if err != nil {
			continue
		}
		if !found || suffix > max {
			max = suffix
			found = true
		}
	}
	return max, found, nil
}

// GetCustomer возвращает покупателя или ErrCustomerNotFound.
func (r *QuotationRepository) GetCustomer(id int64) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, nil
}

// ListCustomers возвращает покупателей, отсортированных по названию.
func (r *QuotationRepository) ListCustomers(limit int) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BusinessName < result[j].BusinessName
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// SearchCustomersByAccount ищет покупателей по подстроке номера счёта.
func (r *QuotationRepository) SearchCustomersByAccount(query string, limit int) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToUpper(query)
	result := make([]domain.Customer, 0)
	for _, c := range r.customers {
		if strings.Contains(strings.ToUpper(c.AccountNo), needle) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountNo < result[j].AccountNo
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UnitDescription возвращает описание единицы измерения или пустую строку.
func (r *QuotationRepository) UnitDescription(unitID int64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.units[unitID], nil
}

// Headers возвращает снимок всех заголовков (для тестов).
func (r *QuotationRepository) Headers() []domain.QuotationHeader {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.QuotationHeader, 0, len(r.headers))
	for _, h := range r.headers {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Lines возвращает строки заголовка (для тестов).
func (r *QuotationRepository) Lines(headerID int64) []domain.QuotationLine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.QuotationLine(nil), r.lines[headerID]...)
}

var _ domain.QuotationRepository = (*QuotationRepository)(nil)
