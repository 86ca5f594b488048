// Package sequence выдаёт номера документов котировок.
//
// Формат номера: <месяц><день><год><routingID><счётчик>, все части без
// ведущих нулей. Счётчик начинается с 1 и растёт в пределах дня и базы.
package sequence

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

var allocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "qts_sequence_allocations_total",
	Help: "Total number of document numbers allocated, by routing id.",
}, []string{"routing_id"})

// Allocator выдаёт следующий свободный номер документа для данного префикса.
// Выдача сериализуется по префиксу, поэтому параллельные переносы не могут
// получить одинаковый номер.
type Allocator struct {
	repo   domain.QuotationRepository
	logger *log.Entry
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// issued хранит последний выданный суффикс по префиксу. Выданный, но ещё
	// не записанный номер скан по базе не видит; без этой отметки два
	// параллельных переноса получили бы один номер.
	issuedMu sync.Mutex
	issued   map[string]int64
}

// Option настраивает Allocator.
type Option func(*Allocator)

// WithClock подменяет источник времени. Используется в тестах.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		a.now = now
	}
}

// New создаёт аллокатор поверх хранилища котировок.
func New(repo domain.QuotationRepository, logger *log.Entry, opts ...Option) *Allocator {
	if logger == nil {
		logger = log.New().WithField("component", "sequence")
	}
	a := &Allocator{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
		issued: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Prefix строит датовую часть номера для данного routingID на сегодня.
func (a *Allocator) Prefix(routingID string) (string, error) {
	if len(routingID) != 1 {
		return "", fmt.Errorf("%w: %q", domain.ErrRoutingIDInvalid, routingID)
	}
	t := a.now()
	return fmt.Sprintf("%d%d%d%s", int(t.Month()), t.Day(), t.Year(), routingID), nil
}

// NextNumber возвращает следующий свободный номер документа.
//
// Номер вычисляется сканированием существующих номеров с тем же префиксом:
// максимальный числовой суффикс плюс один, либо 1, если таких номеров нет.
// Скан и выдача выполняются под мьютексом префикса.
func (a *Allocator) NextNumber(routingID string) (string, error) {
	prefix, err := a.Prefix(routingID)
	if err != nil {
		return "", err
	}

	lock := a.prefixLock(prefix)
	lock.Lock()
	defer lock.Unlock()

	max, found, err := a.repo.MaxSequenceSuffix(prefix)
	if err != nil {
		return "", fmt.Errorf("scan document numbers for prefix %s: %w", prefix, err)
	}

	next := int64(1)
	if found {
		next = max + 1
	}

	a.issuedMu.Lock()
	if last := a.issued[prefix]; next <= last {
		next = last + 1
	}
	a.issued[prefix] = next
	a.issuedMu.Unlock()

	number := prefix + strconv.FormatInt(next, 10)
	allocationsTotal.WithLabelValues(routingID).Inc()
	a.logger.WithFields(log.Fields{
		"prefix": prefix,
		"number": number,
	}).Debug("document number allocated")
	return number, nil
}

func (a *Allocator) prefixLock(prefix string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[prefix]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[prefix] = lock
	}
	return lock
}
