// Package resolver привязывает позиции заказа к первичному каталогу,
// докапывая промахи из вторичного каталога с копированием (copy-on-miss).
package resolver

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

var (
	resolverCopiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qts_resolver_copies_total",
		Help: "Total number of products copied from the secondary catalog into the primary one.",
	})
	resolverCopyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qts_resolver_copy_failures_total",
		Help: "Total number of failed copy-on-miss attempts.",
	})
	resolverMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qts_resolver_missing_total",
		Help: "Total number of line items that could not be resolved to a catalog product.",
	})
)

// Resolver выполняет резолвинг позиций заказа по двум каталогам.
type Resolver struct {
	primary   domain.CatalogRepository
	secondary domain.CatalogRepository
	logger    *log.Entry
}

// New создаёт резолвер поверх первичного и вторичного каталогов.
func New(primary, secondary domain.CatalogRepository, logger *log.Entry) *Resolver {
	if logger == nil {
		logger = log.New().WithField("component", "resolver")
	}
	return &Resolver{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// barcodeGroup сохраняет порядок первого вхождения штрихкода.
type barcodeGroup struct {
	barcode string
	items   []domain.LineItem
}

// Resolve привязывает все позиции к товарам первичного каталога.
//
// Алгоритм:
//  1. Группировка позиций по штрихкоду; пустой штрихкод — отдельный класс отказа.
//  2. Один batch-запрос в первичный каталог на все штрихкоды.
//  3. Один batch-запрос во вторичный каталог на промахи.
//  4. Копирование найденных промахов в первичный каталог, не более одного
//     раза на штрихкод; ошибка копирования не прерывает остальные.
//  5. Раскладка товаров обратно по позициям групп.
//
// Ошибка любого из двух batch-запросов прерывает весь вызов (fail-fast);
// уже вычисленные товары при этом отбрасываются.
func (r *Resolver) Resolve(lineItems []domain.LineItem) domain.ValidationResult {
	result := domain.ValidationResult{Valid: true}

	groups := make([]barcodeGroup, 0, len(lineItems))
	index := make(map[string]int, len(lineItems))

	for _, item := range lineItems {
		barcode := item.NormalizedBarcode()
		if barcode == "" {
			result.Valid = false
			result.Missing = append(result.Missing, domain.MissingItem{
				Barcode:  domain.MissingBarcodePlaceholder,
				Name:     item.Name,
				SKU:      item.SKU,
				Quantity: item.Quantity,
				Reason:   domain.MissingReasonNoBarcode,
			})
			result.Errors = append(result.Errors, fmt.Sprintf("product %q has no barcode", item.Name))
			resolverMissingTotal.Inc()
			continue
		}

		if pos, ok := index[barcode]; ok {
			groups[pos].items = append(groups[pos].items, item)
			continue
		}
		index[barcode] = len(groups)
		groups = append(groups, barcodeGroup{barcode: barcode, items: []domain.LineItem{item}})
	}

	if len(groups) == 0 {
		return result
	}

	barcodes := make([]string, 0, len(groups))
	for _, g := range groups {
		barcodes = append(barcodes, g.barcode)
	}

	r.logger.WithField("barcodes", len(barcodes)).Info("batch lookup in primary catalog")
	found, err := r.primary.GetByBarcodes(barcodes)
	if err != nil {
		r.logger.WithError(err).Error("primary catalog lookup failed")
		return failedResult(result, fmt.Sprintf("primary catalog lookup failed: %v", err))
	}

	missing := make([]string, 0, len(barcodes))
	for _, barcode := range barcodes {
		if _, ok := found[barcode]; !ok {
			missing = append(missing, barcode)
		}
	}

	if len(missing) > 0 {
		r.logger.WithField("barcodes", len(missing)).Info("batch lookup in secondary catalog")
		secondary, err := r.secondary.GetByBarcodes(missing)
		if err != nil {
			r.logger.WithError(err).Error("secondary catalog lookup failed")
			return failedResult(result, fmt.Sprintf("secondary catalog lookup failed: %v", err))
		}

		// Копируем промахи по порядку групп, чтобы результат был детерминирован.
		for _, barcode := range missing {
			product, ok := secondary[barcode]
			if !ok {
				continue
			}

			copied, copyErr := r.primary.Insert(product)
			if copyErr != nil {
				// Штрихкод останется неразрешённым и попадёт в missing ниже.
				r.logger.WithError(copyErr).WithField("barcode", barcode).Error("copy from secondary catalog failed")
				result.Valid = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("failed to copy product %s from secondary catalog: %v", barcode, copyErr))
				resolverCopyFailuresTotal.Inc()
				continue
			}

			found[barcode] = copied
			result.Copied = append(result.Copied, domain.CopiedItem{
				Barcode:   barcode,
				Name:      copied.Description,
				ProductID: copied.ID,
			})
			resolverCopiesTotal.Inc()
			r.logger.WithFields(log.Fields{
				"barcode":    barcode,
				"product_id": copied.ID,
			}).Info("product copied into primary catalog")
		}
	}

	for _, group := range groups {
		product, ok := found[group.barcode]
		if !ok {
			result.Valid = false
			for _, item := range group.items {
				result.Missing = append(result.Missing, domain.MissingItem{
					Barcode:  group.barcode,
					Name:     item.Name,
					SKU:      item.SKU,
					Quantity: item.Quantity,
					Reason:   domain.MissingReasonNotFound,
				})
				result.Errors = append(result.Errors,
					fmt.Sprintf("product %q (barcode: %s) not found in any catalog", item.Name, group.barcode))
				resolverMissingTotal.Inc()
			}
			continue
		}

		for _, item := range group.items {
			result.Products = append(result.Products, overlay(product, item))
		}
	}

	r.logger.WithFields(log.Fields{
		"resolved": len(result.Products),
		"missing":  len(result.Missing),
		"copied":   len(result.Copied),
	}).Info("resolution complete")

	return result
}

// overlay накладывает количество и цену позиции на запись каталога.
// Нулевая цена позиции трактуется как неуказанная: берётся цена каталога.
func overlay(product domain.CatalogProduct, item domain.LineItem) domain.ResolvedProduct {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	price := product.UnitPrice
	if item.Price != nil && !item.Price.IsZero() {
		price = *item.Price
	}
	return domain.ResolvedProduct{
		Product:  product,
		Quantity: qty,
		Price:    price,
	}
}

// failedResult строит результат fail-fast отказа: уже вычисленные товары
// отброшены, сохраняются только missing-записи и ошибки, собранные до
// batch-запросов.
func failedResult(partial domain.ValidationResult, message string) domain.ValidationResult {
	return domain.ValidationResult{
		Valid:   false,
		Missing: partial.Missing,
		Errors:  append(partial.Errors, message),
	}
}
