package sequence_test

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/service/sequence"
	"github.com/vladislavdragonenkov/qts/internal/storage/memory"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	}
}

func TestPrefix_NoZeroPadding(t *testing.T) {
	repo := memory.NewQuotationRepository()
	a := sequence.New(repo, nil, sequence.WithClock(func() time.Time {
		return time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	}))

	prefix, err := a.Prefix("1")
	if err != nil {
		t.Fatalf("prefix failed: %v", err)
	}
	if prefix != "1520261" {
		t.Fatalf("expected prefix 1520261, got %s", prefix)
	}
}

func TestNextNumber_FirstOfDay(t *testing.T) {
	repo := memory.NewQuotationRepository()
	a := sequence.New(repo, nil, sequence.WithClock(fixedClock()))

	number, err := a.NextNumber("1")
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	if number != "91202611" {
		t.Fatalf("expected 91202611, got %s", number)
	}
}

func TestNextNumber_ContinuesFromMaxSuffix(t *testing.T) {
	repo := memory.NewQuotationRepository()
	repo.SeedHeaderNumber("912026111")
	repo.SeedHeaderNumber("912026112")
	a := sequence.New(repo, nil, sequence.WithClock(fixedClock()))

	number, err := a.NextNumber("1")
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	if number != "912026113" {
		t.Fatalf("expected 912026113, got %s", number)
	}
}

func TestNextNumber_RoutingIDSeparatesSequences(t *testing.T) {
	repo := memory.NewQuotationRepository()
	repo.SeedHeaderNumber("91202615")
	a := sequence.New(repo, nil, sequence.WithClock(fixedClock()))

	number, err := a.NextNumber("2")
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	if number != "91202621" {
		t.Fatalf("expected 91202621, got %s", number)
	}
}

func TestNextNumber_InvalidRoutingID(t *testing.T) {
	repo := memory.NewQuotationRepository()
	a := sequence.New(repo, nil, sequence.WithClock(fixedClock()))

	for _, routingID := range []string{"", "12"} {
		if _, err := a.NextNumber(routingID); !errors.Is(err, domain.ErrRoutingIDInvalid) {
			t.Fatalf("routing id %q: expected ErrRoutingIDInvalid, got %v", routingID, err)
		}
	}
}

func TestNextNumber_NoReissueBeforePersist(t *testing.T) {
	repo := memory.NewQuotationRepository()
	a := sequence.New(repo, nil, sequence.WithClock(fixedClock()))

	// Neither number is persisted, yet the second allocation must not
	// repeat the first.
	first, err := a.NextNumber("1")
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	second, err := a.NextNumber("1")
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	if first == second {
		t.Fatalf("allocator reissued %s", first)
	}
	if second != "91202612" {
		t.Fatalf("expected 91202612, got %s", second)
	}
}

func TestNextNumber_ConcurrentAllocationsUnique(t *testing.T) {
	repo := memory.NewQuotationRepository()
	a := sequence.New(repo, nil, sequence.WithClock(fixedClock()))

	const workers = 20
	numbers := make(chan string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := a.NextNumber("1")
			if err != nil {
				t.Errorf("allocation failed: %v", err)
				return
			}
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate number %s", number)
		}
		seen[number] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d unique numbers, got %d", workers, len(seen))
	}
}

func TestNextNumber_SuffixIsNumeric(t *testing.T) {
	repo := memory.NewQuotationRepository()
	a := sequence.New(repo, nil, sequence.WithClock(fixedClock()))

	number, err := a.NextNumber("1")
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	suffix := number[len("91202611")-1:]
	if _, err := strconv.ParseInt(suffix, 10, 64); err != nil {
		t.Fatalf("suffix %q is not numeric: %v", suffix, err)
	}
}
