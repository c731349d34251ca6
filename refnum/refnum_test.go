package refnum_test

import (
	"math/rand"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gramsetu/festival-ledger/refnum"
)

var numberPattern = regexp.MustCompile(`^[A-Z]+\d{13,}\d{3}$`)

func TestGenerate_Format(t *testing.T) {
	g := refnum.New()

	for _, prefix := range []string{refnum.PrefixReceipt, refnum.PrefixInvoice, refnum.PrefixTransaction} {
		n := g.Generate(prefix)
		assert.Regexp(t, numberPattern, n)
		assert.Equal(t, prefix, n[:3])
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	// GIVEN: a fixed clock and a seeded RNG
	// THEN: the output is fully determined

	at := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	g := refnum.NewWithSource(func() time.Time { return at }, rand.New(rand.NewSource(1)))

	first := g.Generate("RCP")
	assert.Equal(t, "RCP", first[:3])
	assert.Equal(t, "1748779200000", first[3:16])
	assert.Len(t, first, 3+13+3)
}

func TestGenerate_DiffersAcrossMilliseconds(t *testing.T) {
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	}
	g := refnum.NewWithSource(clock, rand.New(rand.NewSource(7)))

	a := g.Generate("TXN")
	b := g.Generate("TXN")
	assert.NotEqual(t, a, b)
}

func TestGenerate_ConcurrentCallers(t *testing.T) {
	// GIVEN: one generator shared across goroutines, as the HTTP layer
	// shares it between handlers and the recorder
	// THEN: concurrent Generate calls are safe and well-formed
	// (run with -race to verify the RNG access is synchronized)

	g := refnum.New()

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan string, callers*10)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				results <- g.Generate(refnum.PrefixTransaction)
			}
		}()
	}
	wg.Wait()
	close(results)

	for n := range results {
		assert.Regexp(t, numberPattern, n)
	}
}
