package festival_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/docstore/memory"
	"github.com/gramsetu/festival-ledger/festival"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedFamily(t *testing.T, store docstore.Store, id, name string, active bool) {
	t.Helper()
	_, err := store.Create(context.Background(), docstore.CollectionFamilies,
		festival.FamilyToDoc(festival.Family{ID: id, HeadName: name, IsActive: active}))
	require.NoError(t, err)
}

func seedFestival(t *testing.T, store docstore.Store, id, name string, perFamily string, date time.Time) {
	t.Helper()
	_, err := store.Create(context.Background(), docstore.CollectionFestivals,
		festival.FestivalToDoc(festival.Festival{
			ID: id, Name: name, Date: date,
			AmountPerFamily: dec(perFamily), IsActive: true,
		}))
	require.NoError(t, err)
}

func seedPayment(t *testing.T, store docstore.Store, id, familyID, festivalID, amount string, status festival.PaymentStatus, paid time.Time) {
	t.Helper()
	_, err := store.Create(context.Background(), docstore.CollectionPayments,
		festival.PaymentToDoc(festival.Payment{
			ID: id, FamilyID: familyID, FestivalID: festivalID,
			Amount: dec(amount), Status: status, PaidDate: paid,
		}))
	require.NoError(t, err)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestBuildFestivalReport_DuplicatePaymentsCountOnceButSumTwice(t *testing.T) {
	// GIVEN: 3 active families at 100 per family; family A paid twice,
	//        family B has an UNPAID payment, family C paid nothing
	// THEN:  paid=1, unpaid=2, collected=200, total=300, pending=100

	store := memory.New()
	engine := festival.NewReportEngine(store, nil)
	ctx := context.Background()
	day := time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC)

	seedFamily(t, store, "fam-a", "Sharma", true)
	seedFamily(t, store, "fam-b", "Patil", true)
	seedFamily(t, store, "fam-c", "Joshi", true)
	seedFestival(t, store, "fest-1", "Dussehra", "100", day)

	seedPayment(t, store, "p1", "fam-a", "fest-1", "100", festival.StatusPaid, day)
	seedPayment(t, store, "p2", "fam-a", "fest-1", "100", festival.StatusPaid, day.AddDate(0, 0, 1))
	seedPayment(t, store, "p3", "fam-b", "fest-1", "100", festival.StatusUnpaid, day)

	report, err := engine.BuildFestivalReport(ctx, "fest-1")
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalFamilies)
	assert.Equal(t, 1, report.PaidFamilies)
	assert.Equal(t, 2, report.UnpaidFamilies)
	assert.True(t, report.CollectedAmount.Equal(dec("200")), "collected %s", report.CollectedAmount)
	assert.True(t, report.TotalAmount.Equal(dec("300")))
	assert.True(t, report.PendingAmount.Equal(dec("100")))
	assert.Len(t, report.Payments, 3)
}

func TestBuildFestivalReport_UnknownFamilyPlaceholder(t *testing.T) {
	// A payment referencing a deleted or inactive family renders as
	// "Unknown" and still sums into collected.

	store := memory.New()
	engine := festival.NewReportEngine(store, nil)
	ctx := context.Background()
	day := time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC)

	seedFamily(t, store, "fam-left", "Deshmukh", false) // soft-deleted
	seedFestival(t, store, "fest-1", "Dussehra", "100", day)
	seedPayment(t, store, "p1", "fam-left", "fest-1", "100", festival.StatusPaid, day)
	seedPayment(t, store, "p2", "fam-gone", "fest-1", "50", festival.StatusPaid, day)

	report, err := engine.BuildFestivalReport(ctx, "fest-1")
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalFamilies)
	assert.Equal(t, 0, report.PaidFamilies)
	assert.True(t, report.CollectedAmount.Equal(dec("150")))
	// Zero expected, positive collected: pending goes negative, as computed.
	assert.True(t, report.PendingAmount.Equal(dec("-150")), "pending %s", report.PendingAmount)
	for _, row := range report.Payments {
		assert.Equal(t, festival.UnknownFamilyName, row.FamilyName)
	}
}

func TestBuildFestivalReport_ZeroTotal_RateIsZero(t *testing.T) {
	// collectionRate must be 0, never NaN, when the expected total is zero.

	store := memory.New()
	engine := festival.NewReportEngine(store, nil)
	day := time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC)

	seedFamily(t, store, "fam-a", "Sharma", true)
	seedFestival(t, store, "fest-free", "Community Bhajan", "0", day)

	report, err := engine.BuildFestivalReport(context.Background(), "fest-free")
	require.NoError(t, err)
	assert.True(t, report.TotalAmount.IsZero())
	assert.True(t, report.CollectionRate.IsZero())
}

func TestBuildFestivalReport_Deterministic(t *testing.T) {
	store := memory.New()
	engine := festival.NewReportEngine(store, nil)
	ctx := context.Background()
	day := time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC)

	seedFamily(t, store, "fam-a", "Sharma", true)
	seedFamily(t, store, "fam-b", "Patil", true)
	seedFestival(t, store, "fest-1", "Dussehra", "100", day)
	seedPayment(t, store, "p1", "fam-a", "fest-1", "100", festival.StatusPaid, day)
	seedPayment(t, store, "p2", "fam-b", "fest-1", "100", festival.StatusPaid, day)

	first, err := engine.BuildFestivalReport(ctx, "fest-1")
	require.NoError(t, err)
	second, err := engine.BuildFestivalReport(ctx, "fest-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildFestivalReport_MissingFestival(t *testing.T) {
	engine := festival.NewReportEngine(memory.New(), nil)

	_, err := engine.BuildFestivalReport(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, festival.IsNotFound(err))

	var nf *festival.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "festival", nf.Kind)
	assert.Equal(t, "nope", nf.ID)
}
