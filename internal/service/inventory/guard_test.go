package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/memory"
)

func seedLot(t *testing.T, repo *memory.Repository, produce models.ProduceKind, branch models.Branch, tonnage int64) models.ProduceLot {
	t.Helper()
	lot, err := repo.InsertLot(context.Background(), models.ProduceLot{
		Name:      produce,
		Type:      "Grade A",
		Tonnage:   tonnage,
		Branch:    branch,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return lot
}

func TestReserveHappyPath(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())
	seeded := seedLot(t, repo, models.ProduceMaize, models.BranchMaganjo, 1000)

	lot, err := guard.Reserve(context.Background(), models.ProduceMaize, models.BranchMaganjo, 300)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, lot.ID)
	assert.Equal(t, int64(700), lot.Tonnage)

	stored, err := repo.FindLot(context.Background(), seeded.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(700), stored.Tonnage)
}

func TestReserveLotNotFound(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())

	_, err := guard.Reserve(context.Background(), models.ProduceBeans, models.BranchMatugga, 100)
	assert.ErrorIs(t, err, models.ErrLotNotFound)
}

func TestReserveWrongBranchIsNotFound(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())
	seedLot(t, repo, models.ProduceBeans, models.BranchMaganjo, 2000)

	_, err := guard.Reserve(context.Background(), models.ProduceBeans, models.BranchMatugga, 100)
	assert.ErrorIs(t, err, models.ErrLotNotFound)
}

func TestReserveInsufficientStock(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())
	seeded := seedLot(t, repo, models.ProduceSoybeans, models.BranchMaganjo, 150)

	_, err := guard.Reserve(context.Background(), models.ProduceSoybeans, models.BranchMaganjo, 200)

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(150), stockErr.Available)

	stored, err := repo.FindLot(context.Background(), seeded.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(150), stored.Tonnage, "a rejected reservation must not touch the lot")
}

func TestReserveZeroQuantityRejected(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())
	seedLot(t, repo, models.ProduceMaize, models.BranchMaganjo, 1000)

	var vErr *models.ValidationError
	_, err := guard.Reserve(context.Background(), models.ProduceMaize, models.BranchMaganjo, 0)
	require.ErrorAs(t, err, &vErr)
}

func TestReservePicksLatestLot(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())

	older, err := repo.InsertLot(context.Background(), models.ProduceLot{
		Name:      models.ProduceMaize,
		Tonnage:   5000,
		Branch:    models.BranchMaganjo,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	newer := seedLot(t, repo, models.ProduceMaize, models.BranchMaganjo, 1200)

	lot, err := guard.Reserve(context.Background(), models.ProduceMaize, models.BranchMaganjo, 200)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, lot.ID)

	untouched, err := repo.FindLot(context.Background(), older.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), untouched.Tonnage)
}

// Two concurrent sales of 1000kg and 800kg against a 1500kg lot: exactly one
// may win, and the final tonnage must reflect only the winner.
func TestReserveConcurrentPairNeverOversells(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())
	seeded := seedLot(t, repo, models.ProduceBeans, models.BranchMatugga, 1500)

	requests := []int64{1000, 800}
	errs := make([]error, len(requests))

	var wg sync.WaitGroup
	for i, qty := range requests {
		wg.Add(1)
		go func(i int, qty int64) {
			defer wg.Done()
			_, errs[i] = guard.Reserve(context.Background(), models.ProduceBeans, models.BranchMatugga, qty)
		}(i, qty)
	}
	wg.Wait()

	succeeded := 0
	var wonQty int64
	for i, err := range errs {
		if err == nil {
			succeeded++
			wonQty = requests[i]
			continue
		}
		var stockErr *models.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		// The loser saw either the initial tonnage or the post-winner remainder.
		assert.Contains(t, []int64{1500, 1500 - requests[(i+1)%2]}, stockErr.Available)
	}
	require.Equal(t, 1, succeeded, "1000+800 cannot both fit in 1500")

	final, err := repo.FindLot(context.Background(), seeded.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1500-wonQty, final.Tonnage)
}

// Many concurrent reservations: the sum of successes never exceeds the
// initial tonnage and the final tonnage equals initial minus that sum.
func TestReserveConcurrentDrainInvariant(t *testing.T) {
	const (
		initial  = int64(10000)
		callers  = 64
		quantity = int64(300)
	)

	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())
	seeded := seedLot(t, repo, models.ProduceGroundnuts, models.BranchMaganjo, initial)

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = guard.Reserve(context.Background(), models.ProduceGroundnuts, models.BranchMaganjo, quantity)
		}(i)
	}
	wg.Wait()

	var reserved int64
	for _, err := range results {
		if err == nil {
			reserved += quantity
		}
	}
	assert.LessOrEqual(t, reserved, initial)

	final, err := repo.FindLot(context.Background(), seeded.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, initial-reserved, final.Tonnage)
	assert.GreaterOrEqual(t, final.Tonnage, int64(0), "tonnage must never go negative")
}

func TestReleaseRestoresTonnage(t *testing.T) {
	repo := memory.NewRepository()
	guard := NewGuard(repo, zap.NewNop())
	seeded := seedLot(t, repo, models.ProduceCowPeas, models.BranchMatugga, 1000)

	lot, err := guard.Reserve(context.Background(), models.ProduceCowPeas, models.BranchMatugga, 400)
	require.NoError(t, err)

	require.NoError(t, guard.Release(context.Background(), lot, 400))

	restored, err := repo.FindLot(context.Background(), seeded.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), restored.Tonnage)
}
