package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/memory"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/mongodb"
	"github.com/Patrick7854/kgl-groceries-system/internal/service/inventory"
)

var (
	maganjoAgent = models.Actor{ID: "a1", Name: "Okiror Sam", Role: models.RoleSales, Branch: models.BranchMaganjo}
	maganjoBoss  = models.Actor{ID: "m1", Name: "Nankya Joan", Role: models.RoleManager, Branch: models.BranchMaganjo}
	director     = models.Actor{ID: "d1", Name: "Kaggwa Paul", Role: models.RoleDirector, Branch: models.BranchHeadOffice}
)

func newService(repo mongodb.Repository) *Service {
	guard := inventory.NewGuard(repo, zap.NewNop())
	return NewService(repo, guard, zap.NewNop())
}

func procureMaize(t *testing.T, svc *Service, tonnage int64) models.ProduceLot {
	t.Helper()
	lot, err := svc.Procure(context.Background(), maganjoBoss, models.ProcurementRequest{
		Name:          models.ProduceMaize,
		Type:          "Grade A",
		Tonnage:       tonnage,
		Cost:          1500000,
		DealerName:    "Lubega Supplies",
		DealerContact: "0700123456",
		SellingPrice:  1800,
		Branch:        models.BranchMaganjo,
		Date:          "2026-08-29",
		Time:          "09:00",
	})
	require.NoError(t, err)
	return lot
}

func cashRequest(quantity int64) models.TransactionRequest {
	return models.TransactionRequest{
		Kind:        models.KindCash,
		ProduceName: models.ProduceMaize,
		Quantity:    quantity,
		Amount:      float64(quantity) * 1800,
		BuyerName:   "Akello Grace",
	}
}

func creditRequest(quantity int64) models.TransactionRequest {
	req := cashRequest(quantity)
	req.Kind = models.KindCredit
	req.NIN = "CM88112233XY01"
	req.Location = "Bwaise"
	req.Contact = "0751987654"
	req.DueDate = "2026-09-28"
	req.DispatchDate = "2026-08-30"
	return req
}

// Procurement of 1000kg Maize, then a 300kg cash sale: lot drops to 700 and
// exactly one transaction exists.
func TestRecordCashSale(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	lot := procureMaize(t, svc, 1000)

	sale, err := svc.RecordTransaction(context.Background(), maganjoAgent, cashRequest(300))
	require.NoError(t, err)

	assert.Equal(t, models.KindCash, sale.Kind)
	assert.Equal(t, int64(300), sale.Quantity)
	assert.Equal(t, lot.ID, sale.LotID)
	assert.Equal(t, maganjoAgent.Name, sale.SalesAgent)
	assert.Equal(t, models.BranchMaganjo, sale.Branch)
	assert.NotEmpty(t, sale.Receipt)
	assert.Empty(t, sale.Status, "cash sales carry no settlement status")

	stored, err := repo.FindLot(context.Background(), lot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(700), stored.Tonnage)

	txns, err := repo.ListTransactions(context.Background(), mongodb.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestRecordCreditSaleStartsPending(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	procureMaize(t, svc, 1000)

	sale, err := svc.RecordTransaction(context.Background(), maganjoAgent, creditRequest(250))
	require.NoError(t, err)

	assert.Equal(t, models.KindCredit, sale.Kind)
	assert.Equal(t, models.CreditPending, sale.Status)
	assert.Equal(t, "CM88112233XY01", sale.NIN)
	assert.Equal(t, "2026-09-28", sale.DueDate)
}

// A credit sale of 200kg against 150kg remaining fails with the observed
// availability and changes nothing.
func TestRecordTransactionInsufficientStock(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	lot := procureMaize(t, svc, 1000)

	_, err := svc.RecordTransaction(context.Background(), maganjoAgent, cashRequest(850))
	require.NoError(t, err)

	_, err = svc.RecordTransaction(context.Background(), maganjoAgent, creditRequest(200))
	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(150), stockErr.Available)

	stored, err := repo.FindLot(context.Background(), lot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(150), stored.Tonnage)

	kind := models.KindCredit
	credits, err := repo.ListTransactions(context.Background(), mongodb.TransactionFilter{Kind: &kind})
	require.NoError(t, err)
	assert.Empty(t, credits, "a failed sale must create no transaction")
}

// Validation failures must leave the store untouched: no lot mutation, no
// transaction record.
func TestRecordTransactionValidationLeavesNoSideEffects(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	lot := procureMaize(t, svc, 1000)

	bad := cashRequest(300)
	bad.BuyerName = ""
	_, err := svc.RecordTransaction(context.Background(), maganjoAgent, bad)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)

	stored, err := repo.FindLot(context.Background(), lot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Tonnage)

	txns, err := repo.ListTransactions(context.Background(), mongodb.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestRecordTransactionUnknownProduceInBranch(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)

	_, err := svc.RecordTransaction(context.Background(), maganjoAgent, cashRequest(100))
	assert.ErrorIs(t, err, models.ErrLotNotFound)
}

func TestRecordTransactionDirectorForbidden(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	procureMaize(t, svc, 1000)

	_, err := svc.RecordTransaction(context.Background(), director, cashRequest(100))
	assert.ErrorIs(t, err, models.ErrForbidden)
}

// failingInsertRepo simulates a store that accepts the reservation but loses
// the transaction write, to exercise the coordinator's compensation.
type failingInsertRepo struct {
	mongodb.Repository
}

func (f *failingInsertRepo) InsertTransaction(context.Context, models.Transaction) (models.Transaction, error) {
	return models.Transaction{}, errors.New("write concern failed")
}

func TestRecordTransactionCompensatesFailedInsert(t *testing.T) {
	inner := memory.NewRepository()
	bootstrap := newService(inner)
	lot := procureMaize(t, bootstrap, 1000)

	svc := newService(&failingInsertRepo{Repository: inner})

	_, err := svc.RecordTransaction(context.Background(), maganjoAgent, cashRequest(300))
	require.Error(t, err)

	stored, err := inner.FindLot(context.Background(), lot.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Tonnage, "reservation must be released when the record cannot be written")
}

func TestMarkCreditPaid(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	procureMaize(t, svc, 1000)

	sale, err := svc.RecordTransaction(context.Background(), maganjoAgent, creditRequest(200))
	require.NoError(t, err)

	settled, err := svc.MarkCreditPaid(context.Background(), maganjoBoss, sale.ID.Hex(), models.CreditPaid)
	require.NoError(t, err)
	assert.Equal(t, models.CreditPaid, settled.Status)

	// Paid is terminal.
	_, err = svc.MarkCreditPaid(context.Background(), maganjoBoss, sale.ID.Hex(), models.CreditPaid)
	assert.ErrorIs(t, err, models.ErrAlreadyPaid)
}

func TestMarkCreditPaidRejectsOtherStatuses(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	procureMaize(t, svc, 1000)

	sale, err := svc.RecordTransaction(context.Background(), maganjoAgent, creditRequest(200))
	require.NoError(t, err)

	for _, status := range []models.CreditStatus{models.CreditPending, "Cancelled", ""} {
		_, err := svc.MarkCreditPaid(context.Background(), maganjoBoss, sale.ID.Hex(), status)
		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr, "status %q must be rejected", status)
	}

	fresh, err := repo.FindCreditSale(context.Background(), sale.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.CreditPending, fresh.Status)
}

func TestMarkCreditPaidSalesAgentForbidden(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	procureMaize(t, svc, 1000)

	sale, err := svc.RecordTransaction(context.Background(), maganjoAgent, creditRequest(200))
	require.NoError(t, err)

	_, err = svc.MarkCreditPaid(context.Background(), maganjoAgent, sale.ID.Hex(), models.CreditPaid)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestProcureRequiresManager(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)

	_, err := svc.Procure(context.Background(), maganjoAgent, models.ProcurementRequest{})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestProcureRejectsSmallBatch(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)

	req := models.ProcurementRequest{
		Name:          models.ProduceBeans,
		Type:          "Yellow",
		Tonnage:       500,
		Cost:          100000,
		DealerName:    "Dealer",
		DealerContact: "0700123456",
		SellingPrice:  1500,
		Branch:        models.BranchMaganjo,
		Date:          "2026-08-29",
		Time:          "11:00",
	}
	_, err := svc.Procure(context.Background(), maganjoBoss, req)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "tonnage")
}

func TestListSalesScopedByBranch(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	procureMaize(t, svc, 2000)

	_, err := svc.RecordTransaction(context.Background(), maganjoAgent, cashRequest(100))
	require.NoError(t, err)

	// Seed a sale at the other branch directly.
	_, err = repo.InsertTransaction(context.Background(), models.Transaction{
		Kind:        models.KindCash,
		ProduceName: models.ProduceBeans,
		Quantity:    50,
		Branch:      models.BranchMatugga,
		DateTime:    time.Now().UTC(),
	})
	require.NoError(t, err)

	scoped, err := svc.ListSales(context.Background(), maganjoAgent)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, models.BranchMaganjo, scoped[0].Branch)

	all, err := svc.ListSales(context.Background(), director)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateSellingPriceAndDelete(t *testing.T) {
	repo := memory.NewRepository()
	svc := newService(repo)
	lot := procureMaize(t, svc, 1000)

	updated, err := svc.UpdateSellingPrice(context.Background(), maganjoBoss, lot.ID.Hex(), 1950)
	require.NoError(t, err)
	assert.Equal(t, float64(1950), updated.SellingPrice)

	_, err = svc.UpdateSellingPrice(context.Background(), maganjoAgent, lot.ID.Hex(), 2000)
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, svc.DeleteLot(context.Background(), maganjoBoss, lot.ID.Hex()))
	assert.ErrorIs(t, svc.DeleteLot(context.Background(), maganjoBoss, lot.ID.Hex()), models.ErrLotNotFound)
}
