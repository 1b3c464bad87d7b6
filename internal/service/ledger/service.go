package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/mongodb"
	"github.com/Patrick7854/kgl-groceries-system/internal/service/inventory"
)

// Service is the transaction coordinator. It validates a sale, reserves
// stock through the inventory guard and persists the transaction record as
// one observable unit: exactly one lot mutation and one transaction per
// successful call, zero of both on any failure path. It also owns the
// procurement and credit settlement operations on the ledger.
//
// The service keeps no state between calls and is safe for concurrent use.
type Service struct {
	repo   mongodb.Repository
	guard  *inventory.Guard
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the coordinator.
func NewService(repo mongodb.Repository, guard *inventory.Guard, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, guard: guard, logger: logger, now: time.Now}
}

// RecordTransaction records a cash or credit sale for the actor's branch.
//
// The sequence is: validate, reserve via the guard's atomic decrement, then
// persist the record. If persisting fails after the reservation succeeded the
// reservation is released again, so stock never stays decremented without a
// corresponding transaction.
func (s *Service) RecordTransaction(ctx context.Context, actor models.Actor, req models.TransactionRequest) (models.Transaction, error) {
	if !models.Allowed(actor.Role, models.OpRecordSale) {
		return models.Transaction{}, models.ErrForbidden
	}
	if !models.IsTradingBranch(actor.Branch) {
		return models.Transaction{}, models.ErrForbidden
	}

	if err := req.Validate(); err != nil {
		return models.Transaction{}, err
	}

	lot, err := s.guard.Reserve(ctx, req.ProduceName, actor.Branch, req.Quantity)
	if err != nil {
		return models.Transaction{}, err
	}

	now := s.now().UTC()
	txn := models.Transaction{
		Receipt:     uuid.NewString(),
		Kind:        req.Kind,
		LotID:       lot.ID,
		ProduceName: req.ProduceName,
		Quantity:    req.Quantity,
		Amount:      req.Amount,
		BuyerName:   req.BuyerName,
		SalesAgent:  actor.Name,
		Branch:      actor.Branch,
		DateTime:    now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Kind == models.KindCredit {
		txn.NIN = req.NIN
		txn.Location = req.Location
		txn.Contact = req.Contact
		txn.DueDate = req.DueDate
		txn.DispatchDate = req.DispatchDate
		txn.Status = models.CreditPending
	}

	saved, err := s.repo.InsertTransaction(ctx, txn)
	if err != nil {
		// The reservation already went through; put the stock back before
		// reporting the failure.
		if relErr := s.guard.Release(ctx, lot, req.Quantity); relErr != nil {
			s.logger.Error("compensation failed after transaction insert error",
				zap.String("receipt", txn.Receipt), zap.Error(relErr))
		}
		return models.Transaction{}, fmt.Errorf("persist transaction: %w", err)
	}

	s.logger.Info("transaction recorded",
		zap.String("receipt", saved.Receipt),
		zap.String("kind", string(saved.Kind)),
		zap.String("produce", string(saved.ProduceName)),
		zap.Int64("quantity", saved.Quantity),
		zap.String("branch", string(saved.Branch)),
		zap.String("sales_agent", saved.SalesAgent))
	return saved, nil
}

// ListSales returns cash sales visible to the actor, newest first.
func (s *Service) ListSales(ctx context.Context, actor models.Actor) ([]models.Transaction, error) {
	if !models.Allowed(actor.Role, models.OpViewSales) {
		return nil, models.ErrForbidden
	}

	kind := models.KindCash
	filter := mongodb.TransactionFilter{Kind: &kind}
	if actor.BranchScoped() {
		branch := actor.Branch
		filter.Branch = &branch
	}
	return s.repo.ListTransactions(ctx, filter)
}

// ListCreditSales returns credit sales visible to the actor, newest first.
func (s *Service) ListCreditSales(ctx context.Context, actor models.Actor) ([]models.Transaction, error) {
	if !models.Allowed(actor.Role, models.OpViewCredits) {
		return nil, models.ErrForbidden
	}

	kind := models.KindCredit
	filter := mongodb.TransactionFilter{Kind: &kind}
	if actor.BranchScoped() {
		branch := actor.Branch
		filter.Branch = &branch
	}
	return s.repo.ListTransactions(ctx, filter)
}

// MarkCreditPaid settles a pending credit sale. Pending to Paid is the only
// transition; any other requested status is rejected, and a settled sale
// stays settled.
func (s *Service) MarkCreditPaid(ctx context.Context, actor models.Actor, id string, status models.CreditStatus) (models.Transaction, error) {
	if !models.Allowed(actor.Role, models.OpMarkCreditPaid) {
		return models.Transaction{}, models.ErrForbidden
	}

	if status != models.CreditPaid {
		v := &models.ValidationError{}
		v.Add("status", "the only allowed transition is to Paid")
		return models.Transaction{}, v
	}

	txn, err := s.repo.MarkCreditPaid(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}

	s.logger.Info("credit sale settled",
		zap.String("receipt", txn.Receipt),
		zap.String("buyer", txn.BuyerName),
		zap.String("settled_by", actor.Name))
	return txn, nil
}

// Procure records a new produce lot for a branch.
func (s *Service) Procure(ctx context.Context, actor models.Actor, req models.ProcurementRequest) (models.ProduceLot, error) {
	if !models.Allowed(actor.Role, models.OpProcureStock) {
		return models.ProduceLot{}, models.ErrForbidden
	}
	if err := req.Validate(); err != nil {
		return models.ProduceLot{}, err
	}

	lot, err := s.repo.InsertLot(ctx, req.Lot(s.now().UTC()))
	if err != nil {
		return models.ProduceLot{}, err
	}

	s.logger.Info("procurement recorded",
		zap.String("lot_id", lot.ID.Hex()),
		zap.String("produce", string(lot.Name)),
		zap.Int64("tonnage", lot.Tonnage),
		zap.String("branch", string(lot.Branch)))
	return lot, nil
}

// ListLots returns lots visible to the actor. A director may narrow the view
// with branchOverride; scoped actors always see their own branch only.
func (s *Service) ListLots(ctx context.Context, actor models.Actor, branchOverride *models.Branch) ([]models.ProduceLot, error) {
	if !models.Allowed(actor.Role, models.OpViewStock) {
		return nil, models.ErrForbidden
	}

	filter := mongodb.LotFilter{}
	if actor.BranchScoped() {
		branch := actor.Branch
		filter.Branch = &branch
	} else if branchOverride != nil {
		filter.Branch = branchOverride
	}
	return s.repo.ListLots(ctx, filter)
}

// UpdateSellingPrice adjusts a lot's selling price, the only mutable field
// outside of tonnage reservations.
func (s *Service) UpdateSellingPrice(ctx context.Context, actor models.Actor, id string, price float64) (models.ProduceLot, error) {
	if !models.Allowed(actor.Role, models.OpUpdatePrice) {
		return models.ProduceLot{}, models.ErrForbidden
	}
	if price < 0 {
		v := &models.ValidationError{}
		v.Add("sellingPrice", "cannot be negative")
		return models.ProduceLot{}, v
	}
	return s.repo.UpdateSellingPrice(ctx, id, price)
}

// DeleteLot removes a lot from stock.
func (s *Service) DeleteLot(ctx context.Context, actor models.Actor, id string) error {
	if !models.Allowed(actor.Role, models.OpDeleteLot) {
		return models.ErrForbidden
	}
	if err := s.repo.DeleteLot(ctx, id); err != nil {
		return err
	}
	s.logger.Info("lot deleted", zap.String("lot_id", id), zap.String("deleted_by", actor.Name))
	return nil
}
