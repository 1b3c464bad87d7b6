// Package memory provides an in-memory ledger store honoring the same
// contracts as the MongoDB repository, in particular the atomic conditional
// decrement ReserveTonnage promises. It backs the service tests and any
// environment where a real MongoDB is unavailable.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/mongodb"
)

// Repository is a mutex-guarded implementation of mongodb.Repository.
// The single mutex plays the role MongoDB's document-level atomicity plays
// for the real store: the tonnage check and decrement happen under one
// critical section, never as a separate read and write.
type Repository struct {
	mu           sync.Mutex
	lots         map[primitive.ObjectID]models.ProduceLot
	transactions map[primitive.ObjectID]models.Transaction
	users        map[primitive.ObjectID]models.User
}

var _ mongodb.Repository = (*Repository)(nil)

// NewRepository creates an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{
		lots:         map[primitive.ObjectID]models.ProduceLot{},
		transactions: map[primitive.ObjectID]models.Transaction{},
		users:        map[primitive.ObjectID]models.User{},
	}
}

// InsertLot persists a new procurement batch.
func (r *Repository) InsertLot(_ context.Context, lot models.ProduceLot) (models.ProduceLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lot.ID.IsZero() {
		lot.ID = primitive.NewObjectID()
	}
	r.lots[lot.ID] = lot
	return lot, nil
}

// FindLot loads one lot by its hex ID.
func (r *Repository) FindLot(_ context.Context, id string) (models.ProduceLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	lot, ok := r.lots[oid]
	if !ok {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	return lot, nil
}

// LatestLot resolves the most recently created lot for (name, branch).
func (r *Repository) LatestLot(_ context.Context, name models.ProduceKind, branch models.Branch) (models.ProduceLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best models.ProduceLot
	found := false
	for _, lot := range r.lots {
		if lot.Name != name || lot.Branch != branch {
			continue
		}
		if !found || lot.CreatedAt.After(best.CreatedAt) {
			best = lot
			found = true
		}
	}
	if !found {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	return best, nil
}

// ListLots returns lots newest first, optionally restricted to one branch.
func (r *Repository) ListLots(_ context.Context, filter mongodb.LotFilter) ([]models.ProduceLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lots := []models.ProduceLot{}
	for _, lot := range r.lots {
		if filter.Branch != nil && lot.Branch != *filter.Branch {
			continue
		}
		lots = append(lots, lot)
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].CreatedAt.After(lots[j].CreatedAt) })
	return lots, nil
}

// ReserveTonnage performs the conditional decrement under the store lock.
func (r *Repository) ReserveTonnage(_ context.Context, lotID primitive.ObjectID, quantity int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lot, ok := r.lots[lotID]
	if !ok || lot.Tonnage < quantity {
		return false, nil
	}
	lot.Tonnage -= quantity
	lot.UpdatedAt = time.Now().UTC()
	r.lots[lotID] = lot
	return true, nil
}

// ReleaseTonnage returns a reserved quantity to a lot.
func (r *Repository) ReleaseTonnage(_ context.Context, lotID primitive.ObjectID, quantity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lot, ok := r.lots[lotID]
	if !ok {
		return models.ErrLotNotFound
	}
	lot.Tonnage += quantity
	lot.UpdatedAt = time.Now().UTC()
	r.lots[lotID] = lot
	return nil
}

// UpdateSellingPrice changes a lot's selling price.
func (r *Repository) UpdateSellingPrice(_ context.Context, id string, price float64) (models.ProduceLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	lot, ok := r.lots[oid]
	if !ok {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	lot.SellingPrice = price
	lot.UpdatedAt = time.Now().UTC()
	r.lots[oid] = lot
	return lot, nil
}

// DeleteLot removes a lot.
func (r *Repository) DeleteLot(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrLotNotFound
	}
	if _, ok := r.lots[oid]; !ok {
		return models.ErrLotNotFound
	}
	delete(r.lots, oid)
	return nil
}

// InsertTransaction persists a sale record.
func (r *Repository) InsertTransaction(_ context.Context, txn models.Transaction) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if txn.ID.IsZero() {
		txn.ID = primitive.NewObjectID()
	}
	r.transactions[txn.ID] = txn
	return txn, nil
}

// ListTransactions returns matching transactions, newest first.
func (r *Repository) ListTransactions(_ context.Context, filter mongodb.TransactionFilter) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns := []models.Transaction{}
	for _, txn := range r.transactions {
		if filter.Kind != nil && txn.Kind != *filter.Kind {
			continue
		}
		if filter.Branch != nil && txn.Branch != *filter.Branch {
			continue
		}
		if filter.Status != nil && txn.Status != *filter.Status {
			continue
		}
		if filter.From != nil && txn.DateTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && txn.DateTime.After(*filter.To) {
			continue
		}
		txns = append(txns, txn)
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].DateTime.After(txns[j].DateTime) })
	return txns, nil
}

// FindCreditSale loads one credit transaction by its hex ID.
func (r *Repository) FindCreditSale(_ context.Context, id string) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findCreditSaleLocked(id)
}

func (r *Repository) findCreditSaleLocked(id string) (models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Transaction{}, models.ErrCreditSaleNotFound
	}
	txn, ok := r.transactions[oid]
	if !ok || txn.Kind != models.KindCredit {
		return models.Transaction{}, models.ErrCreditSaleNotFound
	}
	return txn, nil
}

// MarkCreditPaid flips a pending credit sale to Paid.
func (r *Repository) MarkCreditPaid(_ context.Context, id string) (models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, err := r.findCreditSaleLocked(id)
	if err != nil {
		return models.Transaction{}, err
	}
	if txn.Status != models.CreditPending {
		return models.Transaction{}, models.ErrAlreadyPaid
	}
	txn.Status = models.CreditPaid
	txn.UpdatedAt = time.Now().UTC()
	r.transactions[txn.ID] = txn
	return txn, nil
}

// InsertUser persists a new account.
func (r *Repository) InsertUser(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, models.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return user, nil
}

// FindUserByEmail loads an account by email.
func (r *Repository) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, models.ErrUserNotFound
}

// FindUserByID loads an account by its hex ID.
func (r *Repository) FindUserByID(_ context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, models.ErrUserNotFound
	}
	user, ok := r.users[oid]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns every account.
func (r *Repository) ListUsers(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := []models.User{}
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// UpdateUser overwrites the mutable fields of an account.
func (r *Repository) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	if user.PasswordHash == "" {
		user.PasswordHash = existing.PasswordHash
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = user
	return user, nil
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrUserNotFound
	}
	if _, ok := r.users[oid]; !ok {
		return models.ErrUserNotFound
	}
	delete(r.users, oid)
	return nil
}

// CountUsers counts accounts, optionally restricted to one branch.
func (r *Repository) CountUsers(_ context.Context, branch *models.Branch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, user := range r.users {
		if branch != nil && user.Branch != *branch {
			continue
		}
		count++
	}
	return count, nil
}
