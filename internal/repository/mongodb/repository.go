package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Patrick7854/kgl-groceries-system/internal/domain/models"
)

const (
	lotsCollection         = "produce"
	transactionsCollection = "transactions"
	usersCollection        = "users"
)

// LotFilter narrows lot queries. Nil fields mean "no constraint".
type LotFilter struct {
	Branch *models.Branch
}

// TransactionFilter narrows transaction queries. Nil fields mean "no
// constraint".
type TransactionFilter struct {
	Kind   *models.TransactionKind
	Branch *models.Branch
	Status *models.CreditStatus
	From   *time.Time
	To     *time.Time
}

// Repository is the ledger store: the exclusive owner of persisted lots,
// transactions and users. ReserveTonnage and ReleaseTonnage are the only
// operations that mutate a lot's tonnage.
type Repository interface {
	InsertLot(ctx context.Context, lot models.ProduceLot) (models.ProduceLot, error)
	FindLot(ctx context.Context, id string) (models.ProduceLot, error)
	LatestLot(ctx context.Context, name models.ProduceKind, branch models.Branch) (models.ProduceLot, error)
	ListLots(ctx context.Context, filter LotFilter) ([]models.ProduceLot, error)
	ReserveTonnage(ctx context.Context, lotID primitive.ObjectID, quantity int64) (bool, error)
	ReleaseTonnage(ctx context.Context, lotID primitive.ObjectID, quantity int64) error
	UpdateSellingPrice(ctx context.Context, id string, price float64) (models.ProduceLot, error)
	DeleteLot(ctx context.Context, id string) error

	InsertTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	FindCreditSale(ctx context.Context, id string) (models.Transaction, error)
	MarkCreditPaid(ctx context.Context, id string) (models.Transaction, error)

	InsertUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context, branch *models.Branch) (int64, error)
}

// MongoDBRepository implements Repository against a MongoDB database.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{client: client, dbName: dbName}, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique email index and the lot resolution index.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = r.coll(lotsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "branch", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create lot resolution index: %w", err)
	}
	return nil
}

func (r *MongoDBRepository) coll(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// storeErr tags driver failures so the HTTP layer can map them to 503.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
}

// InsertLot persists a new procurement batch.
func (r *MongoDBRepository) InsertLot(ctx context.Context, lot models.ProduceLot) (models.ProduceLot, error) {
	res, err := r.coll(lotsCollection).InsertOne(ctx, lot)
	if err != nil {
		return models.ProduceLot{}, storeErr("insert lot", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		lot.ID = id
	}
	return lot, nil
}

// FindLot loads one lot by its hex ID.
func (r *MongoDBRepository) FindLot(ctx context.Context, id string) (models.ProduceLot, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ProduceLot{}, models.ErrLotNotFound
	}

	var lot models.ProduceLot
	err = r.coll(lotsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&lot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	if err != nil {
		return models.ProduceLot{}, storeErr("find lot", err)
	}
	return lot, nil
}

// LatestLot resolves the most recently created lot for a produce kind at a
// branch. When several lots exist this is the deterministic tie-break: a sale
// is always drawn from a single lot, never split across lots.
func (r *MongoDBRepository) LatestLot(ctx context.Context, name models.ProduceKind, branch models.Branch) (models.ProduceLot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var lot models.ProduceLot
	err := r.coll(lotsCollection).FindOne(ctx, bson.M{"name": name, "branch": branch}, opts).Decode(&lot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	if err != nil {
		return models.ProduceLot{}, storeErr("latest lot", err)
	}
	return lot, nil
}

// ListLots returns lots newest first, optionally restricted to one branch.
func (r *MongoDBRepository) ListLots(ctx context.Context, filter LotFilter) ([]models.ProduceLot, error) {
	query := bson.M{}
	if filter.Branch != nil {
		query["branch"] = *filter.Branch
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll(lotsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, storeErr("list lots", err)
	}
	defer cur.Close(ctx)

	lots := []models.ProduceLot{}
	if err := cur.All(ctx, &lots); err != nil {
		return nil, storeErr("decode lots", err)
	}
	return lots, nil
}

// ReserveTonnage atomically decrements a lot's tonnage by quantity, but only
// when the remaining tonnage covers the request. The filter and the $inc are
// applied as one document-level operation on the server, which is what keeps
// tonnage from ever going negative under concurrent sales. An in-process lock
// cannot replace this: multiple process instances share the store.
func (r *MongoDBRepository) ReserveTonnage(ctx context.Context, lotID primitive.ObjectID, quantity int64) (bool, error) {
	if quantity < 1 {
		return false, fmt.Errorf("reserve tonnage: quantity %d out of range", quantity)
	}

	res, err := r.coll(lotsCollection).UpdateOne(ctx,
		bson.M{"_id": lotID, "tonnage": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"tonnage": -quantity},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, storeErr("reserve tonnage", err)
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseTonnage returns a reserved quantity to a lot. Only the transaction
// coordinator calls this, to compensate when persisting the transaction
// record fails after a successful reservation.
func (r *MongoDBRepository) ReleaseTonnage(ctx context.Context, lotID primitive.ObjectID, quantity int64) error {
	_, err := r.coll(lotsCollection).UpdateOne(ctx,
		bson.M{"_id": lotID},
		bson.M{
			"$inc": bson.M{"tonnage": quantity},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return storeErr("release tonnage", err)
	}
	return nil
}

// UpdateSellingPrice changes the only mutable pricing field on a lot.
func (r *MongoDBRepository) UpdateSellingPrice(ctx context.Context, id string, price float64) (models.ProduceLot, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ProduceLot{}, models.ErrLotNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var lot models.ProduceLot
	err = r.coll(lotsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"sellingPrice": price, "updatedAt": time.Now().UTC()}},
		opts,
	).Decode(&lot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProduceLot{}, models.ErrLotNotFound
	}
	if err != nil {
		return models.ProduceLot{}, storeErr("update selling price", err)
	}
	return lot, nil
}

// DeleteLot removes a lot. Explicit managerial stock removal only.
func (r *MongoDBRepository) DeleteLot(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrLotNotFound
	}

	res, err := r.coll(lotsCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeErr("delete lot", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrLotNotFound
	}
	return nil
}

// InsertTransaction persists a sale record.
func (r *MongoDBRepository) InsertTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error) {
	res, err := r.coll(transactionsCollection).InsertOne(ctx, txn)
	if err != nil {
		return models.Transaction{}, storeErr("insert transaction", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		txn.ID = id
	}
	return txn, nil
}

// ListTransactions returns transactions newest first.
func (r *MongoDBRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	query := bson.M{}
	if filter.Kind != nil {
		query["kind"] = *filter.Kind
	}
	if filter.Branch != nil {
		query["branch"] = *filter.Branch
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.From != nil || filter.To != nil {
		dateRange := bson.M{}
		if filter.From != nil {
			dateRange["$gte"] = *filter.From
		}
		if filter.To != nil {
			dateRange["$lte"] = *filter.To
		}
		query["dateTime"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "dateTime", Value: -1}})
	cur, err := r.coll(transactionsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	defer cur.Close(ctx)

	txns := []models.Transaction{}
	if err := cur.All(ctx, &txns); err != nil {
		return nil, storeErr("decode transactions", err)
	}
	return txns, nil
}

// FindCreditSale loads one credit transaction by its hex ID.
func (r *MongoDBRepository) FindCreditSale(ctx context.Context, id string) (models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Transaction{}, models.ErrCreditSaleNotFound
	}

	var txn models.Transaction
	err = r.coll(transactionsCollection).FindOne(ctx, bson.M{"_id": oid, "kind": models.KindCredit}).Decode(&txn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Transaction{}, models.ErrCreditSaleNotFound
	}
	if err != nil {
		return models.Transaction{}, storeErr("find credit sale", err)
	}
	return txn, nil
}

// MarkCreditPaid flips a pending credit sale to Paid with a conditional
// update, so two concurrent managers cannot both observe the transition.
// Returns ErrAlreadyPaid when the sale exists but has already settled.
func (r *MongoDBRepository) MarkCreditPaid(ctx context.Context, id string) (models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Transaction{}, models.ErrCreditSaleNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var txn models.Transaction
	err = r.coll(transactionsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "kind": models.KindCredit, "status": models.CreditPending},
		bson.M{"$set": bson.M{"status": models.CreditPaid, "updatedAt": time.Now().UTC()}},
		opts,
	).Decode(&txn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either missing or already terminal. Tell the caller which.
		if _, findErr := r.FindCreditSale(ctx, id); findErr == nil {
			return models.Transaction{}, models.ErrAlreadyPaid
		}
		return models.Transaction{}, models.ErrCreditSaleNotFound
	}
	if err != nil {
		return models.Transaction{}, storeErr("mark credit paid", err)
	}
	return txn, nil
}

// InsertUser persists a new account.
func (r *MongoDBRepository) InsertUser(ctx context.Context, user models.User) (models.User, error) {
	res, err := r.coll(usersCollection).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, models.ErrDuplicateEmail
		}
		return models.User{}, storeErr("insert user", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

// FindUserByEmail loads an account by its (lowercased) email.
func (r *MongoDBRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.coll(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, storeErr("find user by email", err)
	}
	return user, nil
}

// FindUserByID loads an account by its hex ID.
func (r *MongoDBRepository) FindUserByID(ctx context.Context, id string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, models.ErrUserNotFound
	}

	var user models.User
	err = r.coll(usersCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, storeErr("find user by id", err)
	}
	return user, nil
}

// ListUsers returns every account.
func (r *MongoDBRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := r.coll(usersCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, storeErr("decode users", err)
	}
	return users, nil
}

// UpdateUser overwrites the mutable fields of an account. The password hash
// is only touched when a new one is supplied.
func (r *MongoDBRepository) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	update := bson.M{
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"branch":    user.Branch,
		"contact":   user.Contact,
		"updatedAt": time.Now().UTC(),
	}
	if user.PasswordHash != "" {
		update["password"] = user.PasswordHash
	}

	res, err := r.coll(usersCollection).UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": update})
	if err != nil {
		return models.User{}, storeErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return models.User{}, models.ErrUserNotFound
	}
	return r.FindUserByID(ctx, user.ID.Hex())
}

// DeleteUser removes an account.
func (r *MongoDBRepository) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrUserNotFound
	}

	res, err := r.coll(usersCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeErr("delete user", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// CountUsers counts accounts, optionally restricted to one branch.
func (r *MongoDBRepository) CountUsers(ctx context.Context, branch *models.Branch) (int64, error) {
	query := bson.M{}
	if branch != nil {
		query["branch"] = *branch
	}

	count, err := r.coll(usersCollection).CountDocuments(ctx, query)
	if err != nil {
		return 0, storeErr("count users", err)
	}
	return count, nil
}
