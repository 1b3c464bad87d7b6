package models

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionKind distinguishes cash from credit sales.
type TransactionKind string

const (
	KindCash   TransactionKind = "Cash"
	KindCredit TransactionKind = "Credit"
)

// CreditStatus is the settlement state of a credit sale.
// The only legal transition is Pending to Paid, performed by a manager.
type CreditStatus string

const (
	CreditPending CreditStatus = "Pending"
	CreditPaid    CreditStatus = "Paid"
)

// IsValidCreditStatus reports whether s is a recognised settlement state.
func IsValidCreditStatus(s CreditStatus) bool {
	return s == CreditPending || s == CreditPaid
}

// nin matches Ugandan national identification numbers.
var nin = regexp.MustCompile(`^[A-Z0-9]{14}$`)

// IsValidNIN reports whether s is a well-formed national ID.
func IsValidNIN(s string) bool {
	return nin.MatchString(s)
}

// Transaction records one sale, cash or credit, drawn against a single
// produce lot. Its creation and the lot's tonnage decrement form one atomic
// unit; a Transaction is never observable without its decrement.
type Transaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Receipt     string             `bson:"receipt" json:"receipt"`
	Kind        TransactionKind    `bson:"kind" json:"kind"`
	LotID       primitive.ObjectID `bson:"lotId" json:"lotId"`
	ProduceName ProduceKind        `bson:"produceName" json:"produceName"`
	Quantity    int64              `bson:"quantity" json:"quantity"`
	Amount      float64            `bson:"amount" json:"amount"`
	BuyerName   string             `bson:"buyerName" json:"buyerName"`
	SalesAgent  string             `bson:"salesAgent" json:"salesAgent"`
	Branch      Branch             `bson:"branch" json:"branch"`
	DateTime    time.Time          `bson:"dateTime" json:"dateTime"`

	// Credit-only fields, empty on cash sales.
	NIN          string       `bson:"nin,omitempty" json:"nin,omitempty"`
	Location     string       `bson:"location,omitempty" json:"location,omitempty"`
	Contact      string       `bson:"contact,omitempty" json:"contact,omitempty"`
	DueDate      string       `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	DispatchDate string       `bson:"dispatchDate,omitempty" json:"dispatchDate,omitempty"`
	Status       CreditStatus `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TransactionRequest is the caller-supplied payload for recording a sale.
// Amount is the amount paid for cash sales and the amount due for credit.
type TransactionRequest struct {
	Kind        TransactionKind `json:"kind"`
	ProduceName ProduceKind     `json:"produceName"`
	Quantity    int64           `json:"quantity"`
	Amount      float64         `json:"amount"`
	BuyerName   string          `json:"buyerName"`

	// Required when Kind is Credit.
	NIN          string `json:"nin,omitempty"`
	Location     string `json:"location,omitempty"`
	Contact      string `json:"contact,omitempty"`
	DueDate      string `json:"dueDate,omitempty"`
	DispatchDate string `json:"dispatchDate,omitempty"`
}

// Validate checks the payload for the declared kind and returns a
// ValidationError listing every missing or malformed field, or nil.
func (r TransactionRequest) Validate() error {
	v := &ValidationError{}

	if r.Kind != KindCash && r.Kind != KindCredit {
		v.Add("kind", "must be Cash or Credit")
	}
	if !IsValidProduceKind(r.ProduceName) {
		v.Add("produceName", "must be one of Beans, Maize, Cow Peas, Groundnuts, Soybeans")
	}
	if r.Quantity < 1 {
		v.Add("quantity", "must be at least 1kg")
	}
	if r.Amount < 0 {
		v.Add("amount", "cannot be negative")
	}
	if r.BuyerName == "" {
		v.Add("buyerName", "is required")
	}

	if r.Kind == KindCredit {
		if !IsValidNIN(r.NIN) {
			v.Add("nin", "must be 14 alphanumeric characters")
		}
		if r.Location == "" {
			v.Add("location", "is required")
		}
		if !IsValidContact(r.Contact) {
			v.Add("contact", "must be a valid Ugandan phone number")
		}
		if r.DueDate == "" {
			v.Add("dueDate", "is required")
		}
		if r.DispatchDate == "" {
			v.Add("dispatchDate", "is required")
		}
	}

	if v.HasErrors() {
		return v
	}
	return nil
}
