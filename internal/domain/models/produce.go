package models

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Branch identifies a physical trading location.
type Branch string

const (
	BranchMaganjo    Branch = "MAGANJO"
	BranchMatugga    Branch = "MATUGGA"
	BranchHeadOffice Branch = "Head Office" // administrative only, holds no stock
)

// TradingBranches lists the branches that hold stock and record sales.
var TradingBranches = []Branch{BranchMaganjo, BranchMatugga}

// IsTradingBranch reports whether b is a branch that can hold produce lots.
func IsTradingBranch(b Branch) bool {
	return b == BranchMaganjo || b == BranchMatugga
}

// ProduceKind enumerates the produce the business trades in.
type ProduceKind string

const (
	ProduceBeans      ProduceKind = "Beans"
	ProduceMaize      ProduceKind = "Maize"
	ProduceCowPeas    ProduceKind = "Cow Peas"
	ProduceGroundnuts ProduceKind = "Groundnuts"
	ProduceSoybeans   ProduceKind = "Soybeans"
)

// IsValidProduceKind reports whether k is one of the traded produce kinds.
func IsValidProduceKind(k ProduceKind) bool {
	switch k {
	case ProduceBeans, ProduceMaize, ProduceCowPeas, ProduceGroundnuts, ProduceSoybeans:
		return true
	}
	return false
}

// MinProcurementKg is the smallest batch the business procures.
const MinProcurementKg = 1000

// LowStockThresholdKg marks lots that should trigger restocking.
const LowStockThresholdKg = 1000

// ugandanPhone matches local (0...) and international (+256...) numbers.
var ugandanPhone = regexp.MustCompile(`^(?:\+256|0)[0-9]{9}$`)

// IsValidContact reports whether s is a valid Ugandan phone number.
func IsValidContact(s string) bool {
	return ugandanPhone.MatchString(s)
}

// ProduceLot is one procurement batch held at a branch. Tonnage is the
// remaining quantity in kilograms and is only ever mutated through the
// store's atomic reserve operation, so it can never go negative.
type ProduceLot struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          ProduceKind        `bson:"name" json:"name"`
	Type          string             `bson:"type" json:"type"`
	Tonnage       int64              `bson:"tonnage" json:"tonnage"`
	Cost          float64            `bson:"cost" json:"cost"`
	DealerName    string             `bson:"dealerName" json:"dealerName"`
	DealerContact string             `bson:"dealerContact" json:"dealerContact"`
	SellingPrice  float64            `bson:"sellingPrice" json:"sellingPrice"`
	Branch        Branch             `bson:"branch" json:"branch"`
	Date          string             `bson:"date" json:"date"`
	Time          string             `bson:"time" json:"time"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProcurementRequest is the payload for recording a new lot.
type ProcurementRequest struct {
	Name          ProduceKind `json:"name"`
	Type          string      `json:"type"`
	Tonnage       int64       `json:"tonnage"`
	Cost          float64     `json:"cost"`
	DealerName    string      `json:"dealerName"`
	DealerContact string      `json:"dealerContact"`
	SellingPrice  float64     `json:"sellingPrice"`
	Branch        Branch      `json:"branch"`
	Date          string      `json:"date"`
	Time          string      `json:"time"`
}

// Validate checks procurement fields and returns a ValidationError listing
// every problem found, or nil when the payload is acceptable.
func (r ProcurementRequest) Validate() error {
	v := &ValidationError{}

	if !IsValidProduceKind(r.Name) {
		v.Add("name", "must be one of Beans, Maize, Cow Peas, Groundnuts, Soybeans")
	}
	if r.Type == "" {
		v.Add("type", "is required")
	}
	if r.Tonnage < MinProcurementKg {
		v.Add("tonnage", "must be at least 1000kg for procurement")
	}
	if r.Cost < 0 {
		v.Add("cost", "cannot be negative")
	}
	if r.DealerName == "" {
		v.Add("dealerName", "is required")
	}
	if !IsValidContact(r.DealerContact) {
		v.Add("dealerContact", "must be a valid Ugandan phone number")
	}
	if r.SellingPrice < 0 {
		v.Add("sellingPrice", "cannot be negative")
	}
	if !IsTradingBranch(r.Branch) {
		v.Add("branch", "must be MAGANJO or MATUGGA")
	}
	if r.Date == "" {
		v.Add("date", "is required")
	}
	if r.Time == "" {
		v.Add("time", "is required")
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

// Lot constructs a ProduceLot from a validated request.
func (r ProcurementRequest) Lot(now time.Time) ProduceLot {
	return ProduceLot{
		Name:          r.Name,
		Type:          r.Type,
		Tonnage:       r.Tonnage,
		Cost:          r.Cost,
		DealerName:    r.DealerName,
		DealerContact: r.DealerContact,
		SellingPrice:  r.SellingPrice,
		Branch:        r.Branch,
		Date:          r.Date,
		Time:          r.Time,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
