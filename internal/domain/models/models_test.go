package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCashRequest() TransactionRequest {
	return TransactionRequest{
		Kind:        KindCash,
		ProduceName: ProduceMaize,
		Quantity:    300,
		Amount:      450000,
		BuyerName:   "Okello James",
	}
}

func validCreditRequest() TransactionRequest {
	req := validCashRequest()
	req.Kind = KindCredit
	req.NIN = "CM90012345ABCD"
	req.Location = "Kawempe"
	req.Contact = "+256772123456"
	req.DueDate = "2026-09-30"
	req.DispatchDate = "2026-08-30"
	return req
}

func TestTransactionRequestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*TransactionRequest)
		badField string
	}{
		{"valid cash", func(r *TransactionRequest) {}, ""},
		{"valid credit", func(r *TransactionRequest) { *r = validCreditRequest() }, ""},
		{"unknown kind", func(r *TransactionRequest) { r.Kind = "Barter" }, "kind"},
		{"unknown produce", func(r *TransactionRequest) { r.ProduceName = "Coffee" }, "produceName"},
		{"zero quantity", func(r *TransactionRequest) { r.Quantity = 0 }, "quantity"},
		{"negative amount", func(r *TransactionRequest) { r.Amount = -5 }, "amount"},
		{"missing buyer", func(r *TransactionRequest) { r.BuyerName = "" }, "buyerName"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCashRequest()
			tc.mutate(&req)

			err := req.Validate()
			if tc.badField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tc.badField)
		})
	}
}

func TestTransactionRequestValidateCreditFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*TransactionRequest)
		badField string
	}{
		{"short nin", func(r *TransactionRequest) { r.NIN = "CM123" }, "nin"},
		{"lowercase nin", func(r *TransactionRequest) { r.NIN = "cm90012345abcd" }, "nin"},
		{"missing location", func(r *TransactionRequest) { r.Location = "" }, "location"},
		{"bad contact", func(r *TransactionRequest) { r.Contact = "12345" }, "contact"},
		{"missing due date", func(r *TransactionRequest) { r.DueDate = "" }, "dueDate"},
		{"missing dispatch date", func(r *TransactionRequest) { r.DispatchDate = "" }, "dispatchDate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreditRequest()
			tc.mutate(&req)

			var vErr *ValidationError
			require.ErrorAs(t, req.Validate(), &vErr)
			assert.Contains(t, vErr.Fields, tc.badField)
		})
	}
}

func TestTransactionRequestCashIgnoresCreditFields(t *testing.T) {
	req := validCashRequest()
	// Empty credit fields must not fail a cash sale.
	assert.NoError(t, req.Validate())
}

func validProcurement() ProcurementRequest {
	return ProcurementRequest{
		Name:          ProduceBeans,
		Type:          "Yellow",
		Tonnage:       2000,
		Cost:          3200000,
		DealerName:    "Nsubuga Traders",
		DealerContact: "0701234567",
		SellingPrice:  2100,
		Branch:        BranchMaganjo,
		Date:          "2026-08-29",
		Time:          "10:30",
	}
}

func TestProcurementRequestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*ProcurementRequest)
		badField string
	}{
		{"valid", func(r *ProcurementRequest) {}, ""},
		{"below minimum tonnage", func(r *ProcurementRequest) { r.Tonnage = 999 }, "tonnage"},
		{"unknown produce", func(r *ProcurementRequest) { r.Name = "Cassava" }, "name"},
		{"head office branch", func(r *ProcurementRequest) { r.Branch = BranchHeadOffice }, "branch"},
		{"bad dealer contact", func(r *ProcurementRequest) { r.DealerContact = "+1555123" }, "dealerContact"},
		{"negative cost", func(r *ProcurementRequest) { r.Cost = -1 }, "cost"},
		{"missing type", func(r *ProcurementRequest) { r.Type = "" }, "type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validProcurement()
			tc.mutate(&req)

			err := req.Validate()
			if tc.badField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tc.badField)
		})
	}
}

func TestUserRequestValidate(t *testing.T) {
	valid := UserRequest{
		Name:     "Namatovu Ruth",
		Email:    "ruth@kgl.co.ug",
		Password: "secret99",
		Role:     RoleManager,
		Branch:   BranchMatugga,
		Contact:  "+256700111222",
	}

	assert.NoError(t, valid.Validate(true))

	noPassword := valid
	noPassword.Password = ""
	assert.Error(t, noPassword.Validate(true), "password required on creation")
	assert.NoError(t, noPassword.Validate(false), "password optional on update")

	shortPassword := valid
	shortPassword.Password = "abc"
	assert.Error(t, shortPassword.Validate(false), "short password rejected even on update")

	badEmail := valid
	badEmail.Email = "not-an-email"
	var vErr *ValidationError
	require.ErrorAs(t, badEmail.Validate(true), &vErr)
	assert.Contains(t, vErr.Fields, "email")

	headOffice := valid
	headOffice.Role = RoleDirector
	headOffice.Branch = BranchHeadOffice
	assert.NoError(t, headOffice.Validate(true))
}

func TestIsValidContact(t *testing.T) {
	assert.True(t, IsValidContact("+256772123456"))
	assert.True(t, IsValidContact("0772123456"))
	assert.False(t, IsValidContact("+254772123456"))
	assert.False(t, IsValidContact("077212345"))
	assert.False(t, IsValidContact(""))
}

func TestPermissionTable(t *testing.T) {
	// Managers run their branch.
	assert.True(t, Allowed(RoleManager, OpProcureStock))
	assert.True(t, Allowed(RoleManager, OpMarkCreditPaid))
	assert.True(t, Allowed(RoleManager, OpRecordSale))

	// Sales agents sell and view, nothing else.
	assert.True(t, Allowed(RoleSales, OpRecordSale))
	assert.True(t, Allowed(RoleSales, OpViewStock))
	assert.False(t, Allowed(RoleSales, OpProcureStock))
	assert.False(t, Allowed(RoleSales, OpMarkCreditPaid))
	assert.False(t, Allowed(RoleSales, OpViewCreditReport))

	// Directors administer and read unscoped, but hold no branch to sell from.
	assert.True(t, Allowed(RoleDirector, OpManageUsers))
	assert.True(t, Allowed(RoleDirector, OpViewSalesReport))
	assert.False(t, Allowed(RoleDirector, OpRecordSale))
	assert.False(t, Allowed(RoleDirector, OpProcureStock))

	// Nobody else manages users.
	assert.False(t, Allowed(RoleManager, OpManageUsers))
	assert.False(t, Allowed(RoleSales, OpManageUsers))

	// Unknown roles get nothing.
	assert.False(t, Allowed(Role("Intern"), OpViewStock))
}

func TestActorBranchScoped(t *testing.T) {
	assert.True(t, Actor{Role: RoleManager, Branch: BranchMaganjo}.BranchScoped())
	assert.True(t, Actor{Role: RoleSales, Branch: BranchMatugga}.BranchScoped())
	assert.False(t, Actor{Role: RoleDirector, Branch: BranchHeadOffice}.BranchScoped())
}

func TestCreditStatus(t *testing.T) {
	assert.True(t, IsValidCreditStatus(CreditPending))
	assert.True(t, IsValidCreditStatus(CreditPaid))
	assert.False(t, IsValidCreditStatus("Cancelled"))
}
