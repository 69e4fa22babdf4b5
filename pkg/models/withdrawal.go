package models

import "time"

// WithdrawalMethod is the mobile wallet a withdrawal is paid to.
type WithdrawalMethod string

const (
	MethodBKash  WithdrawalMethod = "bKash"
	MethodNagad  WithdrawalMethod = "Nagad"
	MethodRocket WithdrawalMethod = "Rocket"
)

// ValidWithdrawalMethods lists accepted methods in display order.
var ValidWithdrawalMethods = []WithdrawalMethod{MethodBKash, MethodNagad, MethodRocket}

// IsValid reports whether m is one of the accepted methods.
func (m WithdrawalMethod) IsValid() bool {
	for _, v := range ValidWithdrawalMethods {
		if m == v {
			return true
		}
	}
	return false
}

// WithdrawalStatus is the processing state of a withdrawal. Transitions are
// owned by an external admin process.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// Withdrawal is a cash-out request. UserAds and UserReferrals are snapshots
// taken when the request was accepted.
type Withdrawal struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	UserName      string           `json:"userName"`
	Amount        float64          `json:"amount"`
	AccountNumber string           `json:"accountNumber"`
	Method        WithdrawalMethod `json:"method"`
	Status        WithdrawalStatus `json:"status"`
	UserAds       int              `json:"userAds"`
	UserReferrals int              `json:"userReferrals"`
	AdminNotes    string           `json:"adminNotes"`
	ProcessedAt   *time.Time       `json:"processedAt"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// CreateWithdrawalRequest is the body of the withdrawal endpoint.
type CreateWithdrawalRequest struct {
	UserID        string           `json:"userId" validate:"required"`
	UserName      string           `json:"userName"`
	Amount        float64          `json:"amount" validate:"required"`
	AccountNumber string           `json:"accountNumber" validate:"required"`
	Method        WithdrawalMethod `json:"method" validate:"required"`
}

// WithdrawalResult is returned after a withdrawal has been accepted.
type WithdrawalResult struct {
	Withdrawal *Withdrawal `json:"withdrawal"`
	NewBalance float64     `json:"newBalance"`
}
