package entity

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionPayment    TransactionType = "payment"
	TransactionRefund     TransactionType = "refund"
	TransactionReferral   TransactionType = "referral"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionPayment, TransactionRefund, TransactionReferral:
		return true
	}
	return false
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Wallet is the balance summary derived from the user's ledger entries.
type Wallet struct {
	UserID           string         `json:"user_id"`
	TotalEarnings    float64        `json:"total_earnings"`
	AvailableBalance float64        `json:"available_balance"`
	PendingBalance   float64        `json:"pending_balance"`
	PlatformCredits  float64        `json:"platform_credits"`
	HasPayoutMethod  bool           `json:"has_payout_method"`
	Currency         string         `json:"currency"`
	Transactions     []*Transaction `json:"transactions,omitempty"`
	CreatedAt        int64          `json:"created_at"`
	UpdatedAt        int64          `json:"updated_at"`
}

type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Type        TransactionType   `json:"type"`
	Amount      float64           `json:"amount"`
	Status      TransactionStatus `json:"status"`
	Reference   string            `json:"reference,omitempty"`
	Description string            `json:"description,omitempty"`
	CreatedAt   int64             `json:"created_at"`
	UpdatedAt   int64             `json:"updated_at"`
}

// TransactionFilter narrows a ledger listing. Zero values mean "any";
// From and To are inclusive epoch milliseconds.
type TransactionFilter struct {
	Type   TransactionType
	Status TransactionStatus
	From   int64
	To     int64
}
