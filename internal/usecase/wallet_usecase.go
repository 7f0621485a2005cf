package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"

	"communityhub/internal/domain/entity"
	"communityhub/internal/domain/repository"
	"communityhub/internal/infrastructure/ratelimit"
	"communityhub/internal/metrics"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
	"communityhub/pkg/utils"
)

const (
	referralCodeLength = 10
	recentTransactions = 10
)

var referralEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

type WalletUseCase struct {
	walletRepo   repository.WalletRepository
	referralRepo repository.ReferralRepository
	rateLimiter  RateLimiter
	metrics      *metrics.Metrics
	baseURL      string
	currency     string
}

func NewWalletUseCase(
	walletRepo repository.WalletRepository,
	referralRepo repository.ReferralRepository,
	rateLimiter RateLimiter,
	m *metrics.Metrics,
	referralBaseURL string,
	currency string,
) *WalletUseCase {
	if rateLimiter == nil {
		rateLimiter = ratelimit.NewRateLimiter(nil)
	}
	return &WalletUseCase{
		walletRepo:   walletRepo,
		referralRepo: referralRepo,
		rateLimiter:  rateLimiter,
		metrics:      m,
		baseURL:      strings.TrimRight(referralBaseURL, "/"),
		currency:     currency,
	}
}

type TransactionPage struct {
	Transactions []*entity.Transaction `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
}

// WithdrawalResult reports the outcome in Message, ready to show to the user.
type WithdrawalResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// GetUserWallet returns nil without an error when the user has no wallet yet.
func (uc *WalletUseCase) GetUserWallet(ctx context.Context, userID string) (*entity.Wallet, error) {
	if userID == "" {
		return nil, errors.Validation("userId is required")
	}

	wallet, err := uc.walletRepo.GetWallet(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("GetUserWallet Error: user=%s: %v", userID, err)
		uc.metrics.BackendError("ledger")
		return nil, err
	}

	recent, _, err := uc.walletRepo.ListTransactions(ctx, userID, entity.TransactionFilter{}, recentTransactions, 0)
	if err != nil {
		logger.Error("GetUserWallet Error: recent transactions for %s: %v", userID, err)
		uc.metrics.BackendError("ledger")
		return nil, err
	}
	wallet.Transactions = recent

	return wallet, nil
}

func (uc *WalletUseCase) GetUserTransactions(ctx context.Context, userID string, page, pageSize int, filter entity.TransactionFilter) (*TransactionPage, error) {
	if userID == "" {
		return nil, errors.Validation("userId is required")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, errors.Validation("type must be one of: deposit withdrawal payment refund referral")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errors.Validation("status must be one of: pending completed failed")
	}
	if filter.From > 0 && filter.To > 0 && filter.From > filter.To {
		return nil, errors.Validation("from must not be after to")
	}

	p := utils.NewPagination(page, pageSize)
	transactions, total, err := uc.walletRepo.ListTransactions(ctx, userID, filter, p.PageSize, p.Offset)
	if err != nil {
		logger.Error("GetUserTransactions Error: user=%s: %v", userID, err)
		uc.metrics.BackendError("ledger")
		return nil, err
	}

	return &TransactionPage{
		Transactions: transactions,
		Total:        total,
		Page:         p.Page,
		PageSize:     p.PageSize,
	}, nil
}

// InitiateWithdrawal requests a payout of amount, rounded to cents. The
// available balance is checked here and again under the ledger's row lock.
func (uc *WalletUseCase) InitiateWithdrawal(ctx context.Context, userID string, amount float64) WithdrawalResult {
	amount = utils.RoundAmount(amount)
	result := uc.initiateWithdrawal(ctx, userID, amount)

	outcome := "ok"
	if !result.Success {
		outcome = "rejected"
	}
	uc.metrics.Withdrawal(outcome)
	return result
}

func (uc *WalletUseCase) initiateWithdrawal(ctx context.Context, userID string, amount float64) WithdrawalResult {
	if userID == "" {
		return WithdrawalResult{Message: "userId is required"}
	}
	if amount <= 0 {
		return WithdrawalResult{Message: "Withdrawal amount must be greater than 0.00"}
	}
	if amount > utils.MaxAmount {
		return WithdrawalResult{Message: "Withdrawal amount must not exceed " + utils.FormatAmount(utils.MaxAmount, "")}
	}

	if allowed, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionWithdraw); !allowed {
		return WithdrawalResult{Message: fmt.Sprintf("Too many withdrawal requests, try again in %d seconds", int(wait.Seconds()+0.5))}
	}

	wallet, err := uc.walletRepo.GetWallet(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return WithdrawalResult{Message: "No wallet found for this user"}
		}
		logger.Error("InitiateWithdrawal Error: user=%s: %v", userID, err)
		uc.metrics.BackendError("ledger")
		return WithdrawalResult{Message: "Failed to initiate withdrawal"}
	}

	currency := wallet.Currency
	if currency == "" {
		currency = uc.currency
	}
	if utils.ToCents(amount) > utils.ToCents(wallet.AvailableBalance) {
		return WithdrawalResult{Message: insufficientMessage(amount, wallet.AvailableBalance, currency)}
	}

	description := "Withdrawal of " + utils.FormatAmount(amount, currency)
	txn, err := uc.walletRepo.CreateWithdrawal(ctx, userID, amount, description)
	if err != nil {
		if stderrors.Is(err, repository.ErrInsufficientBalance) {
			return WithdrawalResult{Message: insufficientMessage(amount, wallet.AvailableBalance, currency)}
		}
		logger.Error("InitiateWithdrawal Error: user=%s amount=%s: %v", userID, utils.FormatAmount(amount, currency), err)
		uc.metrics.BackendError("ledger")
		return WithdrawalResult{Message: "Failed to initiate withdrawal"}
	}

	logger.Info("Withdrawal %s of %s requested by %s", txn.ID, utils.FormatAmount(amount, currency), userID)
	return WithdrawalResult{
		Success:       true,
		Message:       description + " requested",
		TransactionID: txn.ID,
	}
}

func insufficientMessage(requested, available float64, currency string) string {
	return fmt.Sprintf("Insufficient balance: requested %s, available %s",
		utils.FormatAmount(requested, currency), utils.FormatAmount(available, currency))
}

// ReferralCode derives the code for a (user, event) pair.
func ReferralCode(userID, eventID string) string {
	sum := sha256.Sum256([]byte(userID + ":" + eventID))
	return referralEncoding.EncodeToString(sum[:])[:referralCodeLength]
}

// CreateReferralLink returns the referral code of userID for eventID,
// creating the referral on first call. Repeated calls return the same code.
func (uc *WalletUseCase) CreateReferralLink(ctx context.Context, userID, eventID string) (string, error) {
	if userID == "" || eventID == "" {
		return "", errors.Validation("userId and eventId are required")
	}

	existing, err := uc.referralRepo.GetByUserAndEvent(ctx, userID, eventID)
	if err == nil {
		return existing.Code, nil
	}
	if !errors.IsNotFound(err) {
		logger.Error("CreateReferralLink Error: user=%s event=%s: %v", userID, eventID, err)
		return "", err
	}

	referral, err := uc.referralRepo.CreateIfAbsent(ctx, &entity.Referral{
		UserID:  userID,
		EventID: eventID,
		Code:    ReferralCode(userID, eventID),
	})
	if err != nil {
		if errors.IsNotFound(err) {
			// The insert lost to a different pair holding the same code.
			return "", errors.Conflict("referral code already in use")
		}
		logger.Error("CreateReferralLink Error: user=%s event=%s: %v", userID, eventID, err)
		return "", err
	}

	return referral.Code, nil
}

func (uc *WalletUseCase) GetUserReferrals(ctx context.Context, userID string) ([]*entity.Referral, error) {
	if userID == "" {
		return nil, errors.Validation("userId is required")
	}

	referrals, err := uc.referralRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.Error("GetUserReferrals Error: user=%s: %v", userID, err)
		return nil, err
	}
	if referrals == nil {
		referrals = []*entity.Referral{}
	}
	return referrals, nil
}

// GetReferralByCode returns nil without an error for unknown codes.
func (uc *WalletUseCase) GetReferralByCode(ctx context.Context, code string) (*entity.Referral, error) {
	if code == "" {
		return nil, errors.Validation("code is required")
	}

	referral, err := uc.referralRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return referral, nil
}

// BuildReferralURL is the shareable event link carrying code.
func (uc *WalletUseCase) BuildReferralURL(code, eventID string) string {
	return fmt.Sprintf("%s/events/%s?ref=%s", uc.baseURL, url.PathEscape(eventID), url.QueryEscape(code))
}
