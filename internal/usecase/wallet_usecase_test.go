package usecase

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityhub/internal/domain/entity"
	"communityhub/pkg/errors"
	"communityhub/pkg/logger"
)

func newWalletFixture() (*WalletUseCase, *memWalletRepo, *memReferralRepo) {
	wallets := newMemWalletRepo()
	referrals := &memReferralRepo{}
	uc := NewWalletUseCase(wallets, referrals, allowAll{}, nil, "https://community.example/", "USD")
	return uc, wallets, referrals
}

func TestGetUserWalletMissingIsNil(t *testing.T) {
	uc, _, _ := newWalletFixture()

	wallet, err := uc.GetUserWallet(context.Background(), "newUser")
	assert.NoError(t, err)
	assert.Nil(t, wallet)
}

func TestGetUserWalletIncludesRecentTransactions(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	wallets.wallets["u1"] = &entity.Wallet{UserID: "u1", AvailableBalance: 50, Currency: "USD"}
	for i := 0; i < 12; i++ {
		wallets.transactions = append(wallets.transactions, &entity.Transaction{ID: "t", UserID: "u1", Type: entity.TransactionPayment, Status: entity.StatusCompleted})
	}

	wallet, err := uc.GetUserWallet(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.Equal(t, 50.0, wallet.AvailableBalance)
	assert.Len(t, wallet.Transactions, 10)
}

func TestGetUserWalletBackendError(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	wallets.err = errors.Internal("db down", nil)

	wallet, err := uc.GetUserWallet(context.Background(), "u1")
	assert.Error(t, err)
	assert.Nil(t, wallet)
}

func TestGetUserTransactionsFiltersAndPaginates(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	for i := 1; i <= 7; i++ {
		status := entity.StatusCompleted
		if i%2 == 0 {
			status = entity.StatusPending
		}
		wallets.transactions = append(wallets.transactions, &entity.Transaction{
			ID: "t", UserID: "u1", Type: entity.TransactionReferral, Status: status, CreatedAt: int64(i * 1000),
		})
	}
	wallets.transactions = append(wallets.transactions, &entity.Transaction{ID: "other", UserID: "u2", Type: entity.TransactionReferral, Status: entity.StatusCompleted})

	page, err := uc.GetUserTransactions(context.Background(), "u1", 2, 2, entity.TransactionFilter{Status: entity.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total, "total counts the filtered set")
	assert.Len(t, page.Transactions, 2)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, wallets.lastOffset)

	page, err = uc.GetUserTransactions(context.Background(), "u1", 1, 20, entity.TransactionFilter{From: 2000, To: 4000})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	page, err = uc.GetUserTransactions(context.Background(), "u1", 0, 0, entity.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
}

func TestGetUserTransactionsValidation(t *testing.T) {
	uc, _, _ := newWalletFixture()
	ctx := context.Background()

	_, err := uc.GetUserTransactions(ctx, "u1", 1, 20, entity.TransactionFilter{Type: "bonus"})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.GetUserTransactions(ctx, "u1", 1, 20, entity.TransactionFilter{Status: "reversed"})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.GetUserTransactions(ctx, "u1", 1, 20, entity.TransactionFilter{From: 10, To: 5})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.GetUserTransactions(ctx, "", 1, 20, entity.TransactionFilter{})
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestInitiateWithdrawalOverBalanceNeverDebits(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	wallets.wallets["u1"] = &entity.Wallet{UserID: "u1", AvailableBalance: 25, Currency: "USD"}

	res := uc.InitiateWithdrawal(context.Background(), "u1", 25.01)
	assert.False(t, res.Success)
	assert.Equal(t, "Insufficient balance: requested 25.01 USD, available 25.00 USD", res.Message)
	assert.Empty(t, wallets.transactions)
	assert.Equal(t, 25.0, wallets.wallets["u1"].AvailableBalance)
}

func TestInitiateWithdrawalSuccess(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	wallets.wallets["u1"] = &entity.Wallet{UserID: "u1", AvailableBalance: 25, Currency: "USD"}

	res := uc.InitiateWithdrawal(context.Background(), "u1", 10.004)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Withdrawal of 10.00 USD requested", res.Message)
	assert.NotEmpty(t, res.TransactionID)

	require.Len(t, wallets.transactions, 1)
	txn := wallets.transactions[0]
	assert.Equal(t, entity.TransactionWithdrawal, txn.Type)
	assert.Equal(t, entity.StatusPending, txn.Status)
	assert.Equal(t, 10.0, txn.Amount)

	// Exactly the remaining balance is allowed.
	res = uc.InitiateWithdrawal(context.Background(), "u1", 15)
	assert.True(t, res.Success, res.Message)
}

func TestInitiateWithdrawalRejections(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	ctx := context.Background()

	res := uc.InitiateWithdrawal(ctx, "u1", 0.004)
	assert.False(t, res.Success)
	assert.Equal(t, "Withdrawal amount must be greater than 0.00", res.Message)

	res = uc.InitiateWithdrawal(ctx, "u1", -5)
	assert.False(t, res.Success)

	res = uc.InitiateWithdrawal(ctx, "nobody", 5)
	assert.False(t, res.Success)
	assert.Equal(t, "No wallet found for this user", res.Message)

	wallets.wallets["u1"] = &entity.Wallet{UserID: "u1", AvailableBalance: 100}
	uc.rateLimiter = denyAll{}
	res = uc.InitiateWithdrawal(ctx, "u1", 5)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "30 seconds")
	assert.Empty(t, wallets.transactions)
}

func TestInitiateWithdrawalAboveLedgerMaximum(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	wallets.wallets["u1"] = &entity.Wallet{UserID: "u1", AvailableBalance: 100}

	res := uc.InitiateWithdrawal(context.Background(), "u1", 1e17)
	assert.False(t, res.Success)
	assert.Equal(t, "Withdrawal amount must not exceed 999999999999.99", res.Message)
	assert.Empty(t, wallets.transactions)
}

func TestInitiateWithdrawalLedgerFailureLogsUserAndAmount(t *testing.T) {
	uc, wallets, _ := newWalletFixture()
	wallets.wallets["u1"] = &entity.Wallet{UserID: "u1", AvailableBalance: 100, Currency: "USD"}
	wallets.createErr = stderrors.New("connection reset")

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	res := uc.InitiateWithdrawal(context.Background(), "u1", 12.5)
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to initiate withdrawal", res.Message)
	assert.Contains(t, buf.String(), "user=u1")
	assert.Contains(t, buf.String(), "amount=12.50 USD")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestReferralCodeIsDeterministic(t *testing.T) {
	a := ReferralCode("u1", "e1")
	assert.Len(t, a, 10)
	assert.Equal(t, a, ReferralCode("u1", "e1"))
	assert.NotEqual(t, a, ReferralCode("u1", "e2"))
	assert.NotEqual(t, a, ReferralCode("u2", "e1"))
}

func TestCreateReferralLinkOncePerPair(t *testing.T) {
	uc, _, referrals := newWalletFixture()
	ctx := context.Background()

	first, err := uc.CreateReferralLink(ctx, "u1", "e1")
	require.NoError(t, err)
	second, err := uc.CreateReferralLink(ctx, "u1", "e1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, ReferralCode("u1", "e1"), first)
	assert.Equal(t, 1, referrals.inserts)

	other, err := uc.CreateReferralLink(ctx, "u1", "e2")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	list, err := uc.GetUserReferrals(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = uc.CreateReferralLink(ctx, "u1", "")
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestGetReferralByCode(t *testing.T) {
	uc, _, _ := newWalletFixture()
	ctx := context.Background()
	code, err := uc.CreateReferralLink(ctx, "u1", "e1")
	require.NoError(t, err)

	ref, err := uc.GetReferralByCode(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "e1", ref.EventID)

	ref, err = uc.GetReferralByCode(ctx, "UNKNOWN")
	assert.NoError(t, err)
	assert.Nil(t, ref)
}

func TestBuildReferralURL(t *testing.T) {
	uc, _, _ := newWalletFixture()
	assert.Equal(t, "https://community.example/events/summer%20fest?ref=ABC", uc.BuildReferralURL("ABC", "summer fest"))
}
