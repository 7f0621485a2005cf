package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"communityhub/internal/adapter/api/middleware"
	"communityhub/internal/domain/entity"
	"communityhub/pkg/errors"
	"communityhub/pkg/response"
	"communityhub/pkg/utils"
)

type WalletHandler struct {
	walletUseCase WalletService
}

func NewWalletHandler(walletUseCase WalletService) *WalletHandler {
	return &WalletHandler{
		walletUseCase: walletUseCase,
	}
}

// Amount is a pointer so zero reaches the usecase and gets its message.
type withdrawRequest struct {
	Amount *float64 `json:"amount" validate:"required"`
}

type createReferralRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

type referralResponse struct {
	*entity.Referral
	URL string `json:"url"`
}

type referralLinkResponse struct {
	Code    string `json:"code"`
	EventID string `json:"event_id"`
	URL     string `json:"url"`
}

// GetUserWallet responds with null data when the user has no wallet yet.
func (h *WalletHandler) GetUserWallet(c echo.Context) error {
	wallet, err := h.walletUseCase.GetUserWallet(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, wallet)
}

func (h *WalletHandler) GetUserTransactions(c echo.Context) error {
	page := utils.GetPaginationParams(c)

	filter := entity.TransactionFilter{
		Type:   entity.TransactionType(c.QueryParam("type")),
		Status: entity.TransactionStatus(c.QueryParam("status")),
	}

	var err error
	if filter.From, err = millisParam(c, "from"); err != nil {
		return response.Error(c, err)
	}
	if filter.To, err = millisParam(c, "to"); err != nil {
		return response.Error(c, err)
	}

	result, err := h.walletUseCase.GetUserTransactions(c.Request().Context(), middleware.UserID(c), page.Page, page.PageSize, filter)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, result.Transactions, result.Total, result.Page, result.PageSize)
}

func millisParam(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms < 0 {
		return 0, errors.Validation(name + " must be epoch milliseconds")
	}
	return ms, nil
}

func (h *WalletHandler) InitiateWithdrawal(c echo.Context) error {
	var req withdrawRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result := h.walletUseCase.InitiateWithdrawal(c.Request().Context(), middleware.UserID(c), *req.Amount)
	if !result.Success {
		return response.SoftError(c, errors.CodeWithdrawal, result.Message, result)
	}

	return response.Created(c, result)
}

func (h *WalletHandler) CreateReferralLink(c echo.Context) error {
	var req createReferralRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	code, err := h.walletUseCase.CreateReferralLink(c.Request().Context(), middleware.UserID(c), req.EventID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, referralLinkResponse{
		Code:    code,
		EventID: req.EventID,
		URL:     h.walletUseCase.BuildReferralURL(code, req.EventID),
	})
}

func (h *WalletHandler) GetUserReferrals(c echo.Context) error {
	referrals, err := h.walletUseCase.GetUserReferrals(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}

	items := make([]referralResponse, 0, len(referrals))
	for _, r := range referrals {
		items = append(items, referralResponse{
			Referral: r,
			URL:      h.walletUseCase.BuildReferralURL(r.Code, r.EventID),
		})
	}

	return response.Success(c, items)
}

// GetReferralByCode resolves a shared code to its event link.
func (h *WalletHandler) GetReferralByCode(c echo.Context) error {
	referral, err := h.walletUseCase.GetReferralByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return response.Error(c, err)
	}
	if referral == nil {
		return response.Error(c, errors.NotFound("Referral", nil))
	}

	return response.Success(c, referralLinkResponse{
		Code:    referral.Code,
		EventID: referral.EventID,
		URL:     h.walletUseCase.BuildReferralURL(referral.Code, referral.EventID),
	})
}
