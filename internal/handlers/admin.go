package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/utils"
)

// GetGroupSummaries handles GET /api/admin/callcard/summaries
// @Summary List card headers of a user group
// @Tags Admin
// @Produce json
// @Param userGroupId query string true "User group id"
// @Param page query int false "Page, from 1"
// @Param pageSize query int false "Page size, at most 100"
// @Success 200 {array} callcard.CardSummary
// @Success 204 "No cards"
// @Header 200 {integer} X-Total-Count "Matching cards"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /admin/callcard/summaries [get]
func (h *CallCardHandler) GetGroupSummaries(c *fiber.Ctx) error {
	p, err := parsePaging(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "admin.validation.input")
	}
	summaries, total, err := h.Cards.Summaries(c.UserContext(), callcard.SummaryQuery{
		UserGroupID: c.Query("userGroupId"),
		Paging:      p,
	})
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "admin.summaries")
	}
	setPageHeaders(c, p, total)
	if len(summaries) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusOK).JSON(summaries)
}

// GetTransactions handles GET /api/admin/callcard/transactions
// @Summary List audited card changes
// @Description Filter by card, user or transaction type, optionally within a date range. Newest first.
// @Tags Admin
// @Produce json
// @Param cardId query string false "Card id"
// @Param userId query string false "User id"
// @Param type query string false "Transaction type"
// @Param from query string false "Start date"
// @Param to query string false "End date"
// @Param page query int false "Page, from 1"
// @Param pageSize query int false "Page size, at most 100"
// @Success 200 {array} callcard.CardTransaction
// @Header 200 {integer} X-Total-Count "Matching transactions"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /admin/callcard/transactions [get]
func (h *CallCardHandler) GetTransactions(c *fiber.Ctx) error {
	q := callcard.TransactionQuery{
		TransactionFilter: callcard.TransactionFilter{
			CardID: c.Query("cardId"),
			UserID: c.Query("userId"),
			Type:   callcard.TransactionType(c.Query("type")),
		},
	}
	var err error
	if q.Paging, err = parsePaging(c); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "admin.validation.input")
	}
	if q.From, err = parseTime(c, "from"); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "admin.validation.input")
	}
	if q.To, err = parseTime(c, "to"); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "admin.validation.input")
	}

	txs, total, err := h.Cards.Transactions(c.UserContext(), q)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "admin.transactions")
	}
	setPageHeaders(c, q.Paging, total)
	return c.Status(fiber.StatusOK).JSON(txs)
}
