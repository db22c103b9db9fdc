// callcard.go
//
// Visit card storage and reconciliation service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of callcard.
// callcard is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// callcard is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with callcard.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/metrics"
	"github.com/localnerve/callcard/internal/types"
	"github.com/localnerve/callcard/internal/utils"
)

// CallCardHandler handles visit card routes. Metrics may be nil.
type CallCardHandler struct {
	Cards   *callcard.Service
	Metrics *metrics.Metrics
}

// simplifiedBody accepts refUserIds as a single object or a list.
type simplifiedBody struct {
	ID          string                                     `json:"callCardId"`
	DateCreated *time.Time                                 `json:"dateCreated"`
	DateUpdated *time.Time                                 `json:"dateUpdated"`
	End         *time.Time                                 `json:"endDate"`
	RefUsers    types.FlexList[callcard.SimplifiedRefUser] `json:"refUserIds"`
	Submitted   bool                                       `json:"submitted"`
}

func (h *CallCardHandler) observe(shape string, start time.Time, err error) {
	if h.Metrics != nil {
		h.Metrics.ObserveSync(shape, time.Since(start).Seconds(), err)
	}
}

// GetCard handles GET /api/callcard/card
// @Summary Get the current visit card
// @Description Assemble the caller's current card from its template, stored entries, summaries and orders
// @Tags CallCard
// @Produce json
// @Param groupId query string false "User group id"
// @Param gameTypeId query int false "Game type id"
// @Param cardId query string false "Card id"
// @Param templateId query string false "Template id"
// @Success 200 {object} callcard.CardView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/card [get]
func (h *CallCardHandler) GetCard(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	scope, err := scopeOf(c, user)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}

	view, err := h.Cards.View(c.UserContext(), callcard.ViewRequest{
		Scope:      scope,
		CardID:     c.Query("cardId"),
		TemplateID: c.Query("templateId"),
	})
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.view")
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// SyncCard handles POST /api/callcard/card
// @Summary Submit a visit card
// @Description Reconcile a nested card document into storage and the order ledger
// @Tags CallCard
// @Accept json
// @Produce json
// @Param groupId query string false "User group id"
// @Param gameTypeId query int false "Game type id"
// @Param body body callcard.CardView true "Card"
// @Success 200 {object} utils.CardResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/card [post]
func (h *CallCardHandler) SyncCard(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	scope, err := scopeOf(c, user)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	var card callcard.CardView
	if err := c.BodyParser(&card); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "callcard.validation.input")
	}

	start := time.Now()
	id, err := h.Cards.Sync(c.UserContext(), callcard.SyncRequest{Scope: scope, Card: card})
	h.observe("full", start, err)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.sync")
	}
	return utils.CardSuccessResponse(c, id)
}

// SyncSimplified handles POST /api/callcard/card/simplified
// @Summary Submit a simplified visit card
// @Description Reconcile a flat RefUser list; every attribute is stored and no orders are written
// @Tags CallCard
// @Accept json
// @Produce json
// @Param groupId query string false "User group id"
// @Param gameTypeId query int false "Game type id"
// @Param body body callcard.SimplifiedCard true "Card"
// @Success 200 {object} utils.CardResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/card/simplified [post]
func (h *CallCardHandler) SyncSimplified(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	scope, err := scopeOf(c, user)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	var body simplifiedBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "callcard.validation.input")
	}

	start := time.Now()
	id, err := h.Cards.SyncSimplified(c.UserContext(), scope, callcard.SimplifiedCard{
		ID:          body.ID,
		DateCreated: body.DateCreated,
		DateUpdated: body.DateUpdated,
		End:         body.End,
		RefUsers:    body.RefUsers.Slice(),
		Submitted:   body.Submitted,
	})
	h.observe("simplified", start, err)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.sync")
	}
	return utils.CardSuccessResponse(c, id)
}

// SubmitIndirect handles POST /api/callcard/card/indirect/:userId
// @Summary Submit progress for another user
// @Description Reconcile a card into the target user's active card, creating it when needed
// @Tags CallCard
// @Accept json
// @Produce json
// @Param userId path string true "Target user id"
// @Param groupId query string false "User group id"
// @Param gameTypeId query int false "Game type id"
// @Param body body callcard.CardView true "Card"
// @Success 200 {object} utils.CardResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/card/indirect/{userId} [post]
func (h *CallCardHandler) SubmitIndirect(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	scope, err := scopeOf(c, user)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	var card callcard.CardView
	if err := c.BodyParser(&card); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "callcard.validation.input")
	}

	start := time.Now()
	id, err := h.Cards.SubmitIndirect(c.UserContext(), callcard.IndirectRequest{
		Scope:          scope,
		IndirectUserID: c.Params("userId"),
		Card:           card,
	})
	h.observe("indirect", start, err)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.indirect")
	}
	return utils.CardSuccessResponse(c, id)
}

// GetPending handles GET /api/callcard/card/pending
// @Summary Get the pending card header
// @Tags CallCard
// @Produce json
// @Success 200 {object} callcard.CardSummary
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/card/pending [get]
func (h *CallCardHandler) GetPending(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	summary, err := h.Cards.Pending(c.UserContext(), user.ID)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.pending")
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// GetStatistics handles GET /api/callcard/statistics
// @Summary Get item quantity statistics
// @Description Sum a numeric property per item over the caller's stored entries
// @Tags CallCard
// @Produce json
// @Param property query string false "Property name, defaults to the sales property"
// @Param types query string false "Comma-separated status codes"
// @Param from query string false "Start date"
// @Param to query string false "End date"
// @Success 200 {array} callcard.ItemStatistic
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/statistics [get]
func (h *CallCardHandler) GetStatistics(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	q := callcard.StatisticsQuery{UserID: user.ID, Property: c.Query("property")}
	if q.Types, err = parseStatuses(c, "types"); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	if q.From, err = parseTime(c, "from"); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	if q.To, err = parseTime(c, "to"); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}

	stats, err := h.Cards.ItemStatistics(c.UserContext(), q)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.statistics")
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

// ListCards handles GET /api/callcard/cards
// @Summary List the caller's cards as flat RefUser lists
// @Description Page over the caller's RefUsers and group those with stored entries per card
// @Tags CallCard
// @Produce json
// @Param sourceUserId query string false "Issuing user id"
// @Param refUserId query string false "Counterparty id"
// @Param from query string false "RefUser start date lower bound"
// @Param to query string false "RefUser start date upper bound"
// @Param page query int false "Page, from 1"
// @Param pageSize query int false "Page size, at most 100"
// @Success 200 {array} callcard.SimplifiedCard
// @Header 200 {integer} X-Total-Count "Matching RefUsers"
// @Header 200 {integer} X-Total-Pages "Pages"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/cards [get]
func (h *CallCardHandler) ListCards(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	q := callcard.SimplifiedQuery{
		UserID:         user.ID,
		SourceUserID:   c.Query("sourceUserId"),
		CounterpartyID: c.Query("refUserId"),
	}
	if q.Paging, err = parsePaging(c); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	if q.From, err = parseTime(c, "from"); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	if q.To, err = parseTime(c, "to"); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}

	total, err := h.Cards.CountSimplified(c.UserContext(), q)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.list")
	}
	cards, err := h.Cards.ListSimplified(c.UserContext(), q)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.list")
	}
	setPageHeaders(c, q.Paging, total)
	return c.Status(fiber.StatusOK).JSON(cards)
}

// GetSimplifiedCard handles GET /api/callcard/cards/:id
// @Summary Get one card as a flat RefUser list
// @Tags CallCard
// @Produce json
// @Param id path string true "Card id"
// @Success 200 {object} callcard.SimplifiedCard
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/cards/{id} [get]
func (h *CallCardHandler) GetSimplifiedCard(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	card, err := h.Cards.GetSimplified(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.get")
	}
	return c.Status(fiber.StatusOK).JSON(card)
}

// GetTemplateCards handles GET /api/callcard/templates
// @Summary Get a blank card per assigned template
// @Description Render every template assigned to the caller without storing a card
// @Tags CallCard
// @Produce json
// @Param groupId query string false "User group id"
// @Param gameTypeId query int false "Game type id"
// @Success 200 {array} callcard.CardView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /callcard/templates [get]
func (h *CallCardHandler) GetTemplateCards(c *fiber.Ctx) error {
	user, err := getUser(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, "callcard.authorization.user")
	}
	scope, err := scopeOf(c, user)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "callcard.validation.input")
	}
	views, err := h.Cards.TemplateViews(c.UserContext(), scope)
	if err != nil {
		return utils.ServiceErrorResponse(c, err, "callcard.templates")
	}
	return c.Status(fiber.StatusOK).JSON(views)
}
