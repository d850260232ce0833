package handler

import (
	"net/http"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/service"
	"github.com/Dan9191/card-service/internal/utils"
)

// CreateCard adds a card for the authenticated user
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to create card")
		return
	}

	var req createCardRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err, "Failed to create card")
		return
	}

	card, err := h.cards.Create(r.Context(), owner, service.CardInput{
		CardNumber:     req.CardNumber,
		CardHolderName: req.CardHolderName,
		ExpiryDate:     req.ExpiryDate,
		CVV:            req.CVV,
		CardType:       req.CardType,
		Balance:        req.Balance,
	})
	if err != nil {
		h.fail(w, r, err, "Failed to create card")
		return
	}

	utils.Respond(w, http.StatusCreated, map[string]interface{}{
		"message": "Card created successfully",
		"card":    card,
	})
}

// ListCards returns the authenticated user's cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to get cards")
		return
	}

	cards, err := h.cards.ListMine(r.Context(), owner)
	if err != nil {
		h.fail(w, r, err, "Failed to get cards")
		return
	}
	utils.Respond(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

// GetCard returns a single card
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to get card")
		return
	}
	id, err := cardID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to get card")
		return
	}

	card, err := h.cards.GetOne(r.Context(), id, caller)
	if err != nil {
		h.fail(w, r, err, "Failed to get card")
		return
	}
	utils.Respond(w, http.StatusOK, map[string]interface{}{"card": card})
}

// UpdateCard applies a partial update to a card
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to update card")
		return
	}
	id, err := cardID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to update card")
		return
	}

	var req updateCardRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err, "Failed to update card")
		return
	}

	card, err := h.cards.Update(r.Context(), id, caller, models.CardUpdate{
		CardHolderName: req.CardHolderName,
		ExpiryDate:     req.ExpiryDate,
		IsActive:       req.IsActive,
	})
	if err != nil {
		h.fail(w, r, err, "Failed to update card")
		return
	}

	utils.Respond(w, http.StatusOK, map[string]interface{}{
		"message": "Card updated successfully",
		"card":    card,
	})
}

// UpdateBalance sets the balance of a card
func (h *Handler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to update card balance")
		return
	}
	id, err := cardID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to update card balance")
		return
	}

	var req balanceRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err, "Failed to update card balance")
		return
	}

	balance, err := h.cards.UpdateBalance(r.Context(), id, caller, req.Balance)
	if err != nil {
		h.fail(w, r, err, "Failed to update card balance")
		return
	}

	utils.Respond(w, http.StatusOK, map[string]interface{}{
		"message": "Card balance updated successfully",
		"balance": balance,
	})
}

// DeleteCard removes a card
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to delete card")
		return
	}
	id, err := cardID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to delete card")
		return
	}

	if err := h.cards.Delete(r.Context(), id, caller); err != nil {
		h.fail(w, r, err, "Failed to delete card")
		return
	}
	utils.Respond(w, http.StatusOK, map[string]string{"message": "Card deleted successfully"})
}
