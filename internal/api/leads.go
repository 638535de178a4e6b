package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jomarcello/Waviate/internal/database"
	"github.com/jomarcello/Waviate/internal/logger"
	"github.com/jomarcello/Waviate/internal/whatsapp"
)

type LeadHandler struct {
	store Store
	log   logger.Logger
}

func NewLeadHandler(store Store, log logger.Logger) *LeadHandler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &LeadHandler{store: store, log: log}
}

func (h *LeadHandler) GetLeads(c *gin.Context) {
	leads, err := h.store.ListLeads(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to list leads", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leads"})
		return
	}

	// Return empty array instead of null
	if leads == nil {
		leads = []database.LeadSummary{}
	}
	c.JSON(http.StatusOK, leads)
}

func (h *LeadHandler) GetConversation(c *gin.Context) {
	phone := whatsapp.NormalizePhone(c.Param("phone"))

	lead, conv, err := h.store.LeadConversation(c.Request.Context(), phone)
	if errors.Is(err, database.ErrLeadNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return
	}
	if err != nil {
		h.log.Errorw("failed to load conversation", "phone", phone, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead, "conversation": conv})
}
