package handlers

import (
	"github.com/epicfreebies/hype-backend/services"
	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	Ledger *services.LedgerService
}

func NewStatsHandler(ledger *services.LedgerService) *StatsHandler {
	return &StatsHandler{Ledger: ledger}
}

// GetSummary returns aggregate statistics over the enriched ledger. Sentinel
// values are excluded from aggregates rather than treated as errors.
func (h *StatsHandler) GetSummary(c *fiber.Ctx) error {
	records, err := h.Ledger.Load()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    services.Summarize(records),
	})
}
