package handlers

import (
	"strconv"

	"github.com/epicfreebies/hype-backend/services"
	"github.com/gofiber/fiber/v2"
)

type GiveawayHandler struct {
	Ledger *services.LedgerService
}

func NewGiveawayHandler(ledger *services.LedgerService) *GiveawayHandler {
	return &GiveawayHandler{Ledger: ledger}
}

// GetGiveaways returns the enriched ledger, optionally filtered with
// ?hype=true to only strategic giveaways.
func (h *GiveawayHandler) GetGiveaways(c *fiber.Ctx) error {
	records, err := h.Ledger.Load()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	if c.Query("hype") == "true" {
		filtered := records[:0]
		for _, record := range records {
			if record.IsStrategicHype {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    records,
	})
}

func (h *GiveawayHandler) GetGiveawayByID(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid giveaway id",
		})
	}

	records, err := h.Ledger.Load()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	for _, record := range records {
		if record.ID == id {
			return c.JSON(fiber.Map{
				"success": true,
				"data":    record,
			})
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   "giveaway not found",
	})
}
