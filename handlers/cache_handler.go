package handlers

import (
	"github.com/epicfreebies/hype-backend/services"
	"github.com/gofiber/fiber/v2"
)

type CacheHandler struct {
	Cache *services.CacheService
}

func NewCacheHandler(cache *services.CacheService) *CacheHandler {
	return &CacheHandler{Cache: cache}
}

// GetCacheStatus reports how many titles and promotion instances the
// metadata cache currently covers.
func (h *CacheHandler) GetCacheStatus(c *fiber.Ctx) error {
	games, franchise := h.Cache.Counts()
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"path":              h.Cache.Path(),
			"game_entries":      games,
			"franchise_entries": franchise,
		},
	})
}
