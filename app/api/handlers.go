package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/anime-comb/app/anime"
)

// Per use case messages for upstream failures.
const (
	msgSearchFailed = "Wystąpił błąd podczas pobierania danych."
	msgRandomFailed = "Wystąpił błąd podczas losowania anime."
	msgTopFailed    = "Wystąpił błąd podczas pobierania rankingu."
	msgSeasonFailed = "Wystąpił błąd podczas pobierania anime z sezonu."
)

func NewHandler(service AnimeService, cache CacheStore, limiter TokenBucket, version string) *Handler {
	return &Handler{
		service:   service,
		cache:     cache,
		limiter:   limiter,
		version:   version,
		startedAt: time.Now(),
	}
}

func (h *Handler) Search(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.respondError(c, "search", msgSearchFailed, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Random(c *gin.Context) {
	count, ok := intQuery(c, "count")
	if !ok {
		return
	}

	result, err := h.service.Random(c.Request.Context(), count)
	if err != nil {
		h.respondError(c, "random", msgRandomFailed, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Top(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset")
	if !ok {
		return
	}
	rank, ok := intQuery(c, "rank")
	if !ok {
		return
	}

	result, err := h.service.Top(c.Request.Context(), limit, offset, rank)
	if err != nil {
		h.respondError(c, "top", msgTopFailed, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Season(c *gin.Context) {
	if strings.TrimSpace(c.Query("year")) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parametr 'year' jest wymagany."})
		return
	}
	year, ok := intQuery(c, "year")
	if !ok {
		return
	}

	result, err := h.service.Season(c.Request.Context(), year, c.Query("season"))
	if err != nil {
		h.respondError(c, "season", msgSeasonFailed, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"version":   h.version,
	}

	if h.cache != nil {
		health["cache_entries"] = h.cache.Len()
	}
	if h.limiter != nil {
		health["rate_limit"] = map[string]interface{}{
			"tokens":   h.limiter.Tokens(),
			"capacity": h.limiter.Capacity(),
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIGetCache(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"entries": h.cache.Len(),
		"ttl":     h.cache.TTL().String(),
	})
}

func (h *Handler) APIPurgeCache(c *gin.Context) {
	removed := h.cache.Purge()
	slog.Info("Title cache purged", "removed", removed)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"removed": removed,
	})
}

// respondError maps validation failures to 400 with their own message and
// everything else to 500 with the use case message.
func (h *Handler) respondError(c *gin.Context, operation, message string, err error) {
	var validationErr *anime.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		return
	}

	slog.Error("Request failed", "operation", operation, "request_id", c.GetString(requestIDKey), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// intQuery reads an optional integer query parameter; absent means 0. On a
// malformed value it writes a 400 response and reports false.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parametr '" + name + "' musi być liczbą całkowitą."})
		return 0, false
	}
	return value, true
}
