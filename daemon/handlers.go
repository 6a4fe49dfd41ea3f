package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keymeter/typespeed/pkg/meter"
)

const maxHistoryLimit = 1000

func (d *Daemon) registerRoutes(r *gin.Engine) {
	r.GET("/typespeed", d.handleStatusLine)
	r.GET("/v1/stats", d.handleStats)
	r.GET("/v1/health", d.handleHealth)
	r.GET("/v1/history", d.handleHistory)
}

// handleStatusLine serves the canonical four-integer line, one snapshot per
// read. Concurrent reads only ever contend with a rotation for the meter's
// short lock, never with each other's producers.
func (d *Daemon) handleStatusLine(c *gin.Context) {
	c.String(http.StatusOK, d.meter.Snapshot().Line())
}

type statsResponse struct {
	meter.Rates
	Sum10 uint64 `json:"sum_10s"`
	Sum30 uint64 `json:"sum_30s"`
	Sum60 uint64 `json:"sum_60s"`
}

func (d *Daemon) handleStats(c *gin.Context) {
	snap := d.meter.Snapshot()
	c.JSON(http.StatusOK, statsResponse{
		Rates: snap.Rates(),
		Sum10: snap.Sum10,
		Sum30: snap.Sum30,
		Sum60: snap.Sum60,
	})
}

func (d *Daemon) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"subscribed":    d.subscribed.Load(),
		"uptime_s":      int(time.Since(d.started).Seconds()),
		"last_rotation": d.meter.LastRotation(),
		"version":       d.version,
	})
}

func (d *Daemon) handleHistory(c *gin.Context) {
	if d.journal == nil {
		respondError(c, http.StatusNotFound, "history is disabled", d.logger)
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "invalid limit", d.logger)
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	samples, err := d.journal.Recent(limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to read history", d.logger)
		return
	}
	c.JSON(http.StatusOK, samples)
}
