// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/menurank/internal/logging"
	"github.com/tomtom215/menurank/internal/pipeline"
	"github.com/tomtom215/menurank/internal/scorecache"
	"github.com/tomtom215/menurank/internal/views"
)

// Health status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// anonymousUser is the path segment for devices without a resolved user.
const anonymousUser = "anon"

// HealthReport is the body of GET /health.
type HealthReport struct {
	Status     string                     `json:"status"`
	Uptime     float64                    `json:"uptime_seconds"`
	Components map[string]ComponentHealth `json:"components"`
	LastRun    *pipeline.Summary          `json:"last_run,omitempty"`
}

// ComponentHealth is the result of one dependency ping.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Health pings every configured dependency. Any failure yields 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := HealthReport{
		Status:     StatusHealthy,
		Uptime:     time.Since(h.startTime).Seconds(),
		Components: make(map[string]ComponentHealth, len(h.checks)),
	}
	if h.runner != nil {
		report.LastRun = h.runner.Last()
	}

	for name, p := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.healthTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			report.Status = StatusDegraded
			report.Components[name] = ComponentHealth{Error: err.Error()}
			logging.Ctx(r.Context()).Warn().Err(err).Str("check", name).Msg("Health check failed")
			continue
		}
		report.Components[name] = ComponentHealth{Healthy: true}
	}

	status := http.StatusOK
	if report.Status != StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, report)
}

// Live reports that the process is serving requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// LatestRun returns the summary of the last completed run.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	var last *pipeline.Summary
	if h.runner != nil {
		last = h.runner.Last()
	}
	if last == nil {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "no run has completed yet")
		return
	}
	respondJSON(w, r, http.StatusOK, last)
}

// TriggerRun executes a ranking run synchronously. The run is detached from
// the request so a disconnecting client does not abort a half-written sink.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "ranking runner not configured")
		return
	}

	summary, err := h.runner.Run(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		respondError(w, r, http.StatusConflict, CodeRunInProgress, "a ranking run is already in progress")
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Triggered run failed")
		respondError(w, r, http.StatusInternalServerError, CodeRunFailed, err.Error())
	default:
		respondJSON(w, r, http.StatusOK, summary)
	}
}

// ScoreEntry is one cached listing score.
type ScoreEntry struct {
	ListingID int64 `json:"product_id"`
	Score     int64 `json:"rank"`
}

// UserScores is the body of GET /api/v1/scores/{device}/{user}.
type UserScores struct {
	Device string       `json:"mac_address"`
	UserID *int64       `json:"user_id"`
	Scores []ScoreEntry `json:"scores"`
}

// UserScores returns cached scores ordered by descending score.
func (h *Handler) UserScores(w http.ResponseWriter, r *http.Request) {
	if h.scores == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "score cache not configured")
		return
	}

	u, err := parseUser(chi.URLParam(r, "device"), chi.URLParam(r, "user"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	scores, err := h.scores.Scores(r.Context(), u)
	switch {
	case errors.Is(err, scorecache.ErrNotFound):
		respondError(w, r, http.StatusNotFound, CodeNotFound, "no scores cached for this user")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("device", u.Device).Msg("Score lookup failed")
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "score lookup failed")
		return
	}

	body := UserScores{Device: u.Device, Scores: make([]ScoreEntry, 0, len(scores))}
	if u.ID.Resolved {
		id := u.ID.ID
		body.UserID = &id
	}
	for listing, score := range scores {
		body.Scores = append(body.Scores, ScoreEntry{ListingID: listing, Score: score})
	}
	sort.Slice(body.Scores, func(i, j int) bool {
		a, b := body.Scores[i], body.Scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ListingID < b.ListingID
	})
	respondJSON(w, r, http.StatusOK, body)
}

func parseUser(device, user string) (views.User, error) {
	if device == "" {
		return views.User{}, errors.New("device is required")
	}
	if user == anonymousUser {
		return views.User{Device: device, ID: views.AnonymousID()}, nil
	}
	id, err := strconv.ParseInt(user, 10, 64)
	if err != nil {
		return views.User{}, errors.New(`user must be a numeric id or "anon"`)
	}
	return views.User{Device: device, ID: views.ResolvedID(id)}, nil
}
