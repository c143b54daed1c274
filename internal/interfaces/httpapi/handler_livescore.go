package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetConfig")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, configDTO{
		Settings:     h.livescoreService.Settings(),
		Competitions: h.livescoreService.Competitions(),
	})
}

func (h *Handler) PostConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PostConfig")
	defer span.End()

	var req configRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.livescoreService.Configure(ctx, req.toSettings())
	if err != nil {
		h.logger.WarnContext(ctx, "apply configuration failed", "leagues", len(req.Leagues), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, configDTO{
		Settings:     result.Settings,
		Competitions: result.Competitions,
		FeedCount:    result.FeedCount,
		CatalogError: result.CatalogError,
	})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, leaguesDTO{Items: h.livescoreService.Competitions()})
}

func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLatest")
	defer span.End()

	leagueID, err := parseLeagueID(r.PathValue("leagueID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	kind, ok := feed.ParseKind(r.PathValue("kind"))
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown feed kind %q", usecase.ErrNotFound, r.PathValue("kind")))
		return
	}

	envelope, err := h.livescoreService.Latest(ctx, leagueID, kind)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, envelope)
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSchedules")
	defer span.End()

	items, err := h.livescoreService.Schedules(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list schedules failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if items == nil {
		items = []usecase.FeedSchedule{}
	}

	writeSuccess(ctx, w, http.StatusOK, schedulesDTO{Items: items})
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSnapshots")
	defer span.End()

	leagueID, err := parseLeagueID(r.PathValue("leagueID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	kind := ""
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, ok := feed.ParseKind(raw)
		if !ok {
			writeError(ctx, w, fmt.Errorf("%w: unknown feed kind %q", usecase.ErrInvalidInput, raw))
			return
		}
		kind = string(parsed)
	}

	items, err := h.livescoreService.Snapshots(ctx, leagueID, kind, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list snapshots failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]snapshotDTO, 0, len(items))
	for _, item := range items {
		out = append(out, snapshotToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, snapshotsDTO{Items: out})
}
