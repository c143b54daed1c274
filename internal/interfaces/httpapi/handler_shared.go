package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
)

// LivescoreService is the usecase surface the handlers drive.
type LivescoreService interface {
	Configure(ctx context.Context, input usecase.DisplaySettings) (usecase.ConfigureResult, error)
	Settings() usecase.DisplaySettings
	Competitions() []competition.Competition
	Schedules(ctx context.Context) ([]usecase.FeedSchedule, error)
	Latest(ctx context.Context, leagueID int64, kind feed.Kind) (feed.Envelope, error)
	Snapshots(ctx context.Context, leagueID int64, kind string, limit int) ([]snapshot.Snapshot, error)
}

type Handler struct {
	livescoreService LivescoreService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(livescoreService LivescoreService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		livescoreService: livescoreService,
		logger:           logger.Named("httpapi"),
		validator:        validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func parseLeagueID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: league id must be a positive integer, got %q", usecase.ErrInvalidInput, raw)
	}
	return id, nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer, got %q", usecase.ErrInvalidInput, raw)
	}
	return limit, nil
}

type configRequest struct {
	Language      string  `json:"language" validate:"omitempty,max=16"`
	ShowStandings bool    `json:"showStandings"`
	ShowDetails   bool    `json:"showDetails"`
	ShowTables    bool    `json:"showTables"`
	ShowScorers   bool    `json:"showScorers"`
	Leagues       []int64 `json:"leagues" validate:"max=200,dive,gt=0"`
}

func (r configRequest) toSettings() usecase.DisplaySettings {
	return usecase.DisplaySettings{
		Language:      r.Language,
		ShowStandings: r.ShowStandings,
		ShowDetails:   r.ShowDetails,
		ShowTables:    r.ShowTables,
		ShowScorers:   r.ShowScorers,
		Leagues:       r.Leagues,
	}
}
