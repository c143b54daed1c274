package toralarm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/riskibarqy/soccer-livescore/internal/platform/resilience"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://toralarm.com/api/api"
	acceptLanguage   = "en-US,en;q=0.9,it;q=0.8,de-DE;q=0.7,de;q=0.6"
	maxResponseBytes = 8 << 20
)

var errToralarmTransient = crerr.New("toralarm transient failure")

type ClientConfig struct {
	HTTPClient        *fasthttp.Client
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *logging.Logger
	CircuitBreaker    resilience.CircuitBreakerConfig
}

// Client talks to the toralarm API. Every call is a POST carrying only the
// language tag; a nil error means a 200 response with a decodable body.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.Group[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("toralarm")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "soccer-livescore",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxConnsPerHost:     16,
			MaxResponseBodySize: maxResponseBytes,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	breaker := resilience.NewBreakerFromConfig(cfg.CircuitBreaker)
	if breaker != nil {
		breaker = breaker.Named("toralarm", func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
		})
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		breaker:    breaker,
	}
}

type competitionsEnvelope struct {
	Competitions []competition.Competition `json:"competitions"`
}

func (c *Client) FetchCompetitions(ctx context.Context, language string) ([]competition.Competition, error) {
	var out competitionsEnvelope
	if err := c.post(ctx, "/competitions", language, &out); err != nil {
		return nil, fmt.Errorf("fetch competitions: %w", err)
	}
	return out.Competitions, nil
}

// FetchRound reads the matches of a round; round 0 is the current one.
func (c *Client) FetchRound(ctx context.Context, competitionID int64, round int, language string) (feed.Document, error) {
	if competitionID <= 0 {
		return feed.Document{}, fmt.Errorf("%w: competition id must be greater than zero", usecase.ErrInvalidInput)
	}
	if round < 0 {
		return feed.Document{}, fmt.Errorf("%w: round must not be negative", usecase.ErrInvalidInput)
	}
	return c.document(ctx, fmt.Sprintf("/competitions/%d/matches/round/%d", competitionID, round), language)
}

func (c *Client) FetchTable(ctx context.Context, competitionID int64, language string) (feed.Document, error) {
	if competitionID <= 0 {
		return feed.Document{}, fmt.Errorf("%w: competition id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.document(ctx, fmt.Sprintf("/competitions/%d/table", competitionID), language)
}

func (c *Client) FetchScorers(ctx context.Context, competitionID int64, language string) (feed.Document, error) {
	if competitionID <= 0 {
		return feed.Document{}, fmt.Errorf("%w: competition id must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.document(ctx, fmt.Sprintf("/competitions/%d/scorers", competitionID), language)
}

func (c *Client) FetchMatchDetails(ctx context.Context, competitionID, matchID int64, language string) (feed.Document, error) {
	if competitionID <= 0 || matchID <= 0 {
		return feed.Document{}, fmt.Errorf("%w: competition and match ids must be greater than zero", usecase.ErrInvalidInput)
	}
	return c.document(ctx, fmt.Sprintf("/competitions/%d/matches/%d/details", competitionID, matchID), language)
}

func (c *Client) document(ctx context.Context, path, language string) (feed.Document, error) {
	var doc feed.Document
	if err := c.post(ctx, path, language, &doc); err != nil {
		return feed.Document{}, err
	}
	return doc, nil
}

type requestBody struct {
	Language string `json:"lng"`
}

func (c *Client) post(ctx context.Context, path, language string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "toralarm circuit breaker rejected request", "path", path, "state", string(c.breaker.State()))
			return fmt.Errorf("%w: toralarm is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	language = usecase.NormalizeLanguage(language)
	body, err := sonic.Marshal(requestBody{Language: language})
	if err != nil {
		return crerr.Wrap(err, "marshal request body")
	}

	fullURL := c.baseURL + path
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("toralarm.path", path),
			attribute.String("toralarm.language", language),
		)
	}

	// Callers joining the flight share the request but not each other's
	// cancellation; the request is bounded by the client timeout only.
	raw, err, shared := c.flight.Do(path+"|"+language, func() ([]byte, error) {
		raw, reqErr := c.execute(fullURL, body)
		if c.breaker != nil {
			c.breaker.Record(reqErr, isTransient)
		}
		return raw, reqErr
	})
	if err != nil {
		c.logger.WarnContext(ctx, "toralarm request failed", "url", fullURL, "shared", shared, "error", err)
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		c.logger.WarnContext(ctx, "toralarm payload decode failed", "url", fullURL, "body", abbreviateBody(raw), "error", err)
		return fmt.Errorf("decode toralarm payload path=%s: %w", path, err)
	}
	return nil
}

func (c *Client) execute(fullURL string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.SetBody(body)

	if err := c.httpClient.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errToralarmTransient, err)
	}

	status := resp.StatusCode()
	raw := append([]byte(nil), resp.Body()...)
	if status != fasthttp.StatusOK {
		if isRetryableStatus(status) {
			return nil, fmt.Errorf("%w: unexpected status=%d body=%s", errToralarmTransient, status, abbreviateBody(raw))
		}
		return nil, fmt.Errorf("unexpected status=%d body=%s", status, abbreviateBody(raw))
	}
	return raw, nil
}

func isTransient(err error) bool {
	return err != nil && stderrors.Is(err, errToralarmTransient)
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusRequestTimeout ||
		code == fasthttp.StatusTooManyRequests ||
		code >= fasthttp.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		return text[:512] + "...(truncated)"
	}
	return text
}
