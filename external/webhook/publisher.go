package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/riskibarqy/soccer-livescore/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	signatureHeader    = "X-Livescore-Signature"
	notificationHeader = "X-Livescore-Notification"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type PublisherConfig struct {
	URL            string
	Secret         string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher POSTs every envelope as JSON to a single endpoint. When a secret
// is configured the body is signed with HMAC-SHA256.
type Publisher struct {
	client  *http.Client
	url     string
	secret  []byte
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
}

func NewPublisher(cfg PublisherConfig, logger *logging.Logger) (*Publisher, error) {
	target, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid WEBHOOK_URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("webhook")

	breaker := resilience.NewBreakerFromConfig(cfg.CircuitBreaker)
	if breaker != nil {
		breaker = breaker.Named("webhook", func(name string, from, to resilience.CircuitState) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", string(from), "to", string(to))
		})
	}

	return &Publisher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		url:     target,
		secret:  []byte(strings.TrimSpace(cfg.Secret)),
		logger:  logger,
		breaker: breaker,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, envelope feed.Envelope) error {
	if p.breaker != nil {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", string(p.breaker.State()))
			return fmt.Errorf("webhook is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(envelope)
	if err != nil {
		return crerr.Wrap(err, "marshal envelope")
	}
	signature := p.sign(body)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", p.url),
			attribute.String("webhook.notification", string(envelope.Notification)),
			attribute.Int64("webhook.league_id", envelope.LeagueID),
			attribute.String("webhook.curl_preview", buildCurlPreview(p.url, string(envelope.Notification), truncateForLog(string(body), 1024), signature != "")),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(notificationHeader, string(envelope.Notification))
	if signature != "" {
		req.Header.Set(signatureHeader, "sha256="+signature)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: deliver %s url=%s: %v", errWebhookTransient, envelope.Notification, p.url, err)
		p.record(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		callErr := fmt.Errorf("deliver %s status=%d url=%s body=%s", envelope.Notification, resp.StatusCode, p.url, strings.TrimSpace(string(raw)))
		if isRetryableStatus(resp.StatusCode) {
			callErr = fmt.Errorf("%w: %v", errWebhookTransient, callErr)
		}
		p.record(callErr)
		return callErr
	}

	p.logger.DebugContext(ctx, "webhook delivered", "notification", string(envelope.Notification), "league_id", envelope.LeagueID)
	p.record(nil)
	return nil
}

func (p *Publisher) sign(body []byte) string {
	if len(p.secret) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, p.secret)
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *Publisher) record(err error) {
	if p.breaker == nil {
		return
	}
	p.breaker.Record(err, func(err error) bool { return stderrors.Is(err, errWebhookTransient) })
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return candidate, nil
}

func buildCurlPreview(target, notification, body string, signed bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(target))
	appendHeader("Content-Type: application/json")
	appendHeader(notificationHeader + ": " + notification)
	if signed {
		appendHeader(signatureHeader + ": sha256=***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
