package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"time"

	"doubansync-backend/lib/restyutil"
	"doubansync-backend/lib/telemetry"
	"doubansync-backend/lib/textutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// Credential is a logged-in session on the site, carried as the raw
// cookie header value. The site has no token API, cookies are all
// there is.
type Credential struct {
	Cookie string
}

// Client is a single logical crawl session. Requests go out strictly
// one at a time with a randomized pause before each, pacing is the
// anti-detection mechanism, so never run two clients against the same
// credential concurrently.
type Client struct {
	Http *resty.Client

	config PacingConfig
	pacer  *Pacer
}

type ClientOptions struct {
	Pacing PacingConfig
}

var doubanHosts = []string{
	"douban.com",
	"www.douban.com",
	"book.douban.com",
	"movie.douban.com",
	"music.douban.com",
	"sec.douban.com",
}

func NewClient(opts ClientOptions) (*Client, error) {
	config := opts.Pacing.withDefaults()

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", chromeUserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(doubanHosts...))
	client.SetTimeout(config.Timeout)

	if restyInstrumentOutput != nil {
		restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	} else {
		telemetry.InstrumentResty(client, "doubansync.lib.scrapers.douban.core")
	}

	return &Client{
		Http:   client,
		config: config,
		pacer:  NewPacer(config),
	}, nil
}

// pauses for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetch issues a paced GET against the target url and returns the
// response body. Transient faults (network errors, temporary block
// pages) are retried up to the attempt budget with an extra randomized
// back-off between attempts; the last of them propagates when the
// budget runs out. ForbiddenError and VerificationRequiredError return
// immediately: the caller must stop using the credential until it has
// been refreshed.
func (c *Client) Fetch(ctx context.Context, targetUrl string, cred Credential, overrides map[string]string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Fetch")
	defer span.End()

	headers := buildHeaders(targetUrl, cred, overrides)

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.pacer.RetryBackoff()
			slog.DebugContext(
				ctx, "retrying request",
				"url", targetUrl,
				"attempt", attempt,
				"backoff", backoff,
			)
			err := sleepCtx(ctx, backoff)
			if err != nil {
				return "", err
			}
		}
		err := sleepCtx(ctx, c.pacer.NextDelay())
		if err != nil {
			return "", err
		}

		res, err := c.Http.R().
			SetContext(ctx).
			SetHeaders(headers).
			Get(targetUrl)
		if err != nil {
			lastErr = NetworkError{Err: err}
			slog.WarnContext(
				ctx, "request failed",
				"url", targetUrl,
				"attempt", attempt,
				"err", err,
			)
			continue
		}

		body := res.String()
		err = Classify(res.StatusCode(), body)
		if err == nil {
			return body, nil
		}
		if IsTerminal(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session is no longer usable")
			return "", err
		}

		lastErr = err
		slog.WarnContext(
			ctx, "request blocked",
			"url", targetUrl,
			"attempt", attempt,
			"classification", errorTypeLabel(err),
		)
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "exhausted retry budget")
	return "", lastErr
}

type CredentialStatus struct {
	Valid  bool
	Reason string
}

// ValidateCredential fetches the user's public profile page with the
// credential and inspects what came back.
func (c *Client) ValidateCredential(ctx context.Context, userID string, cred Credential) CredentialStatus {
	ctx, span := tracer.Start(ctx, "client:ValidateCredential")
	defer span.End()

	profileUrl := fmt.Sprintf("https://www.douban.com/people/%s/", url.PathEscape(userID))
	body, err := c.Fetch(ctx, profileUrl, cred, nil)
	if err != nil {
		span.RecordError(err)
		return CredentialStatus{Valid: false, Reason: err.Error()}
	}
	if textutil.ContainsAnyFold(body, loginMarkers) {
		return CredentialStatus{Valid: false, Reason: "cookie expired, needs re-login"}
	}
	if textutil.ContainsAnyFold(body, verificationMarkers) ||
		textutil.ContainsAnyFold(body, blockedMarkers) {
		return CredentialStatus{Valid: false, Reason: "access restricted, verification required"}
	}
	return CredentialStatus{Valid: true}
}

type SessionStats struct {
	RequestCount      uint64
	SlowMode          bool
	SlowModeThreshold uint64
	BaseDelay         time.Duration
	SlowDelay         time.Duration
}

func (c *Client) Stats() SessionStats {
	count := c.pacer.Count()
	return SessionStats{
		RequestCount:      count,
		SlowMode:          count > c.config.SlowModeThreshold,
		SlowModeThreshold: c.config.SlowModeThreshold,
		BaseDelay:         c.config.NormalBaseDelay,
		SlowDelay:         c.config.SlowBaseDelay,
	}
}

func (c *Client) ResetCount() {
	c.pacer.Reset()
}

func (c *Client) SetCount(n uint64) {
	c.pacer.SetCount(n)
}

func (c *Client) CurrentDelayConfig() DelayConfig {
	return c.pacer.Current()
}
