// Package ingest normalizes raw intake input into submissions. It decides
// what a payload is (inline text, PDF document) by content sniffing, never
// by file extension or caller claims, and fetches remote documents with
// retry and rate limiting.
package ingest

import (
	"bytes"
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
)

// pdfMagic is the PDF file signature. Anything without it is treated as text.
var pdfMagic = []byte("%PDF")

const defaultMaxDocumentBytes = 25 << 20 // extraction backend caps PDFs around 32MB

// Options configures the ingestor.
type Options struct {
	UserAgent        string
	Timeout          time.Duration
	MaxRetries       int
	MaxDocumentBytes int64
	// RateLimit throttles remote document fetches across the process.
	RateLimit rate.Limit
	Burst     int
}

// Ingestor turns text, URLs, and uploads into submissions.
type Ingestor struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates an Ingestor with option defaults applied.
func New(opts Options) *Ingestor {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "intake-cli/1.0"
	}
	if opts.MaxDocumentBytes == 0 {
		opts.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	return &Ingestor{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:    opts,
		limiter: rate.NewLimiter(opts.RateLimit, opts.Burst),
	}
}

// IsPDF reports whether data starts with the PDF signature.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// FromText wraps inline free text. Blank input is rejected before any
// extraction cost is spent.
func (i *Ingestor) FromText(text string) (model.Submission, error) {
	if strings.TrimSpace(text) == "" {
		return model.Submission{}, fault.New(fault.KindInput, "text input is required")
	}
	return model.Submission{
		Kind:    model.SubmissionText,
		Content: []byte(text),
	}, nil
}

// FromUpload classifies an uploaded payload by content. PDFs become
// uploaded documents; anything else is treated as inline text.
func (i *Ingestor) FromUpload(data []byte) (model.Submission, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Submission{}, fault.New(fault.KindInput, "uploaded document is empty")
	}
	if IsPDF(data) {
		return model.Submission{Kind: model.SubmissionUploadedDocument, Content: data}, nil
	}
	return model.Submission{Kind: model.SubmissionText, Content: data}, nil
}

// FromURL fetches a remote document and classifies it by content. Only
// http and https URLs are accepted.
func (i *Ingestor) FromURL(ctx context.Context, rawURL string) (model.Submission, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.Submission{}, fault.Wrap(err, fault.KindInput, "document URL is not valid")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return model.Submission{}, fault.New(fault.KindInput,
			"document URL must use http or https, got %q", u.Scheme)
	}

	data, err := i.fetch(ctx, rawURL)
	if err != nil {
		return model.Submission{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Submission{}, fault.New(fault.KindUpstream, "document source returned an empty body")
	}

	kind := model.SubmissionText
	if IsPDF(data) {
		kind = model.SubmissionRemoteDocument
	}
	return model.Submission{Kind: kind, Content: data, SourceURI: rawURL}, nil
}

// fetch downloads the URL with rate limiting and retry on transient
// status codes. The body is capped at MaxDocumentBytes.
func (i *Ingestor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fault.Wrap(err, fault.KindInput, "document URL is not valid")
	}
	req.Header.Set("User-Agent", i.opts.UserAgent)

	var lastErr error
	for attempt := range i.opts.MaxRetries {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, fault.Wrap(err, fault.KindUpstream, "document fetch canceled")
		}

		resp, err := i.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("document fetch failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			i.backoff(ctx, attempt)
			continue
		}

		if fault.IsTransientHTTPStatus(resp.StatusCode) {
			_ = resp.Body.Close()
			lastErr = fault.New(fault.KindUpstream,
				"document source returned status %d", resp.StatusCode)
			zap.L().Warn("document source returned transient status, retrying",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			i.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close()
			return nil, fault.New(fault.KindUpstream,
				"document source returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, i.opts.MaxDocumentBytes+1))
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			i.backoff(ctx, attempt)
			continue
		}
		if int64(len(data)) > i.opts.MaxDocumentBytes {
			return nil, fault.New(fault.KindInput,
				"document exceeds the %d byte limit", i.opts.MaxDocumentBytes)
		}
		return data, nil
	}

	return nil, fault.Wrap(lastErr, fault.KindUpstream, "document source unreachable")
}

func (i *Ingestor) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 15 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
