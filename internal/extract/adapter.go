// Package extract turns intake submissions into candidate booking records
// by prompting the extraction backend with a fixed instruction and the
// 24-field target shape. Inline text goes through a direct message call;
// uploaded documents can be routed through the Batch API with bounded
// polling so a slow backend never wedges the caller.
package extract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
	"github.com/mediaops/intake-cli/pkg/anthropic"
)

const (
	defaultModel       = "claude-haiku-4-5-20251001"
	defaultMaxTokens   = 2048
	defaultTemperature = 0.1
	defaultPollTimeout = 10 * time.Minute
)

// Adapter produces a candidate record from a submission.
type Adapter interface {
	Extract(ctx context.Context, sub model.Submission) (model.CandidateRecord, error)
}

// Config tunes the Anthropic-backed adapter.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature float64

	// UseBatch routes uploaded-document extraction through the Batch API.
	UseBatch bool
	// PollTimeout bounds how long a batch extraction may stay in flight.
	PollTimeout time.Duration

	Retry fault.RetryConfig
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	return c
}

// Anthropic implements Adapter on the messages API.
type Anthropic struct {
	client anthropic.Client
	cfg    Config
	log    *zap.Logger
}

// NewAnthropic creates an adapter with config defaults applied.
func NewAnthropic(client anthropic.Client, cfg Config) *Anthropic {
	return &Anthropic{
		client: client,
		cfg:    cfg.withDefaults(),
		log:    zap.L().Named("extract"),
	}
}

// Extract runs one extraction round trip and parses the answer. Transport
// failures surface as upstream faults after retries; an answer that is not
// the target JSON shape is a parse fault.
func (a *Anthropic) Extract(ctx context.Context, sub model.Submission) (model.CandidateRecord, error) {
	req, err := a.buildRequest(sub)
	if err != nil {
		return nil, err
	}

	var resp *anthropic.MessageResponse
	if sub.Kind == model.SubmissionUploadedDocument && a.cfg.UseBatch {
		resp, err = a.extractViaBatch(ctx, req)
	} else {
		resp, err = a.extractDirect(ctx, req)
	}
	if err != nil {
		if fault.KindOf(err) != "" {
			return nil, err
		}
		return nil, fault.Wrap(err, fault.KindUpstream, "extraction backend request failed")
	}

	resp.Usage.LogCost(a.cfg.Model, "extract")
	return parseAnswer(extractText(resp))
}

// WarmCache sends one primer request so a bulk run reads the cached
// system prefix instead of re-uploading it for every submission.
func (a *Anthropic) WarmCache(ctx context.Context) error {
	temp := a.cfg.Temperature
	_, err := anthropic.PrimerRequest(ctx, a.client, anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   16,
		System:      anthropic.BuildCachedSystemBlocks(systemInstruction),
		Temperature: &temp,
		Messages:    []anthropic.Message{{Role: "user", Content: "ready"}},
	})
	if err != nil {
		return fault.Wrap(err, fault.KindUpstream, "prompt cache warm-up failed")
	}
	a.log.Debug("prompt cache warmed", zap.String("model", a.cfg.Model))
	return nil
}

func (a *Anthropic) buildRequest(sub model.Submission) (anthropic.MessageRequest, error) {
	temp := a.cfg.Temperature
	req := anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemInstruction),
		Temperature: &temp,
	}

	switch sub.Kind {
	case model.SubmissionText:
		if len(sub.Content) == 0 {
			return req, fault.New(fault.KindInput, "text input is required")
		}
		req.Messages = []anthropic.Message{
			{Role: "user", Content: textPrompt(string(sub.Content))},
		}
	case model.SubmissionRemoteDocument, model.SubmissionUploadedDocument:
		if len(sub.Content) == 0 {
			return req, fault.New(fault.KindInput, "document payload is empty")
		}
		req.Messages = []anthropic.Message{
			{Role: "user", Content: documentPrompt(), Document: sub.Content},
		}
	default:
		return req, fault.New(fault.KindInput, "unknown submission kind %q", sub.Kind)
	}

	return req, nil
}

func (a *Anthropic) extractDirect(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	cfg := a.cfg.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = fault.RetryLogger("anthropic", "extract")
	}
	return fault.RetryVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, req)
	})
}

// extractViaBatch submits a single-item batch and polls it to completion.
// The poll deadline comes from PollTimeout unless the caller's context is
// tighter.
func (a *Anthropic) extractViaBatch(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	customID := "doc-" + uuid.NewString()

	batch, err := a.client.CreateBatch(ctx, anthropic.BatchRequest{
		Requests: []anthropic.BatchRequestItem{{CustomID: customID, Params: req}},
	})
	if err != nil {
		return nil, fault.Wrap(err, fault.KindUpstream, "document processing could not be started")
	}

	a.log.Info("document batch submitted",
		zap.String("batch_id", batch.ID),
		zap.String("custom_id", customID),
	)

	if _, err := anthropic.PollBatch(ctx, a.client, batch.ID,
		anthropic.WithPollTimeout(a.cfg.PollTimeout),
	); err != nil {
		return nil, fault.Wrap(err, fault.KindUpstream, "document processing did not complete")
	}

	iter, err := a.client.GetBatchResults(ctx, batch.ID)
	if err != nil {
		return nil, fault.Wrap(err, fault.KindUpstream, "document processing results unavailable")
	}

	results, err := anthropic.CollectBatchResults(iter)
	if err != nil {
		return nil, fault.Wrap(err, fault.KindUpstream, "document processing results unavailable")
	}

	resp, ok := results[customID]
	if !ok {
		return nil, fault.New(fault.KindUpstream, "document processing failed")
	}
	return resp, nil
}
