package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/cache"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/pricing"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/providers/llm"
)

// FallbackText is shown whenever the text-generation call fails. Calculation
// state is never affected by an analysis failure.
const FallbackText = "AI analysis is unavailable right now. Compare the trade prices and GST amounts in the table to judge margin impact."

const cacheTTL = 10 * time.Minute

const promptTemplate = `You are a pharma pricing analyst. An MRP revision is being evaluated.

Original amount entered: %.2f (%s mode)

Under the 12%% GST rule (%.2f%% reduction): new MRP %.2f, trade price %.2f, CGST %.2f.
Under the 18%% GST rule (%.2f%% reduction): new MRP %.2f, trade price %.2f, CGST %.2f.

Write a professional comparison of the two scenarios for a pharmacy owner in at most 80 words.`

// Client formats a calculation snapshot into a prompt and relays it to the
// text-generation provider. Responses are cached briefly so repeated requests
// for the same inputs do not hit the network.
type Client struct {
	provider llm.Provider
	cache    cache.Cache
	log      *logrus.Entry
}

// New builds a client. cache may be nil (no caching); provider may be nil
// when no credential is configured, in which case every request returns the
// fallback text.
func New(provider llm.Provider, c cache.Cache, log *logrus.Entry) *Client {
	return &Client{provider: provider, cache: c, log: log}
}

// Enabled reports whether a provider is configured.
func (c *Client) Enabled() bool { return c != nil && c.provider != nil }

// BuildPrompt renders the fixed analysis template for a snapshot.
func BuildPrompt(snap pricing.Snapshot, originalAmount float64, mode pricing.Mode) string {
	q12, q18 := snap.Quote12, snap.Quote18
	return fmt.Sprintf(promptTemplate,
		originalAmount, mode,
		q12.Rule.ReductionPercent, q12.NewMRP, q12.FinalTradePrice, q12.GSTAmount,
		q18.Rule.ReductionPercent, q18.NewMRP, q18.FinalTradePrice, q18.GSTAmount,
	)
}

// RequestAnalysis returns the provider's commentary for a snapshot, or the
// fixed fallback string when the provider is missing or fails. The call is
// network-bound; callers run it off the mutation path.
func (c *Client) RequestAnalysis(ctx context.Context, snap pricing.Snapshot, originalAmount float64, mode pricing.Mode) string {
	if !c.Enabled() {
		return FallbackText
	}

	key := fmt.Sprintf("analysis:%s:%.4f", mode, originalAmount)
	if c.cache != nil {
		var cached string
		if hit, err := c.cache.GetJSON(ctx, key, &cached); err == nil && hit && cached != "" {
			return cached
		}
	}

	text, err := c.provider.GenerateText(ctx, BuildPrompt(snap, originalAmount, mode))
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).Warn("analysis request failed")
		}
		return FallbackText
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, text, cacheTTL); err != nil && c.log != nil {
			c.log.WithError(err).Debug("analysis cache write failed")
		}
	}
	return text
}
