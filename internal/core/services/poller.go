package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
	"github.com/custodia-labs/sercha-code/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-code/internal/logger"
)

// AnalysisPoller queries the remote analysis until it reaches a terminal state.
type AnalysisPoller struct {
	analysis        driven.AnalysisService
	initialInterval time.Duration
	maxInterval     time.Duration
	timeout         time.Duration
}

// NewAnalysisPoller creates a new poller.
func NewAnalysisPoller(analysis driven.AnalysisService, settings domain.PollSettings) *AnalysisPoller {
	p := &AnalysisPoller{
		analysis:        analysis,
		initialInterval: settings.InitialInterval,
		maxInterval:     settings.MaxInterval,
		timeout:         settings.Timeout,
	}
	if p.initialInterval <= 0 {
		p.initialInterval = domain.DefaultInitialInterval
	}
	if p.maxInterval < p.initialInterval {
		p.maxInterval = p.initialInterval
	}
	return p
}

// Await polls until the analysis of bundleID completes or fails.
//
// Every pending or complete result reports its progress; reported values
// never decrease. A failed analysis is returned as a result with a nil
// error. Exceeding maxAttempts or the poll timeout returns an error wrapping
// domain.ErrAnalysisTimeout. Cancellation is observed between attempts; a
// request in flight is always allowed to finish.
func (p *AnalysisPoller) Await(
	ctx context.Context,
	bundleID string,
	onProgress func(percent int),
	maxAttempts int,
) (*domain.AnalysisResult, error) {
	if maxAttempts < 1 {
		maxAttempts = domain.DefaultMaxAttempts
	}

	var deadline time.Time
	if p.timeout > 0 {
		deadline = time.Now().Add(p.timeout)
	}

	interval := &backoff.ExponentialBackOff{
		InitialInterval:     p.initialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         p.maxInterval,
	}
	interval.Reset()

	requestCtx := context.WithoutCancel(ctx)
	lastPercent := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.analysis.GetAnalysis(requestCtx, bundleID)
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			logger.Debug("Analysis poll %d for bundle %s rate limited", attempt, bundleID)
		case err != nil:
			return nil, fmt.Errorf("get analysis: %w", err)
		case result == nil:
			return nil, &domain.ProtocolError{
				Op:   "get analysis",
				Code: domain.CodeInvalidResponse,
				Err:  errors.New("empty analysis result"),
			}
		default:
			if result.Status != domain.AnalysisFailed {
				if percent := result.Percent(); percent > lastPercent {
					lastPercent = percent
				}
				report(onProgress, lastPercent)
			}
			switch result.Status {
			case domain.AnalysisComplete:
				return result, nil
			case domain.AnalysisFailed:
				logger.Warn("Analysis of bundle %s failed", bundleID)
				return result, nil
			}
			logger.Debug("Analysis of bundle %s pending (%d%%), attempt %d", bundleID, lastPercent, attempt)
		}

		if attempt == maxAttempts {
			break
		}

		wait := interval.NextBackOff()
		if !deadline.IsZero() && time.Now().Add(wait).After(deadline) {
			return nil, fmt.Errorf("bundle %s: %w after %s", bundleID, domain.ErrAnalysisTimeout, p.timeout)
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("bundle %s: %w after %d attempts", bundleID, domain.ErrAnalysisTimeout, maxAttempts)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
