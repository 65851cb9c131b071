package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/apirelay/internal/config"
	"github.com/samvad-hq/apirelay/internal/journal"
	"github.com/samvad-hq/apirelay/pkg/relay"
)

// Runner dispatches a request set through one relay client, waits for every
// continuation, and journals the outcomes. It is the batch-mode coordinator
// behind cmd/apirelay.
type Runner struct {
	cfg     *config.Config
	set     *RequestSet
	client  *relay.Client
	journal journal.Journal
	log     relay.Logger
}

// NewRunner builds a runner from config: request set, journal, and client.
func NewRunner(cfg *config.Config, log relay.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = relay.NopLogger{}
	}

	set, err := LoadRequestSet(cfg.RequestsFile)
	if err != nil {
		return nil, fmt.Errorf("load request set: %w", err)
	}

	jrn, err := journal.New(cfg.JournalType, cfg.JournalPath, journal.Options{
		EntryTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}

	opts := []relay.Option{
		relay.WithTimeout(cfg.RequestTimeout),
		relay.WithDefaultHeaders(set.Headers),
		relay.WithLogger(log),
	}
	if cfg.MaxRequestsPerSecond > 0 {
		opts = append(opts, relay.WithRateLimit(cfg.MaxRequestsPerSecond, cfg.RateBurst))
	}

	client, err := relay.New(cfg.BaseURL, opts...)
	if err != nil {
		jrn.Close()
		return nil, fmt.Errorf("init client: %w", err)
	}

	return &Runner{
		cfg:     cfg,
		set:     set,
		client:  client,
		journal: jrn,
		log:     log,
	}, nil
}

type result struct {
	idx  int
	resp *relay.Response
	err  error
}

// Run issues every request in the set, waits for all outcomes, and records
// them in the journal. Context cancellation and the configured cutoff both
// abort whatever is still in flight; aborted requests resolve as cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("runner is not initialized")
	}

	total := len(r.set.Requests)
	r.log.InfoObj("request run starting", "run_meta", map[string]any{
		"base_url":     r.client.BaseURL(),
		"requests":     total,
		"cancel_after": r.cfg.CancelAfter.String(),
	})

	stopWatch := context.AfterFunc(ctx, r.client.CancelAllRequests)
	defer stopWatch()

	var cutoff *time.Timer
	if r.cfg.CancelAfter > 0 {
		cutoff = time.AfterFunc(r.cfg.CancelAfter, r.client.CancelAllRequests)
		defer cutoff.Stop()
	}

	results := make(chan result, total)
	handles := make([]relay.Handle, total)
	issuedAt := make([]time.Time, total)

	for i, req := range r.set.Requests {
		cont := func(idx int) relay.Continuation {
			return func(resp *relay.Response, err error) {
				results <- result{idx: idx, resp: resp, err: err}
			}
		}(i)

		issuedAt[i] = time.Now()
		switch req.Method {
		case http.MethodPost:
			handles[i] = r.client.Post(req.Endpoint, req.Body, cont)
		default:
			handles[i] = r.client.Get(req.Endpoint, cont)
		}
	}

	var succeeded, failed, cancelled int
	var journalErrs []error
	for done := 0; done < total; done++ {
		res := <-results
		entry := r.buildEntry(res, handles[res.idx], issuedAt[res.idx])
		switch {
		case res.err == nil:
			succeeded++
		case errors.Is(res.err, relay.ErrCancelled):
			cancelled++
		default:
			failed++
		}
		if err := r.journal.Record(entry); err != nil {
			journalErrs = append(journalErrs, fmt.Errorf("journal %s %s: %w", entry.Method, entry.Endpoint, err))
		}
	}

	r.log.InfoObj("request run completed", "run_summary", map[string]any{
		"total":     total,
		"succeeded": succeeded,
		"failed":    failed,
		"cancelled": cancelled,
	})
	return errors.Join(journalErrs...)
}

func (r *Runner) buildEntry(res result, handle relay.Handle, issued time.Time) journal.Entry {
	req := r.set.Requests[res.idx]
	entry := journal.Entry{
		Handle:   string(handle),
		Method:   req.Method,
		Endpoint: req.Endpoint,
		At:       time.Now(),
	}
	if res.err != nil {
		entry.Error = res.err.Error()
		entry.DurationMs = time.Since(issued).Milliseconds()
		return entry
	}
	entry.StatusCode = res.resp.StatusCode
	entry.DurationMs = res.resp.Duration.Milliseconds()
	return entry
}

// Close releases the client and the journal.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.client != nil {
		if err := r.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close client: %w", err))
		}
	}
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	return errors.Join(errs...)
}
