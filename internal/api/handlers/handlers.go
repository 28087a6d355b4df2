package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/inbox-ledger/internal/api/middleware"
	"github.com/dvloznov/inbox-ledger/internal/domain"
	"github.com/dvloznov/inbox-ledger/internal/extract"
	"github.com/dvloznov/inbox-ledger/internal/mail"
	"github.com/dvloznov/inbox-ledger/internal/runlog"
)

// ExtractionRunner runs one extraction pass over the mailbox.
type ExtractionRunner interface {
	Run(ctx context.Context) (*extract.RunReport, error)
}

// TransactionLister reads saved transactions for the read endpoints.
type TransactionLister interface {
	ListByMonth(ctx context.Context, year int, month time.Month) ([]*domain.Transaction, error)
}

// MessagesHandler exposes mailbox listings.
type MessagesHandler struct {
	mail mail.Service
	log  zerolog.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(mailSvc mail.Service, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{mail: mailSvc, log: log}
}

// ListMessageIDs handles GET /api/messages
func (h *MessagesHandler) ListMessageIDs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refs, err := h.mail.ListRecent(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list messages")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to list messages")
		return
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": ids,
		"count":    len(ids),
	})
}

// ListMessageInfos handles GET /api/messages/info. A fetch failure for one
// message yields a fallback entry for that message only; the rest of the
// listing is unaffected.
func (h *MessagesHandler) ListMessageInfos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refs, err := h.mail.ListRecent(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list messages")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to list messages")
		return
	}

	infos := make([]map[string]string, 0, len(refs))
	for _, ref := range refs {
		msg, err := h.mail.Get(ctx, ref.ID)
		if err != nil {
			h.log.Error().Err(err).Str("message_id", ref.ID).Msg("Failed to fetch message details")
			infos = append(infos, map[string]string{
				"id":    ref.ID,
				"error": "Failed to fetch details",
			})
			continue
		}
		infos = append(infos, map[string]string{
			"id":      msg.ID,
			"subject": msg.Subject,
			"from":    msg.From,
			"snippet": msg.Snippet,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": infos,
		"count":    len(infos),
	})
}

// ExtractHandler triggers extraction runs.
type ExtractHandler struct {
	runner ExtractionRunner
	runs   runlog.Store
	log    zerolog.Logger
}

// NewExtractHandler creates a new extraction handler.
func NewExtractHandler(runner ExtractionRunner, runs runlog.Store, log zerolog.Logger) *ExtractHandler {
	return &ExtractHandler{runner: runner, runs: runs, log: log}
}

// TriggerExtraction handles POST /api/extract. The run executes synchronously
// and the request blocks for its full duration; the response carries only the
// final count, partial failures are visible in logs and run history only.
func (h *ExtractHandler) TriggerExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run := &runlog.Run{
		RunID:     uuid.NewString(),
		Status:    runlog.StatusRunning,
		StartedAt: time.Now(),
	}
	if err := h.runs.SaveRun(ctx, run); err != nil {
		h.log.Warn().Err(err).Msg("Failed to record run start")
	}

	report, err := h.runner.Run(ctx)

	finished := time.Now()
	run.FinishedAt = &finished
	if err != nil {
		run.Status = runlog.StatusFailed
		run.Error = err.Error()
		if saveErr := h.runs.SaveRun(ctx, run); saveErr != nil {
			h.log.Warn().Err(saveErr).Msg("Failed to record run failure")
		}
		h.log.Error().Err(err).Str("run_id", run.RunID).Msg("Extraction run failed")
		middleware.WriteError(w, http.StatusBadGateway, "Extraction failed")
		return
	}

	run.Status = runlog.StatusCompleted
	run.Listed = report.Listed
	run.CallsUsed = report.CallsUsed
	run.Saved = report.Saved
	if err := h.runs.SaveRun(ctx, run); err != nil {
		h.log.Warn().Err(err).Msg("Failed to record run completion")
	}

	middleware.WriteText(w, http.StatusOK, report.String())
}

// TransactionsHandler exposes saved transactions.
type TransactionsHandler struct {
	store TransactionLister
	now   func() time.Time
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store TransactionLister, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, now: time.Now, log: log}
}

// ListTransactions handles GET /api/transactions?year=YYYY&month=M,
// defaulting to the current month.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	now := h.now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "year must be an integer")
			return
		}
		year = v
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			middleware.WriteError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		month = time.Month(v)
	}

	txs, err := h.store.ListByMonth(ctx, year, month)
	if err != nil {
		h.log.Error().Err(err).Int("year", year).Int("month", int(month)).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// RunsHandler exposes extraction run history.
type RunsHandler struct {
	runs runlog.Store
	log  zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(runs runlog.Store, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{runs: runs, log: log}
}

// ListRuns handles GET /api/runs?status=&limit=
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := runlog.Filter{
		Status: runlog.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = v
	}

	runs, err := h.runs.ListRuns(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/runs/:runId
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := h.runs.GetRun(r.Context(), runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, run)
}
