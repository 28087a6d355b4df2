package extract

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/inbox-ledger/internal/domain"
	"github.com/dvloznov/inbox-ledger/internal/mail"
)

// DefaultBudget is the per-run cap on model calls.
const DefaultBudget = 50

// TransactionStore persists extracted transactions. The returned copy
// carries the id assigned by the store.
type TransactionStore interface {
	Save(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
}

// skipReason says why a message produced no record. Per-message faults are
// converted into one of these at the point of occurrence and never unwind
// past the message they belong to.
type skipReason string

const (
	skipNone        skipReason = ""
	skipFetchFailed skipReason = "fetch_failed"
	skipNoDate      skipReason = "date_unparseable"
	skipWrongMonth  skipReason = "outside_current_month"
	skipNoKeyword   skipReason = "no_keyword"
	skipNoVerdict   skipReason = "no_verdict"
	skipSaveFailed  skipReason = "save_failed"
)

// RunReport summarizes one extraction run.
type RunReport struct {
	Listed    int // messages returned by the mailbox listing
	Examined  int // messages actually looked at before the run ended
	CallsUsed int // model calls consumed
	Saved     int // records persisted
}

// String renders the user-facing summary of the run.
func (r *RunReport) String() string {
	return fmt.Sprintf("%d transactions extracted and saved.", r.Saved)
}

// Extractor drives one sequential pass over the mailbox: list, then per
// message fetch → date gate → keyword filter → classify → persist. Runs are
// fully synchronous; the only state carried across messages is the call and
// save counters local to the run.
type Extractor struct {
	mail       mail.Service
	store      TransactionStore
	classifier Classifier
	budget     int
	now        func() time.Time
	log        zerolog.Logger
}

// NewExtractor wires an extractor. A non-positive budget falls back to
// DefaultBudget.
func NewExtractor(mailSvc mail.Service, store TransactionStore, classifier Classifier, budget int, log zerolog.Logger) *Extractor {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Extractor{
		mail:       mailSvc,
		store:      store,
		classifier: classifier,
		budget:     budget,
		now:        time.Now,
		log:        log,
	}
}

// Run executes one extraction pass. Only a mailbox listing failure is fatal;
// every per-message fault is logged and skipped. The run ends when the
// message list or the model call budget is exhausted.
func (e *Extractor) Run(ctx context.Context) (*RunReport, error) {
	refs, err := e.mail.ListRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: listing mailbox: %w", err)
	}

	report := &RunReport{Listed: len(refs)}
	current := civil.DateOf(e.now())

	for _, ref := range refs {
		if report.CallsUsed >= e.budget {
			e.log.Info().
				Int("calls_used", report.CallsUsed).
				Int("unexamined", report.Listed-report.Examined).
				Msg("Model call budget exhausted, stopping run")
			break
		}

		report.Examined++
		if reason := e.processMessage(ctx, ref, current, report); reason != skipNone {
			e.log.Debug().Str("message_id", ref.ID).Str("reason", string(reason)).Msg("Message skipped")
		}
	}

	e.log.Info().
		Int("listed", report.Listed).
		Int("examined", report.Examined).
		Int("calls_used", report.CallsUsed).
		Int("saved", report.Saved).
		Msg("Extraction run finished")

	return report, nil
}

// processMessage handles a single message and returns why it produced no
// record, or skipNone when a record was saved.
func (e *Extractor) processMessage(ctx context.Context, ref mail.Ref, current civil.Date, report *RunReport) skipReason {
	msg, err := e.mail.Get(ctx, ref.ID)
	if err != nil {
		e.log.Error().Err(err).Str("message_id", ref.ID).Msg("Failed to fetch message")
		return skipFetchFailed
	}

	date, ok := ParseMailDate(msg.DateHeader)
	if !ok {
		return skipNoDate
	}
	if date.Year != current.Year || date.Month != current.Month {
		return skipWrongMonth
	}

	if !ContainsTransactionKeyword(msg.Subject) && !ContainsTransactionKeyword(msg.Body) {
		return skipNoKeyword
	}

	report.CallsUsed++
	tx := e.classifier.Classify(ctx, msg)
	if tx == nil {
		return skipNoVerdict
	}

	tx.Date = date
	saved, err := e.store.Save(ctx, tx)
	if err != nil {
		e.log.Error().Err(err).Str("message_id", ref.ID).Msg("Failed to persist transaction")
		return skipSaveFailed
	}

	report.Saved++
	e.log.Info().
		Str("message_id", ref.ID).
		Str("transaction_id", saved.ID).
		Float64("amount", saved.Amount).
		Str("type", string(saved.Type)).
		Msg("Transaction saved")
	return skipNone
}
