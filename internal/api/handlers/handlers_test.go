package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/inbox-ledger/internal/domain"
	"github.com/dvloznov/inbox-ledger/internal/extract"
	"github.com/dvloznov/inbox-ledger/internal/mail"
	"github.com/dvloznov/inbox-ledger/internal/runlog"
)

type fakeMail struct {
	refs     []mail.Ref
	digests  map[string]*mail.Digest
	listErr  error
	fetchErr map[string]error
}

func (f *fakeMail) ListRecent(ctx context.Context) ([]mail.Ref, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.refs, nil
}

func (f *fakeMail) Get(ctx context.Context, id string) (*mail.Digest, error) {
	if err := f.fetchErr[id]; err != nil {
		return nil, err
	}
	if d, ok := f.digests[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("no such message: %s", id)
}

type fakeRunner struct {
	report *extract.RunReport
	err    error
}

func (f *fakeRunner) Run(ctx context.Context) (*extract.RunReport, error) {
	return f.report, f.err
}

type fakeLister struct {
	txs []*domain.Transaction
	err error
}

func (f *fakeLister) ListByMonth(ctx context.Context, year int, month time.Month) ([]*domain.Transaction, error) {
	return f.txs, f.err
}

func TestListMessageIDs(t *testing.T) {
	h := NewMessagesHandler(&fakeMail{refs: []mail.Ref{{ID: "a"}, {ID: "b"}}}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ListMessageIDs(rec, httptest.NewRequest("GET", "/api/messages", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Messages []string `json:"messages"`
		Count    int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 2 || len(body.Messages) != 2 {
		t.Errorf("body = %+v, want 2 message ids", body)
	}
}

func TestListMessageIDs_ListFailure(t *testing.T) {
	h := NewMessagesHandler(&fakeMail{listErr: errors.New("mailbox down")}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ListMessageIDs(rec, httptest.NewRequest("GET", "/api/messages", nil))

	if rec.Code != 502 {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestListMessageInfos_PerItemFallback(t *testing.T) {
	m := &fakeMail{
		refs: []mail.Ref{{ID: "ok"}, {ID: "bad"}},
		digests: map[string]*mail.Digest{
			"ok": {ID: "ok", Subject: "Payment alert", From: "bank@example.com", Snippet: "INR 250.50..."},
		},
		fetchErr: map[string]error{"bad": errors.New("fetch exploded")},
	}
	h := NewMessagesHandler(m, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ListMessageInfos(rec, httptest.NewRequest("GET", "/api/messages/info", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200 despite one failed fetch", rec.Code)
	}
	var body struct {
		Messages []map[string]string `json:"messages"`
		Count    int                 `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2 (failed entry included as fallback)", body.Count)
	}
	if body.Messages[0]["subject"] != "Payment alert" {
		t.Errorf("first entry = %v, want full info", body.Messages[0])
	}
	if body.Messages[1]["error"] != "Failed to fetch details" {
		t.Errorf("second entry = %v, want fallback error entry", body.Messages[1])
	}
}

func TestTriggerExtraction(t *testing.T) {
	runs := runlog.NewMemoryStore()
	h := NewExtractHandler(&fakeRunner{report: &extract.RunReport{Listed: 10, CallsUsed: 4, Saved: 3}}, runs, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.TriggerExtraction(rec, httptest.NewRequest("POST", "/api/extract", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "3 transactions extracted and saved." {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}

	recorded, err := runs.ListRuns(context.Background(), runlog.Filter{})
	if err != nil || len(recorded) != 1 {
		t.Fatalf("run history = %v (%v), want one run", recorded, err)
	}
	run := recorded[0]
	if run.Status != runlog.StatusCompleted || run.Saved != 3 || run.CallsUsed != 4 {
		t.Errorf("recorded run = %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("recorded run has no finish time")
	}
}

func TestTriggerExtraction_FatalFailure(t *testing.T) {
	runs := runlog.NewMemoryStore()
	h := NewExtractHandler(&fakeRunner{err: errors.New("mailbox listing failed")}, runs, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.TriggerExtraction(rec, httptest.NewRequest("POST", "/api/extract", nil))

	if rec.Code != 502 {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	recorded, _ := runs.ListRuns(context.Background(), runlog.Filter{Status: runlog.StatusFailed})
	if len(recorded) != 1 {
		t.Fatalf("failed run history = %v, want one failed run", recorded)
	}
	if recorded[0].Error == "" {
		t.Error("failed run carries no error detail")
	}
}

func TestListTransactions_BadParams(t *testing.T) {
	h := NewTransactionsHandler(&fakeLister{}, zerolog.Nop())

	for _, target := range []string{
		"/api/transactions?year=twenty",
		"/api/transactions?month=13",
		"/api/transactions?month=zero",
	} {
		rec := httptest.NewRecorder()
		h.ListTransactions(rec, httptest.NewRequest("GET", target, nil))
		if rec.Code != 400 {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestListTransactions(t *testing.T) {
	h := NewTransactionsHandler(&fakeLister{txs: []*domain.Transaction{
		{ID: "tx-1", Amount: 250.5, Type: domain.TxTypeDebit},
	}}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ListTransactions(rec, httptest.NewRequest("GET", "/api/transactions?year=2025&month=6", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	h := NewRunsHandler(runlog.NewMemoryStore(), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.GetRun(rec, httptest.NewRequest("GET", "/api/runs/nope", nil), "nope")

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
