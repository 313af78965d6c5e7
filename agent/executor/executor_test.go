package executor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/pricewatch/pricewatch/agent/contract"
	pricingx "github.com/pricewatch/pricewatch/agent/pricing"
	storex "github.com/pricewatch/pricewatch/agent/store"
)

var execNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	competitors map[string]*storex.Competitor
	products    map[string]*storex.Product

	created     []*storex.Competitor
	updated     []*storex.Competitor
	deleted     []string
	notes       []*storex.CompetitorNote
	prices      map[string]float64
	history     []*storex.CompetitorPriceHistory
	historyErr  error
	priceCalled int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		competitors: map[string]*storex.Competitor{
			"comp-1": {ID: "comp-1", Name: "Acme Sports"},
		},
		products: map[string]*storex.Product{
			"prod-1": {ID: "prod-1", Name: "Trail Runner", Price: 120},
			"prod-2": {ID: "prod-2", Name: "Road Racer", Price: 95},
		},
		prices: make(map[string]float64),
	}
}

func (f *fakeStore) Competitor(_ context.Context, id string) (*storex.Competitor, error) {
	if c, ok := f.competitors[id]; ok {
		return c, nil
	}
	return nil, storex.ErrNotFound
}

func (f *fakeStore) Competitors(context.Context) ([]storex.Competitor, error) { return nil, nil }

func (f *fakeStore) CreateCompetitor(_ context.Context, c *storex.Competitor) error {
	f.created = append(f.created, c)
	return nil
}

func (f *fakeStore) UpdateCompetitor(_ context.Context, c *storex.Competitor) error {
	if _, ok := f.competitors[c.ID]; !ok {
		return storex.ErrNotFound
	}
	f.updated = append(f.updated, c)
	return nil
}

func (f *fakeStore) DeleteCompetitor(_ context.Context, id string) error {
	if _, ok := f.competitors[id]; !ok {
		return storex.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) NotesForCompetitor(context.Context, string) ([]storex.CompetitorNote, error) {
	return nil, nil
}

func (f *fakeStore) AddNote(_ context.Context, note *storex.CompetitorNote) error {
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeStore) Product(_ context.Context, id string) (*storex.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, storex.ErrNotFound
}

func (f *fakeStore) Products(context.Context, []string) ([]storex.Product, error) { return nil, nil }

func (f *fakeStore) UpdateProductPrice(_ context.Context, id string, price float64, _ time.Time) error {
	f.priceCalled++
	if _, ok := f.products[id]; !ok {
		return storex.ErrNotFound
	}
	f.prices[id] = price
	return nil
}

func (f *fakeStore) Comparisons(context.Context, storex.ComparisonFilter) ([]pricingx.Comparison, error) {
	return nil, nil
}

func (f *fakeStore) TrendPoints(context.Context, storex.TrendFilter) ([]pricingx.TrendPoint, error) {
	return nil, nil
}

func (f *fakeStore) RecordPriceHistory(_ context.Context, entry *storex.CompetitorPriceHistory) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	f.history = append(f.history, entry)
	return nil
}

type fakeMailer struct {
	sent []contractx.EmailPayload
	err  error
}

func (f *fakeMailer) Send(_ context.Context, payload contractx.EmailPayload) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, payload)
	return nil
}

func testExecutor(st *fakeStore, mail contractx.EmailTransport) *Executor {
	e := New(st, mail)
	e.now = func() time.Time { return execNow }
	return e
}

func mustProposal(t *testing.T, action contractx.Action, payload any) contractx.Proposal {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	proposal := contractx.Proposal{
		ID:               "prop-1",
		Action:           action,
		Data:             data,
		RequiresApproval: true,
	}
	proposal.Preview, err = RenderPreview(proposal)
	if err != nil {
		t.Fatalf("RenderPreview() error = %v", err)
	}
	return proposal
}

func approved() contractx.ApprovalDecision {
	return contractx.ApprovalDecision{Approved: true}
}

func TestExecuteRefusesUnapprovedDecision(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	e := testExecutor(st, nil)

	proposal := mustProposal(t, contractx.ActionDeleteCompetitor, contractx.DeleteCompetitorData{
		CompetitorID: "comp-1",
		Name:         "Acme Sports",
	})
	out := e.Execute(context.Background(), proposal, contractx.ApprovalDecision{Approved: false, Reason: "too risky"})
	if out.Success {
		t.Fatal("expected refusal")
	}
	if len(st.deleted) != 0 {
		t.Fatalf("store was mutated despite rejection: %v", st.deleted)
	}
}

func TestExecuteRefusesEmptyPayload(t *testing.T) {
	t.Parallel()

	e := testExecutor(newFakeStore(), nil)
	out := e.Execute(context.Background(), contractx.Proposal{Action: contractx.ActionCreateCompetitor}, approved())
	if out.Success {
		t.Fatal("expected failure for empty payload")
	}
}

func TestCreateCompetitorAppliesVerbatimPayload(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	e := testExecutor(st, nil)

	proposal := mustProposal(t, contractx.ActionCreateCompetitor, contractx.CreateCompetitorData{
		Name:       "Zoom Gear",
		WebsiteURL: "https://zoomgear.example",
		Category:   "footwear",
		Status:     "active",
	})
	out := e.Execute(context.Background(), proposal, approved())
	if !out.Success {
		t.Fatalf("Execute() error = %s", out.Error)
	}
	if len(st.created) != 1 {
		t.Fatalf("expected 1 create, got %d", len(st.created))
	}
	got := st.created[0]
	if got.Name != "Zoom Gear" || got.Category != "footwear" || got.Status != "active" {
		t.Fatalf("unexpected competitor: %+v", got)
	}
}

func TestUpdateCompetitorAppliesOnlyProvidedFields(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	e := testExecutor(st, nil)

	name := "Acme Outdoor"
	proposal := mustProposal(t, contractx.ActionUpdateCompetitor, contractx.UpdateCompetitorData{
		CompetitorID: "comp-1",
		Name:         &name,
	})
	out := e.Execute(context.Background(), proposal, approved())
	if !out.Success {
		t.Fatalf("Execute() error = %s", out.Error)
	}
	if len(st.updated) != 1 {
		t.Fatalf("expected 1 update, got %d", len(st.updated))
	}
	got := st.updated[0]
	if got.ID != "comp-1" || got.Name != "Acme Outdoor" {
		t.Fatalf("unexpected competitor: %+v", got)
	}
	if got.Category != "" || got.Status != "" {
		t.Fatalf("unset fields should stay zero: %+v", got)
	}
}

func TestUpdateCompetitorUnknownIDFails(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	e := testExecutor(st, nil)

	name := "whoever"
	proposal := mustProposal(t, contractx.ActionUpdateCompetitor, contractx.UpdateCompetitorData{
		CompetitorID: "missing",
		Name:         &name,
	})
	out := e.Execute(context.Background(), proposal, approved())
	if out.Success {
		t.Fatal("expected failure for unknown competitor")
	}
	if !strings.Contains(out.Error, "missing") {
		t.Fatalf("error should name the id: %q", out.Error)
	}
}

func TestAddCompetitorNoteStampsTime(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	e := testExecutor(st, nil)

	proposal := mustProposal(t, contractx.ActionAddCompetitorNote, contractx.AddCompetitorNoteData{
		CompetitorID: "comp-1",
		Note:         "Dropped prices on trail shoes.",
		AuthorID:     "admin-1",
	})
	out := e.Execute(context.Background(), proposal, approved())
	if !out.Success {
		t.Fatalf("Execute() error = %s", out.Error)
	}
	if len(st.notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(st.notes))
	}
	if !st.notes[0].CreatedAt.Equal(execNow) {
		t.Fatalf("CreatedAt = %v, want %v", st.notes[0].CreatedAt, execNow)
	}
}

func TestUpdateProductPricesAppliesAllAndRecordsHistory(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	e := testExecutor(st, nil)

	proposal := mustProposal(t, contractx.ActionUpdateProductPrices, contractx.UpdateProductPricesData{
		Updates: []contractx.PriceUpdate{
			{ProductID: "prod-1", NewPrice: 110, Reason: "match average"},
			{ProductID: "prod-2", NewPrice: 99, Reason: "match average"},
		},
		Strategy: "COMPETITIVE",
	})
	out := e.Execute(context.Background(), proposal, approved())
	if !out.Success {
		t.Fatalf("Execute() error = %s", out.Error)
	}
	if st.prices["prod-1"] != 110 || st.prices["prod-2"] != 99 {
		t.Fatalf("unexpected prices: %v", st.prices)
	}
	if len(st.history) != 2 {
		t.Fatalf("expected 2 history snapshots, got %d", len(st.history))
	}
	if !st.history[0].RecordedAt.Equal(execNow) {
		t.Fatalf("RecordedAt = %v, want %v", st.history[0].RecordedAt, execNow)
	}
}

func TestUpdateProductPricesSucceedsWhenHistorySnapshotFails(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	st.historyErr = errors.New("history table unavailable")
	e := testExecutor(st, nil)

	proposal := mustProposal(t, contractx.ActionUpdateProductPrices, contractx.UpdateProductPricesData{
		Updates: []contractx.PriceUpdate{{ProductID: "prod-1", NewPrice: 110}},
	})
	out := e.Execute(context.Background(), proposal, approved())
	if !out.Success {
		t.Fatalf("Execute() error = %s", out.Error)
	}
	if st.prices["prod-1"] != 110 {
		t.Fatalf("price not applied: %v", st.prices)
	}
}

func TestUpdateProductPricesStopsAtUnknownProduct(t *testing.T) {
	t.Parallel()

	st := newFakeStore()
	e := testExecutor(st, nil)

	proposal := mustProposal(t, contractx.ActionUpdateProductPrices, contractx.UpdateProductPricesData{
		Updates: []contractx.PriceUpdate{
			{ProductID: "prod-1", NewPrice: 110},
			{ProductID: "missing", NewPrice: 50},
		},
	})
	out := e.Execute(context.Background(), proposal, approved())
	if out.Success {
		t.Fatal("expected failure for unknown product")
	}
	// No rollback: the first update stays applied.
	if st.prices["prod-1"] != 110 {
		t.Fatalf("earlier update should remain applied: %v", st.prices)
	}
}

func TestSendEmailUsesTransport(t *testing.T) {
	t.Parallel()

	mail := &fakeMailer{}
	e := testExecutor(newFakeStore(), mail)

	proposal := mustProposal(t, contractx.ActionSendEmail, contractx.SendEmailData{
		To:       []string{"ops@example.com"},
		Subject:  "Weekly report",
		Body:     "Numbers attached.",
		Priority: "normal",
	})
	out := e.Execute(context.Background(), proposal, approved())
	if !out.Success {
		t.Fatalf("Execute() error = %s", out.Error)
	}
	if len(mail.sent) != 1 || mail.sent[0].Subject != "Weekly report" {
		t.Fatalf("unexpected sends: %+v", mail.sent)
	}
}

func TestSendEmailWithoutTransportFails(t *testing.T) {
	t.Parallel()

	e := testExecutor(newFakeStore(), nil)
	proposal := mustProposal(t, contractx.ActionSendEmail, contractx.SendEmailData{
		To: []string{"ops@example.com"}, Subject: "x", Body: "y", Priority: "normal",
	})
	if out := e.Execute(context.Background(), proposal, approved()); out.Success {
		t.Fatal("expected failure without a transport")
	}
}

func TestUnknownActionFails(t *testing.T) {
	t.Parallel()

	e := testExecutor(newFakeStore(), nil)
	out := e.Execute(context.Background(), contractx.Proposal{
		Action: contractx.Action("FORMAT_DISK"),
		Data:   json.RawMessage(`{}`),
	}, approved())
	if out.Success {
		t.Fatal("expected failure for unknown action")
	}
}

// The executor must be able to reproduce the exact preview a human
// approved from nothing but the payload bytes it received.
func TestPreviewRoundTripsThroughPayload(t *testing.T) {
	t.Parallel()

	name := "Acme Outdoor"
	proposals := []contractx.Proposal{
		mustProposal(t, contractx.ActionCreateCompetitor, contractx.CreateCompetitorData{Name: "Zoom Gear", Category: "footwear", Status: "active"}),
		mustProposal(t, contractx.ActionUpdateCompetitor, contractx.UpdateCompetitorData{CompetitorID: "comp-1", Name: &name}),
		mustProposal(t, contractx.ActionDeleteCompetitor, contractx.DeleteCompetitorData{CompetitorID: "comp-1", Name: "Acme Sports"}),
		mustProposal(t, contractx.ActionAddCompetitorNote, contractx.AddCompetitorNoteData{CompetitorID: "comp-1", Note: "short note"}),
		mustProposal(t, contractx.ActionUpdateProductPrices, contractx.UpdateProductPricesData{Updates: []contractx.PriceUpdate{{ProductID: "prod-1", NewPrice: 110}}, Strategy: "COMPETITIVE"}),
		mustProposal(t, contractx.ActionSendEmail, contractx.SendEmailData{To: []string{"ops@example.com"}, Subject: "Weekly report", Body: "...", Priority: "high"}),
	}
	for _, proposal := range proposals {
		rendered, err := RenderPreview(proposal)
		if err != nil {
			t.Fatalf("%s: RenderPreview() error = %v", proposal.Action, err)
		}
		if rendered != proposal.Preview {
			t.Fatalf("%s: preview drifted:\n proposed %q\n rendered %q", proposal.Action, proposal.Preview, rendered)
		}
		if rendered == "" {
			t.Fatalf("%s: empty preview", proposal.Action)
		}
	}
}
