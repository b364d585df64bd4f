package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/boostly/boostly/internal/audit"
	"github.com/boostly/boostly/internal/ledger"
	"github.com/boostly/boostly/internal/notification"
)

type captureNotifier struct {
	messages []notification.Message
}

func (n *captureNotifier) Send(_ context.Context, message notification.Message) error {
	n.messages = append(n.messages, message)
	return nil
}

type brokenAuditStore struct{}

func (brokenAuditStore) Append(context.Context, audit.Entry) error {
	return errors.New("audit store down")
}

func (brokenAuditStore) Search(context.Context, audit.Filter) ([]audit.Entry, error) {
	return nil, errors.New("audit store down")
}

func newTestLedger() ledger.Ledger {
	l := ledger.NewInMemory(ledger.DefaultRules())
	ledger.SeedAccount(l, ledger.Account{UserID: "sender", GrantBalance: 100})
	ledger.SeedAccount(l, ledger.Account{UserID: "receiver"})
	return l
}

func TestServiceRecognizeRecordsAuditAndNotifies(t *testing.T) {
	l := newTestLedger()
	store := audit.NewMemoryStore()
	recorder := audit.NewRecorder(store, nil)
	notifier := &captureNotifier{}
	svc := NewService(l, recorder, notifier)
	ctx := context.Background()

	res, err := svc.Recognize(ctx, RecognizeInput{
		SenderID: "sender", ReceiverID: "receiver", Credits: 30, Note: "shipit", SourceAddress: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.GrantBalance != 70 || res.SentThisMonth != 30 {
		t.Fatalf("unexpected balances: %+v", res)
	}

	entries, err := recorder.Search(ctx, audit.Filter{Action: "recognize", ActorID: "sender"})
	if err != nil {
		t.Fatalf("search audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.EntityType != "recognition" || entry.EntityID != res.RecognitionID {
		t.Fatalf("audit entry references wrong entity: %+v", entry)
	}
	if entry.Details["credits"] != 30 || entry.SourceAddress != "10.0.0.1" {
		t.Fatalf("audit details incomplete: %+v", entry)
	}

	if len(notifier.messages) != 1 || notifier.messages[0].Destination != "receiver" {
		t.Fatalf("receiver not notified: %+v", notifier.messages)
	}
	if notifier.messages[0].Kind != notification.KindRecognitionReceived {
		t.Fatalf("unexpected notification kind: %s", notifier.messages[0].Kind)
	}
}

func TestServiceRecognizeSucceedsWhenAuditStoreFails(t *testing.T) {
	l := newTestLedger()
	var dropped int
	recorder := audit.NewRecorder(brokenAuditStore{}, func(audit.Entry, error) { dropped++ })
	svc := NewService(l, recorder, nil)

	res, err := svc.Recognize(context.Background(), RecognizeInput{
		SenderID: "sender", ReceiverID: "receiver", Credits: 10,
	})
	if err != nil {
		t.Fatalf("audit failure must not fail the operation: %v", err)
	}
	if res.GrantBalance != 90 {
		t.Fatalf("ledger mutation not applied: %+v", res)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped audit entry, got %d", dropped)
	}
}

func TestServiceRecognizeFailureEmitsNoAudit(t *testing.T) {
	l := newTestLedger()
	store := audit.NewMemoryStore()
	recorder := audit.NewRecorder(store, nil)
	svc := NewService(l, recorder, nil)
	ctx := context.Background()

	if _, err := svc.Recognize(ctx, RecognizeInput{SenderID: "sender", ReceiverID: "sender", Credits: 5}); !errors.Is(err, ledger.ErrSelfRecognition) {
		t.Fatalf("expected self recognition error, got %v", err)
	}

	entries, err := recorder.Search(ctx, audit.Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("audit entry written for a mutation that never happened: %+v", entries)
	}
}

func TestServiceEndorse(t *testing.T) {
	l := newTestLedger()
	store := audit.NewMemoryStore()
	recorder := audit.NewRecorder(store, nil)
	notifier := &captureNotifier{}
	svc := NewService(l, recorder, notifier)
	ctx := context.Background()

	res, err := svc.Recognize(ctx, RecognizeInput{SenderID: "sender", ReceiverID: "receiver", Credits: 10})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}

	endorsement, err := svc.Endorse(ctx, EndorseInput{RecognitionID: res.RecognitionID, EndorserID: "fan"})
	if err != nil {
		t.Fatalf("endorse: %v", err)
	}
	if endorsement.RecognitionID != res.RecognitionID {
		t.Fatalf("unexpected endorsement: %+v", endorsement)
	}

	if _, err := svc.Endorse(ctx, EndorseInput{RecognitionID: res.RecognitionID, EndorserID: "fan"}); !errors.Is(err, ledger.ErrDuplicateEndorsement) {
		t.Fatalf("expected duplicate endorsement, got %v", err)
	}

	entries, err := recorder.Search(ctx, audit.Filter{Action: "endorse"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 endorse audit entry, got %d", len(entries))
	}

	// The recognition receiver hears about the endorsement.
	last := notifier.messages[len(notifier.messages)-1]
	if last.Kind != notification.KindEndorsementReceived || last.Destination != "receiver" {
		t.Fatalf("unexpected endorsement notification: %+v", last)
	}
}
