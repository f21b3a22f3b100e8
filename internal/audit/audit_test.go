package audit

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskgate/taskgate/internal/authz"
	"github.com/taskgate/taskgate/internal/pipeline"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

func setupLog(t *testing.T) *Log {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	log, err := NewLog(db)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	return log
}

func testDecision(persona string, outcome authz.Outcome) pipeline.Decision {
	return pipeline.Decision{
		RequestID: uuid.New().String(),
		Prompt:    "test prompt",
		Task:      taxonomy.TaskFeatureDevelopment,
		Persona:   persona,
		Resource:  taxonomy.ResourceGitHub,
		Operation: taxonomy.OpWrite,
		Outcome:   outcome,
		Reason:    authz.ReasonGranted,
		Timestamp: time.Now().UTC(),
	}
}

func TestAppend_AssignsMonotonicSequence(t *testing.T) {
	log := setupLog(t)

	for i := 0; i < 5; i++ {
		log.Append(testDecision("engineering", authz.Allow))
	}

	recs, err := log.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 5 {
		t.Fatalf("got %d records, want 5", len(recs))
	}
	for i, r := range recs {
		if r.Seq != uint64(i+1) {
			t.Fatalf("record %d has seq %d, want %d", i, r.Seq, i+1)
		}
	}
}

func TestAppend_ConcurrentWritersKeepTotalOrder(t *testing.T) {
	log := setupLog(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Append(testDecision("engineering", authz.Deny))
		}()
	}
	wg.Wait()

	recs, err := log.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != n {
		t.Fatalf("got %d records, want %d", len(recs), n)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Seq != recs[i-1].Seq+1 {
			t.Fatalf("sequence gap between %d and %d", recs[i-1].Seq, recs[i].Seq)
		}
	}
	if log.FailureCount() != 0 {
		t.Fatalf("unexpected append failures: %d", log.FailureCount())
	}
}

func TestNewLog_ResumesSequence(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	log, err := NewLog(db)
	if err != nil {
		t.Fatal(err)
	}
	log.Append(testDecision("it", authz.Allow))
	log.Append(testDecision("it", authz.Allow))

	// A fresh Log over the same database continues the sequence.
	log2, err := NewLog(db)
	if err != nil {
		t.Fatal(err)
	}
	log2.Append(testDecision("it", authz.Allow))

	recs, err := log2.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 || recs[2].Seq != 3 {
		t.Fatalf("expected resumed seq 3, got %+v", recs)
	}
}

func TestQuery_Filters(t *testing.T) {
	log := setupLog(t)

	log.Append(testDecision("engineering", authz.Allow))
	log.Append(testDecision("sales", authz.Deny))
	log.Append(testDecision("engineering", authz.Deny))

	byPersona, err := log.Query(Filter{Persona: "engineering"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byPersona) != 2 {
		t.Fatalf("persona filter: got %d, want 2", len(byPersona))
	}

	byOutcome, err := log.Query(Filter{Outcome: "DENY"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byOutcome) != 2 {
		t.Fatalf("outcome filter: got %d, want 2", len(byOutcome))
	}

	afterSeq, err := log.Query(Filter{AfterSeq: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(afterSeq) != 1 || afterSeq[0].Seq != 3 {
		t.Fatalf("after_seq filter: got %+v", afterSeq)
	}

	limited, err := log.Query(Filter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Seq != 1 {
		t.Fatalf("limit should return earliest records first, got %+v", limited)
	}
}

func TestQuery_TimeRange(t *testing.T) {
	log := setupLog(t)

	old := testDecision("it", authz.Allow)
	old.Timestamp = time.Now().UTC().Add(-2 * time.Hour)
	log.Append(old)
	log.Append(testDecision("it", authz.Allow))

	recent, err := log.Query(Filter{From: time.Now().UTC().Add(-time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("time filter: got %d, want 1", len(recent))
	}
}

func TestSubscribe_ReceivesAppends(t *testing.T) {
	log := setupLog(t)

	ch := log.Subscribe(4)
	defer log.Unsubscribe(ch)

	d := testDecision("sales", authz.Allow)
	log.Append(d)

	select {
	case rec := <-ch:
		if rec.ID != d.RequestID {
			t.Fatalf("received record %s, want %s", rec.ID, d.RequestID)
		}
		if rec.Seq != 1 {
			t.Fatalf("received seq %d, want 1", rec.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the appended record")
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	log := setupLog(t)

	ch := log.Subscribe(1)
	log.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
	// Appending after unsubscribe must not panic.
	log.Append(testDecision("it", authz.Deny))
}
