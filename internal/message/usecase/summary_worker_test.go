package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	contactdomain "crmhub-backend/internal/contact/domain"
	messagedomain "crmhub-backend/internal/message/domain"
	"crmhub-backend/internal/platform"
	"crmhub-backend/pkg/ai"
)

type fakeSummarizer struct {
	calls    int
	analysis *ai.ThreadAnalysis
	err      error
}

func (f *fakeSummarizer) AnalyzeThread(ctx context.Context, messages []ai.ThreadMessage, ownerIdentity, contactName string) (*ai.ThreadAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type fakeContactGetter struct{}

func (fakeContactGetter) GetContactByID(id string) (*contactdomain.UnifiedContact, error) {
	return &contactdomain.UnifiedContact{ID: id, FullName: "Jane Doe"}, nil
}

func seededWorker(t *testing.T, summarizer ai.Summarizer) (*SummaryWorkerService, *fakeMessageRepo, *fakeSummaryRepo) {
	t.Helper()

	messages := newFakeMessageRepo()
	summaries := newFakeSummaryRepo()
	worker := NewSummaryWorkerService(messages, summaries, fakeContactGetter{}, ownerRepoWithGmail(), 50, 1)
	worker.SetSummarizer(summarizer)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := []*messagedomain.RawMessage{
		{UserID: msgUser, Platform: platform.PlatformGmail, NativeMessageID: "m1", ContactID: "c1",
			ThreadKey: "gmail:t:th-1", Direction: messagedomain.DirectionOutbound, SenderName: "Me",
			Content: "Can you send the contract?", Timestamp: base},
		{UserID: msgUser, Platform: platform.PlatformGmail, NativeMessageID: "m2", ContactID: "c1",
			ThreadKey: "gmail:t:th-1", Direction: messagedomain.DirectionInbound, SenderName: "Jane",
			Content: "Sure, attached.", Timestamp: base.Add(time.Hour)},
		{UserID: msgUser, Platform: platform.PlatformGmail, NativeMessageID: "m3", ContactID: "c1",
			ThreadKey: "gmail:t:th-1", Direction: messagedomain.DirectionInbound, SenderName: "Jane",
			Content: "Did it arrive?", Timestamp: base.Add(2 * time.Hour)},
	}
	for _, row := range rows {
		if err := messages.CreateMessage(row); err != nil {
			t.Fatal(err)
		}
	}
	return worker, messages, summaries
}

func TestSummaryWorkerGeneratesAndCaches(t *testing.T) {
	summarizer := &fakeSummarizer{analysis: &ai.ThreadAnalysis{
		Summary: "Jane sent the contract and is waiting for confirmation.",
		Topics:  []string{"contract"},
		Urgency: "medium",
		Status:  messagedomain.ThreadStatusWaitingOnMe,
	}}
	worker, _, summaries := seededWorker(t, summarizer)

	job := SummaryJob{UserID: msgUser, ThreadKey: "gmail:t:th-1"}
	worker.ProcessJob(job)

	stored, _ := summaries.GetSummary(msgUser, "gmail:t:th-1")
	if stored == nil {
		t.Fatal("summary not stored")
	}
	if stored.Summary != summarizer.analysis.Summary {
		t.Errorf("summary = %q", stored.Summary)
	}
	if stored.MessageCount != 3 {
		t.Errorf("message count = %d, want 3", stored.MessageCount)
	}
	if stored.UnrespondedCount != 2 {
		t.Errorf("unresponded = %d, want 2 trailing inbound", stored.UnrespondedCount)
	}

	// Re-processing an unchanged thread must not call the model again
	worker.ProcessJob(job)
	if summarizer.calls != 1 {
		t.Errorf("model called %d times, want 1", summarizer.calls)
	}
}

func TestSummaryWorkerRefreshesStaleSummary(t *testing.T) {
	summarizer := &fakeSummarizer{analysis: &ai.ThreadAnalysis{Summary: "Updated.", Urgency: "low", Status: messagedomain.ThreadStatusActive}}
	worker, messages, summaries := seededWorker(t, summarizer)

	job := SummaryJob{UserID: msgUser, ThreadKey: "gmail:t:th-1"}
	worker.ProcessJob(job)

	// A new message makes the stored summary stale
	if err := messages.CreateMessage(&messagedomain.RawMessage{
		UserID: msgUser, Platform: platform.PlatformGmail, NativeMessageID: "m4", ContactID: "c1",
		ThreadKey: "gmail:t:th-1", Direction: messagedomain.DirectionInbound, SenderName: "Jane",
		Content: "Ping", Timestamp: time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	worker.ProcessJob(job)
	if summarizer.calls != 2 {
		t.Fatalf("model called %d times, want 2", summarizer.calls)
	}
	stored, _ := summaries.GetSummary(msgUser, "gmail:t:th-1")
	if stored.MessageCount != 4 {
		t.Errorf("refreshed count = %d, want 4", stored.MessageCount)
	}
}

func TestSummaryWorkerFailureKeepsPriorSummary(t *testing.T) {
	summarizer := &fakeSummarizer{analysis: &ai.ThreadAnalysis{Summary: "First.", Urgency: "low", Status: messagedomain.ThreadStatusActive}}
	worker, messages, summaries := seededWorker(t, summarizer)

	job := SummaryJob{UserID: msgUser, ThreadKey: "gmail:t:th-1"}
	worker.ProcessJob(job)

	if err := messages.CreateMessage(&messagedomain.RawMessage{
		UserID: msgUser, Platform: platform.PlatformGmail, NativeMessageID: "m4", ContactID: "c1",
		ThreadKey: "gmail:t:th-1", Direction: messagedomain.DirectionInbound,
		Content: "Ping", Timestamp: time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	summarizer.err = errors.New("provider down")
	worker.ProcessJob(job)

	stored, _ := summaries.GetSummary(msgUser, "gmail:t:th-1")
	if stored == nil || stored.Summary != "First." {
		t.Fatalf("prior summary must survive a failed refresh: %+v", stored)
	}
}

func TestSummaryWorkerSkipsEmptyThread(t *testing.T) {
	summarizer := &fakeSummarizer{analysis: &ai.ThreadAnalysis{Summary: "x"}}
	worker := NewSummaryWorkerService(newFakeMessageRepo(), newFakeSummaryRepo(), fakeContactGetter{}, ownerRepoWithGmail(), 50, 1)
	worker.SetSummarizer(summarizer)

	worker.ProcessJob(SummaryJob{UserID: msgUser, ThreadKey: "gmail:t:none"})
	if summarizer.calls != 0 {
		t.Errorf("model must not be called for an empty thread")
	}
}
