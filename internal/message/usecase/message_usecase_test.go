package usecase

import (
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	contactdomain "crmhub-backend/internal/contact/domain"
	messagedomain "crmhub-backend/internal/message/domain"
	"crmhub-backend/internal/message/repository"
	"crmhub-backend/internal/platform"
	"crmhub-backend/pkg/cache"
)

// fakeMessageRepo is an in-memory MessageRepository enforcing the
// (user_id, platform, native_message_id) uniqueness of the real schema
type fakeMessageRepo struct {
	messages map[string]*messagedomain.RawMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*messagedomain.RawMessage)}
}

func messageKey(userID, platform, nativeID string) string {
	return userID + "|" + platform + "|" + nativeID
}

func (r *fakeMessageRepo) CreateMessage(m *messagedomain.RawMessage) error {
	key := messageKey(m.UserID, m.Platform, m.NativeMessageID)
	if _, ok := r.messages[key]; ok {
		return repository.ErrMessageExists
	}
	r.messages[key] = m
	return nil
}

func (r *fakeMessageRepo) GetMessage(userID, platform, nativeID string) (*messagedomain.RawMessage, error) {
	return r.messages[messageKey(userID, platform, nativeID)], nil
}

func (r *fakeMessageRepo) ListThreadMessages(userID, threadKey string, limit int) ([]*messagedomain.RawMessage, error) {
	var out []*messagedomain.RawMessage
	for _, m := range r.messages {
		if m.UserID == userID && m.ThreadKey == threadKey {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeMessageRepo) ListThreadStats(userID string) ([]*repository.ThreadStats, error) {
	byThread := make(map[string]*repository.ThreadStats)
	for _, m := range r.messages {
		if m.UserID != userID {
			continue
		}
		s, ok := byThread[m.ThreadKey]
		if !ok {
			s = &repository.ThreadStats{ThreadKey: m.ThreadKey, ContactID: m.ContactID, Platform: m.Platform, Channel: m.Channel, Subject: m.Subject}
			byThread[m.ThreadKey] = s
		}
		s.MessageCount++
		if !m.Read && m.Direction == messagedomain.DirectionInbound {
			s.UnreadCount++
		}
		if m.Timestamp.After(s.LastMessageAt) {
			s.LastMessageAt = m.Timestamp
		}
	}

	var out []*repository.ThreadStats
	for _, s := range byThread {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r *fakeMessageRepo) GetThreadStats(userID, threadKey string) (*repository.ThreadStats, error) {
	all, _ := r.ListThreadStats(userID)
	for _, s := range all {
		if s.ThreadKey == threadKey {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) MarkThreadRead(userID, threadKey string) error {
	for _, m := range r.messages {
		if m.UserID == userID && m.ThreadKey == threadKey {
			m.Read = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) SetMessageRead(userID, messageID string, read bool) error {
	for _, m := range r.messages {
		if m.UserID == userID && m.ID == messageID {
			m.Read = read
			return nil
		}
	}
	return errors.New("message not found")
}

// fakeSummaryRepo is an in-memory ThreadSummaryRepository
type fakeSummaryRepo struct {
	summaries map[string]*messagedomain.ThreadSummary
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{summaries: make(map[string]*messagedomain.ThreadSummary)}
}

func (r *fakeSummaryRepo) GetSummary(userID, threadKey string) (*messagedomain.ThreadSummary, error) {
	return r.summaries[userID+"|"+threadKey], nil
}

func (r *fakeSummaryRepo) GetSummaries(userID string, threadKeys []string) (map[string]*messagedomain.ThreadSummary, error) {
	out := make(map[string]*messagedomain.ThreadSummary)
	for _, key := range threadKeys {
		if s, ok := r.summaries[userID+"|"+key]; ok {
			out[key] = s
		}
	}
	return out, nil
}

func (r *fakeSummaryRepo) UpsertSummary(s *messagedomain.ThreadSummary) error {
	r.summaries[s.UserID+"|"+s.ThreadKey] = s
	return nil
}

func (r *fakeSummaryRepo) DeleteSummary(userID, threadKey string) error {
	delete(r.summaries, userID+"|"+threadKey)
	return nil
}

// fakeOwnerRepo serves a single owner identity per platform
type fakeOwnerRepo struct {
	owners map[string]*contactdomain.OwnerIdentity
}

func (r *fakeOwnerRepo) Upsert(o *contactdomain.OwnerIdentity) error {
	r.owners[o.Platform] = o
	return nil
}

func (r *fakeOwnerRepo) Get(userID, platform string) (*contactdomain.OwnerIdentity, error) {
	return r.owners[platform], nil
}

func (r *fakeOwnerRepo) ListByUser(userID string) ([]*contactdomain.OwnerIdentity, error) {
	var out []*contactdomain.OwnerIdentity
	for _, o := range r.owners {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOwnerRepo) FindUserByEmail(platform, email string) (*contactdomain.OwnerIdentity, error) {
	if o, ok := r.owners[platform]; ok && o.Email == email {
		return o, nil
	}
	return nil, nil
}

// staticResolver maps every counterparty to a fixed contact id
type staticResolver struct {
	contactID string
	calls     int
}

func (r *staticResolver) ResolveMessageContact(userID string, m platform.Message) (string, error) {
	r.calls++
	return r.contactID, nil
}

const msgUser = "user-1"

func ownerRepoWithGmail() *fakeOwnerRepo {
	return &fakeOwnerRepo{owners: map[string]*contactdomain.OwnerIdentity{
		platform.PlatformGmail: {
			UserID:       msgUser,
			Platform:     platform.PlatformGmail,
			NativeUserID: "me@corp.com",
			Email:        "me@corp.com",
			DisplayName:  "Me",
		},
	}}
}

func emailMessage(nativeID, sender, content string, at time.Time) platform.Message {
	return platform.Message{
		Platform:          platform.PlatformGmail,
		NativeID:          nativeID,
		SenderID:          sender,
		SenderName:        sender,
		SenderEmail:       sender,
		CounterpartyID:    "people/1",
		CounterpartyEmail: "jane@corp.com",
		Content:           content,
		Timestamp:         at,
		Meta:              platform.EmailMetadata{ThreadID: "th-1", SubjectLine: "Project"},
	}
}

func TestIngestMessagesIsIdempotent(t *testing.T) {
	repo := newFakeMessageRepo()
	resolver := &staticResolver{contactID: "c1"}
	uc := NewMessageUsecase(repo, newFakeSummaryRepo(), ownerRepoWithGmail(), resolver, nil)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	batch := []platform.Message{
		emailMessage("m1", "jane@corp.com", "hi", base),
		emailMessage("m2", "me@corp.com", "hello Jane", base.Add(time.Minute)),
	}

	first, err := uc.IngestMessages(msgUser, batch)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stored != 2 || first.Duplicates != 0 {
		t.Fatalf("first pass: %+v", first)
	}
	if len(first.ThreadsAffected) != 1 || first.ThreadsAffected[0] != "gmail:t:th-1" {
		t.Fatalf("threads affected = %v", first.ThreadsAffected)
	}

	second, err := uc.IngestMessages(msgUser, batch)
	if err != nil {
		t.Fatal(err)
	}
	if second.Stored != 0 || second.Duplicates != 2 {
		t.Errorf("second pass must store nothing: %+v", second)
	}
	if len(repo.messages) != 2 {
		t.Errorf("expected 2 rows, have %d", len(repo.messages))
	}
}

func TestIngestMessagesResolvesDirection(t *testing.T) {
	repo := newFakeMessageRepo()
	uc := NewMessageUsecase(repo, newFakeSummaryRepo(), ownerRepoWithGmail(), &staticResolver{contactID: "c1"}, nil)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	_, err := uc.IngestMessages(msgUser, []platform.Message{
		emailMessage("m1", "jane@corp.com", "hi", base),
		emailMessage("m2", "Me@Corp.com", "hello", base.Add(time.Minute)),
	})
	if err != nil {
		t.Fatal(err)
	}

	inbound, _ := repo.GetMessage(msgUser, platform.PlatformGmail, "m1")
	outbound, _ := repo.GetMessage(msgUser, platform.PlatformGmail, "m2")
	if inbound.Direction != messagedomain.DirectionInbound {
		t.Errorf("m1 direction = %s, want inbound", inbound.Direction)
	}
	if outbound.Direction != messagedomain.DirectionOutbound {
		t.Errorf("m2 direction = %s, want outbound", outbound.Direction)
	}
}

func TestIngestMessagesSuppressesCrossFetchDuplicates(t *testing.T) {
	repo := newFakeMessageRepo()
	dedup := cache.NewMemoryCache(time.Minute)
	defer dedup.Stop()
	uc := NewMessageUsecase(repo, newFakeSummaryRepo(), ownerRepoWithGmail(), &staticResolver{contactID: "c1"}, dedup)

	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	// Same message delivered twice with different native ids
	a := emailMessage("push-1", "jane@corp.com", "hi", at)
	b := emailMessage("poll-1", "jane@corp.com", "hi", at)

	result, err := uc.IngestMessages(msgUser, []platform.Message{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stored != 1 || result.Duplicates != 1 {
		t.Errorf("got %+v, want 1 stored 1 duplicate", result)
	}
}

func TestIngestMessagesCountsFailuresWithoutAborting(t *testing.T) {
	repo := newFakeMessageRepo()
	resolver := &failingResolver{failOn: "m1", next: &staticResolver{contactID: "c1"}}
	uc := NewMessageUsecase(repo, newFakeSummaryRepo(), ownerRepoWithGmail(), resolver, nil)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	result, err := uc.IngestMessages(msgUser, []platform.Message{
		emailMessage("m1", "jane@corp.com", "bad", base),
		emailMessage("m2", "jane@corp.com", "good", base.Add(time.Minute)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Failures != 1 || result.Stored != 1 {
		t.Errorf("got %+v, want 1 failure 1 stored", result)
	}
}

type failingResolver struct {
	failOn string
	next   ContactResolver
}

func (r *failingResolver) ResolveMessageContact(userID string, m platform.Message) (string, error) {
	if m.NativeID == r.failOn {
		return "", errResolver
	}
	return r.next.ResolveMessageContact(userID, m)
}

var errResolver = &resolverError{}

type resolverError struct{}

func (*resolverError) Error() string { return "resolver failure" }

func TestListThreadsAttachesSummaries(t *testing.T) {
	repo := newFakeMessageRepo()
	summaries := newFakeSummaryRepo()
	uc := NewMessageUsecase(repo, summaries, ownerRepoWithGmail(), &staticResolver{contactID: "c1"}, nil)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if _, err := uc.IngestMessages(msgUser, []platform.Message{
		emailMessage("m1", "jane@corp.com", "hi", base),
	}); err != nil {
		t.Fatal(err)
	}
	summaries.UpsertSummary(&messagedomain.ThreadSummary{
		UserID: msgUser, ThreadKey: "gmail:t:th-1", Summary: "Jane said hi",
	})

	threads, err := uc.ListThreads(msgUser, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, have %d", len(threads))
	}
	if threads[0].Summary == nil || threads[0].Summary.Summary != "Jane said hi" {
		t.Errorf("summary not attached: %+v", threads[0].Summary)
	}
	if threads[0].UnreadCount != 1 {
		t.Errorf("unread = %d, want 1", threads[0].UnreadCount)
	}

	if err := uc.MarkThreadRead(msgUser, "gmail:t:th-1"); err != nil {
		t.Fatal(err)
	}
	threads, _ = uc.ListThreads(msgUser, "")
	if threads[0].UnreadCount != 0 {
		t.Errorf("unread after mark read = %d, want 0", threads[0].UnreadCount)
	}
}

type perSenderResolver struct {
	contacts map[string]string
}

func (r *perSenderResolver) ResolveMessageContact(userID string, m platform.Message) (string, error) {
	return r.contacts[m.CounterpartyEmail], nil
}

func TestListThreadsFiltersByContact(t *testing.T) {
	repo := newFakeMessageRepo()
	resolver := &perSenderResolver{contacts: map[string]string{
		"jane@corp.com": "c1",
		"bob@corp.com":  "c2",
	}}
	uc := NewMessageUsecase(repo, newFakeSummaryRepo(), ownerRepoWithGmail(), resolver, nil)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	jane := emailMessage("m1", "jane@corp.com", "hi", base)
	bob := emailMessage("m2", "bob@corp.com", "hello", base.Add(time.Minute))
	bob.CounterpartyEmail = "bob@corp.com"
	bob.Meta = platform.EmailMetadata{ThreadID: "th-2", SubjectLine: "Other"}

	if _, err := uc.IngestMessages(msgUser, []platform.Message{jane, bob}); err != nil {
		t.Fatal(err)
	}

	all, err := uc.ListThreads(msgUser, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 threads, have %d", len(all))
	}

	janes, err := uc.ListThreads(msgUser, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(janes) != 1 || janes[0].ContactID != "c1" {
		t.Fatalf("contact filter returned %+v", janes)
	}
}

func TestSetMessageRead(t *testing.T) {
	repo := newFakeMessageRepo()
	uc := NewMessageUsecase(repo, newFakeSummaryRepo(), ownerRepoWithGmail(), &staticResolver{contactID: "c1"}, nil)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if _, err := uc.IngestMessages(msgUser, []platform.Message{
		emailMessage("m1", "jane@corp.com", "hi", base),
	}); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetMessage(msgUser, platform.PlatformGmail, "m1")
	if err != nil || stored == nil {
		t.Fatalf("stored message missing: %v", err)
	}
	if stored.Read {
		t.Fatal("inbound message stored as read")
	}

	if err := uc.SetMessageRead(msgUser, stored.ID, true); err != nil {
		t.Fatal(err)
	}
	stored, _ = repo.GetMessage(msgUser, platform.PlatformGmail, "m1")
	if !stored.Read {
		t.Error("read flag not set")
	}

	if err := uc.SetMessageRead(msgUser, "missing-id", true); err == nil {
		t.Error("expected error for unknown message id")
	}
}

func TestIngestThreadPartitionIsOrderIndependent(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	slackMessage := func(nativeID, counterparty, channel, threadTS string, at time.Time) platform.Message {
		return platform.Message{
			Platform:          platform.PlatformSlack,
			NativeID:          nativeID,
			SenderID:          counterparty,
			SenderEmail:       counterparty,
			CounterpartyID:    counterparty,
			CounterpartyEmail: counterparty,
			Content:           "msg",
			Timestamp:         at,
			Meta:              platform.ChatMetadata{ChannelID: channel, ThreadTS: threadTS},
		}
	}
	batch := func() []platform.Message {
		return []platform.Message{
			emailMessage("m1", "jane@corp.com", "kickoff", base),
			emailMessage("m2", "me@corp.com", "reply", base.Add(time.Minute)),
			slackMessage("s1", "bob@corp.com", "C42", "161.001", base.Add(2*time.Minute)),
			slackMessage("s2", "bob@corp.com", "C42", "", base.Add(3*time.Minute)),
			slackMessage("s3", "jane@corp.com", "", "", base.Add(4*time.Minute)),
		}
	}

	partitionOf := func(messages []platform.Message) map[string][]string {
		repo := newFakeMessageRepo()
		resolver := &perSenderResolver{contacts: map[string]string{
			"jane@corp.com": "c1",
			"bob@corp.com":  "c2",
		}}
		uc := NewMessageUsecase(repo, newFakeSummaryRepo(), ownerRepoWithGmail(), resolver, nil)
		if _, err := uc.IngestMessages(msgUser, messages); err != nil {
			t.Fatal(err)
		}
		partition := make(map[string][]string)
		for _, m := range repo.messages {
			partition[m.ThreadKey] = append(partition[m.ThreadKey], m.NativeMessageID)
		}
		for _, ids := range partition {
			sort.Strings(ids)
		}
		return partition
	}

	forward := batch()
	backward := batch()
	for i, j := 0, len(backward)-1; i < j; i, j = i+1, j-1 {
		backward[i], backward[j] = backward[j], backward[i]
	}

	first := partitionOf(forward)
	second := partitionOf(backward)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("thread partition depends on ingest order:\n%v\nvs\n%v", first, second)
	}
	if len(first) != 4 {
		t.Errorf("expected 4 threads, have %d: %v", len(first), first)
	}
}
