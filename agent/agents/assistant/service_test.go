package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "github.com/nvejas/citeline/agent/contract"
	llmx "github.com/nvejas/citeline/agent/llm"
	ragx "github.com/nvejas/citeline/agent/rag"
	routerx "github.com/nvejas/citeline/agent/router"
	statex "github.com/nvejas/citeline/agent/state"
	searchx "github.com/nvejas/citeline/pkg/search"
)

type fakeStore struct {
	conversations map[string]*statex.Conversation
	loadErr       error
	saveErr       error
	saved         []*statex.Conversation
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.Conversation, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	conv, ok := f.conversations[sessionID]
	if !ok {
		return nil, statex.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (f *fakeStore) Save(ctx context.Context, conv *statex.Conversation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.conversations == nil {
		f.conversations = make(map[string]*statex.Conversation)
	}
	f.conversations[conv.SessionID] = cloneConversation(conv)
	f.saved = append(f.saved, cloneConversation(conv))
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.conversations, sessionID)
	return nil
}

type fakePipeline struct {
	result       contractx.RagResult
	err          error
	calls        int
	lastQuestion string
}

func (f *fakePipeline) Run(ctx context.Context, question string) (contractx.RagResult, error) {
	f.calls++
	f.lastQuestion = question
	if f.err != nil {
		return contractx.RagResult{}, f.err
	}
	return f.result, nil
}

type fakeGenerator struct {
	reply       string
	err         error
	calls       int
	lastHistory []contractx.Message
}

func (f *fakeGenerator) Generate(ctx context.Context, history []contractx.Message) (string, error) {
	f.calls++
	f.lastHistory = append([]contractx.Message(nil), history...)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestAssistant(
	t *testing.T,
	store statex.Store,
	pipeline RagRunner,
	generator contractx.Generator,
	cfg Config,
) *Assistant {
	t.Helper()

	a, err := New(store, routerx.New(routerx.DefaultConfig()), pipeline, generator, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	a.now = func() time.Time {
		return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	}
	return a
}

func TestReplyInvalidSession(t *testing.T) {
	t.Parallel()

	a := newTestAssistant(t, &fakeStore{}, &fakePipeline{}, &fakeGenerator{reply: "hi"}, Config{})

	_, err := a.Reply(context.Background(), "   ", "hello")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Reply() error = %v, want ErrInvalidSession", err)
	}
}

func TestReplyRoutesQuestionThroughPipeline(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	pipeline := &fakePipeline{
		result: contractx.RagResult{
			Answer:    "Short answer to: What is the population of Qom in 2020?\n\nFrom A: a.\n\n(See sources below.)",
			Citations: []string{"https://source-0.example.com/result-0"},
			UsedCount: 1,
		},
	}
	generator := &fakeGenerator{reply: "should not be used"}

	a := newTestAssistant(t, store, pipeline, generator, Config{})

	question := "What is the population of Qom in 2020?"
	reply, err := a.Reply(context.Background(), "session-1", question)
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	if reply.Kind != contractx.ReplyKindRag {
		t.Fatalf("Reply() kind = %q, want %q", reply.Kind, contractx.ReplyKindRag)
	}
	if reply.Text != pipeline.result.Answer {
		t.Fatalf("Reply() text = %q, want the pipeline answer", reply.Text)
	}
	if reply.Rag == nil || reply.Rag.UsedCount != 1 {
		t.Fatalf("Reply() rag payload = %+v, want the pipeline result attached", reply.Rag)
	}
	if !reply.Decision.Routed {
		t.Fatal("Reply() decision.routed = false, want true")
	}
	if reply.Decision.Scores.QuestionWord != 1.0 || reply.Decision.Scores.Specificity != 0.7 {
		t.Fatalf("Reply() scores = %+v, want question 1.0 and specificity 0.7", reply.Decision.Scores)
	}

	if pipeline.calls != 1 {
		t.Fatalf("pipeline called %d times, want 1", pipeline.calls)
	}
	if pipeline.lastQuestion != question {
		t.Fatalf("pipeline question = %q, want the raw message", pipeline.lastQuestion)
	}
	if generator.calls != 0 {
		t.Fatalf("generator called %d times, want 0 on the rag path", generator.calls)
	}

	if len(store.saved) != 2 {
		t.Fatalf("store saved %d times, want 2 (user turn, then both turns)", len(store.saved))
	}
	if got := store.saved[0].Turns; len(got) != 1 || got[0].Role != contractx.RoleUser || got[0].Text != question {
		t.Fatalf("first save = %+v, want just the user turn", got)
	}
	if got := store.saved[1].Turns; len(got) != 2 || got[1].Role != contractx.RoleAssistant || got[1].Text != pipeline.result.Answer {
		t.Fatalf("second save = %+v, want user then assistant turn", got)
	}
}

func TestReplySmalltalkTakesChatPath(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	pipeline := &fakePipeline{}
	generator := &fakeGenerator{reply: "doing great, thanks for asking!"}

	a := newTestAssistant(t, store, pipeline, generator, Config{})

	reply, err := a.Reply(context.Background(), "session-2", "hey, how's it going?")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	if reply.Kind != contractx.ReplyKindChat {
		t.Fatalf("Reply() kind = %q, want %q", reply.Kind, contractx.ReplyKindChat)
	}
	if reply.Text != "doing great, thanks for asking!" {
		t.Fatalf("Reply() text = %q, want the generator reply", reply.Text)
	}
	if reply.Rag != nil {
		t.Fatalf("Reply() rag payload = %+v, want nil on the chat path", reply.Rag)
	}
	if reply.Decision.Routed {
		t.Fatal("Reply() decision.routed = true, want false")
	}
	// Diagnostics ride along even when the message is not routed.
	if reply.Decision.Scores.QuestionWord != 1.0 {
		t.Fatalf("Reply() scores = %+v, want question word 1.0 from \"how\"", reply.Decision.Scores)
	}

	if pipeline.calls != 0 {
		t.Fatalf("pipeline called %d times, want 0 on the chat path", pipeline.calls)
	}
	if generator.calls != 1 {
		t.Fatalf("generator called %d times, want 1", generator.calls)
	}
	if len(generator.lastHistory) != 1 || generator.lastHistory[0].Role != contractx.RoleUser {
		t.Fatalf("generator history = %+v, want just the current user turn", generator.lastHistory)
	}

	if len(store.saved) != 2 {
		t.Fatalf("store saved %d times, want 2", len(store.saved))
	}
}

func TestReplyChatWindowIsCapped(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	conv := statex.New("session-3", base)
	for i := 0; i < 8; i++ {
		role := contractx.RoleUser
		if i%2 == 1 {
			role = contractx.RoleAssistant
		}
		conv.Append(role, fmt.Sprintf("turn %d", i), base.Add(time.Duration(i)*time.Second))
	}

	store := &fakeStore{conversations: map[string]*statex.Conversation{"session-3": conv}}
	generator := &fakeGenerator{reply: "sure"}

	a := newTestAssistant(t, store, &fakePipeline{}, generator, Config{})

	if _, err := a.Reply(context.Background(), "session-3", "tell me more"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	if len(generator.lastHistory) != 6 {
		t.Fatalf("generator history has %d turns, want the 6-turn window", len(generator.lastHistory))
	}
	last := generator.lastHistory[len(generator.lastHistory)-1]
	if last.Role != contractx.RoleUser || last.Text != "tell me more" {
		t.Fatalf("window ends with %+v, want the current user turn", last)
	}
}

func TestReplyPipelineErrorKeepsUserTurn(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	pipeline := &fakePipeline{
		err: fmt.Errorf("%w: search api returned 503", contractx.ErrBackendUnavailable),
	}

	a := newTestAssistant(t, store, pipeline, &fakeGenerator{reply: "unused"}, Config{})

	_, err := a.Reply(context.Background(), "session-4", "search: economy of Qom 2020 stats")
	if !errors.Is(err, contractx.ErrBackendUnavailable) {
		t.Fatalf("Reply() error = %v, want ErrBackendUnavailable", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("store saved %d times, want 1 (user turn persisted before the failure)", len(store.saved))
	}
	if got := store.saved[0].Turns; len(got) != 1 || got[0].Role != contractx.RoleUser {
		t.Fatalf("saved turns = %+v, want just the user turn", got)
	}
}

func TestReplyGeneratorErrorKeepsUserTurn(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	generator := &fakeGenerator{
		err: fmt.Errorf("%w: chat invoke: timeout", contractx.ErrBackendUnavailable),
	}

	a := newTestAssistant(t, store, &fakePipeline{}, generator, Config{})

	_, err := a.Reply(context.Background(), "session-5", "hello there")
	if !errors.Is(err, contractx.ErrBackendUnavailable) {
		t.Fatalf("Reply() error = %v, want ErrBackendUnavailable", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("store saved %d times, want 1", len(store.saved))
	}
}

func TestReplySaveErrorPropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("save failed")
	store := &fakeStore{saveErr: saveErr}

	a := newTestAssistant(t, store, &fakePipeline{}, &fakeGenerator{reply: "hi"}, Config{})

	_, err := a.Reply(context.Background(), "session-6", "hello")
	if !errors.Is(err, saveErr) {
		t.Fatalf("Reply() error = %v, want the save error", err)
	}
}

func TestReplyMaxTurnsEvictsOldest(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	conv := statex.New("session-7", base)
	for i := 0; i < 4; i++ {
		role := contractx.RoleUser
		if i%2 == 1 {
			role = contractx.RoleAssistant
		}
		conv.Append(role, fmt.Sprintf("old %d", i), base.Add(time.Duration(i)*time.Second))
	}

	store := &fakeStore{conversations: map[string]*statex.Conversation{"session-7": conv}}

	a := newTestAssistant(t, store, &fakePipeline{}, &fakeGenerator{reply: "noted"}, Config{MaxTurns: 4})

	if _, err := a.Reply(context.Background(), "session-7", "newest question"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	final := store.saved[len(store.saved)-1].Turns
	if len(final) != 4 {
		t.Fatalf("retained %d turns, want 4", len(final))
	}
	if final[0].Text != "old 2" {
		t.Fatalf("oldest retained turn = %q, want %q", final[0].Text, "old 2")
	}
	if final[2].Text != "newest question" || final[3].Text != "noted" {
		t.Fatalf("newest turns = %q/%q, want the fresh exchange", final[2].Text, final[3].Text)
	}
}

func TestReplyEndToEndRoutedQuestion(t *testing.T) {
	t.Parallel()

	pipeline, err := ragx.New(searchx.NewStub(8))
	if err != nil {
		t.Fatalf("rag.New() error = %v", err)
	}

	store := statex.NewMemoryStore()
	a := newTestAssistant(t, store, pipeline, llmx.StubGenerator{}, Config{})

	reply, err := a.Reply(context.Background(), "qom-session", "What is the population of Qom in 2020?")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	if reply.Kind != contractx.ReplyKindRag {
		t.Fatalf("Reply() kind = %q, want %q", reply.Kind, contractx.ReplyKindRag)
	}
	if !strings.HasPrefix(reply.Text, "Short answer to: What is the population of Qom in 2020?") {
		t.Fatalf("Reply() text = %q, want the composed answer", reply.Text)
	}
	if reply.Rag == nil {
		t.Fatal("Reply() rag payload is nil")
	}
	if reply.Rag.UsedCount != 8 || len(reply.Rag.Citations) != 8 {
		t.Fatalf("Reply() used %d results with %d citations, want 8 and 8",
			reply.Rag.UsedCount, len(reply.Rag.Citations))
	}
	if got := reply.Rag.Artifacts; len(got.Results) != 8 || len(got.Validated) != 8 || len(got.Summaries) != 8 {
		t.Fatalf("Reply() artifacts = %d/%d/%d, want 8/8/8",
			len(got.Results), len(got.Validated), len(got.Summaries))
	}
	if got := reply.Decision.Scores.Sum(); got != 1.7 {
		t.Fatalf("Reply() score sum = %v, want 1.7", got)
	}

	history, err := a.History(context.Background(), "qom-session")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History() has %d turns, want 2", len(history))
	}
}

func TestReplyEndToEndSmalltalk(t *testing.T) {
	t.Parallel()

	pipeline, err := ragx.New(searchx.NewStub(8))
	if err != nil {
		t.Fatalf("rag.New() error = %v", err)
	}

	a := newTestAssistant(t, statex.NewMemoryStore(), pipeline, llmx.StubGenerator{}, Config{})

	reply, err := a.Reply(context.Background(), "chat-session", "hey, how's it going?")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	if reply.Kind != contractx.ReplyKindChat {
		t.Fatalf("Reply() kind = %q, want %q", reply.Kind, contractx.ReplyKindChat)
	}
	if !strings.HasPrefix(reply.Text, "(chat) I heard: 'hey, how's it going?'") {
		t.Fatalf("Reply() text = %q, want the stub echo", reply.Text)
	}
	if reply.Rag != nil {
		t.Fatalf("Reply() rag payload = %+v, want nil", reply.Rag)
	}

	history, err := a.History(context.Background(), "chat-session")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History() has %d turns, want exactly the new exchange", len(history))
	}
}

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	t.Parallel()

	a := newTestAssistant(t, &fakeStore{}, &fakePipeline{}, &fakeGenerator{reply: "hi"}, Config{})

	got, err := a.History(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("History() = %+v, want empty", got)
	}
}

func TestHistoryReturnsAllTurnsInOrder(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	a := newTestAssistant(t, store, &fakePipeline{}, &fakeGenerator{reply: "hello back"}, Config{})

	if _, err := a.Reply(context.Background(), "session-8", "hello there"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	got, err := a.History(context.Background(), "session-8")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("History() has %d turns, want 2", len(got))
	}
	if got[0].Role != contractx.RoleUser || got[0].Text != "hello there" {
		t.Fatalf("History()[0] = %+v, want the user turn", got[0])
	}
	if got[1].Role != contractx.RoleAssistant || got[1].Text != "hello back" {
		t.Fatalf("History()[1] = %+v, want the assistant turn", got[1])
	}
}

func TestHistoryBlankSession(t *testing.T) {
	t.Parallel()

	a := newTestAssistant(t, &fakeStore{}, &fakePipeline{}, &fakeGenerator{reply: "hi"}, Config{})

	_, err := a.History(context.Background(), "  ")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("History() error = %v, want ErrInvalidSession", err)
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	decider := routerx.New(routerx.DefaultConfig())

	if _, err := New(nil, decider, &fakePipeline{}, &fakeGenerator{}, Config{}); err == nil {
		t.Fatal("New(nil store) error = nil, want error")
	}
	if _, err := New(&fakeStore{}, nil, &fakePipeline{}, &fakeGenerator{}, Config{}); err == nil {
		t.Fatal("New(nil decider) error = nil, want error")
	}
	if _, err := New(&fakeStore{}, decider, nil, &fakeGenerator{}, Config{}); err == nil {
		t.Fatal("New(nil pipeline) error = nil, want error")
	}
	if _, err := New(&fakeStore{}, decider, &fakePipeline{}, nil, Config{}); err == nil {
		t.Fatal("New(nil generator) error = nil, want error")
	}
}

func cloneConversation(in *statex.Conversation) *statex.Conversation {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	var out statex.Conversation
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}
