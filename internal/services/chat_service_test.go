package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/Devmate/internal/core/agent"
	"github.com/markdave123-py/Devmate/internal/models"
)

type memChats struct {
	msgs    map[string][]models.Message
	lastLim int
}

func (m *memChats) AppendChatMessages(_ context.Context, userID string, msgs []models.Message) error {
	m.msgs[userID] = append(m.msgs[userID], msgs...)
	return nil
}

func (m *memChats) GetChatHistory(_ context.Context, userID string, limit int) ([]models.Message, error) {
	m.lastLim = limit
	all := m.msgs[userID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]models.Message(nil), all...), nil
}

func (m *memChats) ClearChatHistory(_ context.Context, userID string) error {
	delete(m.msgs, userID)
	return nil
}

// echoRunner answers every turn with the number of messages it saw.
type echoRunner struct {
	seen []models.Message
	err  error
}

func (r *echoRunner) Run(_ context.Context, _ string, history []models.Message) (*agent.Result, error) {
	r.seen = history
	if r.err != nil {
		return nil, r.err
	}
	out := append(append([]models.Message(nil), history...), models.Message{
		Role:    models.RoleAssistant,
		Content: "reply to " + history[len(history)-1].Content,
	})
	return &agent.Result{Messages: out, State: agent.StateEnd, Iterations: 1}, nil
}

func TestSendPersistsTurn(t *testing.T) {
	chats := &memChats{msgs: map[string][]models.Message{}}
	runner := &echoRunner{}
	s := NewChatService(chats, runner, 50, nil)
	ctx := context.Background()

	turn, err := s.Send(ctx, "u1", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if turn.Reply != "reply to hello" || len(turn.Messages) != 2 {
		t.Fatalf("turn = %+v", turn)
	}

	if _, err := s.Send(ctx, "u1", "again"); err != nil {
		t.Fatal(err)
	}
	if len(runner.seen) != 3 {
		t.Fatalf("second turn saw %d messages, want 3", len(runner.seen))
	}
	if chats.lastLim != 50 {
		t.Fatalf("history limit = %d", chats.lastLim)
	}

	hist, _ := s.History(ctx, "u1")
	if len(hist) != 4 || hist[3].Content != "reply to again" {
		t.Fatalf("history = %+v", hist)
	}

	if err := s.ClearHistory(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if hist, _ := s.History(ctx, "u1"); len(hist) != 0 {
		t.Fatalf("history after clear = %+v", hist)
	}
}

func TestSendFailureStoresNothing(t *testing.T) {
	chats := &memChats{msgs: map[string][]models.Message{}}
	s := NewChatService(chats, &echoRunner{err: errors.New("model down")}, 10, nil)
	if _, err := s.Send(context.Background(), "u1", "hi"); err == nil {
		t.Fatal("expected error")
	}
	if len(chats.msgs["u1"]) != 0 {
		t.Fatalf("stored %+v", chats.msgs["u1"])
	}
	if _, err := s.Send(context.Background(), "u1", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank err = %v", err)
	}
}

func TestRunRequiresMessages(t *testing.T) {
	s := NewChatService(&memChats{msgs: map[string][]models.Message{}}, &echoRunner{}, 10, nil)
	if _, err := s.Run(context.Background(), "u1", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	res, err := s.Run(context.Background(), "u1", []models.Message{{Role: models.RoleUser, Content: "x"}})
	if err != nil || res.Reply() != "reply to x" {
		t.Fatalf("Run = %+v, %v", res, err)
	}
}
