package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/franizus/slack-jira-agent/pkg/conversation"
	"github.com/franizus/slack-jira-agent/pkg/logx"
	"github.com/franizus/slack-jira-agent/pkg/persistence"
)

// FallbackReply is sent when a run finishes without producing an answer.
const FallbackReply = "No se pudo obtener una respuesta del agente."

// ConversationStore is the persistence surface the resolver needs.
type ConversationStore interface {
	LoadThread(ctx context.Context, threadID string) (*persistence.Thread, error)
	AppendMessages(ctx context.Context, threadID, userName string, messages []conversation.Message) error
}

// Invocation is one user request routed to the agent.
type Invocation struct {
	// Text is the user's message.
	Text string
	// UserDisplayName personalizes the system prompt. May be empty.
	UserDisplayName string
	// ThreadID identifies the conversation. Empty means a fresh one-off
	// conversation with a generated id.
	ThreadID string
}

// Resolver routes invocations to conversation threads: it loads history,
// runs the agent, and persists the new turn. Runs on the same thread are
// serialized so concurrent Slack events cannot interleave a transcript.
type Resolver struct {
	runner *Runner
	store  ConversationStore
	logger *logx.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResolver builds a resolver. store may be nil, in which case threads
// are not persisted and every run sees only its own input.
func NewResolver(runner *Runner, store ConversationStore) *Resolver {
	return &Resolver{
		runner: runner,
		store:  store,
		logger: logx.NewLogger("session"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// ResolveThreadID returns the invocation's thread id, generating one for
// thread-less invocations.
func (r *Resolver) ResolveThreadID(inv *Invocation) string {
	if inv.ThreadID != "" {
		return inv.ThreadID
	}
	return uuid.NewString()
}

// Handle runs one invocation end to end and returns the agent's reply.
func (r *Resolver) Handle(ctx context.Context, inv *Invocation) (string, error) {
	threadID := r.ResolveThreadID(inv)

	lock := r.lockFor(threadID)
	lock.Lock()
	defer lock.Unlock()

	var history []conversation.Message
	userName := inv.UserDisplayName
	if r.store != nil {
		thread, err := r.store.LoadThread(ctx, threadID)
		if err != nil {
			return "", err
		}
		history = thread.Messages
		if userName == "" {
			userName = thread.UserName
		}
	}

	result, runErr := r.runner.Run(ctx, userName, history, inv.Text)

	// Persist whatever the turn produced, even on failure, so the thread
	// keeps the tool results that already happened.
	if r.store != nil && len(result.NewMessages) > 0 {
		if err := r.store.AppendMessages(ctx, threadID, inv.UserDisplayName, result.NewMessages); err != nil {
			r.logger.Error("failed to persist thread %s: %v", threadID, err)
			if runErr == nil {
				return "", err
			}
		}
	}

	if runErr != nil {
		return "", runErr
	}
	if result.Reply == "" {
		return FallbackReply, nil
	}
	return result.Reply, nil
}

func (r *Resolver) lockFor(threadID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[threadID] = lock
	}
	return lock
}
