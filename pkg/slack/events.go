package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/franizus/slack-jira-agent/pkg/agent"
	"github.com/franizus/slack-jira-agent/pkg/logx"
)

const (
	// maxBodySize bounds event payload reads.
	maxBodySize = 1 << 20
	// signatureTolerance rejects stale timestamps to block replays.
	signatureTolerance = 5 * time.Minute
)

// errorReply is posted to the thread when a run fails.
const errorReply = "Lo siento, ocurrió un error procesando tu solicitud. Por favor inténtalo de nuevo."

// Messenger is the Slack client surface the handler needs.
type Messenger interface {
	UserDisplayName(ctx context.Context, userID string) string
	PostMessage(ctx context.Context, channel, text, threadTS string, blocks []Block) error
	SetThreadStatus(ctx context.Context, channelID, threadTS, status string) error
}

// Deduper filters Slack's at-least-once event redelivery.
type Deduper interface {
	AlreadyProcessed(ctx context.Context, eventKey string) (bool, error)
}

// Runner handles one resolved invocation.
type Runner interface {
	Handle(ctx context.Context, inv *agent.Invocation) (string, error)
}

// EventsHandler is the HTTP handler for Slack's Events API callbacks.
// Event processing runs asynchronously; Slack always gets an immediate 200
// so it does not redeliver while the agent works.
type EventsHandler struct {
	signingSecret string
	client        Messenger
	runner        Runner
	dedup         Deduper
	metrics       *agent.Metrics
	logger        *logx.Logger

	now func() time.Time
	wg  sync.WaitGroup
}

// NewEventsHandler builds the events endpoint. dedup may be nil when no
// store is configured; duplicate deliveries are then processed twice.
func NewEventsHandler(signingSecret string, client Messenger, runner Runner, dedup Deduper, metrics *agent.Metrics) *EventsHandler {
	return &EventsHandler{
		signingSecret: signingSecret,
		client:        client,
		runner:        runner,
		dedup:         dedup,
		metrics:       metrics,
		logger:        logx.NewLogger("events"),
		now:           time.Now,
	}
}

// Wait blocks until all in-flight event goroutines finish. Used during
// graceful shutdown.
func (h *EventsHandler) Wait() {
	h.wg.Wait()
}

type eventEnvelope struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	EventID   string     `json:"event_id"`
	Event     innerEvent `json:"event"`
}

type innerEvent struct {
	Type            string `json:"type"`
	Text            string `json:"text"`
	User            string `json:"user"`
	Channel         string `json:"channel"`
	TS              string `json:"ts"`
	ThreadTS        string `json:"thread_ts"`
	BotID           string `json:"bot_id"`
	Subtype         string `json:"subtype"`
	EventTS         string `json:"event_ts"`
	AssistantThread *struct {
		ThreadTS  string `json:"thread_ts"`
		ChannelID string `json:"channel_id"`
		UserID    string `json:"user_id"`
	} `json:"assistant_thread"`
}

// ServeHTTP implements http.Handler.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		h.logger.Warn("rejected request: %v", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch envelope.Type {
	case "url_verification":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"challenge": envelope.Challenge})
		return

	case "event_callback":
		h.handleEventCallback(r.Context(), &envelope)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"message":"Event processed successfully"}`))
}

func (h *EventsHandler) handleEventCallback(ctx context.Context, envelope *eventEnvelope) {
	event := &envelope.Event

	switch {
	case event.Type == "assistant_thread_started":
		h.spawn(func(ctx context.Context) { h.greet(ctx, event) })

	case event.Type == "message" && event.BotID == "" && event.Subtype == "" && event.Text != "":
		if envelope.EventID != "" && h.dedup != nil {
			seen, err := h.dedup.AlreadyProcessed(ctx, envelope.EventID)
			if err != nil {
				h.logger.Error("dedup check failed for %s: %v", envelope.EventID, err)
			} else if seen {
				h.logger.Info("event %s already processed, skipping", envelope.EventID)
				h.metrics.RecordDuplicateEvent()
				return
			}
		}

		threadID := event.ThreadTS
		if threadID == "" {
			threadID = event.TS
		}
		channel := event.Channel
		userID := event.User
		text := event.Text

		if err := h.client.SetThreadStatus(ctx, channel, threadID, ""); err != nil {
			h.logger.Warn("failed to set thread status: %v", err)
		}

		h.spawn(func(ctx context.Context) {
			h.processMessage(ctx, channel, threadID, userID, text)
		})
	}
}

// greet posts the welcome message when a user opens an assistant thread.
func (h *EventsHandler) greet(ctx context.Context, event *innerEvent) {
	threadID := event.EventTS
	var channel, userID string
	if event.AssistantThread != nil {
		if event.AssistantThread.ThreadTS != "" {
			threadID = event.AssistantThread.ThreadTS
		}
		channel = event.AssistantThread.ChannelID
		userID = event.AssistantThread.UserID
	}

	userName := h.client.UserDisplayName(ctx, userID)

	blocks := []Block{
		HeaderBlock(fmt.Sprintf("🎯 ¡Hola! %s, Soy tu asistente para Jira", userName)),
		SectionBlock("Puedo ayudarte a convertir *texto libre o contexto de producto* en artefactos listos para Jira: épicas, historias de usuario, subtareas técnicas y más.\n\n" +
			"Puedes empezar escribiendo algo como:\n" +
			"• `Crea una épica para exponer comerceCode en el API de branches`\n" +
			"• `Genera historias con criterios de aceptación para este flujo`\n\n" +
			"¿Con qué quieres comenzar?"),
	}

	if err := h.client.PostMessage(ctx, channel, "", threadID, blocks); err != nil {
		h.logger.Error("failed to post greeting: %v", err)
	}
}

// processMessage runs the agent for one user message and posts the reply
// to the thread. Failures produce a generic apology instead of silence.
func (h *EventsHandler) processMessage(ctx context.Context, channel, threadID, userID, text string) {
	userName := h.client.UserDisplayName(ctx, userID)

	h.logger.Info("processing message in thread %s (user=%s)", threadID, userName)

	reply, err := h.runner.Handle(ctx, &agent.Invocation{
		Text:            text,
		UserDisplayName: userName,
		ThreadID:        threadID,
	})
	if err != nil {
		h.logger.Error("agent run failed for thread %s: %v", threadID, err)
		reply = errorReply
	}

	if postErr := h.client.PostMessage(ctx, channel, reply, threadID, []Block{SectionBlock(reply)}); postErr != nil {
		h.logger.Error("failed to post reply to thread %s: %v", threadID, postErr)
	}
}

// spawn runs fn on its own goroutine with a detached context so replies
// outlive the HTTP request that delivered the event.
func (h *EventsHandler) spawn(fn func(ctx context.Context)) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn(context.Background())
	}()
}

// verifySignature checks Slack's v0 request signature.
func (h *EventsHandler) verifySignature(header http.Header, body []byte) error {
	timestamp := header.Get("X-Slack-Request-Timestamp")
	signature := header.Get("X-Slack-Signature")
	if timestamp == "" || signature == "" {
		return fmt.Errorf("missing signature headers")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	age := h.now().Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
