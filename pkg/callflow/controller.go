package callflow

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/ivrdesk/pkg/directive"
	"github.com/papercomputeco/ivrdesk/pkg/llm"
	"github.com/papercomputeco/ivrdesk/pkg/logger"
	"github.com/papercomputeco/ivrdesk/pkg/metrics"
	"github.com/papercomputeco/ivrdesk/pkg/notify"
	"github.com/papercomputeco/ivrdesk/pkg/session"
)

const (
	RepromptText  = "לא שמעתי אפשר לחזור"
	ApologyText   = "מצטערת קרתה שגיאה אנא נסה שוב"
	FallbackReply = "מצטער, לא הצלחתי להבין. אפשר לחזור?"

	anonymousPrefix = "anon-"
)

// Generator produces the next assistant utterance for a conversation.
type Generator interface {
	Generate(ctx context.Context, system string, history []llm.Message) (string, error)
}

// Notifier receives the summary of a finished call. Dispatch must not block.
type Notifier interface {
	Dispatch(s notify.Summary)
}

// Prompts are the texts that drive the conversation.
type Prompts struct {
	Greeting string
	System   string
}

// Request is one inbound webhook call from the IVR platform.
type Request struct {
	CallID    string
	Phone     string
	Recording string
	Hangup    bool
}

// Response is the directive to send back plus how it was reached.
type Response struct {
	Directive string
	Action    Action
	State     State
}

// Options configures a Controller.
type Options struct {
	Store     session.Store
	Generator Generator
	Detector  Detector
	Notifier  Notifier
	Prompts   Prompts
	Locale    string
	Logger    *zap.Logger
}

// Controller runs the call state machine.
type Controller struct {
	store     session.Store
	generator Generator
	detector  Detector
	notifier  Notifier
	locale    string
	prompts   atomic.Pointer[Prompts]
	logger    *zap.Logger
}

// NewController creates a Controller. A nil Detector uses DefaultDetector and
// a nil Notifier drops summaries.
func NewController(opts Options) *Controller {
	if opts.Detector == nil {
		opts.Detector = DefaultDetector()
	}
	if opts.Locale == "" {
		opts.Locale = directive.DefaultLocale
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = discard{}
	}

	c := &Controller{
		store:     opts.Store,
		generator: opts.Generator,
		detector:  opts.Detector,
		notifier:  opts.Notifier,
		locale:    opts.Locale,
		logger:    opts.Logger,
	}
	c.SetPrompts(opts.Prompts)
	return c
}

// SetPrompts swaps the greeting and system prompt for subsequent requests.
func (c *Controller) SetPrompts(p Prompts) {
	c.prompts.Store(&p)
}

// Prompts returns the prompts currently in use.
func (c *Controller) Prompts() Prompts {
	return *c.prompts.Load()
}

// Handle resolves req and always returns a directive the platform can
// execute. Panics and store failures inside a request end in the apology
// directive instead of an error.
func (c *Controller) Handle(ctx context.Context, req Request) (resp Response) {
	start := time.Now()

	if req.CallID == "" {
		req.CallID = anonymousPrefix + uuid.NewString()
		c.logger.Warn("request without call id, treating as new anonymous call",
			zap.String("call_id", req.CallID))
	}
	log := c.logger.With(logger.CallID(req.CallID), zap.String("phone", req.Phone))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling call", zap.Any("panic", r), zap.Stack("stack"))
			resp = c.apology()
		}
		metrics.RecordRequest(resp.Action.String(), time.Since(start))
		log.Debug("request handled",
			zap.Stringer("action", resp.Action),
			zap.Stringer("state", resp.State),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	state, sess, err := c.resolve(ctx, req.CallID)
	if err != nil {
		log.Error("failed to load call state", zap.Error(err))
		return c.apology()
	}

	step := Next(state, Event{
		Hangup:     req.Hangup,
		Recording:  req.Recording != "",
		HasHistory: sess != nil && len(sess.Turns) > 0,
	})

	switch step.Action {
	case Acknowledge:
		log.Info("caller hung up")
		c.forget(ctx, log, req.CallID)
		return Response{Directive: directive.Ack, Action: step.Action, State: step.Next}

	case Disconnect:
		log.Info("call already completed, disconnecting")
		if _, err := c.store.ConsumeCompleted(ctx, req.CallID); err != nil {
			log.Error("failed to consume completed marker", zap.Error(err))
		}
		return Response{Directive: directive.Hangup, Action: step.Action, State: step.Next}

	case Reprompt:
		log.Info("no recording, asking caller to repeat")
		return Response{Directive: directive.Read(RepromptText, c.locale), Action: step.Action, State: step.Next}

	case Greet:
		log.Info("new call")
		if err := c.store.Set(ctx, req.CallID, session.New()); err != nil {
			log.Error("failed to create session", zap.Error(err))
			return c.apology()
		}
		return Response{Directive: directive.Read(c.Prompts().Greeting, c.locale), Action: step.Action, State: step.Next}

	default:
		return c.process(ctx, log, req, sess)
	}
}

// resolve derives the state tag of callID from the store.
func (c *Controller) resolve(ctx context.Context, callID string) (State, *session.Session, error) {
	completed, err := c.store.HasCompleted(ctx, callID)
	if err != nil {
		return StateNew, nil, err
	}
	if completed {
		return StateCompletedPendingHangup, nil, nil
	}

	sess, ok, err := c.store.Get(ctx, callID)
	if err != nil {
		return StateNew, nil, err
	}
	if !ok {
		return StateNew, nil, nil
	}
	return StateActive, sess, nil
}

// process runs one conversational turn. The caller turn is persisted before
// the generator is called and is kept if generation fails, so a retry still
// sees it.
func (c *Controller) process(ctx context.Context, log *zap.Logger, req Request, sess *session.Session) Response {
	if sess == nil {
		sess = session.New()
	}

	utterance := AnnotateDigits(req.Recording)
	log.Info("caller said", zap.String("utterance", utterance))

	sess.Append(session.Caller, utterance)
	if err := c.store.Set(ctx, req.CallID, sess); err != nil {
		log.Error("failed to store caller turn", zap.Error(err))
		return c.apology()
	}

	genStart := time.Now()
	reply, err := c.generator.Generate(ctx, c.Prompts().System, toMessages(sess.Turns))
	if err != nil {
		log.Error("generation failed", zap.Error(err), zap.Duration("duration", time.Since(genStart)))
		return c.apology()
	}
	if strings.TrimSpace(reply) == "" {
		reply = FallbackReply
	}
	log.Info("assistant replied",
		zap.String("reply", reply),
		zap.Duration("duration", time.Since(genStart)),
	)

	sess.Append(session.Assistant, reply)

	step := Finish(c.detector.Complete(reply))
	if step.Action == Terminate {
		log.Info("conversation complete")
		c.notifier.Dispatch(notify.Summary{
			CallID:  req.CallID,
			Phone:   req.Phone,
			Turns:   sess.History(),
			EndedAt: time.Now(),
		})
		if err := c.store.Delete(ctx, req.CallID); err != nil {
			log.Error("failed to delete session", zap.Error(err))
		}
		if err := c.store.MarkCompleted(ctx, req.CallID); err != nil {
			log.Error("failed to mark call completed", zap.Error(err))
		}
		metrics.RecordCompletedCall()
		return Response{Directive: directive.Message(reply), Action: step.Action, State: step.Next}
	}

	if err := c.store.Set(ctx, req.CallID, sess); err != nil {
		log.Error("failed to store assistant turn", zap.Error(err))
	}
	return Response{Directive: directive.Read(reply, c.locale), Action: step.Action, State: step.Next}
}

// forget removes every trace of callID.
func (c *Controller) forget(ctx context.Context, log *zap.Logger, callID string) {
	if err := c.store.Delete(ctx, callID); err != nil {
		log.Error("failed to delete session", zap.Error(err))
	}
	if _, err := c.store.ConsumeCompleted(ctx, callID); err != nil {
		log.Error("failed to clear completed marker", zap.Error(err))
	}
}

func (c *Controller) apology() Response {
	return Response{Directive: directive.Message(ApologyText), Action: Apologize, State: StateActive}
}

type discard struct{}

func (discard) Dispatch(notify.Summary) {}

func toMessages(turns []session.Turn) []llm.Message {
	out := make([]llm.Message, len(turns))
	for i, t := range turns {
		role := llm.RoleUser
		if t.Speaker == session.Assistant {
			role = llm.RoleAssistant
		}
		out[i] = llm.Message{Role: role, Content: t.Text}
	}
	return out
}
