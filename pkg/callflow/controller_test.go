package callflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ivrdesk/pkg/callflow"
	"github.com/papercomputeco/ivrdesk/pkg/directive"
	"github.com/papercomputeco/ivrdesk/pkg/llm"
	"github.com/papercomputeco/ivrdesk/pkg/notify"
	"github.com/papercomputeco/ivrdesk/pkg/session"
)

type scriptedGenerator struct {
	replies []string
	err     error
	panics  bool
	calls   [][]llm.Message
	systems []string
}

func (g *scriptedGenerator) Generate(_ context.Context, system string, history []llm.Message) (string, error) {
	if g.panics {
		panic("generator exploded")
	}
	g.calls = append(g.calls, history)
	g.systems = append(g.systems, system)
	if g.err != nil {
		return "", g.err
	}
	reply := g.replies[0]
	if len(g.replies) > 1 {
		g.replies = g.replies[1:]
	}
	return reply, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	summaries []notify.Summary
}

func (r *recordingNotifier) Dispatch(s notify.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

type brokenStore struct {
	session.Store
}

func (brokenStore) HasCompleted(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}

var _ = Describe("Controller", func() {
	const greeting = "שלום וברוכים הבאים, איך קוראים לך?"

	var (
		ctx        context.Context
		store      *session.MemoryStore
		generator  *scriptedGenerator
		notifier   *recordingNotifier
		controller *callflow.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = session.NewMemoryStore()
		generator = &scriptedGenerator{replies: []string{"יוסי יופי! שם משפחה?"}}
		notifier = &recordingNotifier{}
		controller = callflow.NewController(callflow.Options{
			Store:     store,
			Generator: generator,
			Notifier:  notifier,
			Prompts:   callflow.Prompts{Greeting: greeting, System: "אסוף פרטים"},
		})
	})

	turns := func(callID string) []session.Turn {
		s, ok, err := store.Get(ctx, callID)
		Expect(err).NotTo(HaveOccurred())
		if !ok {
			return nil
		}
		return s.Turns
	}

	Describe("first contact", func() {
		It("greets and creates exactly one session", func() {
			resp := controller.Handle(ctx, callflow.Request{CallID: "abc"})

			Expect(resp.Directive).To(Equal(directive.Read(greeting, directive.DefaultLocale)))
			Expect(resp.Action).To(Equal(callflow.Greet))

			n, _ := store.Len(ctx)
			Expect(n).To(Equal(1))
			Expect(turns("abc")).To(BeEmpty())
		})

		It("greets again when the session has no turns yet", func() {
			controller.Handle(ctx, callflow.Request{CallID: "abc"})
			resp := controller.Handle(ctx, callflow.Request{CallID: "abc"})

			Expect(resp.Action).To(Equal(callflow.Greet))
		})

		It("treats a missing call id as a new anonymous call", func() {
			resp := controller.Handle(ctx, callflow.Request{})

			Expect(resp.Action).To(Equal(callflow.Greet))
			Expect(resp.Directive).To(HavePrefix("read=t-"))
		})
	})

	Describe("silence", func() {
		It("re-prompts without touching the history", func() {
			controller.Handle(ctx, callflow.Request{CallID: "abc"})
			controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "יוסי"})
			before := append([]session.Turn(nil), turns("abc")...)

			resp := controller.Handle(ctx, callflow.Request{CallID: "abc"})

			Expect(resp.Directive).To(Equal("read=t-לא שמעתי אפשר לחזור=record_file,no,voice,he-IL"))
			Expect(resp.Action).To(Equal(callflow.Reprompt))
			Expect(turns("abc")).To(Equal(before))
		})
	})

	Describe("processing", func() {
		It("records the caller and assistant turns and prompts for more", func() {
			controller.Handle(ctx, callflow.Request{CallID: "abc"})
			resp := controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "יוסי"})

			Expect(resp.Action).To(Equal(callflow.Prompt))
			Expect(resp.Directive).To(Equal("read=t-יוסי יופי שם משפחה=record_file,no,voice,he-IL"))
			Expect(turns("abc")).To(Equal([]session.Turn{
				{Speaker: session.Caller, Text: "יוסי"},
				{Speaker: session.Assistant, Text: "יוסי יופי! שם משפחה?"},
			}))
			Expect(generator.systems).To(Equal([]string{"אסוף פרטים"}))
			Expect(generator.calls[0]).To(Equal([]llm.Message{{Role: llm.RoleUser, Content: "יוסי"}}))
		})

		It("lazily creates a session for a recording on an unknown call", func() {
			resp := controller.Handle(ctx, callflow.Request{CallID: "fresh", Recording: "יוסי"})

			Expect(resp.Action).To(Equal(callflow.Prompt))
			Expect(turns("fresh")).To(HaveLen(2))
		})

		It("annotates nine digit answers before storing them", func() {
			controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "123 456 789"})

			caller := turns("abc")[0]
			Expect(caller.Speaker).To(Equal(session.Caller))
			Expect(caller.Text).To(ContainSubstring("123 456 789"))
			Expect(caller.Text).To(ContainSubstring("9"))
			Expect(caller.Text).To(ContainSubstring("123456789"))
		})

		It("sends the whole history in order", func() {
			generator.replies = []string{"שם משפחה?", "תעודת זהות?"}
			controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "יוסי"})
			controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "כהן"})

			Expect(generator.calls[1]).To(Equal([]llm.Message{
				{Role: llm.RoleUser, Content: "יוסי"},
				{Role: llm.RoleAssistant, Content: "שם משפחה?"},
				{Role: llm.RoleUser, Content: "כהן"},
			}))
		})

		It("falls back when the generator returns nothing", func() {
			generator.replies = []string{"  "}
			resp := controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "אממ"})

			Expect(resp.Directive).To(Equal(directive.Read(callflow.FallbackReply, directive.DefaultLocale)))
		})

		It("uses swapped prompts", func() {
			controller.SetPrompts(callflow.Prompts{Greeting: "היי", System: "חדש"})

			Expect(controller.Handle(ctx, callflow.Request{CallID: "g"}).Directive).To(ContainSubstring("t-היי="))
			controller.Handle(ctx, callflow.Request{CallID: "g", Recording: "יוסי"})
			Expect(generator.systems).To(Equal([]string{"חדש"}))
		})
	})

	Describe("generation failure", func() {
		It("apologizes and keeps the caller turn for a retry", func() {
			generator.err = errors.New("upstream 500")
			controller.Handle(ctx, callflow.Request{CallID: "abc"})

			resp := controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "יוסי"})

			Expect(resp.Directive).To(Equal("id_list_message=t-מצטערת קרתה שגיאה אנא נסה שוב"))
			Expect(resp.Action).To(Equal(callflow.Apologize))
			Expect(turns("abc")).To(Equal([]session.Turn{{Speaker: session.Caller, Text: "יוסי"}}))

			generator.err = nil
			controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "יוסי כהן"})
			Expect(generator.calls[1]).To(HaveLen(2))
		})

		It("recovers from a panicking generator", func() {
			generator.panics = true

			resp := controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "יוסי"})

			Expect(resp.Action).To(Equal(callflow.Apologize))
			Expect(resp.Directive).To(HavePrefix("id_list_message=t-"))
		})

		It("apologizes when the store is unavailable", func() {
			broken := callflow.NewController(callflow.Options{Store: brokenStore{store}, Generator: generator})

			resp := broken.Handle(ctx, callflow.Request{CallID: "abc"})
			Expect(resp.Action).To(Equal(callflow.Apologize))
		})
	})

	Describe("completion", func() {
		BeforeEach(func() {
			generator.replies = []string{"תודה! ניצור קשר. יום טוב!"}
		})

		It("notifies once, drops the session and marks the call completed", func() {
			controller.Handle(ctx, callflow.Request{CallID: "abc", Phone: "0501234567"})
			resp := controller.Handle(ctx, callflow.Request{CallID: "abc", Phone: "0501234567", Recording: "3 ילדים רווקים"})

			Expect(resp.Action).To(Equal(callflow.Terminate))
			Expect(resp.Directive).To(Equal("id_list_message=t-תודה ניצור קשר יום טוב"))

			Expect(notifier.summaries).To(HaveLen(1))
			Expect(notifier.summaries[0].CallID).To(Equal("abc"))
			Expect(notifier.summaries[0].Phone).To(Equal("0501234567"))
			Expect(notifier.summaries[0].Turns).To(HaveLen(2))

			_, ok, _ := store.Get(ctx, "abc")
			Expect(ok).To(BeFalse())
			done, _ := store.HasCompleted(ctx, "abc")
			Expect(done).To(BeTrue())
		})

		It("hangs up on the next contact exactly once", func() {
			controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "סיימתי"})

			resp := controller.Handle(ctx, callflow.Request{CallID: "abc"})
			Expect(resp.Directive).To(Equal(directive.Hangup))
			Expect(resp.Action).To(Equal(callflow.Disconnect))

			resp = controller.Handle(ctx, callflow.Request{CallID: "abc"})
			Expect(resp.Action).To(Equal(callflow.Greet))
			Expect(notifier.summaries).To(HaveLen(1))
		})

		It("treats a call as new after the marker is consumed by a hangup", func() {
			controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "סיימתי"})

			Expect(controller.Handle(ctx, callflow.Request{CallID: "abc", Hangup: true}).Directive).To(Equal(directive.Ack))
			Expect(controller.Handle(ctx, callflow.Request{CallID: "abc"}).Action).To(Equal(callflow.Greet))
		})
	})

	Describe("hangup", func() {
		It("acknowledges the same way with or without a session", func() {
			controller.Handle(ctx, callflow.Request{CallID: "with"})
			controller.Handle(ctx, callflow.Request{CallID: "with", Recording: "יוסי"})

			a := controller.Handle(ctx, callflow.Request{CallID: "with", Hangup: true})
			b := controller.Handle(ctx, callflow.Request{CallID: "without", Hangup: true})

			Expect(a).To(Equal(b))
			Expect(a.Directive).To(Equal(directive.Ack))

			for _, id := range []string{"with", "without"} {
				_, ok, _ := store.Get(ctx, id)
				Expect(ok).To(BeFalse())
				done, _ := store.HasCompleted(ctx, id)
				Expect(done).To(BeFalse())
			}
		})
	})

	It("runs the documented end-to-end scenario", func() {
		generator.replies = []string{"יוסי יופי! שם משפחה?", "תודה! ניצור קשר. יום טוב!"}

		Expect(controller.Handle(ctx, callflow.Request{CallID: "abc"}).Action).To(Equal(callflow.Greet))

		resp := controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "יוסי"})
		Expect(resp.Action).To(Equal(callflow.Prompt))
		Expect(strings.HasPrefix(resp.Directive, "read=t-")).To(BeTrue())
		Expect(turns("abc")).To(HaveLen(2))
		Expect(turns("abc")[0]).To(Equal(session.Turn{Speaker: session.Caller, Text: "יוסי"}))

		resp = controller.Handle(ctx, callflow.Request{CallID: "abc", Recording: "כהן"})
		Expect(resp.Action).To(Equal(callflow.Terminate))
		Expect(notifier.summaries).To(HaveLen(1))
		Expect(notifier.summaries[0].Turns).To(HaveLen(4))

		_, ok, _ := store.Get(ctx, "abc")
		Expect(ok).To(BeFalse())
		done, _ := store.HasCompleted(ctx, "abc")
		Expect(done).To(BeTrue())
	})
})
