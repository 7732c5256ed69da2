package transcript_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ivrdesk/pkg/notify"
	"github.com/papercomputeco/ivrdesk/pkg/session"
	"github.com/papercomputeco/ivrdesk/pkg/transcript"
)

var summary = notify.Summary{
	CallID: "abc",
	Phone:  "0501234567",
	Turns: []session.Turn{
		{Speaker: session.Caller, Text: "יוסי"},
		{Speaker: session.Assistant, Text: "יוסי יופי! שם משפחה?"},
		{Speaker: session.Caller, Text: "כהן"},
		{Speaker: session.Assistant, Text: "תודה! ניצור קשר. יום טוב!"},
	},
}

func storerContract(newStorer func() transcript.Storer) {
	var (
		storer transcript.Storer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = newStorer()
	})

	AfterEach(func() {
		Expect(storer.Close()).To(Succeed())
	})

	It("stores and retrieves a node", func() {
		node := transcript.NewNode(transcript.Entry{CallID: "abc", Speaker: "caller", Text: "שלום"}, nil)
		Expect(storer.Put(ctx, node)).To(Succeed())

		got, err := storer.Get(ctx, node.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Hash).To(Equal(node.Hash))
		Expect(got.Content).To(Equal(node.Content))
		Expect(got.ParentHash).To(BeNil())
		Expect(got.Verify()).To(BeTrue())
	})

	It("returns ErrNotFound for unknown hashes", func() {
		_, err := storer.Get(ctx, "nonexistent")

		var notFound transcript.ErrNotFound
		Expect(err).To(BeAssignableToTypeOf(notFound))
	})

	It("is idempotent for duplicate puts and rejects nil", func() {
		node := transcript.NewNode(transcript.Entry{CallID: "abc", Text: "x"}, nil)
		Expect(storer.Put(ctx, node)).To(Succeed())
		Expect(storer.Put(ctx, node)).To(Succeed())

		nodes, err := storer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(1))

		Expect(storer.Put(ctx, nil)).To(MatchError(ContainSubstring("nil node")))
	})

	It("archives a call and rebuilds it in chronological order", func() {
		head, err := transcript.Archive(ctx, storer, summary)
		Expect(err).NotTo(HaveOccurred())
		Expect(head).NotTo(BeEmpty())

		leaves, err := storer.Leaves(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(leaves).To(HaveLen(1))
		Expect(leaves[0].Hash).To(Equal(head))

		h, err := transcript.BuildHistory(ctx, storer, head)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.CallID).To(Equal("abc"))
		Expect(h.Phone).To(Equal("0501234567"))
		Expect(h.Depth).To(Equal(4))
		Expect(h.Turns[0].Text).To(Equal("יוסי"))
		Expect(h.Turns[0].ParentHash).To(BeNil())
		Expect(h.Turns[3].Speaker).To(Equal("assistant"))
		Expect(h.Turns[3].Hash).To(Equal(head))
	})

	It("lists one history per archived call", func() {
		other := summary
		other.CallID = "def"

		_, err := transcript.Archive(ctx, storer, summary)
		Expect(err).NotTo(HaveOccurred())
		_, err = transcript.Archive(ctx, storer, other)
		Expect(err).NotTo(HaveOccurred())

		histories, skipped, err := transcript.Histories(ctx, storer)
		Expect(err).NotTo(HaveOccurred())
		Expect(skipped).To(BeEmpty())
		Expect(histories).To(HaveLen(2))
	})

	It("does not archive empty conversations", func() {
		head, err := transcript.Archive(ctx, storer, notify.Summary{CallID: "empty"})
		Expect(err).NotTo(HaveOccurred())
		Expect(head).To(BeEmpty())
	})

	It("archives through the notification sink", func() {
		sink := transcript.NewArchiveSink(storer)
		Expect(sink.Name()).To(Equal("transcript"))
		Expect(sink.Send(ctx, summary)).To(Succeed())

		nodes, err := storer.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(4))
	})
}

var _ = Describe("MemoryStorer", func() {
	storerContract(func() transcript.Storer { return transcript.NewMemoryStorer() })
})

var _ = Describe("SQLiteStorer", func() {
	storerContract(func() transcript.Storer {
		s, err := transcript.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a database file", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "transcripts.db")

		s, err := transcript.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})
})
