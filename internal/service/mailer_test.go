package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sestrack.app/tracking-server/internal/model"
	"sestrack.app/tracking-server/internal/service"
)

type fakeProvider struct {
	messageID string
	err       error

	lastFrom string
	lastTo   []string
	lastRaw  []byte
}

func (f *fakeProvider) Send(ctx context.Context, from string, to []string, raw []byte) (string, error) {
	f.lastFrom = from
	f.lastTo = to
	f.lastRaw = raw
	if f.err != nil {
		return "", f.err
	}
	return f.messageID, nil
}

var _ = Describe("MailService", func() {
	var (
		logs     *fakeEmailLogStore
		provider *fakeProvider
		mailer   service.MailService
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logs = newFakeEmailLogStore()
		provider = &fakeProvider{messageID: "msg-abc"}
		mailer = service.NewMailService(logs, provider, "noreply@example.com")
	})

	It("logs the message and records the provider message id", func() {
		rec, err := mailer.Send(ctx, service.OutboundEmail{
			To:       []string{"a@example.com", "b@example.com"},
			Subject:  "Hello",
			HTMLBody: "<p>Hi</p>",
			Headers:  []string{"X-Campaign: welcome"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Status).To(Equal(model.StatusSent))
		Expect(rec.MessageID).To(HaveValue(Equal("msg-abc")))
		Expect(rec.Email).To(Equal("a@example.com, b@example.com"))

		stored := logs.get(rec.ID)
		Expect(stored.Status).To(Equal(model.StatusSent))
		Expect(stored.MessageID).To(HaveValue(Equal("msg-abc")))

		Expect(provider.lastFrom).To(Equal("noreply@example.com"))
		Expect(provider.lastTo).To(Equal([]string{"a@example.com", "b@example.com"}))
		Expect(string(provider.lastRaw)).To(ContainSubstring("Subject: Hello"))
	})

	It("prefers an explicit from address", func() {
		_, err := mailer.Send(ctx, service.OutboundEmail{
			To:       []string{"a@example.com"},
			From:     "alerts@example.com",
			Subject:  "Hello",
			HTMLBody: "x",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(provider.lastFrom).To(Equal("alerts@example.com"))
	})

	It("records attachment names on the log record", func() {
		rec, err := mailer.Send(ctx, service.OutboundEmail{
			To:       []string{"a@example.com"},
			Subject:  "Report",
			HTMLBody: "attached",
			Attachments: []service.Attachment{
				{Filename: "report.pdf", Content: []byte("%PDF-")},
				{Filename: "data.csv", Content: []byte("a,b\n")},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Attachments).To(HaveValue(Equal("report.pdf, data.csv")))
		Expect(string(provider.lastRaw)).To(ContainSubstring("report.pdf"))
	})

	It("marks the record failed and keeps the failure in history when the provider rejects", func() {
		provider.err = errors.New("quota exceeded")

		rec, err := mailer.Send(ctx, service.OutboundEmail{
			To:       []string{"a@example.com"},
			Subject:  "Hello",
			HTMLBody: "x",
		})
		Expect(err).To(HaveOccurred())
		Expect(rec).NotTo(BeNil())

		stored := logs.get(rec.ID)
		Expect(stored.Status).To(Equal(model.StatusFailed))
		Expect(stored.MessageID).To(BeNil())
		Expect(stored.Events).To(HaveLen(1))
		Expect(stored.Events[0].Kind).To(Equal(model.KindFail))
		Expect(stored.Events[0].ErrorMessage).To(ContainSubstring("quota exceeded"))
	})

	It("rejects a message with no recipients before logging", func() {
		_, err := mailer.Send(ctx, service.OutboundEmail{Subject: "Hello", HTMLBody: "x"})
		Expect(err).To(HaveOccurred())
		Expect(logs.records).To(BeEmpty())
	})
})
