package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sestrack.app/tracking-server/internal/http/handler/webhook"
	"sestrack.app/tracking-server/internal/service"
	"sestrack.app/tracking-server/internal/sns"
)

type fakeVerifier struct {
	err   error
	calls int
}

func (f *fakeVerifier) Verify(ctx context.Context, m *sns.Message) error {
	f.calls++
	return f.err
}

type fakeConfirmer struct {
	err  error
	urls []string
}

func (f *fakeConfirmer) Confirm(ctx context.Context, subscribeURL string) error {
	f.urls = append(f.urls, subscribeURL)
	return f.err
}

type fakeTracking struct {
	err      error
	payloads [][]byte
}

func (f *fakeTracking) ProcessEvent(ctx context.Context, payload []byte) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

var _ = Describe("SNSHandler", func() {
	var (
		router    *gin.Engine
		verifier  *fakeVerifier
		confirmer *fakeConfirmer
		tracking  *fakeTracking
		buf       *bytes.Buffer
	)

	post := func(body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/amazon-sns/v1/email-tracking", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "text/plain; charset=UTF-8")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	envelope := func(msgType sns.MessageType, message string) []byte {
		payload, err := json.Marshal(sns.Message{
			Type:             msgType,
			MessageID:        "sns-1",
			TopicArn:         "arn:aws:sns:us-east-1:1:email-events",
			Message:          message,
			Timestamp:        "2024-05-01T10:00:00.000Z",
			SignatureVersion: "1",
			Signature:        "c2ln",
			SigningCertURL:   "https://sns.us-east-1.amazonaws.com/cert.pem",
			SubscribeURL:     "https://sns.us-east-1.amazonaws.com/?Action=ConfirmSubscription",
		})
		Expect(err).NotTo(HaveOccurred())
		return payload
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		verifier = &fakeVerifier{}
		confirmer = &fakeConfirmer{}
		tracking = &fakeTracking{}
		buf = &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{AddSource: false}))

		h := webhook.NewSNSHandler(verifier, confirmer, tracking, logger)
		router = gin.New()
		router.POST("/amazon-sns/v1/email-tracking", h.HandleEvent)
	})

	It("hands a verified notification to the reconciler", func() {
		w := post(envelope(sns.TypeNotification, `{"eventType":"Delivery"}`))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(verifier.calls).To(Equal(1))
		Expect(tracking.payloads).To(HaveLen(1))
		Expect(string(tracking.payloads[0])).To(Equal(`{"eventType":"Delivery"}`))
	})

	It("responds not-found when the signature does not verify", func() {
		verifier.err = sns.ErrInvalidSignature

		w := post(envelope(sns.TypeNotification, `{"eventType":"Delivery"}`))

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(tracking.payloads).To(BeEmpty())
		Expect(confirmer.urls).To(BeEmpty())
		Expect(buf.String()).To(ContainSubstring("signature verification failed"))
	})

	It("responds not-found to bodies that are not sns envelopes", func() {
		w := post([]byte("not json"))

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(verifier.calls).To(BeZero())
	})

	It("confirms subscriptions and acknowledges", func() {
		w := post(envelope(sns.TypeSubscriptionConfirmation, ""))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(confirmer.urls).To(HaveLen(1))
		Expect(confirmer.urls[0]).To(ContainSubstring("ConfirmSubscription"))
		Expect(tracking.payloads).To(BeEmpty())
	})

	It("acknowledges even when the confirmation fetch fails", func() {
		confirmer.err = errors.New("connection refused")

		w := post(envelope(sns.TypeUnsubscribeConfirmation, ""))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(buf.String()).To(ContainSubstring("subscription confirmation failed"))
	})

	It("acknowledges malformed events without retry", func() {
		tracking.err = service.ErrMalformedEvent

		w := post(envelope(sns.TypeNotification, `{"eventType":"Open"}`))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(buf.String()).To(ContainSubstring("dropping malformed event"))
	})

	It("signals retry when persistence fails", func() {
		tracking.err = errors.New("connection reset")

		w := post(envelope(sns.TypeNotification, `{"eventType":"Delivery"}`))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("acknowledges message types it does not handle", func() {
		payload, err := json.Marshal(map[string]string{
			"Type":      "SomethingElse",
			"MessageId": "sns-2",
			"TopicArn":  "arn:aws:sns:us-east-1:1:email-events",
			"Timestamp": "2024-05-01T10:00:00.000Z",
		})
		Expect(err).NotTo(HaveOccurred())

		w := post(payload)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(tracking.payloads).To(BeEmpty())
		Expect(confirmer.urls).To(BeEmpty())
	})
})
