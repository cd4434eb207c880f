package sns_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sestrack.app/tracking-server/internal/sns"
)

var _ = Describe("Confirmer", func() {
	It("fetches the subscribe url once", func() {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			Expect(r.Method).To(Equal(http.MethodGet))
			Expect(r.URL.Query().Get("Action")).To(Equal("ConfirmSubscription"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := sns.NewConfirmer(server.Client())
		err := c.Confirm(context.Background(), server.URL+"/?Action=ConfirmSubscription")
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(1))
	})

	It("reports non-200 responses as errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		c := sns.NewConfirmer(server.Client())
		Expect(c.Confirm(context.Background(), server.URL)).To(HaveOccurred())
	})

	It("reports unreachable endpoints as errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		c := sns.NewConfirmer(http.DefaultClient)
		Expect(c.Confirm(context.Background(), url)).To(HaveOccurred())
	})
})
