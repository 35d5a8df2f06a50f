package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HealthHandler", func() {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	health := func(checks map[string]Check) (*httptest.ResponseRecorder, HealthResponse) {
		rec := httptest.NewRecorder()
		NewHealthHandler(checks).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		var resp HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return rec, resp
	}

	It("reports healthy when every check passes", func() {
		rec, resp := health(map[string]Check{"database": ok, "redis": ok})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(HealthHealthy))
		Expect(resp.Components).To(HaveLen(2))
	})

	It("answers 503 and names the failing component", func() {
		rec, resp := health(map[string]Check{"database": down, "redis": ok})
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(resp.Status).To(Equal(HealthUnhealthy))
		Expect(resp.Components["database"].Message).To(Equal("connection refused"))
		Expect(resp.Components["redis"].Status).To(Equal(HealthHealthy))
	})

	It("answers ping without running checks", func() {
		rec := httptest.NewRecorder()
		NewHealthHandler(map[string]Check{"database": down}).Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"OK"`))
	})
})
