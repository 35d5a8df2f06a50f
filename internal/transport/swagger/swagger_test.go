package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Load", func() {
	write := func(body string) string {
		path := filepath.Join(GinkgoT().TempDir(), "openapi.yml")
		Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
		return path
	}

	It("accepts the shipped document and serves it verbatim", func() {
		doc, err := Load(context.Background(), "../../../api/openapi.yml")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Spec.Info.Title).To(Equal("Staff Management"))

		rec := httptest.NewRecorder()
		doc.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DocumentPath, nil))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		raw, _ := os.ReadFile("../../../api/openapi.yml")
		Expect(rec.Body.Bytes()).To(Equal(raw))
	})

	It("rejects a document that breaks the schema", func() {
		_, err := Load(context.Background(), write("openapi: 3.0.3\ninfo:\n  version: 1.0.0\npaths: {}\n"))
		Expect(err).To(MatchError(ContainSubstring("invalid openapi document")))
	})

	It("reports unreadable files", func() {
		_, err := Load(context.Background(), filepath.Join(GinkgoT().TempDir(), "missing.yml"))
		Expect(err).To(MatchError(ContainSubstring("read openapi document")))
	})
})
