package blob_test

import (
	"context"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/frahmantamala/staff-management/internal/blob"
)

var _ = Describe("FSStore", func() {
	var (
		store *blob.FSStore
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = blob.NewFSStore(afero.NewMemMapFs())
	})

	It("builds keys from container, directory, name and extension", func() {
		Expect(blob.Key("staff", "INC-000001", "abc", "png")).To(Equal("staff/INC-000001/abc.png"))
		Expect(blob.Key("staff", "INC-000001", "abc", ".pdf")).To(Equal("staff/INC-000001/abc.pdf"))
		Expect(blob.Key("staff", "INC-000001", "abc", "")).To(Equal("staff/INC-000001/abc"))
	})

	It("round-trips content", func() {
		Expect(store.Put(ctx, "staff/INC-1/a.txt", strings.NewReader("hello"))).To(Succeed())

		rc, err := store.Get(ctx, "staff/INC-1/a.txt")
		Expect(err).NotTo(HaveOccurred())
		defer rc.Close()
		content, err := io.ReadAll(rc)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("hello"))
	})

	It("returns ErrNotFound for missing blobs", func() {
		_, err := store.Get(ctx, "staff/INC-1/missing.txt")
		Expect(err).To(MatchError(blob.ErrNotFound))
	})

	It("ignores deletes of missing blobs", func() {
		Expect(store.Delete(ctx, "staff/INC-1/missing.txt")).To(Succeed())
	})

	It("removes a whole directory", func() {
		Expect(store.Put(ctx, "staff/INC-1/a.txt", strings.NewReader("a"))).To(Succeed())
		Expect(store.Put(ctx, "staff/INC-1/b.txt", strings.NewReader("b"))).To(Succeed())
		Expect(store.Put(ctx, "staff/INC-2/c.txt", strings.NewReader("c"))).To(Succeed())

		Expect(store.DeleteDir(ctx, "staff/INC-1")).To(Succeed())

		Expect(store.Exists("staff/INC-1/a.txt")).To(BeFalse())
		Expect(store.Exists("staff/INC-2/c.txt")).To(BeTrue())
	})

	It("rejects keys escaping the root", func() {
		Expect(store.Put(ctx, "../etc/passwd", strings.NewReader("x"))).NotTo(Succeed())
	})
})
