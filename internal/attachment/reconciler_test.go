package attachment_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/blob"
)

type failingStore struct {
	blob.Store
}

func (failingStore) Put(ctx context.Context, key string, r io.Reader) error {
	return errors.New("disk full")
}

var _ = Describe("Reconciler", func() {
	var (
		ctx        context.Context
		store      *blob.FSStore
		reconciler *attachment.Reconciler
		upserted   []attachment.Plan
		upsert     func(context.Context, attachment.Plan) error
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = blob.NewFSStore(afero.NewMemMapFs())
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reconciler = attachment.NewReconciler(store, "staff", 0, logger)
		reconciler.NewKey = sequentialKeys()
		upserted = nil
		upsert = func(_ context.Context, plan attachment.Plan) error {
			upserted = append(upserted, plan)
			return nil
		}
	})

	It("defaults the size limit to 3 MiB", func() {
		Expect(reconciler.MaxFileSize).To(Equal(int64(3 * 1024 * 1024)))
	})

	It("rejects oversized files before touching rows or blobs", func() {
		big := &attachment.File{Name: "big.pdf", Size: reconciler.MaxFileSize + 1}
		_, err := reconciler.Save(ctx, "INC-000001", nil, []attachment.FieldSet{
			{File: png("ok.png")},
			{File: big},
		}, upsert)

		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		details := appErr.Details.(appErrors.ValidationErrors)
		Expect(details.Errors).To(HaveLen(1))
		Expect(details.Errors[0].Field).To(Equal("attachments[1].file"))
		Expect(details.Errors[0].Code).To(Equal(string(appErrors.ErrCodeFileTooLarge)))
		Expect(upserted).To(BeEmpty())
		Expect(store.Exists("staff/INC-000001/key-1.png")).To(BeFalse())
	})

	It("writes rows first and then applies blob writes and deletes", func() {
		Expect(store.Put(ctx, "staff/INC-000001/old-a.png", strings.NewReader("a"))).To(Succeed())
		Expect(store.Put(ctx, "staff/INC-000001/old-b.png", strings.NewReader("b"))).To(Succeed())
		existing := []attachment.Existing{
			{ID: "a", FileKey: "old-a", Extension: "png"},
			{ID: "b", FileKey: "old-b", Extension: "png"},
		}

		plan, err := reconciler.Save(ctx, "INC-000001", existing, []attachment.FieldSet{
			{ID: "a", File: png("new-a.png")},
			{File: png("photo.png")},
		}, upsert)
		Expect(err).NotTo(HaveOccurred())
		Expect(upserted).To(HaveLen(1))
		Expect(ids(plan.ToDelete)).To(Equal([]string{"b"}))

		Expect(store.Exists("staff/INC-000001/key-1.png")).To(BeTrue())
		Expect(store.Exists("staff/INC-000001/key-2.png")).To(BeTrue())
		Expect(store.Exists("staff/INC-000001/old-a.png")).To(BeFalse())
		Expect(store.Exists("staff/INC-000001/old-b.png")).To(BeFalse())
	})

	It("skips blob work when the row upsert fails", func() {
		_, err := reconciler.Save(ctx, "INC-000001", nil, []attachment.FieldSet{{File: png("photo.png")}},
			func(context.Context, attachment.Plan) error { return errors.New("constraint violation") })
		Expect(err).To(MatchError("constraint violation"))
		Expect(store.Exists("staff/INC-000001/key-1.png")).To(BeFalse())
	})

	It("returns the committed plan along with a blob failure", func() {
		reconciler.Store = failingStore{Store: store}
		plan, err := reconciler.Save(ctx, "INC-000001", nil, []attachment.FieldSet{{File: png("photo.png")}}, upsert)
		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(plan.ToCreate).To(HaveLen(1))
		Expect(upserted).To(HaveLen(1))
	})

	It("deletes an owner's directory", func() {
		Expect(store.Put(ctx, "staff/INC-000001/x.png", strings.NewReader("x"))).To(Succeed())
		Expect(reconciler.DeleteDirectory(ctx, "INC-000001")).To(Succeed())
		Expect(store.Exists("staff/INC-000001/x.png")).To(BeFalse())
	})

	Describe("Binding", func() {
		type owner struct{ Serial string }

		It("uses the entity's directory and upsert", func() {
			var got owner
			binding := attachment.Binding[owner]{
				Reconciler: reconciler,
				DirOf:      func(o owner) string { return o.Serial },
				Upsert: func(_ context.Context, o owner, _ attachment.Plan) error {
					got = o
					return nil
				},
			}

			_, err := binding.Save(ctx, owner{Serial: "CP-000007"}, nil, []attachment.FieldSet{{File: png("car.png")}})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Serial).To(Equal("CP-000007"))
			Expect(store.Exists("staff/CP-000007/key-1.png")).To(BeTrue())

			Expect(binding.Delete(ctx, got)).To(Succeed())
			Expect(store.Exists("staff/CP-000007/key-1.png")).To(BeFalse())
		})
	})
})

var _ = Describe("FromMultipart", func() {
	It("collects indexed attachment fields in order", func() {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		Expect(mw.WriteField("attachments[1].id", "a1")).To(Succeed())
		Expect(mw.WriteField("attachments[1].altText", "kept")).To(Succeed())
		Expect(mw.WriteField("attachments[0].altText", "fresh")).To(Succeed())
		fw, err := mw.CreateFormFile("attachments[0].file", "photo.png")
		Expect(err).NotTo(HaveOccurred())
		_, err = fw.Write([]byte("pixels"))
		Expect(err).NotTo(HaveOccurred())
		empty, err := mw.CreateFormFile("attachments[2].file", "")
		Expect(err).NotTo(HaveOccurred())
		_, err = empty.Write(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.WriteField("title", "ignored")).To(Succeed())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest("POST", "/", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		Expect(req.ParseMultipartForm(1 << 20)).To(Succeed())

		submitted, err := attachment.FromMultipart(req.MultipartForm, attachment.DefaultMaxFileSize)
		Expect(err).NotTo(HaveOccurred())
		Expect(submitted).To(HaveLen(2))
		Expect(submitted[0].AltText).To(Equal("fresh"))
		Expect(submitted[0].File).NotTo(BeNil())
		Expect(string(submitted[0].File.Content)).To(Equal("pixels"))
		Expect(submitted[1].ID).To(Equal("a1"))
		Expect(submitted[1].File).To(BeNil())
	})

	It("keeps the size of oversized files without reading them", func() {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		fw, err := mw.CreateFormFile("attachments[0].file", "big.bin")
		Expect(err).NotTo(HaveOccurred())
		_, err = fw.Write(bytes.Repeat([]byte("x"), 64))
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest("POST", "/", body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		Expect(req.ParseMultipartForm(1 << 20)).To(Succeed())

		submitted, err := attachment.FromMultipart(req.MultipartForm, 16)
		Expect(err).NotTo(HaveOccurred())
		Expect(submitted[0].File.Size).To(Equal(int64(64)))
		Expect(submitted[0].File.Content).To(BeNil())
	})
})
