package attachment_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/staff-management/internal/attachment"
)

func sequentialKeys() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
}

func png(name string) *attachment.File {
	return &attachment.File{Name: name, ContentType: "image/png", Size: 4, Content: []byte("data")}
}

func ids(existing []attachment.Existing) []string {
	out := make([]string, 0, len(existing))
	for _, e := range existing {
		out = append(out, e.ID)
	}
	return out
}

var _ = Describe("Reconcile", func() {
	existing := []attachment.Existing{
		{ID: "1", FileKey: "1", Extension: "png"},
		{ID: "2", FileKey: "2", Extension: "png"},
		{ID: "3", FileKey: "3", Extension: "pdf"},
	}

	It("deletes stored attachments that were omitted", func() {
		plan := attachment.Reconcile(existing, []attachment.FieldSet{
			{ID: "2"},
			{ID: "3", File: png("new.png")},
		}, sequentialKeys())

		Expect(ids(plan.ToDelete)).To(Equal([]string{"1"}))
		Expect(plan.ToCreate).To(BeEmpty())
		Expect(plan.ToUpdate).To(HaveLen(2))
	})

	It("replaces a file under a fresh key while updating the same row", func() {
		plan := attachment.Reconcile(existing, []attachment.FieldSet{
			{ID: "2", File: png("replacement.png"), AltText: "front"},
		}, sequentialKeys())

		Expect(plan.ToUpdate).To(HaveLen(1))
		update := plan.ToUpdate[0]
		Expect(update.ID).To(Equal("2"))
		Expect(update.Replaces()).To(BeTrue())
		Expect(update.FileKey).To(Equal("key-1"))
		Expect(update.FileKey).NotTo(Equal("2"))
		Expect(update.Previous.FileKey).To(Equal("2"))
		Expect(update.AltText).To(Equal("front"))
	})

	It("updates metadata only when no file is sent", func() {
		plan := attachment.Reconcile(existing, []attachment.FieldSet{
			{ID: "1", AltText: "caption"},
			{ID: "2"},
			{ID: "3"},
		}, sequentialKeys())

		Expect(plan.ToDelete).To(BeEmpty())
		Expect(plan.ToUpdate[0].Replaces()).To(BeFalse())
		Expect(plan.ToUpdate[0].FileKey).To(BeEmpty())
		Expect(plan.ToUpdate[0].AltText).To(Equal("caption"))
	})

	It("creates entries without an id only when they carry a file", func() {
		plan := attachment.Reconcile(nil, []attachment.FieldSet{
			{AltText: "nothing attached"},
			{File: png("photo.png")},
		}, sequentialKeys())

		Expect(plan.ToCreate).To(HaveLen(1))
		Expect(plan.ToCreate[0].ID).To(Equal("key-1"))
		Expect(plan.ToCreate[0].FileKey).To(Equal("key-1"))
		Expect(plan.ToCreate[0].File.Name).To(Equal("photo.png"))
		Expect(plan.ToUpdate).To(BeEmpty())
	})

	It("ignores ids that do not belong to the owner", func() {
		plan := attachment.Reconcile(existing, []attachment.FieldSet{
			{ID: "1"}, {ID: "2"}, {ID: "3"},
			{ID: "someone-elses", File: png("x.png")},
		}, sequentialKeys())

		Expect(plan.ToUpdate).To(HaveLen(3))
		Expect(plan.ToCreate).To(BeEmpty())
		Expect(plan.ToDelete).To(BeEmpty())
	})

	It("keeps the first of duplicate ids", func() {
		plan := attachment.Reconcile(existing, []attachment.FieldSet{
			{ID: "1", AltText: "first"},
			{ID: "1", AltText: "second"},
		}, sequentialKeys())

		Expect(plan.ToUpdate).To(HaveLen(1))
		Expect(plan.ToUpdate[0].AltText).To(Equal("first"))
		Expect(ids(plan.ToDelete)).To(ConsistOf("2", "3"))
	})

	It("is idempotent when re-run on its own persisted output", func() {
		submitted := []attachment.FieldSet{
			{ID: "1"},
			{ID: "3", File: png("swap.png")},
			{File: png("a.png")},
			{File: png("b.png")},
			{},
		}
		plan := attachment.Reconcile(existing, submitted, sequentialKeys())

		var persisted []attachment.Existing
		var resubmitted []attachment.FieldSet
		for _, c := range plan.ToCreate {
			persisted = append(persisted, attachment.Existing{ID: c.ID, FileKey: c.FileKey, Extension: c.File.Extension()})
			resubmitted = append(resubmitted, attachment.FieldSet{ID: c.ID})
		}
		for _, u := range plan.ToUpdate {
			persisted = append(persisted, attachment.Existing{ID: u.ID, FileKey: u.FileKey})
			resubmitted = append(resubmitted, attachment.FieldSet{ID: u.ID})
		}

		again := attachment.Reconcile(persisted, resubmitted, sequentialKeys())
		Expect(again.ToDelete).To(BeEmpty())
		Expect(again.ToCreate).To(BeEmpty())
	})

	It("reports an empty plan", func() {
		Expect(attachment.Reconcile(nil, nil, sequentialKeys()).Empty()).To(BeTrue())
	})
})

var _ = Describe("File", func() {
	It("derives a lower-case extension", func() {
		Expect((&attachment.File{Name: "Photo.PNG"}).Extension()).To(Equal("png"))
		Expect((&attachment.File{Name: "README"}).Extension()).To(Equal("bin"))
	})
})
