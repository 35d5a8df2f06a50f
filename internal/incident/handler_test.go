package incident_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/blob"
	"github.com/frahmantamala/staff-management/internal/cookie"
	attachmentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
	employeeDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/employee"
	incidentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/incident"
	settingsDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
	"github.com/frahmantamala/staff-management/internal/core/dbtest"
	"github.com/frahmantamala/staff-management/internal/incident"
	incidentPostgres "github.com/frahmantamala/staff-management/internal/incident/postgres"
	settingsPostgres "github.com/frahmantamala/staff-management/internal/settings/postgres"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type fakeSerials struct{ n int }

func (f *fakeSerials) Next(_ context.Context, _ string) (string, error) {
	f.n++
	return fmt.Sprintf("INC-%06d", f.n+100), nil
}

// stubGate admits userID unless the permission is listed in denied.
type stubGate struct {
	userID int64
	denied map[string]bool
	asked  []string
}

func (g *stubGate) RequireUserWithPermission(_ *http.Request, permission string) (int64, error) {
	g.asked = append(g.asked, permission)
	if g.userID == 0 {
		return 0, appErrors.ErrNoSession
	}
	if g.denied[permission] {
		return 0, appErrors.NewForbiddenError("You do not have permission to do this", appErrors.ErrCodeMissingPermission)
	}
	return g.userID, nil
}

type form struct {
	fields map[string]string
	files  map[string][]byte
}

func (f form) request() *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range f.fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	for name, content := range f.files {
		part, err := mw.CreateFormFile(name, "photo.png")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(content)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())

	req := httptest.NewRequest(http.MethodPost, "/dashboard/incidents/editor", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var _ = Describe("Incident Handler Integration", func() {
	var (
		db      *gorm.DB
		store   *blob.FSStore
		router  chi.Router
		handler *incident.Handler
		gate    *stubGate
		inc     incidentDatamodel.Incident
		keys    int
	)

	const container = "staff"

	blobExists := func(dir, name string) bool {
		ok, err := store.Exists(blob.Key(container, dir, name, "png"))
		Expect(err).NotTo(HaveOccurred())
		return ok
	}

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		var err error
		ctx := context.Background()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = dbtest.Open(
			&settingsDatamodel.Organ{}, &settingsDatamodel.Department{},
			&settingsDatamodel.Location{}, &settingsDatamodel.Country{},
			&employeeDatamodel.Employee{},
			&incidentDatamodel.Incident{},
			&attachmentDatamodel.Attachment{},
		)
		Expect(err).NotTo(HaveOccurred())

		store = blob.NewFSStore(afero.NewMemMapFs())
		reconciler := attachment.NewReconciler(store, container, 1024, slogger)
		keys = 0
		reconciler.NewKey = func() string {
			keys++
			return fmt.Sprintf("gen-%d", keys)
		}

		codec, err := cookie.NewCodec([]string{"incident-test-secret-incident-test"}, false)
		Expect(err).NotTo(HaveOccurred())

		service := incident.NewService(incidentPostgres.NewIncidentRepository(db), &fakeSerials{}, reconciler, slogger)
		gate = &stubGate{userID: 7}
		handler = incident.NewHandler(transport.NewBaseHandler(slogger, codec), service, gate, settingsPostgres.NewSettingsRepository(db))
		router = chi.NewRouter()
		router.Get("/dashboard/incidents", handler.List)
		router.Get("/dashboard/incidents/{id}", handler.Detail)
		router.Post("/dashboard/incidents/editor", handler.Editor)

		inc = incidentDatamodel.Incident{
			SerialNumber: "INC-000001",
			Title:        "Broken gate",
			Severity:     incident.SeverityMedium,
			Status:       incident.StatusOpen,
			OccurredAt:   time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
			ReportedByID: 7,
		}
		Expect(db.Create(&inc).Error).To(Succeed())
		Expect(db.Create(&[]attachmentDatamodel.Attachment{
			{ID: "a1", OwnerType: attachment.OwnerIncident, OwnerID: inc.ID, FileKey: "a1", FileName: "gate.png", Extension: "png", Size: 3},
			{ID: "a2", OwnerType: attachment.OwnerIncident, OwnerID: inc.ID, FileKey: "a2", FileName: "lock.png", Extension: "png", Size: 3},
		}).Error).To(Succeed())
		Expect(store.Put(ctx, blob.Key(container, "INC-000001", "a1", "png"), bytes.NewReader([]byte("one")))).To(Succeed())
		Expect(store.Put(ctx, blob.Key(container, "INC-000001", "a2", "png"), bytes.NewReader([]byte("two")))).To(Succeed())
	})

	editFields := func(extra map[string]string) map[string]string {
		fields := map[string]string{
			"intent":     "edit",
			"id":         strconv.FormatInt(inc.ID, 10),
			"title":      "Broken gate",
			"severity":   "high",
			"status":     "investigating",
			"occurredAt": "2024-05-02T09:00",
		}
		for k, v := range extra {
			fields[k] = v
		}
		return fields
	}

	It("reconciles an edit: omitted attachment deleted, kept one untouched, new one stored", func() {
		rec := serve(form{
			fields: editFields(map[string]string{"attachments[0].id": "a1"}),
			files:  map[string][]byte{"attachments[1].file": []byte("new-photo")},
		}.request())
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal("/dashboard/incidents/" + strconv.FormatInt(inc.ID, 10)))

		var rows []attachmentDatamodel.Attachment
		Expect(db.Where("owner_id = ?", inc.ID).Order("id").Find(&rows).Error).To(Succeed())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].ID).To(Equal("a1"))
		Expect(rows[0].FileKey).To(Equal("a1"))
		Expect(rows[0].FileName).To(Equal("gate.png"))
		Expect(rows[1].ID).To(Equal("gen-1"))
		Expect(rows[1].FileName).To(Equal("photo.png"))

		Expect(blobExists("INC-000001", "a1")).To(BeTrue())
		Expect(blobExists("INC-000001", "a2")).To(BeFalse())
		Expect(blobExists("INC-000001", "gen-1")).To(BeTrue())

		var saved incidentDatamodel.Incident
		Expect(db.First(&saved, inc.ID).Error).To(Succeed())
		Expect(saved.Severity).To(Equal("high"))
		Expect(saved.SerialNumber).To(Equal("INC-000001"))
	})

	It("replaces a file under a fresh key and removes the old blob", func() {
		rec := serve(form{
			fields: editFields(map[string]string{"attachments[0].id": "a1", "attachments[0].altText": "front", "attachments[1].id": "a2"}),
			files:  map[string][]byte{"attachments[0].file": []byte("replacement")},
		}.request())
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		var a1 attachmentDatamodel.Attachment
		Expect(db.First(&a1, "id = ?", "a1").Error).To(Succeed())
		Expect(a1.FileKey).To(Equal("gen-1"))
		Expect(a1.AltText).To(Equal("front"))
		Expect(blobExists("INC-000001", "a1")).To(BeFalse())
		Expect(blobExists("INC-000001", "gen-1")).To(BeTrue())
		Expect(blobExists("INC-000001", "a2")).To(BeTrue())
	})

	It("rejects an oversized file before touching rows or storage", func() {
		rec := serve(form{
			fields: editFields(map[string]string{"attachments[0].id": "a1"}),
			files:  map[string][]byte{"attachments[1].file": bytes.Repeat([]byte("x"), 2048)},
		}.request())
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("attachments[1].file"))

		var n int64
		Expect(db.Model(&attachmentDatamodel.Attachment{}).Where("owner_id = ?", inc.ID).Count(&n).Error).To(Succeed())
		Expect(n).To(Equal(int64(2)))
		Expect(blobExists("INC-000001", "a2")).To(BeTrue())
	})

	It("reports a new incident with a serial number and stores its files", func() {
		rec := serve(form{
			fields: map[string]string{"intent": "add", "title": "Water leak", "occurredAt": "2024-06-01"},
			files:  map[string][]byte{"attachments[0].file": []byte("leak")},
		}.request())
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		var created incidentDatamodel.Incident
		Expect(db.Where("title = ?", "Water leak").First(&created).Error).To(Succeed())
		Expect(created.SerialNumber).To(Equal("INC-000101"))
		Expect(created.ReportedByID).To(Equal(int64(7)))
		Expect(gate.asked).To(ConsistOf("incident:create:any"))
		Expect(created.Severity).To(Equal(incident.SeverityLow))
		Expect(created.Status).To(Equal(incident.StatusOpen))
		Expect(blobExists("INC-000101", "gen-1")).To(BeTrue())
	})

	It("validates the incident fields", func() {
		rec := serve(form{fields: map[string]string{"intent": "add", "severity": "apocalyptic"}}.request())
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		body := rec.Body.String()
		Expect(body).To(ContainSubstring(`"field":"title"`))
		Expect(body).To(ContainSubstring(`"field":"severity"`))
		Expect(body).To(ContainSubstring(`"field":"occurredAt"`))
	})

	It("changes only the status on update-status", func() {
		rec := serve(form{fields: map[string]string{"intent": "update-status", "id": strconv.FormatInt(inc.ID, 10), "status": "closed"}}.request())
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		var saved incidentDatamodel.Incident
		Expect(db.First(&saved, inc.ID).Error).To(Succeed())
		Expect(saved.Status).To(Equal(incident.StatusClosed))
		Expect(blobExists("INC-000001", "a2")).To(BeTrue())
	})

	It("deletes the incident with its rows and blob directory", func() {
		rec := serve(form{fields: map[string]string{"intent": "delete", "id": strconv.FormatInt(inc.ID, 10)}}.request())
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal("/dashboard/incidents"))

		var n int64
		Expect(db.Model(&attachmentDatamodel.Attachment{}).Count(&n).Error).To(Succeed())
		Expect(n).To(BeZero())
		Expect(blobExists("INC-000001", "a1")).To(BeFalse())
	})

	It("redirects to login without a session", func() {
		gate.userID = 0
		rec := serve(form{fields: map[string]string{"intent": "delete", "id": "1"}}.request())
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(HavePrefix("/login?redirectTo="))
	})

	It("checks the permission of the submitted intent", func() {
		gate.denied = map[string]bool{"incident:delete:any": true}
		rec := serve(form{fields: map[string]string{"intent": "delete", "id": strconv.FormatInt(inc.ID, 10)}}.request())
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		var n int64
		Expect(db.Model(&incidentDatamodel.Incident{}).Count(&n).Error).To(Succeed())
		Expect(n).To(Equal(int64(1)))

		rec = serve(form{fields: map[string]string{"intent": "update-status", "id": strconv.FormatInt(inc.ID, 10), "status": "closed"}}.request())
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(gate.asked).To(Equal([]string{"incident:delete:any", "incident:update:any"}))
	})

	It("lists incidents with attachments and searches by serial number", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/dashboard/incidents?search=inc-000001", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		body, err := io.ReadAll(rec.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`"serialNumber":"INC-000001"`))
		Expect(string(body)).To(ContainSubstring(`"url":"/attachments/a1"`))
		Expect(string(body)).To(ContainSubstring(`"totalItems":1`))
	})

	It("answers 404 for a missing incident", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/dashboard/incidents/999", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
