package idrequest_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/frahmantamala/staff-management/internal/attachment"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/blob"
	attachmentDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/attachment"
	employeeDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/employee"
	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
	settingsDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
	userDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/user"
	"github.com/frahmantamala/staff-management/internal/core/dbtest"
	"github.com/frahmantamala/staff-management/internal/core/events"
	"github.com/frahmantamala/staff-management/internal/idrequest"
	idrequestPostgres "github.com/frahmantamala/staff-management/internal/idrequest/postgres"
	"github.com/frahmantamala/staff-management/internal/transport"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

type stubGate struct{ scope auth.Scope }

func (g *stubGate) RequireUserWithPermission(_ *http.Request, _ string) (int64, error) {
	return g.scope.UserID, nil
}

func (g *stubGate) RequireScope(_ *http.Request, _, _ string) (auth.Scope, error) {
	return g.scope, nil
}

type recordingPublisher struct{ events []events.Event }

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

type counterSerials struct{ n int }

func (s *counterSerials) Next(_ context.Context, _ string) (string, error) {
	s.n++
	return fmt.Sprintf("IDR-%06d", s.n), nil
}

// approvingRepository approves a request right after it is read, the way an
// approver acting while an edit is in flight would.
type approvingRepository struct {
	idrequest.RepositoryAPI
}

func (r approvingRepository) GetByID(ctx context.Context, id int64) (*idrequest.IDRequest, error) {
	req, err := r.RepositoryAPI.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.RepositoryAPI.Decide(ctx, id, workflow.StatusApproved, ""); err != nil {
		return nil, err
	}
	return req, nil
}

func multipartPost(fields map[string]string, files map[string]string) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	for field, name := range files {
		part, err := mw.CreateFormFile(field, name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("scan of " + name))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())

	req := httptest.NewRequest(http.MethodPost, "/dashboard/id-requests/editor", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var _ = Describe("ID Request Handler Integration", func() {
	var (
		db        *gorm.DB
		store     *blob.FSStore
		router    chi.Router
		gate      *stubGate
		publisher *recordingPublisher
		requester userDatamodel.User
		staff     employeeDatamodel.Employee
	)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = dbtest.Open(
			&userDatamodel.Role{}, &userDatamodel.Permission{}, &userDatamodel.User{},
			&settingsDatamodel.Organ{}, &settingsDatamodel.Department{},
			&settingsDatamodel.Location{}, &settingsDatamodel.Country{},
			&employeeDatamodel.Employee{},
			&requestDatamodel.IDRequest{},
			&attachmentDatamodel.Attachment{},
		)
		Expect(err).NotTo(HaveOccurred())

		requester = userDatamodel.User{Email: "lee@example.com", Name: "Lee", PasswordHash: "x", IsActive: true}
		Expect(db.Create(&requester).Error).To(Succeed())
		staff = employeeDatamodel.Employee{FullName: "Lee Wanjiru", Email: "lee.w@example.com", Status: "active"}
		Expect(db.Create(&staff).Error).To(Succeed())

		store = blob.NewFSStore(afero.NewMemMapFs())
		reconciler := attachment.NewReconciler(store, "staff", 0, slogger)
		publisher = &recordingPublisher{}
		service := idrequest.NewService(idrequestPostgres.NewIDRequestRepository(db), &counterSerials{}, reconciler, publisher, slogger)
		gate = &stubGate{scope: auth.Scope{UserID: requester.ID}}
		handler := idrequest.NewHandler(transport.NewBaseHandler(slogger, nil), service, gate)

		router = chi.NewRouter()
		router.Get("/dashboard/id-requests/{id}", handler.Detail)
		router.Post("/dashboard/id-requests/editor", handler.Editor)
	})

	It("stores the uploaded photo under the request's serial number", func() {
		rec := serve(multipartPost(map[string]string{
			"intent":      "add",
			"employeeId":  strconv.FormatInt(staff.ID, 10),
			"requestType": idrequest.TypeNew,
		}, map[string]string{"attachments[0].file": "passport.jpg"}))
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		var created requestDatamodel.IDRequest
		Expect(db.Preload("Attachments").Where("serial_number = ?", "IDR-000001").First(&created).Error).To(Succeed())
		Expect(created.Status).To(Equal("pending"))
		Expect(created.Attachments).To(HaveLen(1))

		a := created.Attachments[0]
		Expect(a.OwnerType).To(Equal(attachment.OwnerIDRequest))
		Expect(a.Extension).To(Equal("jpg"))
		ok, err := store.Exists(blob.Key("staff", "IDR-000001", a.FileKey, "jpg"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("needs a reason for a replacement badge", func() {
		rec := serve(multipartPost(map[string]string{
			"intent":      "add",
			"employeeId":  strconv.FormatInt(staff.ID, 10),
			"requestType": idrequest.TypeReplacement,
		}, nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(`"field":"reason"`))
	})

	It("rejects an unknown request type", func() {
		rec := serve(multipartPost(map[string]string{
			"intent":      "add",
			"employeeId":  strconv.FormatInt(staff.ID, 10),
			"requestType": "upgrade",
		}, nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(`"field":"requestType"`))
	})

	It("notifies the requester when a request is rejected", func() {
		row := requestDatamodel.IDRequest{SerialNumber: "IDR-000050", EmployeeID: staff.ID, RequestType: idrequest.TypeRenewal, Status: "pending", RequestedByID: requester.ID}
		Expect(db.Create(&row).Error).To(Succeed())

		gate.scope = auth.Scope{UserID: 99, Any: true}
		rec := serve(multipartPost(map[string]string{
			"intent":          "reject",
			"id":              strconv.FormatInt(row.ID, 10),
			"rejectionReason": "Photo does not match",
		}, nil))
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		Expect(publisher.events).To(HaveLen(1))
		event := publisher.events[0].(*events.RequestRejectedEvent)
		Expect(event.RequestType).To(Equal(idrequest.Entity))
		Expect(event.RequesterEmail).To(Equal("lee@example.com"))
		Expect(event.Reason).To(Equal("Photo does not match"))

		rec = serve(httptest.NewRequest(http.MethodGet, "/dashboard/id-requests/"+strconv.FormatInt(row.ID, 10), nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"rejected"`))
		Expect(rec.Body.String()).To(ContainSubstring(`"canDecide":false`))
	})

	It("refuses an owner edit once the request was approved under it", func() {
		row := requestDatamodel.IDRequest{SerialNumber: "IDR-000060", EmployeeID: staff.ID, RequestType: idrequest.TypeNew, Status: "pending", RequestedByID: requester.ID}
		Expect(db.Create(&row).Error).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reconciler := attachment.NewReconciler(store, "staff", 0, slogger)
		service := idrequest.NewService(approvingRepository{idrequestPostgres.NewIDRequestRepository(db)}, &counterSerials{}, reconciler, publisher, slogger)

		_, err := service.Update(context.Background(), auth.Scope{UserID: requester.ID}, row.ID, idrequest.IDRequestDTO{
			EmployeeID:  staff.ID,
			RequestType: idrequest.TypeRenewal,
		})
		Expect(err).To(MatchError(workflow.ErrAlreadyDecided))

		var fresh requestDatamodel.IDRequest
		Expect(db.First(&fresh, row.ID).Error).To(Succeed())
		Expect(fresh.Status).To(Equal("approved"))
		Expect(fresh.RequestType).To(Equal(idrequest.TypeNew))
	})

	It("deletes a pending request with its blobs", func() {
		rec := serve(multipartPost(map[string]string{
			"intent":      "add",
			"employeeId":  strconv.FormatInt(staff.ID, 10),
			"requestType": idrequest.TypeNew,
		}, map[string]string{"attachments[0].file": "photo.png"}))
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		var created requestDatamodel.IDRequest
		Expect(db.Where("serial_number = ?", "IDR-000001").First(&created).Error).To(Succeed())

		rec = serve(multipartPost(map[string]string{"intent": "delete", "id": strconv.FormatInt(created.ID, 10)}, nil))
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		var n int64
		Expect(db.Model(&attachmentDatamodel.Attachment{}).Count(&n).Error).To(Succeed())
		Expect(n).To(BeZero())
	})
})
