package accessrequest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/accessrequest"
	accessrequestPostgres "github.com/frahmantamala/staff-management/internal/accessrequest/postgres"
	"github.com/frahmantamala/staff-management/internal/auth"
	employeeDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/employee"
	requestDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/request"
	settingsDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
	userDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/user"
	"github.com/frahmantamala/staff-management/internal/core/dbtest"
	"github.com/frahmantamala/staff-management/internal/core/events"
	"github.com/frahmantamala/staff-management/internal/settings"
	"github.com/frahmantamala/staff-management/internal/transport"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

type stubGate struct {
	scope     auth.Scope
	canDecide bool
}

func (g *stubGate) RequireUserWithPermission(_ *http.Request, permission string) (int64, error) {
	if !g.canDecide {
		return 0, appErrors.NewForbiddenError("You do not have permission to do this", appErrors.ErrCodeMissingPermission).
			WithDetails(map[string]interface{}{"required_permission": permission})
	}
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
	return fmt.Sprintf("AR-%06d", s.n), nil
}

type fixedOptions struct{}

func (fixedOptions) Options(_ context.Context, _ settings.Kind) ([]settings.Option, error) {
	return []settings.Option{{ID: 1, Name: "Head Office"}}, nil
}

// approvingRepository approves a request right after it is read, the way an
// approver acting while an edit is in flight would.
type approvingRepository struct {
	accessrequest.RepositoryAPI
}

func (r approvingRepository) GetByID(ctx context.Context, id int64) (*accessrequest.AccessRequest, error) {
	a, err := r.RepositoryAPI.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.RepositoryAPI.Decide(ctx, id, workflow.StatusApproved, ""); err != nil {
		return nil, err
	}
	return a, nil
}

type listResponse struct {
	Data accessrequest.ListView `json:"data"`
}

var _ = Describe("Access Request Handler Integration", func() {
	var (
		db        *gorm.DB
		router    chi.Router
		gate      *stubGate
		publisher *recordingPublisher
		owner     userDatamodel.User
		other     userDatamodel.User
		host      employeeDatamodel.Employee
		site      settingsDatamodel.Location
		mine      requestDatamodel.AccessRequest
		theirs    requestDatamodel.AccessRequest
	)

	visitFrom := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/dashboard/access-requests/editor", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(req)
	}

	visitForm := func() url.Values {
		return url.Values{
			"intent":          {"add"},
			"visitorName":     {"Amina Otieno"},
			"visitorCompany":  {"Acme Audit"},
			"visitorIdNumber": {"P1234567"},
			"hostEmployeeId":  {strconv.FormatInt(host.ID, 10)},
			"locationId":      {strconv.FormatInt(site.ID, 10)},
			"purpose":         {"Quarterly audit"},
			"visitFrom":       {"2025-04-01"},
			"visitUntil":      {"2025-04-03"},
		}
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = dbtest.Open(
			&userDatamodel.Role{}, &userDatamodel.Permission{}, &userDatamodel.User{},
			&settingsDatamodel.Organ{}, &settingsDatamodel.Department{},
			&settingsDatamodel.Location{}, &settingsDatamodel.Country{},
			&employeeDatamodel.Employee{},
			&requestDatamodel.AccessRequest{},
		)
		Expect(err).NotTo(HaveOccurred())

		owner = userDatamodel.User{Email: "owner@example.com", Name: "Owner", PasswordHash: "x", IsActive: true}
		other = userDatamodel.User{Email: "other@example.com", Name: "Other", PasswordHash: "x", IsActive: true}
		Expect(db.Create(&owner).Error).To(Succeed())
		Expect(db.Create(&other).Error).To(Succeed())
		host = employeeDatamodel.Employee{FullName: "Grace Njeri", Email: "grace@example.com", Status: "active"}
		Expect(db.Create(&host).Error).To(Succeed())
		site = settingsDatamodel.Location{Name: "Head Office"}
		Expect(db.Create(&site).Error).To(Succeed())

		mine = requestDatamodel.AccessRequest{SerialNumber: "AR-000900", VisitorName: "Ben Mwangi", HostEmployeeID: host.ID, VisitFrom: visitFrom, VisitUntil: visitFrom.Add(8 * time.Hour), Status: "pending", RequestedByID: owner.ID}
		theirs = requestDatamodel.AccessRequest{SerialNumber: "AR-000901", VisitorName: "Cara Wafula", HostEmployeeID: host.ID, VisitFrom: visitFrom, VisitUntil: visitFrom.Add(8 * time.Hour), Status: "pending", RequestedByID: other.ID}
		Expect(db.Create(&mine).Error).To(Succeed())
		Expect(db.Create(&theirs).Error).To(Succeed())

		publisher = &recordingPublisher{}
		service := accessrequest.NewService(accessrequestPostgres.NewAccessRequestRepository(db), &counterSerials{}, publisher, slogger)
		gate = &stubGate{scope: auth.Scope{UserID: owner.ID}}
		handler := accessrequest.NewHandler(transport.NewBaseHandler(slogger, nil), service, gate, fixedOptions{})

		router = chi.NewRouter()
		router.Get("/dashboard/access-requests", handler.List)
		router.Get("/dashboard/access-requests/{id}", handler.Detail)
		router.Post("/dashboard/access-requests/editor", handler.Editor)
	})

	Describe("List", func() {
		It("shows only the caller's own requests with an own scope", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/dashboard/access-requests", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp listResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.CanDecide).To(BeFalse())
			Expect(resp.Data.AccessRequests.Data).To(HaveLen(1))
			Expect(resp.Data.AccessRequests.Data[0].SerialNumber).To(Equal("AR-000900"))
			Expect(resp.Data.AccessRequests.Data[0].HostEmployeeName).To(Equal("Grace Njeri"))
			Expect(resp.Data.Locations).To(HaveLen(1))
		})

		It("shows every request with an any scope", func() {
			gate.scope = auth.Scope{UserID: other.ID, Any: true}
			rec := serve(httptest.NewRequest(http.MethodGet, "/dashboard/access-requests?search=cara", nil))

			var resp listResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Data.CanDecide).To(BeTrue())
			Expect(resp.Data.AccessRequests.Data).To(HaveLen(1))
			Expect(resp.Data.AccessRequests.Data[0].VisitorName).To(Equal("Cara Wafula"))
		})
	})

	It("hides another user's request behind a 404", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/dashboard/access-requests/"+strconv.FormatInt(theirs.ID, 10), nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	Describe("add", func() {
		It("creates a pending request with a serial number", func() {
			rec := post(visitForm())
			Expect(rec.Code).To(Equal(http.StatusSeeOther))

			var created requestDatamodel.AccessRequest
			Expect(db.Where("serial_number = ?", "AR-000001").First(&created).Error).To(Succeed())
			Expect(rec.Header().Get("Location")).To(Equal("/dashboard/access-requests/" + strconv.FormatInt(created.ID, 10)))
			Expect(created.Status).To(Equal("pending"))
			Expect(created.RequestedByID).To(Equal(owner.ID))
			Expect(*created.LocationID).To(Equal(site.ID))
		})

		It("requires the visit to end after it starts", func() {
			form := visitForm()
			form.Set("visitUntil", "2025-03-30")
			rec := post(form)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring(`"field":"visitUntil"`))
		})

		It("rejects an unknown location", func() {
			form := visitForm()
			form.Set("locationId", "9999")
			rec := post(form)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring(`"field":"locationId"`))
		})

		It("requires a visitor name", func() {
			form := visitForm()
			form.Del("visitorName")
			rec := post(form)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring(`"field":"visitorName"`))
		})
	})

	Describe("decisions", func() {
		It("forbids approval without the approve permission", func() {
			rec := post(url.Values{"intent": {"approve"}, "id": {strconv.FormatInt(mine.ID, 10)}})
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("approves once and refuses a second decision", func() {
			gate.scope = auth.Scope{UserID: other.ID, Any: true}
			gate.canDecide = true
			id := strconv.FormatInt(mine.ID, 10)

			Expect(post(url.Values{"intent": {"approve"}, "id": {id}}).Code).To(Equal(http.StatusSeeOther))
			rec := post(url.Values{"intent": {"reject"}, "id": {id}, "rejectionReason": {"late"}})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var row requestDatamodel.AccessRequest
			Expect(db.First(&row, mine.ID).Error).To(Succeed())
			Expect(row.Status).To(Equal("approved"))
			Expect(publisher.events).To(BeEmpty())
		})

		It("publishes a rejection to the requester", func() {
			gate.scope = auth.Scope{UserID: other.ID, Any: true}
			gate.canDecide = true
			rec := post(url.Values{"intent": {"reject"}, "id": {strconv.FormatInt(mine.ID, 10)}, "rejectionReason": {"Site closed that week"}})
			Expect(rec.Code).To(Equal(http.StatusSeeOther))

			Expect(publisher.events).To(HaveLen(1))
			event := publisher.events[0].(*events.RequestRejectedEvent)
			Expect(event.RequestType).To(Equal(accessrequest.Entity))
			Expect(event.RequesterEmail).To(Equal("owner@example.com"))
		})
	})

	It("stops the owner editing a decided request", func() {
		Expect(db.Model(&mine).Update("status", "approved").Error).To(Succeed())
		form := visitForm()
		form.Set("intent", "edit")
		form.Set("id", strconv.FormatInt(mine.ID, 10))
		rec := post(form)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("refuses an owner edit once the request was approved under it", func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := accessrequest.NewService(approvingRepository{accessrequestPostgres.NewAccessRequestRepository(db)}, &counterSerials{}, publisher, slogger)

		_, err := service.Update(context.Background(), auth.Scope{UserID: owner.ID}, mine.ID, accessrequest.AccessRequestDTO{
			VisitorName:    "Ben Mwangi Jr",
			HostEmployeeID: host.ID,
			VisitFrom:      visitFrom,
			VisitUntil:     visitFrom.Add(4 * time.Hour),
		})
		Expect(err).To(MatchError(workflow.ErrAlreadyDecided))

		var fresh requestDatamodel.AccessRequest
		Expect(db.First(&fresh, mine.ID).Error).To(Succeed())
		Expect(fresh.Status).To(Equal("approved"))
		Expect(fresh.VisitorName).To(Equal("Ben Mwangi"))
	})

	It("lets the owner delete a pending request", func() {
		rec := post(url.Values{"intent": {"delete"}, "id": {strconv.FormatInt(mine.ID, 10)}})
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal("/dashboard/access-requests"))

		var n int64
		Expect(db.Model(&requestDatamodel.AccessRequest{}).Count(&n).Error).To(Succeed())
		Expect(n).To(Equal(int64(1)))
	})
})
