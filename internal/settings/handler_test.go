package settings_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/staff-management/internal/cookie"
	settingsDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
	"github.com/frahmantamala/staff-management/internal/core/dbtest"
	"github.com/frahmantamala/staff-management/internal/listquery"
	"github.com/frahmantamala/staff-management/internal/settings"
	settingsPostgres "github.com/frahmantamala/staff-management/internal/settings/postgres"
	"github.com/frahmantamala/staff-management/internal/transport"
)

type listResponse struct {
	Data settings.ListView `json:"data"`
}

var _ = Describe("Settings Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *settings.Handler
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = dbtest.Open(&settingsDatamodel.Organ{}, &settingsDatamodel.Department{}, &settingsDatamodel.Location{}, &settingsDatamodel.Country{})
		Expect(err).NotTo(HaveOccurred())

		codec, err := cookie.NewCodec([]string{"settings-test-secret-settings-test"}, false)
		Expect(err).NotTo(HaveOccurred())

		service := settings.NewService(settingsPostgres.NewSettingsRepository(db), slogger)
		handler = settings.NewHandler(transport.NewBaseHandler(slogger, codec), service)

		health := settingsDatamodel.Organ{Name: "Health"}
		Expect(db.Create(&health).Error).To(Succeed())
		Expect(db.Create(&settingsDatamodel.Organ{Name: "Finance"}).Error).To(Succeed())
		Expect(db.Create(&settingsDatamodel.Department{Name: "Radiology", OrganID: &health.ID}).Error).To(Succeed())
		Expect(db.Create(&settingsDatamodel.Department{Name: "Payroll"}).Error).To(Succeed())
	})

	post := func(kind settings.Kind, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/dashboard/settings/"+string(kind)+"/editor", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.Editor(kind)(rec, req)
		return rec
	}

	list := func(kind settings.Kind, query string) listResponse {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/settings/"+string(kind)+"?"+query, nil)
		rec := httptest.NewRecorder()
		handler.List(kind)(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp listResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	It("lists sorted by name with paging metadata", func() {
		resp := list(settings.KindOrgan, "pageSize=1")
		Expect(resp.Data.Items.TotalItems).To(Equal(int64(2)))
		Expect(resp.Data.Items.TotalPages).To(Equal(2))
		Expect(resp.Data.Items.Data).To(HaveLen(1))
		Expect(resp.Data.Items.Data[0].Name).To(Equal("Finance"))
	})

	It("searches departments by their organ name and offers organ options", func() {
		resp := list(settings.KindDepartment, "search=heal")
		Expect(resp.Data.Items.Data).To(HaveLen(1))
		Expect(resp.Data.Items.Data[0].Name).To(Equal("Radiology"))
		Expect(resp.Data.Items.Data[0].OrganName).To(Equal("Health"))
		Expect(resp.Data.Organs).To(HaveLen(2))
	})

	It("adds an item and redirects with a toast", func() {
		rec := post(settings.KindLocation, url.Values{"intent": {"add"}, "name": {"HQ"}, "description": {"Main building"}})
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get("Location")).To(Equal("/dashboard/settings/locations"))
		Expect(rec.Header().Values("Set-Cookie")).To(ContainElement(HavePrefix(cookie.ToastName + "=")))

		var n int64
		Expect(db.Model(&settingsDatamodel.Location{}).Where("name = ?", "HQ").Count(&n).Error).To(Succeed())
		Expect(n).To(Equal(int64(1)))
	})

	It("rejects duplicate names case-insensitively", func() {
		rec := post(settings.KindOrgan, url.Values{"intent": {"add"}, "name": {"health"}})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("DUPLICATE_NAME"))
	})

	It("allows an edit to keep its own name", func() {
		var organ settingsDatamodel.Organ
		Expect(db.Where("name = ?", "Health").First(&organ).Error).To(Succeed())

		rec := post(settings.KindOrgan, url.Values{"intent": {"edit"}, "id": {jsonID(organ.ID)}, "name": {"Health"}, "description": {"Hospitals"}})
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(db.First(&organ, organ.ID).Error).To(Succeed())
		Expect(organ.Description).To(Equal("Hospitals"))
	})

	It("validates country codes", func() {
		rec := post(settings.KindCountry, url.Values{"intent": {"add"}, "name": {"Kenya"}, "code": {"KEN"}})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(`"field":"code"`))

		rec = post(settings.KindCountry, url.Values{"intent": {"add"}, "name": {"Kenya"}, "code": {"ke"}})
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
	})

	It("refuses a department under a missing organ", func() {
		rec := post(settings.KindDepartment, url.Values{"intent": {"add"}, "name": {"Ghost"}, "organId": {"999"}})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("organId"))
	})

	It("deletes and answers 404 for missing rows", func() {
		var dept settingsDatamodel.Department
		Expect(db.Where("name = ?", "Payroll").First(&dept).Error).To(Succeed())

		rec := post(settings.KindDepartment, url.Values{"intent": {"delete"}, "id": {jsonID(dept.ID)}})
		Expect(rec.Code).To(Equal(http.StatusSeeOther))

		rec = post(settings.KindDepartment, url.Values{"intent": {"delete"}, "id": {jsonID(dept.ID)}})
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects unknown intents and malformed ids", func() {
		rec := post(settings.KindOrgan, url.Values{"intent": {"archive"}})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("INVALID_INTENT"))

		rec = post(settings.KindOrgan, url.Values{"intent": {"delete"}, "id": {"abc"}})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns an empty page rather than null", func() {
		resp := list(settings.KindCountry, "")
		Expect(resp.Data.Items.Data).NotTo(BeNil())
		Expect(resp.Data.Items).To(Equal(listquery.Page[settings.Item]{Data: []settings.Item{}, TotalPages: 0, CurrentPage: 1, TotalItems: 0}))
	})
})

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
