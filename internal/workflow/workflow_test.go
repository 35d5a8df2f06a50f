package workflow_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appErrors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/core/events"
	"github.com/frahmantamala/staff-management/internal/workflow"
)

type stubGate struct {
	scope       auth.Scope
	permissions []string
	scopes      []string
}

func (g *stubGate) RequireUserWithPermission(_ *http.Request, permission string) (int64, error) {
	g.permissions = append(g.permissions, permission)
	return g.scope.UserID, nil
}

func (g *stubGate) RequireScope(_ *http.Request, entity, action string) (auth.Scope, error) {
	g.scopes = append(g.scopes, entity+":"+action)
	return g.scope, nil
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return p.err
}

func intentRequest(intent string) *http.Request {
	body := url.Values{"intent": {intent}}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	Expect(req.ParseForm()).To(Succeed())
	return req
}

var errHidden = errors.New("hidden")

var _ = Describe("Workflow", func() {
	own := auth.Scope{UserID: 5}
	everyone := auth.Scope{UserID: 1, Any: true}

	Describe("EnsurePending", func() {
		It("refuses a decided request", func() {
			Expect(workflow.EnsurePending(workflow.StatusPending)).To(Succeed())

			err := workflow.EnsurePending(workflow.StatusApproved)
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(appErr.Error()).To(ContainSubstring("already been approved"))
		})
	})

	Describe("ValidateRejection", func() {
		It("requires a reason", func() {
			Expect(workflow.ValidateRejection("")).To(HaveOccurred())
			Expect(workflow.ValidateRejection(strings.Repeat("x", 501))).To(HaveOccurred())
			Expect(workflow.ValidateRejection("Plate number unreadable")).To(Succeed())
		})
	})

	Describe("EnsureEditable", func() {
		It("hides other people's requests from owners", func() {
			Expect(workflow.EnsureEditable(own, 6, workflow.StatusPending, errHidden)).To(MatchError(errHidden))
		})

		It("lets owners edit only while pending", func() {
			Expect(workflow.EnsureEditable(own, 5, workflow.StatusPending, errHidden)).To(Succeed())
			Expect(workflow.EnsureEditable(own, 5, workflow.StatusRejected, errHidden)).To(HaveOccurred())
		})

		It("lets any-access edit at every stage", func() {
			Expect(workflow.EnsureEditable(everyone, 6, workflow.StatusApproved, errHidden)).To(Succeed())
		})
	})

	Describe("Authorize", func() {
		It("asks for the scope of ordinary intents", func() {
			gate := &stubGate{scope: own}
			scope, err := workflow.Authorize(gate, intentRequest("edit"), "carpass")
			Expect(err).NotTo(HaveOccurred())
			Expect(scope).To(Equal(own))
			Expect(gate.scopes).To(Equal([]string{"carpass:update"}))
			Expect(gate.permissions).To(BeEmpty())
		})

		It("requires any-access for decisions", func() {
			gate := &stubGate{scope: own}
			scope, err := workflow.Authorize(gate, intentRequest("reject"), "idrequest")
			Expect(err).NotTo(HaveOccurred())
			Expect(scope.Any).To(BeTrue())
			Expect(gate.permissions).To(Equal([]string{"idrequest:approve:any"}))
		})

		DescribeTable("maps intents to actions",
			func(intent, action string) {
				Expect(workflow.ActionFor(intent)).To(Equal(action))
			},
			Entry("add", "add", auth.ActionCreate),
			Entry("edit", "edit", auth.ActionUpdate),
			Entry("delete", "delete", auth.ActionDelete),
			Entry("approve", "approve", auth.ActionApprove),
			Entry("reject", "reject", auth.ActionApprove),
			Entry("unknown", "archive", auth.ActionUpdate),
		)
	})

	Describe("NotifyRejection", func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		It("publishes request.rejected", func() {
			publisher := &recordingPublisher{}
			workflow.NotifyRejection(context.Background(), publisher, logger, "carpass", 3, "CP-000003", "sam@example.com", "Expired licence")

			Expect(publisher.events).To(HaveLen(1))
			event, ok := publisher.events[0].(*events.RequestRejectedEvent)
			Expect(ok).To(BeTrue())
			Expect(event.EventType()).To(Equal(events.EventTypeRequestRejected))
			Expect(event.SerialNumber).To(Equal("CP-000003"))
			Expect(event.RequesterEmail).To(Equal("sam@example.com"))
		})

		It("swallows publish failures", func() {
			publisher := &recordingPublisher{err: errors.New("bus closed")}
			Expect(func() {
				workflow.NotifyRejection(context.Background(), publisher, logger, "carpass", 3, "CP-000003", "", "x")
			}).NotTo(Panic())
		})
	})
})
