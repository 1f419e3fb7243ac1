package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
)

type testReviewService struct {
	listFn    func(ctx context.Context, limit int) ([]models.Application, error)
	approveFn func(ctx context.Context, applicationID, adminUserID int64, notes string) (*models.Application, error)
	rejectFn  func(ctx context.Context, applicationID, adminUserID int64, reason, notes string) (*models.Application, error)
}

func (s *testReviewService) ListQueue(ctx context.Context, limit int) ([]models.Application, error) {
	if s.listFn != nil {
		return s.listFn(ctx, limit)
	}
	return nil, nil
}

func (s *testReviewService) Approve(ctx context.Context, applicationID, adminUserID int64, notes string) (*models.Application, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, applicationID, adminUserID, notes)
	}
	return nil, nil
}

func (s *testReviewService) Reject(ctx context.Context, applicationID, adminUserID int64, reason, notes string) (*models.Application, error) {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, applicationID, adminUserID, reason, notes)
	}
	return nil, nil
}

func TestReviewQueueReturnsItems(t *testing.T) {
	svc := &testReviewService{
		listFn: func(ctx context.Context, limit int) ([]models.Application, error) {
			app := *draftApplication(5, 9)
			app.Status = enums.ApplicationStatusExceptionReview
			return []models.Application{app}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/review/queue", nil)
	resp := httptest.NewRecorder()

	ReviewQueue(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []applicationResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Status != enums.ApplicationStatusExceptionReview {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestReviewApproveSuccess(t *testing.T) {
	svc := &testReviewService{
		approveFn: func(ctx context.Context, applicationID, adminUserID int64, notes string) (*models.Application, error) {
			if applicationID != 5 || adminUserID != 42 {
				t.Fatalf("unexpected args %d %d", applicationID, adminUserID)
			}
			if notes != "Verified with LGA office" {
				t.Fatalf("unexpected notes %q", notes)
			}
			app := draftApplication(applicationID, 9)
			app.Status = enums.ApplicationStatusApproved
			return app, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/review/5/approve", strings.NewReader(`{"notes":"Verified with LGA office"}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "applicationId", "5")
	req = withActor(req, 42)
	resp := httptest.NewRecorder()

	ReviewApprove(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestReviewApproveMissingActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/review/5/approve", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "applicationId", "5")
	resp := httptest.NewRecorder()

	ReviewApprove(&testReviewService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestReviewRejectRequiresReason(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/review/5/reject", strings.NewReader(`{"notes":"no reason given"}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "applicationId", "5")
	req = withActor(req, 42)
	resp := httptest.NewRecorder()

	ReviewReject(&testReviewService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReviewRejectSuccess(t *testing.T) {
	svc := &testReviewService{
		rejectFn: func(ctx context.Context, applicationID, adminUserID int64, reason, notes string) (*models.Application, error) {
			if reason != "Parentage could not be established" {
				t.Fatalf("unexpected reason %q", reason)
			}
			app := draftApplication(applicationID, 9)
			app.Status = enums.ApplicationStatusRejected
			app.RejectionReason = &reason
			return app, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/review/5/reject", strings.NewReader(`{"reason":"Parentage could not be established"}`))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "applicationId", "5")
	req = withActor(req, 42)
	resp := httptest.NewRecorder()

	ReviewReject(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data applicationResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != enums.ApplicationStatusRejected {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}
