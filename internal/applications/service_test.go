package applications

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tundeafolabi/indicert-backend/internal/certificates"
	"github.com/tundeafolabi/indicert-backend/internal/verification"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

type stubApplicationsRepo struct {
	apps      map[int64]*models.Application
	user      *models.User
	nextID    int64
	open      bool
	submitted *models.Application
	updated   *models.Application
}

func newStubApplicationsRepo() *stubApplicationsRepo {
	return &stubApplicationsRepo{
		apps:   map[int64]*models.Application{},
		user:   &models.User{ID: 1, NIN: "11111111111", FirstName: "Ada", LastName: "Obi"},
		nextID: 100,
	}
}

func (s *stubApplicationsRepo) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	s.nextID++
	app.ID = s.nextID
	s.apps[app.ID] = app
	return app, nil
}

func (s *stubApplicationsRepo) FindByID(ctx context.Context, id int64) (*models.Application, error) {
	app, ok := s.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return app, nil
}

func (s *stubApplicationsRepo) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubApplicationsRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Application, error) {
	var rows []models.Application
	for _, app := range s.apps {
		if app.UserID == userID {
			rows = append(rows, *app)
		}
	}
	return rows, nil
}

func (s *stubApplicationsRepo) HasOpenApplication(ctx context.Context, userID int64, state string) (bool, error) {
	return s.open, nil
}

func (s *stubApplicationsRepo) UpdateDraft(ctx context.Context, app *models.Application) error {
	s.updated = app
	return nil
}

func (s *stubApplicationsRepo) MarkSubmitted(ctx context.Context, app *models.Application) error {
	s.submitted = app
	return nil
}

type stubVerifier struct {
	result    *verification.Result
	verifyErr error
	calls     []int64
}

func (s *stubVerifier) VerifyApplication(ctx context.Context, applicationID int64) (*verification.Result, error) {
	s.calls = append(s.calls, applicationID)
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return s.result, nil
}

type stubIssuer struct {
	issued []int64
}

func (s *stubIssuer) GenerateCertificate(ctx context.Context, applicationID int64) (*models.Certificate, error) {
	s.issued = append(s.issued, applicationID)
	return &models.Certificate{ApplicationID: applicationID, CertificateID: "LAG-20250901-0001"}, nil
}

func (s *stubIssuer) VerifyCertificate(ctx context.Context, certificateID string) (*certificates.VerifyResult, error) {
	return nil, nil
}

func (s *stubIssuer) RevokeCertificate(ctx context.Context, certificateID, reason string, adminUserID int64) (bool, error) {
	return false, nil
}

func (s *stubIssuer) GetCertificatePDF(ctx context.Context, certificateID string) ([]byte, error) {
	return nil, nil
}

func newAppsService(t *testing.T, repo *stubApplicationsRepo, verifier *stubVerifier, issuer *stubIssuer) Service {
	t.Helper()
	logg := logger.New(logger.Options{Output: io.Discard})
	svc, err := NewService(repo, verifier, issuer, logg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func approvedResult() *verification.Result {
	return &verification.Result{
		IsVerified:      true,
		Status:          enums.ApplicationStatusApproved,
		RiskScore:       decimal.NewFromInt(10),
		ConfidenceScore: decimal.NewFromInt(100),
	}
}

func TestCreateDraft(t *testing.T) {
	repo := newStubApplicationsRepo()
	svc := newAppsService(t, repo, &stubVerifier{}, &stubIssuer{})

	app, err := svc.Create(context.Background(), 1, DraftInput{
		State:               "Lagos",
		LGA:                 "Ikeja",
		SupportingDocuments: []string{"doc-1.pdf", "doc-2.pdf"},
		DeclarationAccepted: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if app.Status != enums.ApplicationStatusDraft {
		t.Fatalf("status = %s, want Draft", app.Status)
	}
	if app.SupportingDocuments == nil || *app.SupportingDocuments != `["doc-1.pdf","doc-2.pdf"]` {
		t.Fatalf("documents not serialized: %v", app.SupportingDocuments)
	}
}

func TestCreateRejectsOpenApplication(t *testing.T) {
	repo := newStubApplicationsRepo()
	repo.open = true
	svc := newAppsService(t, repo, &stubVerifier{}, &stubIssuer{})

	_, err := svc.Create(context.Background(), 1, DraftInput{State: "Lagos", LGA: "Ikeja"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateUnknownUser(t *testing.T) {
	repo := newStubApplicationsRepo()
	svc := newAppsService(t, repo, &stubVerifier{}, &stubIssuer{})

	_, err := svc.Create(context.Background(), 77, DraftInput{State: "Lagos", LGA: "Ikeja"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateDraftOnly(t *testing.T) {
	repo := newStubApplicationsRepo()
	repo.apps[5] = &models.Application{ID: 5, UserID: 1, State: "Lagos", LGA: "Ikeja", Status: enums.ApplicationStatusPendingVerification}
	svc := newAppsService(t, repo, &stubVerifier{}, &stubIssuer{})

	_, err := svc.UpdateDraft(context.Background(), 1, 5, DraftInput{State: "Ogun", LGA: "Abeokuta"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateDraftOwnership(t *testing.T) {
	repo := newStubApplicationsRepo()
	repo.apps[5] = &models.Application{ID: 5, UserID: 2, State: "Lagos", LGA: "Ikeja", Status: enums.ApplicationStatusDraft}
	svc := newAppsService(t, repo, &stubVerifier{}, &stubIssuer{})

	_, err := svc.UpdateDraft(context.Background(), 1, 5, DraftInput{State: "Ogun", LGA: "Abeokuta"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSubmitRunsVerificationAndIssues(t *testing.T) {
	repo := newStubApplicationsRepo()
	repo.apps[5] = &models.Application{ID: 5, UserID: 1, State: "Lagos", LGA: "Ikeja", Status: enums.ApplicationStatusDraft, DeclarationAccepted: true}
	verifier := &stubVerifier{result: approvedResult()}
	issuer := &stubIssuer{}
	svc := newAppsService(t, repo, verifier, issuer)

	outcome, err := svc.Submit(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if repo.submitted == nil || repo.submitted.Status != enums.ApplicationStatusPendingVerification {
		t.Fatal("submission not persisted as PendingVerification")
	}
	if repo.submitted.SubmittedAt == nil {
		t.Fatal("submitted-at not set")
	}
	if len(verifier.calls) != 1 || verifier.calls[0] != 5 {
		t.Fatalf("expected verification for application 5, got %v", verifier.calls)
	}
	if len(issuer.issued) != 1 || issuer.issued[0] != 5 {
		t.Fatalf("expected issuance for application 5, got %v", issuer.issued)
	}
	if outcome.Verification == nil || !outcome.Verification.IsVerified {
		t.Fatal("verification result missing from outcome")
	}
}

func TestSubmitManualReviewSkipsIssuance(t *testing.T) {
	repo := newStubApplicationsRepo()
	repo.apps[5] = &models.Application{ID: 5, UserID: 1, State: "Lagos", LGA: "Ikeja", Status: enums.ApplicationStatusDraft, DeclarationAccepted: true}
	verifier := &stubVerifier{result: &verification.Result{
		IsVerified:           false,
		Status:               enums.ApplicationStatusExceptionReview,
		RequiresManualReview: true,
	}}
	issuer := &stubIssuer{}
	svc := newAppsService(t, repo, verifier, issuer)

	_, err := svc.Submit(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(issuer.issued) != 0 {
		t.Fatal("manual review outcome must not trigger issuance")
	}
}

func TestSubmitGuards(t *testing.T) {
	repo := newStubApplicationsRepo()
	repo.apps[5] = &models.Application{ID: 5, UserID: 1, State: "Lagos", LGA: "Ikeja", Status: enums.ApplicationStatusPendingVerification, DeclarationAccepted: true}
	svc := newAppsService(t, repo, &stubVerifier{}, &stubIssuer{})

	_, err := svc.Submit(context.Background(), 1, 5)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for re-submission, got %v", err)
	}

	repo.apps[6] = &models.Application{ID: 6, UserID: 1, State: "Lagos", LGA: "Ikeja", Status: enums.ApplicationStatusDraft, DeclarationAccepted: false}
	_, err = svc.Submit(context.Background(), 1, 6)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing declaration, got %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newStubApplicationsRepo()
	repo.apps[5] = &models.Application{ID: 5, UserID: 2, State: "Lagos", LGA: "Ikeja", Status: enums.ApplicationStatusDraft}
	svc := newAppsService(t, repo, &stubVerifier{}, &stubIssuer{})

	_, err := svc.Get(context.Background(), 1, 5)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// privileged caller (actor id 0) can read anything
	app, err := svc.Get(context.Background(), 0, 5)
	if err != nil {
		t.Fatalf("privileged Get failed: %v", err)
	}
	if app.ID != 5 {
		t.Fatalf("unexpected application %d", app.ID)
	}
}
