package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tundeafolabi/indicert-backend/internal/locks"
	"github.com/tundeafolabi/indicert-backend/internal/registry"
	"github.com/tundeafolabi/indicert-backend/pkg/db"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
	"github.com/tundeafolabi/indicert-backend/pkg/metrics"
)

// Issue strings surfaced to callers and reviewers. The spellings are part of
// the external contract.
const (
	IssueDuplicateCertificate = "Duplicate certificate exists for this state"
	IssueParentageFailed      = "Parentage verification failed"

	rejectionDuplicate = "Duplicate certificate exists"
)

type applicationsRepository interface {
	FindByIDWithUser(ctx context.Context, id int64) (*models.Application, error)
	CountOtherApplications(ctx context.Context, userID, excludeID int64) (int64, error)
	HasDuplicateApproval(ctx context.Context, nin, state string) (bool, error)
	ApplyDecision(ctx context.Context, app *models.Application) error
}

// Result is the transient outcome bundle of one verification run. Only the
// scores and resulting status are written back to the application.
type Result struct {
	IsVerified           bool
	RiskScore            decimal.Decimal
	ConfidenceScore      decimal.Decimal
	Status               enums.ApplicationStatus
	Issues               []string
	RequiresManualReview bool
}

// Service runs the automated verification pipeline for submitted applications.
type Service interface {
	VerifyApplication(ctx context.Context, applicationID int64) (*Result, error)
}

type service struct {
	repo     applicationsRepository
	registry registry.Client
	keyed    *locks.KeyedMutex
	logg     *logger.Logger
	metrics  *metrics.VerificationMetrics
}

// NewService builds a verification service backed by the provided collaborators.
func NewService(repo applicationsRepository, reg registry.Client, keyed *locks.KeyedMutex, logg *logger.Logger, vm *metrics.VerificationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("applications repository required")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry client required")
	}
	if keyed == nil {
		return nil, fmt.Errorf("keyed mutex required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		registry: reg,
		keyed:    keyed,
		logg:     logg,
		metrics:  vm,
	}, nil
}

func (s *service) VerifyApplication(ctx context.Context, applicationID int64) (*Result, error) {
	if applicationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}

	// one in-flight verification per application id
	s.keyed.Lock(applicationID)
	defer s.keyed.Unlock(applicationID)

	started := time.Now()
	ctx = s.logg.WithApplicationID(ctx, applicationID)

	app, err := s.repo.FindByIDWithUser(ctx, applicationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading application")
	}
	if app.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "application has no owning user")
	}

	switch app.Status {
	case enums.ApplicationStatusPendingVerification, enums.ApplicationStatusExceptionReview:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("application in status %s cannot be verified", app.Status))
	}

	issues := make([]string, 0, 2)

	hasDuplicate, err := s.repo.HasDuplicateApproval(ctx, app.User.NIN, app.State)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking duplicate certificate")
	}
	if hasDuplicate {
		issues = append(issues, IssueDuplicateCertificate)
	}

	parentageValid, err := s.verifyParentage(ctx, app.FatherNIN, app.MotherNIN)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verifying parentage")
	}
	if !parentageValid && app.HasParentNIN() {
		issues = append(issues, IssueParentageFailed)
	}

	otherCount, err := s.repo.CountOtherApplications(ctx, app.UserID, app.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting prior applications")
	}

	input := ScoringInput{
		ParentNINSupplied:      app.HasParentNIN(),
		ParentageValid:         parentageValid,
		HasSupportingDocuments: app.HasSupportingDocuments(),
		DeclarationAccepted:    app.DeclarationAccepted,
		HasOtherApplications:   otherCount > 0,
	}
	risk := ComputeRiskScore(input)
	confidence := ComputeConfidenceScore(input, risk)

	app.RiskScore = risk
	app.ConfidenceScore = confidence

	requiresManualReview := needsManualReview(risk, confidence, len(issues))

	now := time.Now().UTC()
	switch {
	case hasDuplicate:
		app.Status = enums.ApplicationStatusRejected
		reason := rejectionDuplicate
		app.RejectionReason = &reason
	case requiresManualReview:
		app.Status = enums.ApplicationStatusExceptionReview
	default:
		app.Status = enums.ApplicationStatusApproved
		app.ApprovedAt = &now
		app.VerifiedAt = &now
	}

	if err := s.repo.ApplyDecision(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting verification decision")
	}

	s.metrics.IncDecision(app.Status.String())
	s.metrics.ObserveStage("verification", time.Since(started))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"status":     app.Status,
		"risk":       risk.String(),
		"confidence": confidence.String(),
	}), "verification decision recorded")

	return &Result{
		IsVerified:           app.Status == enums.ApplicationStatusApproved,
		RiskScore:            risk,
		ConfidenceScore:      confidence,
		Status:               app.Status,
		Issues:               issues,
		RequiresManualReview: requiresManualReview,
	}, nil
}

// verifyParentage is trivially true when both parent NINs are absent;
// otherwise every supplied NIN must resolve as valid in the registry.
func (s *service) verifyParentage(ctx context.Context, fatherNIN, motherNIN *string) (bool, error) {
	father := deref(fatherNIN)
	mother := deref(motherNIN)
	if father == "" && mother == "" {
		return true, nil
	}

	for _, nin := range []string{father, mother} {
		if nin == "" {
			continue
		}
		rec, err := s.registry.LookupNIN(ctx, nin)
		if err != nil {
			return false, err
		}
		if !rec.Valid {
			return false, nil
		}
	}
	return true, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
