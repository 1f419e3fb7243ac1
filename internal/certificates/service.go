package certificates

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tundeafolabi/indicert-backend/internal/audit"
	"github.com/tundeafolabi/indicert-backend/internal/locks"
	"github.com/tundeafolabi/indicert-backend/pkg/config"
	"github.com/tundeafolabi/indicert-backend/pkg/db"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
	"github.com/tundeafolabi/indicert-backend/pkg/metrics"
)

// Verification messages surfaced to the public endpoint. The spellings are
// part of the external contract.
const (
	msgNotFound = "Certificate not found"
	msgTampered = "Certificate has been tampered with"
	msgValid    = "Certificate is valid"
	msgInactive = "Certificate is revoked or expired"
)

type certificatesRepository interface {
	FindApplicationForIssuance(ctx context.Context, applicationID int64) (*models.Application, error)
	FindByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error)
	ExistsCertificateID(ctx context.Context, certificateID string) (bool, error)
	Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, error)
	ApplyRevocation(ctx context.Context, cert *models.Certificate) error
}

type artifactStore interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
	Read(ctx context.Context, rel string) ([]byte, error)
}

// VerifyResult is the public verification outcome for a certificate id.
type VerifyResult struct {
	IsValid          bool
	Name             string
	State            string
	LGA              string
	Status           string
	IssuedAt         time.Time
	IsRevoked        bool
	RevocationReason *string
	Message          string
}

// Service owns certificate issuance, verification, revocation, and artifact
// retrieval.
type Service interface {
	GenerateCertificate(ctx context.Context, applicationID int64) (*models.Certificate, error)
	VerifyCertificate(ctx context.Context, certificateID string) (*VerifyResult, error)
	RevokeCertificate(ctx context.Context, certificateID, reason string, adminUserID int64) (bool, error)
	GetCertificatePDF(ctx context.Context, certificateID string) ([]byte, error)
}

type service struct {
	repo    certificatesRepository
	store   artifactStore
	auditor audit.Service
	keyed   *locks.KeyedMutex
	cfg     config.CertificatesConfig
	logg    *logger.Logger
	metrics *metrics.VerificationMetrics

	now    func() time.Time
	suffix func() int
}

// NewService builds a certificate service backed by the provided collaborators.
func NewService(repo certificatesRepository, store artifactStore, auditor audit.Service, keyed *locks.KeyedMutex, cfg config.CertificatesConfig, logg *logger.Logger, vm *metrics.VerificationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("certificates repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if keyed == nil {
		return nil, fmt.Errorf("keyed mutex required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("certificate base url required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		store:   store,
		auditor: auditor,
		keyed:   keyed,
		cfg:     cfg,
		logg:    logg,
		metrics: vm,
		now:     time.Now,
		suffix:  randomSuffix,
	}, nil
}

func (s *service) GenerateCertificate(ctx context.Context, applicationID int64) (*models.Certificate, error) {
	if applicationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}

	// one in-flight issuance per application id
	s.keyed.Lock(applicationID)
	defer s.keyed.Unlock(applicationID)

	started := s.now()
	ctx = s.logg.WithApplicationID(ctx, applicationID)

	app, err := s.repo.FindApplicationForIssuance(ctx, applicationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading application")
	}
	if app.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "application has no owning user")
	}

	// idempotent: an existing certificate is returned unchanged
	if app.Certificate != nil {
		return app.Certificate, nil
	}

	if app.Status != enums.ApplicationStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application must be approved before certificate generation")
	}

	issuedAt := s.now().UTC()

	certificateID, err := s.uniqueCertificateID(ctx, app.State, issuedAt)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCertificateID(ctx, certificateID)

	qrBase64, err := encodeQR(s.cfg.VerificationURL(certificateID), s.cfg.QRSizePixels)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating qr code")
	}

	pdfBytes, err := renderPDF(pdfContent{
		CertificateID: certificateID,
		FullName:      app.User.FullName(),
		NIN:           app.User.NIN,
		State:         app.State,
		LGA:           app.LGA,
		IssuedAt:      issuedAt,
		QRBase64:      qrBase64,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering certificate")
	}

	pdfPath, err := s.store.Write(ctx, certificateID+".pdf", pdfBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing certificate artifact")
	}

	validity := s.cfg.ValidityYears
	if validity <= 0 {
		validity = 10
	}

	cert := &models.Certificate{
		ApplicationID: app.ID,
		CertificateID: certificateID,
		QRCodeData:    qrBase64,
		PDFPath:       pdfPath,
		Hash:          hashBytes(pdfBytes),
		Status:        enums.CertificateStatusActive,
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.AddDate(validity, 0, 0),
	}

	if _, err := s.repo.Create(ctx, cert); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "certificate already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting certificate")
	}

	s.auditor.LogAction(ctx, audit.Entry{
		Action:        audit.ActionCertificateGenerated,
		EntityType:    audit.EntityCertificate,
		ApplicationID: &app.ID,
		CertificateID: &cert.ID,
		Description:   fmt.Sprintf("Certificate %s generated for %s %s", certificateID, app.User.FirstName, app.User.LastName),
	})

	s.metrics.IncIssued()
	s.metrics.ObserveStage("issuance", time.Since(started))
	s.logg.Info(ctx, "certificate issued")

	return cert, nil
}

// uniqueCertificateID generates ids in a bounded retry loop, surfacing a
// conflict only after exhausting the attempts.
func (s *service) uniqueCertificateID(ctx context.Context, state string, now time.Time) (string, error) {
	attempts := s.cfg.IDMaxAttempts
	if attempts <= 0 {
		attempts = 5
	}

	for i := 0; i < attempts; i++ {
		candidate := newCertificateID(state, now, s.suffix())
		taken, err := s.repo.ExistsCertificateID(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking certificate id uniqueness")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "unable to allocate a unique certificate id")
}

func (s *service) VerifyCertificate(ctx context.Context, certificateID string) (*VerifyResult, error) {
	if certificateID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "certificate id required")
	}

	cert, err := s.repo.FindByCertificateID(ctx, certificateID)
	if err != nil {
		if db.IsNotFound(err) {
			s.metrics.IncCheck("not_found")
			return &VerifyResult{IsValid: false, Message: msgNotFound}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading certificate")
	}

	// tamper check takes precedence over status
	currentHash, err := s.artifactHash(ctx, cert.PDFPath)
	if err != nil {
		return nil, err
	}
	if currentHash != cert.Hash {
		s.metrics.IncCheck("tampered")
		return &VerifyResult{IsValid: false, Message: msgTampered}, nil
	}

	// expiry is advisory: no sweep flips rows, so the stored status is
	// reconciled against the expiry instant here
	status := cert.Status
	if status == enums.CertificateStatusActive && cert.IsExpired(s.now()) {
		status = enums.CertificateStatusExpired
	}

	result := &VerifyResult{
		IsValid:          status == enums.CertificateStatusActive,
		Status:           status.String(),
		IssuedAt:         cert.IssuedAt,
		IsRevoked:        status == enums.CertificateStatusRevoked,
		RevocationReason: cert.RevocationReason,
		Message:          msgInactive,
	}
	if result.IsValid {
		result.Message = msgValid
		s.metrics.IncCheck("valid")
	} else {
		s.metrics.IncCheck("inactive")
	}
	if cert.Application != nil && cert.Application.User != nil {
		result.Name = fmt.Sprintf("%s %s", cert.Application.User.FirstName, cert.Application.User.LastName)
		result.State = cert.Application.State
		result.LGA = cert.Application.LGA
	}
	return result, nil
}

// artifactHash hashes the artifact currently in storage. A missing artifact
// hashes to the empty string so it reads as tampered rather than erroring.
func (s *service) artifactHash(ctx context.Context, pdfPath string) (string, error) {
	data, err := s.store.Read(ctx, pdfPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading certificate artifact")
	}
	return hashBytes(data), nil
}

func (s *service) RevokeCertificate(ctx context.Context, certificateID, reason string, adminUserID int64) (bool, error) {
	if certificateID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "certificate id required")
	}
	if reason == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "revocation reason required")
	}

	cert, err := s.repo.FindByCertificateID(ctx, certificateID)
	if err != nil {
		if db.IsNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading certificate")
	}

	now := s.now().UTC()
	cert.Status = enums.CertificateStatusRevoked
	cert.RevocationReason = &reason
	cert.RevokedAt = &now
	cert.RevokedBy = &adminUserID

	if err := s.repo.ApplyRevocation(ctx, cert); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting revocation")
	}

	adminRole := "Admin"
	s.auditor.LogAction(ctx, audit.Entry{
		Action:        audit.ActionCertificateRevoked,
		EntityType:    audit.EntityCertificate,
		ApplicationID: &cert.ApplicationID,
		CertificateID: &cert.ID,
		Description:   fmt.Sprintf("Certificate revoked: %s", reason),
		ActorID:       &adminUserID,
		ActorRole:     adminRole,
	})

	s.metrics.IncRevoked()
	s.logg.Info(s.logg.WithCertificateID(ctx, certificateID), "certificate revoked")

	return true, nil
}

func (s *service) GetCertificatePDF(ctx context.Context, certificateID string) ([]byte, error) {
	if certificateID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "certificate id required")
	}

	cert, err := s.repo.FindByCertificateID(ctx, certificateID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "certificate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading certificate")
	}

	data, err := s.store.Read(ctx, cert.PDFPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "certificate PDF file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading certificate artifact")
	}
	return data, nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
