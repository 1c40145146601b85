package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/telemetry"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

var allowedScreenshotTypes = []string{"jpeg", "jpg", "png", "gif"}

// ScreenshotUpload is the proof-of-payment image attached to a submission
type ScreenshotUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PaymentServiceConfig holds the decision lock settings and upload limit
type PaymentServiceConfig struct {
	MaxUploadBytes int64
	LockTTL        time.Duration
	LockWait       time.Duration
}

// PaymentService runs the proof-of-payment submission and review workflow
type PaymentService struct {
	paymentRepo      domain.PaymentRepository
	planRepo         domain.PlanRepository
	userRepo         domain.UserRepository
	notificationRepo domain.NotificationRepository
	fileRepo         domain.FileRepository
	transactor       domain.Transactor
	locker           domain.Locker
	metrics          *telemetry.Metrics
	cfg              PaymentServiceConfig
	now              func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo domain.PaymentRepository,
	planRepo domain.PlanRepository,
	userRepo domain.UserRepository,
	notificationRepo domain.NotificationRepository,
	fileRepo domain.FileRepository,
	transactor domain.Transactor,
	locker domain.Locker,
	metrics *telemetry.Metrics,
	cfg PaymentServiceConfig,
) *PaymentService {
	return &PaymentService{
		paymentRepo:      paymentRepo,
		planRepo:         planRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		fileRepo:         fileRepo,
		transactor:       transactor,
		locker:           locker,
		metrics:          metrics,
		cfg:              cfg,
		now:              time.Now,
	}
}

func (s *PaymentService) validateScreenshot(upload *ScreenshotUpload) error {
	verr := &domain.ValidationError{}
	if upload == nil || len(upload.Data) == 0 {
		verr.Add("screenshot", "Payment screenshot is required")
		return verr
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.Filename)), ".")
	contentType := strings.ToLower(upload.ContentType)
	extOK, typeOK := false, false
	for _, t := range allowedScreenshotTypes {
		if ext == t {
			extOK = true
		}
		if strings.Contains(contentType, t) {
			typeOK = true
		}
	}
	if !extOK || !typeOK {
		verr.Add("screenshot", "Only image files are allowed")
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(upload.Data)) > s.cfg.MaxUploadBytes {
		verr.Add("screenshot", fmt.Sprintf("File too large (max %d MB)", s.cfg.MaxUploadBytes/(1024*1024)))
	}
	return verr.OrNil()
}

// Submit records a pending payment claim for planID with the uploaded proof.
// The stored file is removed again if the payment cannot be recorded.
func (s *PaymentService) Submit(ctx context.Context, userID, planID string, upload *ScreenshotUpload) (*domain.Payment, error) {
	if err := s.validateScreenshot(upload); err != nil {
		return nil, err
	}
	planID = strings.TrimSpace(planID)
	if planID == "" {
		verr := &domain.ValidationError{}
		verr.Add("planId", "Plan ID is required")
		return nil, verr
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	if _, err := s.paymentRepo.GetPendingByUserAndPlan(ctx, userID, planID); err == nil {
		return nil, domain.ErrDuplicatePendingPayment
	} else if !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, err
	}

	key := "payment-" + ulid.Make().String() + strings.ToLower(filepath.Ext(upload.Filename))
	stored, err := s.fileRepo.Upload(ctx, upload.Data, key, upload.ContentType)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		UserID:        userID,
		PlanID:        plan.ID,
		Amount:        plan.Price,
		Screenshot:    stored.URL,
		ScreenshotKey: stored.Key,
		Status:        domain.PaymentStatusPending,
		SubmittedAt:   s.now().UTC(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		// Unique index lost a race against a concurrent submission, or the insert failed
		if delErr := s.fileRepo.Delete(ctx, stored.Key); delErr != nil {
			log.Error().Err(delErr).Str("key", stored.Key).Msg("[Payment] failed to remove orphaned screenshot")
		}
		return nil, err
	}

	s.metrics.PaymentSubmitted()
	log.Info().
		Str("payment_id", payment.ID).
		Str("user_id", userID).
		Str("plan_id", plan.ID).
		Msg("[Payment] submitted")

	return payment, nil
}

// History returns the user's payments newest first, each with its plan
func (s *PaymentService) History(ctx context.Context, userID string) ([]*domain.PaymentDetail, error) {
	payments, err := s.paymentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, payments, false)
}

// List returns payments for review, optionally narrowed to one status
func (s *PaymentService) List(ctx context.Context, status string) ([]*domain.PaymentDetail, error) {
	if status == "all" {
		status = ""
	}
	if status != "" && status != domain.PaymentStatusPending && !domain.IsValidDecision(status) {
		return nil, domain.ErrInvalidStatus
	}

	payments, err := s.paymentRepo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, payments, true)
}

// Get returns a payment visible to the actor: its owner or any admin
func (s *PaymentService) Get(ctx context.Context, actor Actor, id string) (*domain.PaymentDetail, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(payment.UserID) {
		return nil, domain.ErrForbidden
	}

	details, err := s.attach(ctx, []*domain.Payment{payment}, true)
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// attach joins plans, and users when withUser is set. Deleted plans or users
// are left nil.
func (s *PaymentService) attach(ctx context.Context, payments []*domain.Payment, withUser bool) ([]*domain.PaymentDetail, error) {
	plans := make(map[string]*domain.Plan)
	users := make(map[string]*domain.User)
	details := make([]*domain.PaymentDetail, 0, len(payments))

	for _, p := range payments {
		detail := &domain.PaymentDetail{Payment: p}

		plan, seen := plans[p.PlanID]
		if !seen {
			var err error
			plan, err = s.planRepo.GetByID(ctx, p.PlanID)
			if err != nil && !domain.IsNotFound(err) {
				return nil, err
			}
			plans[p.PlanID] = plan
		}
		detail.Plan = plan

		if withUser {
			user, seen := users[p.UserID]
			if !seen {
				var err error
				user, err = s.userRepo.GetByID(ctx, p.UserID)
				if err != nil && !domain.IsNotFound(err) {
					return nil, err
				}
				users[p.UserID] = user
			}
			detail.User = user
		}

		details = append(details, detail)
	}
	return details, nil
}

// DecideInput is an admin's verdict on a pending payment
type DecideInput struct {
	PaymentID  string
	Status     string
	AdminNotes string
}

// Decide approves or rejects a pending payment.
//
// Every read that can fail with not-found happens before any write. The
// writes (payment status, user activation, notification) then run under a
// per-user lock inside one transaction, so two approvals for the same user
// never interleave and a failure leaves nothing half-applied.
func (s *PaymentService) Decide(ctx context.Context, admin Actor, input DecideInput) (*domain.Payment, error) {
	if !domain.IsValidDecision(input.Status) {
		verr := &domain.ValidationError{}
		verr.Add("status", "Invalid status")
		return nil, verr
	}

	payment, err := s.paymentRepo.GetByID(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		s.metrics.PaymentDecided("conflict")
		return nil, domain.ErrPaymentAlreadyDecided
	}

	if _, err := s.userRepo.GetByID(ctx, payment.UserID); err != nil {
		return nil, err
	}

	var plan *domain.Plan
	if input.Status == domain.PaymentStatusApproved {
		plan, err = s.planRepo.GetByID(ctx, payment.PlanID)
		if err != nil {
			return nil, err
		}
	}

	lockStart := time.Now()
	release, err := s.locker.Acquire(ctx, "payment-decision:"+payment.UserID, s.cfg.LockTTL, s.cfg.LockWait)
	s.metrics.ObserveLockWait(time.Since(lockStart))
	if err != nil {
		if errors.Is(err, domain.ErrDecisionInProgress) {
			s.metrics.PaymentDecided("busy")
		}
		return nil, err
	}
	defer release()

	now := s.now().UTC()
	decision := domain.PaymentDecision{
		Status:     input.Status,
		AdminNotes: strings.TrimSpace(input.AdminNotes),
		ReviewedBy: admin.ID,
		ReviewedAt: now,
	}

	var notification *domain.Notification
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.paymentRepo.Decide(txCtx, payment.ID, decision); err != nil {
			return err
		}

		if plan != nil {
			start, end := plan.ActivationWindow(now)
			activePlan := domain.ActivePlan{
				PlanID:    plan.ID,
				StartDate: start,
				EndDate:   end,
				Status:    domain.ActivePlanStatusActive,
			}
			if err := s.userRepo.SetActivePlan(txCtx, payment.UserID, activePlan); err != nil {
				return err
			}
			notification = domain.PaymentApprovedNotification(payment.UserID, plan.Name)
		} else {
			notification = domain.PaymentRejectedNotification(payment.UserID, decision.AdminNotes)
		}
		notification.CreatedAt = now

		return s.notificationRepo.Create(txCtx, notification)
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentAlreadyDecided) {
			s.metrics.PaymentDecided("conflict")
		}
		return nil, err
	}

	payment.Status = decision.Status
	payment.AdminNotes = decision.AdminNotes
	payment.ReviewedBy = decision.ReviewedBy
	payment.ReviewedAt = &now

	s.metrics.PaymentDecided(decision.Status)
	s.metrics.NotificationCreated(notification.Type, 1)
	log.Info().
		Str("payment_id", payment.ID).
		Str("user_id", payment.UserID).
		Str("admin_id", admin.ID).
		Str("status", decision.Status).
		Msg("[Payment] decided")

	return payment, nil
}
