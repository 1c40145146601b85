package service

import (
	"context"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
)

// UsageHistoryLimit caps the usage history listing
const UsageHistoryLimit = 30

// UsageService records and summarises usage samples
type UsageService struct {
	usageRepo domain.UsageRepository
	userRepo  domain.UserRepository
	now       func() time.Time
}

func NewUsageService(usageRepo domain.UsageRepository, userRepo domain.UserRepository) *UsageService {
	return &UsageService{
		usageRepo: usageRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

// SpeedTestInput is a client-reported speed test. Values are taken as reported.
type SpeedTestInput struct {
	DownloadSpeed *float64 `json:"downloadSpeed"`
	UploadSpeed   *float64 `json:"uploadSpeed"`
	Ping          *float64 `json:"ping"`
}

func (in SpeedTestInput) validate() error {
	verr := &domain.ValidationError{}
	check := func(field string, v *float64) {
		if v == nil {
			verr.Add(field, "is required")
		} else if *v < 0 {
			verr.Add(field, "must be a non-negative number")
		}
	}
	check("downloadSpeed", in.DownloadSpeed)
	check("uploadSpeed", in.UploadSpeed)
	check("ping", in.Ping)
	return verr.OrNil()
}

// History returns the latest samples, newest first
func (s *UsageService) History(ctx context.Context, userID string) ([]*domain.Usage, error) {
	return s.usageRepo.GetRecentByUserID(ctx, userID, UsageHistoryLimit)
}

// RecordSpeedTest stores a manual speed-test sample
func (s *UsageService) RecordSpeedTest(ctx context.Context, userID string, input SpeedTestInput) (*domain.Usage, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	usage := &domain.Usage{
		UserID:        userID,
		Date:          s.now().UTC(),
		DownloadSpeed: *input.DownloadSpeed,
		UploadSpeed:   *input.UploadSpeed,
		Ping:          *input.Ping,
		TestType:      domain.UsageTestManual,
	}
	if err := s.usageRepo.Create(ctx, usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// MeterReadingInput is an operator-side usage sample for a user
type MeterReadingInput struct {
	DataUsed      *float64 `json:"dataUsed"`
	DownloadSpeed float64  `json:"downloadSpeed"`
	UploadSpeed   float64  `json:"uploadSpeed"`
	Ping          float64  `json:"ping"`
}

// RecordMeterReading stores an automatic sample carrying data usage
func (s *UsageService) RecordMeterReading(ctx context.Context, userID string, input MeterReadingInput) (*domain.Usage, error) {
	verr := &domain.ValidationError{}
	if input.DataUsed == nil {
		verr.Add("dataUsed", "is required")
	} else if *input.DataUsed < 0 {
		verr.Add("dataUsed", "must be a non-negative number")
	}
	if input.DownloadSpeed < 0 || input.UploadSpeed < 0 || input.Ping < 0 {
		verr.Add("speed", "must be a non-negative number")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	usage := &domain.Usage{
		UserID:        userID,
		Date:          s.now().UTC(),
		DataUsed:      *input.DataUsed,
		DownloadSpeed: input.DownloadSpeed,
		UploadSpeed:   input.UploadSpeed,
		Ping:          input.Ping,
		TestType:      domain.UsageTestAutomatic,
	}
	if err := s.usageRepo.Create(ctx, usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// Stats summarises samples from the last 30 days
func (s *UsageService) Stats(ctx context.Context, userID string) (domain.UsageStats, error) {
	since := s.now().UTC().Add(-domain.UsageStatsWindow)
	samples, err := s.usageRepo.GetSince(ctx, userID, since)
	if err != nil {
		return domain.UsageStats{}, err
	}
	return domain.ComputeUsageStats(samples), nil
}
