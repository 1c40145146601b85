package domain

import (
	"context"
	"math"
	"time"
)

// Usage test types
const (
	UsageTestAutomatic = "automatic"
	UsageTestManual    = "manual"
)

// UsageStatsWindow is the look-back window for usage statistics
const UsageStatsWindow = 30 * 24 * time.Hour

// Usage is one append-only usage or speed-test sample
type Usage struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	UserID        string    `bson:"user_id" json:"userId"`
	Date          time.Time `bson:"date" json:"date"`
	DataUsed      float64   `bson:"data_used" json:"dataUsed"`           // GB
	UploadSpeed   float64   `bson:"upload_speed" json:"uploadSpeed"`     // Mbps
	DownloadSpeed float64   `bson:"download_speed" json:"downloadSpeed"` // Mbps
	Ping          float64   `bson:"ping" json:"ping"`                    // ms
	TestType      string    `bson:"test_type" json:"testType"`
}

// UsageStats aggregates samples over UsageStatsWindow
type UsageStats struct {
	TotalDataUsed    float64 `json:"totalDataUsed"`
	AvgDownloadSpeed float64 `json:"avgDownloadSpeed"`
	AvgUploadSpeed   float64 `json:"avgUploadSpeed"`
	AvgPing          float64 `json:"avgPing"`
	TestCount        int     `json:"testCount"`
}

// ComputeUsageStats sums data used and averages speeds and ping.
// No samples yields all zeros.
func ComputeUsageStats(samples []*Usage) UsageStats {
	stats := UsageStats{TestCount: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	var down, up, ping float64
	for _, s := range samples {
		stats.TotalDataUsed += s.DataUsed
		down += s.DownloadSpeed
		up += s.UploadSpeed
		ping += s.Ping
	}

	n := float64(len(samples))
	stats.TotalDataUsed = round2(stats.TotalDataUsed)
	stats.AvgDownloadSpeed = round2(down / n)
	stats.AvgUploadSpeed = round2(up / n)
	stats.AvgPing = round2(ping / n)
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UsageRepository defines operations for the usage log
type UsageRepository interface {
	Create(ctx context.Context, usage *Usage) error
	GetRecentByUserID(ctx context.Context, userID string, limit int64) ([]*Usage, error)
	GetSince(ctx context.Context, userID string, since time.Time) ([]*Usage, error)
}
