package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
)

// ErrMaxHeartRateUnresolvable means no max heart rate could be derived by any
// method: no qualifying samples and no date of birth on record. Callers must
// surface this as an explicit "cannot determine" outcome, never as zero.
var ErrMaxHeartRateUnresolvable = errors.New("unable to determine max heart rate for user")

// ZoneBounds holds the five training-zone lower limits for a user.
// Lower limits follow the percent-of-HRmax model: zone k starts at
// (40+10*k)% of the maximum: 50%, 60%, 70%, 80%, 90% for zones 1-5.
// All rounding is half away from zero (math.Round), identical on every
// code path that produces zones.
type ZoneBounds struct {
	RestingHeartRate int `json:"resting_heart_rate"`
	MaxHeartRate     int `json:"max_heart_rate"`
	Zone1LowerLimit  int `json:"zone1_lower_limit"`
	Zone2LowerLimit  int `json:"zone2_lower_limit"`
	Zone3LowerLimit  int `json:"zone3_lower_limit"`
	Zone4LowerLimit  int `json:"zone4_lower_limit"`
	Zone5LowerLimit  int `json:"zone5_lower_limit"`
}

// ZonesFromMax derives the five zone lower bounds from a max heart rate.
// maxHeartRate must be positive; callers reject non-positive input upstream.
func ZonesFromMax(maxHeartRate int) ZoneBounds {
	lower := func(zone int) int {
		pct := 0.40 + 0.10*float64(zone)
		return int(math.Round(float64(maxHeartRate) * pct))
	}
	return ZoneBounds{
		MaxHeartRate:    maxHeartRate,
		Zone1LowerLimit: lower(1),
		Zone2LowerLimit: lower(2),
		Zone3LowerLimit: lower(3),
		Zone4LowerLimit: lower(4),
		Zone5LowerLimit: lower(5),
	}
}

// HeartRateZonesService derives personalized heart-rate zones from sample
// history and maintains the per-user freshness cache row.
type HeartRateZonesService struct {
	db           *gorm.DB
	lookbackDays int
	maxAgeDays   int
	now          func() time.Time
}

// NewHeartRateZonesService builds a service with the given lookback window
// (days of sample history scanned for the observed max) and cache max age.
// Non-positive values fall back to 365 and 7 respectively; a short 30-day
// lookback frequently finds nothing for infrequent users, so a year is the
// default.
func NewHeartRateZonesService(db *gorm.DB, lookbackDays, maxAgeDays int) *HeartRateZonesService {
	if lookbackDays <= 0 {
		lookbackDays = 365
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 7
	}
	return &HeartRateZonesService{
		db:           db,
		lookbackDays: lookbackDays,
		maxAgeDays:   maxAgeDays,
		now:          time.Now,
	}
}

// ComputeMaxFromSamples returns the highest BPM observed among the user's
// samples whose parent activity falls inside the lookback window, or nil when
// no qualifying sample exists.
func (s *HeartRateZonesService) ComputeMaxFromSamples(userID uint) (*int, error) {
	since := s.now().UTC().AddDate(0, 0, -s.lookbackDays)

	var maxBpm sql.NullInt64
	err := s.db.Model(&models.HeartRateSample{}).
		Joins("JOIN activities ON activities.id = heart_rate_samples.activity_id").
		Where("activities.user_id = ? AND activities.date >= ?", userID, since).
		Select("MAX(heart_rate_samples.bpm)").
		Scan(&maxBpm).Error
	if err != nil {
		return nil, err
	}
	if !maxBpm.Valid {
		return nil, nil
	}
	v := int(maxBpm.Int64)
	return &v, nil
}

// AgeFallbackMax estimates max heart rate from the user's age using the
// Tanaka formula round(211 - 0.64*age). Returns nil when the date of birth
// is unknown.
func (s *HeartRateZonesService) AgeFallbackMax(userID uint) (*int, error) {
	var user models.User
	if err := s.db.Select("date_of_birth").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if user.DateOfBirth == nil {
		return nil, nil
	}

	age := int(s.now().UTC().Sub(user.DateOfBirth.UTC()).Hours() / 24 / 365.25)
	max := int(math.Round(211 - 0.64*float64(age)))
	return &max, nil
}

// ComputeMaxHeartRate tries observed samples first, then the age fallback.
// nil means unresolvable by any method.
func (s *HeartRateZonesService) ComputeMaxHeartRate(userID uint) (*int, error) {
	max, err := s.ComputeMaxFromSamples(userID)
	if err != nil {
		return nil, err
	}
	if max != nil {
		return max, nil
	}
	return s.AgeFallbackMax(userID)
}

// EnsureFresh returns the user's cache row, recomputing the stored max when
// the row is older than maxAgeDays. Returns (nil, nil) when no row exists;
// provisioning rows is not this service's job. On a stale row the timestamp
// is always advanced, even when recomputation found nothing, so users without
// recent samples are not rescanned on every request. Last write wins under
// concurrent refreshes; the write is idempotent for identical inputs.
func (s *HeartRateZonesService) EnsureFresh(userID uint) (*models.HeartRateZones, error) {
	var zones models.HeartRateZones
	if err := s.db.Where("user_id = ?", userID).First(&zones).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := s.now().UTC()
	if !zones.IsStale(now, s.maxAgeDays) {
		return &zones, nil
	}

	newMax, err := s.ComputeMaxFromSamples(userID)
	if err != nil {
		return nil, err
	}

	zones.Refresh(now, newMax)
	if err := s.db.Save(&zones).Error; err != nil {
		return nil, err
	}
	return &zones, nil
}

// ResolveZones produces the zone bounds for a user: the fresh cache row when
// it holds a usable max, otherwise a direct computation (samples, then age).
// Returns ErrMaxHeartRateUnresolvable when no method yields a value.
func (s *HeartRateZonesService) ResolveZones(userID uint) (ZoneBounds, error) {
	zones, err := s.EnsureFresh(userID)
	if err != nil {
		return ZoneBounds{}, err
	}

	var maxHR int
	if zones != nil && zones.MaxHeartRate > 0 {
		maxHR = zones.MaxHeartRate
	} else {
		computed, err := s.ComputeMaxHeartRate(userID)
		if err != nil {
			return ZoneBounds{}, err
		}
		if computed == nil {
			return ZoneBounds{}, ErrMaxHeartRateUnresolvable
		}
		maxHR = *computed
	}

	bounds := ZonesFromMax(maxHR)
	if zones != nil {
		bounds.RestingHeartRate = zones.RestingHeartRate
	}
	return bounds, nil
}

// ZoneTime is the accumulated time an activity spent inside one zone.
type ZoneTime struct {
	Zone    string `json:"zone"`
	Seconds int    `json:"seconds"`
}

// TimeInZones buckets an activity's samples into the five zones by summing
// the gap to the next sample under the current sample's zone. Fewer than two
// samples yields all zeros.
func (s *HeartRateZonesService) TimeInZones(activityID uint, since time.Time, bounds ZoneBounds) ([]ZoneTime, error) {
	var samples []models.HeartRateSample
	err := s.db.Where("activity_id = ? AND timestamp >= ?", activityID, since).
		Order("timestamp ASC").
		Find(&samples).Error
	if err != nil {
		return nil, err
	}

	seconds := [6]float64{}
	for i := 0; i+1 < len(samples); i++ {
		delta := samples[i+1].Timestamp.Sub(samples[i].Timestamp).Seconds()
		if delta <= 0 {
			continue
		}
		seconds[zoneFor(samples[i].Bpm, bounds)] += delta
	}

	result := make([]ZoneTime, 0, 5)
	for zone := 1; zone <= 5; zone++ {
		result = append(result, ZoneTime{
			Zone:    fmt.Sprintf("Z%d", zone),
			Seconds: int(seconds[zone]),
		})
	}
	return result, nil
}

func zoneFor(bpm int, b ZoneBounds) int {
	switch {
	case bpm >= b.Zone5LowerLimit:
		return 5
	case bpm >= b.Zone4LowerLimit:
		return 4
	case bpm >= b.Zone3LowerLimit:
		return 3
	case bpm >= b.Zone2LowerLimit:
		return 2
	default:
		return 1
	}
}
