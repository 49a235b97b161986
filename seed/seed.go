// Package seed populates an empty database with a deterministic demo
// dataset: five users who are all friends, four shared goals covering every
// goal range, and three months of activities with heart rate samples.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"github.com/hbitapp/hbit-backend/models"
	"github.com/hbitapp/hbit-backend/utils"
)

const (
	userCount            = 5
	activityDays         = 90
	sampleIntervalSec    = 5
	secondsPerActivity   = 3600
	defaultDemoPassword  = "Password1"
	deterministicRngSeed = 12345
)

// Run seeds demo data unless users already exist.
func Run(db *gorm.DB) error {
	var existing int64
	if err := db.Model(&models.User{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(deterministicRngSeed))
	faker := gofakeit.New(deterministicRngSeed)
	now := time.Now().UTC()

	users, err := seedUsers(db, faker)
	if err != nil {
		return err
	}
	if err := seedFriendships(db, users); err != nil {
		return err
	}
	goals, err := seedGoals(db, rng, now, users)
	if err != nil {
		return err
	}

	for _, user := range users {
		activities, err := seedActivities(db, rng, now, user)
		if err != nil {
			return err
		}
		if err := seedSamples(db, rng, activities); err != nil {
			return err
		}
		if err := seedPoints(db, rng, now, activities, goals); err != nil {
			return err
		}
	}

	return nil
}

func seedUsers(db *gorm.DB, faker *gofakeit.Faker) ([]models.User, error) {
	hash, err := utils.HashPassword(defaultDemoPassword)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		name := faker.FirstName()
		surname := faker.LastName()
		username := strings.ToLower(name)
		dob := time.Date(1980+faker.Number(0, 25), time.Month(faker.Number(1, 12)), faker.Number(1, 28), 0, 0, 0, 0, time.UTC)
		users = append(users, models.User{
			Username:     fmt.Sprintf("%s%d", username, i+1),
			Email:        fmt.Sprintf("%s%d@example.com", username, i+1),
			PasswordHash: hash,
			Name:         name,
			Surname:      surname,
			DateOfBirth:  &dob,
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// seedFriendships makes everyone friends with everyone, pair stored smaller id first.
func seedFriendships(db *gorm.DB, users []models.User) error {
	friends := make([]models.Friend, 0, len(users)*(len(users)-1)/2)
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			friends = append(friends, models.Friend{
				UserAID: users[i].ID,
				UserBID: users[j].ID,
			})
		}
	}
	return db.Create(&friends).Error
}

func seedGoals(db *gorm.DB, rng *rand.Rand, now time.Time, users []models.User) ([]models.ActivityGoal, error) {
	ranges := []models.ActivityGoalRange{
		models.RangeDaily,
		models.RangeWeekly,
		models.RangeMonthly,
		models.RangeYearly,
	}
	targets := map[models.ActivityGoalRange]int{
		models.RangeDaily:   1,
		models.RangeWeekly:  1,
		models.RangeMonthly: 3,
		models.RangeYearly:  30,
	}

	startsAt := now.AddDate(-2, 0, 0)
	endsAt := now.AddDate(2, 0, 0)

	goals := make([]models.ActivityGoal, 0, len(ranges))
	for _, r := range ranges {
		goals = append(goals, models.ActivityGoal{
			Name:          fmt.Sprintf("%s shared goal", r),
			Description:   "Auto-seeded shared goal",
			Range:         r,
			TargetValue:   targets[r],
			AcceptedTypes: pickTwoTypes(rng),
			StartsAt:      &startsAt,
			EndsAt:        &endsAt,
		})
	}
	if err := db.Create(&goals).Error; err != nil {
		return nil, err
	}

	participants := make([]models.ActivityGoalParticipant, 0, len(goals)*len(users))
	for ui, user := range users {
		for _, goal := range goals {
			participants = append(participants, models.ActivityGoalParticipant{
				ActivityGoalID: goal.ID,
				UserID:         user.ID,
				IsOwner:        ui == 0,
				JoinedAt:       now,
			})
		}
	}
	if err := db.Create(&participants).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

// pickTwoTypes draws two distinct activity types so every goal filters its input.
func pickTwoTypes(rng *rand.Rand) models.ActivityTypeList {
	all := append([]models.ActivityType(nil), models.AllActivityTypes...)
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return models.ActivityTypeList(all[:2])
}

func seedActivities(db *gorm.DB, rng *rand.Rand, now time.Time, user models.User) ([]models.Activity, error) {
	activities := make([]models.Activity, 0, activityDays+4)

	// spaced activities matching each goal range
	specific := []time.Time{
		now.AddDate(0, 0, -1),
		now.AddDate(0, 0, -7),
		now.AddDate(0, -1, 0),
		now.AddDate(-1, 0, 0),
	}
	for _, date := range specific {
		activities = append(activities, models.Activity{
			UserID: user.ID,
			Name:   date.Format("2006-01-02") + " sample",
			Type:   randomType(rng),
			Date:   date,
		})
	}

	// one activity per day for the last 90 days, between 06:00 and 22:00
	for d := 0; d < activityDays; d++ {
		day := now.AddDate(0, 0, -d)
		minute := rng.Intn(16*60) + 6*60
		date := time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, time.UTC)
		activities = append(activities, models.Activity{
			UserID: user.ID,
			Name:   fmt.Sprintf("Daily %s", day.Format("2006-01-02")),
			Type:   randomType(rng),
			Date:   date,
		})
	}

	if err := db.Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func randomType(rng *rand.Rand) models.ActivityType {
	return models.AllActivityTypes[rng.Intn(len(models.AllActivityTypes))]
}

// seedSamples generates an hour of heart rate data per activity as a bounded
// random walk sampled every five seconds.
func seedSamples(db *gorm.DB, rng *rand.Rand, activities []models.Activity) error {
	perActivity := secondsPerActivity / sampleIntervalSec

	for _, act := range activities {
		samples := make([]models.HeartRateSample, 0, perActivity)
		bpm := rng.Intn(51) + 90
		for s := 0; s < perActivity; s++ {
			bpm += rng.Intn(7) - 3
			if bpm < 50 {
				bpm = 50
			}
			if bpm > 200 {
				bpm = 200
			}
			samples = append(samples, models.HeartRateSample{
				ActivityID: act.ID,
				Timestamp:  act.Date.Add(time.Duration(s*sampleIntervalSec) * time.Second),
				Bpm:        bpm,
			})
		}
		if err := db.CreateInBatches(&samples, 500).Error; err != nil {
			return err
		}
	}
	return nil
}

// seedPoints links activities to goals by recency: last two days feed the
// daily goal, ten days the weekly, two months the monthly, the rest yearly.
func seedPoints(db *gorm.DB, rng *rand.Rand, now time.Time, activities []models.Activity, goals []models.ActivityGoal) error {
	byRange := map[models.ActivityGoalRange]*models.ActivityGoal{}
	for i := range goals {
		byRange[goals[i].Range] = &goals[i]
	}

	var points []models.ActivityGoalPoints
	for _, act := range activities {
		var selected *models.ActivityGoal
		switch {
		case !act.Date.Before(now.AddDate(0, 0, -2)):
			selected = byRange[models.RangeDaily]
		case !act.Date.Before(now.AddDate(0, 0, -10)):
			selected = byRange[models.RangeWeekly]
		case !act.Date.Before(now.AddDate(0, -2, 0)):
			selected = byRange[models.RangeMonthly]
		default:
			selected = byRange[models.RangeYearly]
		}
		if selected == nil || !selected.AcceptedTypes.Contains(act.Type) {
			continue
		}
		points = append(points, models.ActivityGoalPoints{
			ActivityID:     act.ID,
			ActivityGoalID: selected.ID,
			Points:         rng.Intn(491) + 10,
		})
	}

	if len(points) == 0 {
		return nil
	}
	return db.Create(&points).Error
}
