package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/database"
	"github.com/babcheck/babcheck/backend/internal/logger"
	"github.com/babcheck/babcheck/backend/internal/neis"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

var demoNames = []string{"김민준", "이서연", "박도윤", "최하은", "정시우", "강지유", "조예준", "윤수아"}

var demoSnacks = []string{"바나나", "우유", "초코과자", "사과", "요거트", "감자칩", "떡"}

// seed_records writes demo lunch and snack records for one day so the
// teacher monitor has something to show in development.
func main() {
	date := flag.String("date", "", "Day to seed (YYYYMMDD or YYYY-MM-DD, default today)")
	students := flag.Int("students", 5, "Number of demo students")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == config.Production {
		logrus.Fatal("Refusing to seed demo records in production")
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer records.Close()

	fetcher := neis.NewClient(neis.Config{
		APIKey:     cfg.NEISAPIKey,
		OfficeCode: cfg.NEISOfficeCode,
		SchoolCode: cfg.NEISSchoolCode,
		BaseURL:    cfg.NEISBaseURL,
	}, nil)
	menus := service.NewMenuService(fetcher, nil, cfg, log)
	recordService := service.NewRecordService(menus, records, log)

	day, err := menus.Normalize(*date)
	if err != nil {
		log.Fatalf("Invalid date: %v", err)
	}
	daily, err := menus.ForDate(ctx, day)
	if err != nil {
		log.Fatalf("Failed to load menu: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *students; i++ {
		user := types.Identity{
			UserID: fmt.Sprintf("demo-%02d", i+1),
			Email:  fmt.Sprintf("demo%02d@school.example", i+1),
			Name:   demoNames[i%len(demoNames)],
		}

		items := make([]types.LunchItemInput, 0, len(daily.Items))
		for _, it := range daily.Items {
			items = append(items, types.LunchItemInput{Name: it.Name, Count: rng.Intn(3)})
		}
		// at least one dish so the lunch validates
		items[0].Count++

		if _, _, err := recordService.SubmitLunch(ctx, user, &types.LunchRequest{Date: day, Items: items}); err != nil {
			log.Fatalf("Failed to seed lunch for %s: %v", user.UserID, err)
		}

		var snacks []string
		for _, idx := range rng.Perm(len(demoSnacks))[:1+rng.Intn(3)] {
			snacks = append(snacks, demoSnacks[idx])
		}
		if _, _, err := recordService.SubmitSnack(ctx, user, &types.SnackRequest{Date: day, Snacks: snacks}); err != nil {
			log.Fatalf("Failed to seed snacks for %s: %v", user.UserID, err)
		}
	}

	log.WithFields(logrus.Fields{
		"date":     day,
		"students": *students,
		"fallback": daily.Fallback,
	}).Info("Seeded demo records")
}
