package main

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartReportScheduler launches one wall-clock loop per report kind.
// Schedules are standard 5-field cron expressions evaluated in the
// configured timezone. Examples: "35 9 * * 1-5" (weekdays 09:35),
// "0 1 26 * *" (the 26th at 01:00).
func StartReportScheduler(cfg Config, reporter *Reporter) {
	startCronLoop("daily report", cfg.DailySchedule, cfg.Location, func() {
		if _, err := reporter.SendDailyReport(context.Background()); err != nil {
			log.Printf("Scheduled daily report error: %v", err)
		}
	})
	startCronLoop("monthly report", cfg.MonthlySchedule, cfg.Location, func() {
		if _, err := reporter.SendMonthlyReport(context.Background()); err != nil {
			log.Printf("Scheduled monthly report error: %v", err)
		}
	})
}

func startCronLoop(name, schedule string, loc *time.Location, run func()) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid %s schedule '%s': %v — scheduler disabled", name, schedule, err)
		return
	}

	log.Printf("%s scheduled (cron: %s, tz: %s)", name, schedule, loc)

	go func() {
		for {
			now := time.Now().In(loc)
			next := sched.Next(now)
			log.Printf("Next %s at %s (in %s)", name, next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))

			time.Sleep(next.Sub(now))
			run()
		}
	}()
}
