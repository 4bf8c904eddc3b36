package main

import "time"

// Order is one submitted meal order. Rows are append-only: there are no
// update or delete paths anywhere in the codebase.
type Order struct {
	ID          int64     `json:"id"`
	Nome        string    `json:"nome"`
	Empresa     string    `json:"empresa"`
	Almoco      string    `json:"almoco"`
	Salada      string    `json:"salada"`
	Sobremesa   string    `json:"sobremesa"`
	Porcao      string    `json:"porcao"`
	CarneExtra  string    `json:"carneExtra"` // free text on the form, parsed defensively
	Observacoes string    `json:"observacoes"`
	SubmittedAt time.Time `json:"data_hora"`
}

// SummaryRow is one line of the per-person monthly summary.
type SummaryRow struct {
	Nome            string
	OrderCount      int
	CarneExtraTotal int
}

type ReportKind string

const (
	ReportDaily   ReportKind = "daily"
	ReportMonthly ReportKind = "monthly"
)

// ReportWindow is a half-open interval [From, To) in UTC. The resolvers
// own all timezone conversion; the store only ever sees UTC bounds.
type ReportWindow struct {
	From time.Time
	To   time.Time
	Kind ReportKind
}

// ResolveDailyWindow computes the range of the daily report ending at now.
// With a watermark the window is simply [watermark, now). Without one it
// falls back to 10:00 local time on the previous business day: Monday
// reaches back to Friday, every other weekday to the day before.
func ResolveDailyWindow(now, watermark time.Time, haveWatermark bool, loc *time.Location) ReportWindow {
	now = now.In(loc)
	if haveWatermark {
		return ReportWindow{From: watermark.UTC(), To: now.UTC(), Kind: ReportDaily}
	}

	days := 1
	if now.Weekday() == time.Monday {
		days = 3
	}
	start := time.Date(now.Year(), now.Month(), now.Day()-days, 10, 0, 0, 0, loc)
	return ReportWindow{From: start.UTC(), To: now.UTC(), Kind: ReportDaily}
}

// ResolveMonthlyWindow computes the billing-cycle month containing now:
// the 26th 00:00:00 of the previous month through the 25th 23:59:59 of
// the current month. The end bound is expressed as the 26th 00:00:00
// exclusive, which covers the same records for whole-second timestamps.
func ResolveMonthlyWindow(now time.Time, loc *time.Location) ReportWindow {
	now = now.In(loc)
	from := time.Date(now.Year(), now.Month()-1, 26, 0, 0, 0, 0, loc)
	to := time.Date(now.Year(), now.Month(), 26, 0, 0, 0, 0, loc)
	return ReportWindow{From: from.UTC(), To: to.UTC(), Kind: ReportMonthly}
}
