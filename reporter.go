package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	storeTimeout = 10 * time.Second
	mailTimeout  = 30 * time.Second
)

// ReportResult summarizes one report run.
type ReportResult struct {
	Kind ReportKind
	Rows int
	Sent bool
}

// Reporter runs the report pipeline: resolve window, query orders,
// render CSV, mail it, advance the watermark. Concurrent triggers for
// the same kind (scheduler plus on-demand HTTP) collapse onto a single
// in-flight run; different kinds run independently.
type Reporter struct {
	db       *sql.DB
	mailer   Mailer
	cfg      Config
	notifier *SlackNotifier
	group    singleflight.Group
	now      func() time.Time
}

func NewReporter(db *sql.DB, mailer Mailer, cfg Config, notifier *SlackNotifier) *Reporter {
	return &Reporter{
		db:       db,
		mailer:   mailer,
		cfg:      cfg,
		notifier: notifier,
		now:      time.Now,
	}
}

func (r *Reporter) SendDailyReport(ctx context.Context) (ReportResult, error) {
	v, err, _ := r.group.Do(string(ReportDaily), func() (interface{}, error) {
		return r.runDaily(ctx)
	})
	return v.(ReportResult), err
}

func (r *Reporter) SendMonthlyReport(ctx context.Context) (ReportResult, error) {
	v, err, _ := r.group.Do(string(ReportMonthly), func() (interface{}, error) {
		return r.runMonthly(ctx)
	})
	return v.(ReportResult), err
}

func (r *Reporter) runDaily(ctx context.Context) (ReportResult, error) {
	result := ReportResult{Kind: ReportDaily}
	now := r.now()

	queryCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	watermark, haveWatermark, err := Watermark(queryCtx, r.db, ReportDaily)
	if err != nil {
		return result, err
	}
	window := ResolveDailyWindow(now, watermark, haveWatermark, r.cfg.Location)
	log.Printf("daily report window %s - %s", window.From.Format(time.RFC3339), window.To.Format(time.RFC3339))

	orders, err := OrdersByWindow(queryCtx, r.db, window)
	if err != nil {
		return result, err
	}
	result.Rows = len(orders)
	if len(orders) == 0 {
		log.Println("No recent orders, skipping daily report")
		r.notifier.Notify("Relatório diário: nenhum pedido no período, e-mail não enviado.")
		return result, nil
	}

	csvText := OrdersCSV(orders)
	r.writeReportFile("pedidos_diarios", now, csvText)

	err = r.send(ctx, Email{
		From:    r.cfg.MailFrom,
		To:      r.cfg.MailTo,
		BCC:     r.cfg.MailBCC,
		Subject: "Relatório Diário de Pedidos de Refeição",
		Body:    "Segue em anexo o relatório de pedidos de refeições recentes.",
		Attachments: []Attachment{
			{Filename: "pedidos_diarios.csv", Content: []byte(csvText)},
		},
	})
	if err != nil {
		// Watermark untouched: the next run resends the same window.
		r.notifier.Notify(fmt.Sprintf("Relatório diário: falha no envio (%d pedidos retidos para nova tentativa).", len(orders)))
		return result, err
	}

	if err := SetWatermark(context.Background(), r.db, ReportDaily, window.To); err != nil {
		// The mail went out; a stale watermark only means the next run
		// may resend rows (at-least-once, never lost).
		log.Printf("Error advancing daily watermark: %v", err)
	}
	result.Sent = true
	log.Printf("Daily report sent: %d orders", len(orders))
	r.notifier.Notify(fmt.Sprintf("Relatório diário enviado: %d pedidos.", len(orders)))
	return result, nil
}

func (r *Reporter) runMonthly(ctx context.Context) (ReportResult, error) {
	result := ReportResult{Kind: ReportMonthly}
	now := r.now()

	queryCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	orders, windowEnd, err := r.monthlyOrders(queryCtx, now)
	if err != nil {
		return result, err
	}
	result.Rows = len(orders)
	if len(orders) == 0 {
		log.Println("No orders in monthly period, skipping monthly report")
		r.notifier.Notify("Relatório mensal: nenhum pedido no período, e-mail não enviado.")
		return result, nil
	}

	detailCSV := OrdersCSV(orders)
	summaryCSV := SummaryCSV(Summarize(orders))
	r.writeReportFile("pedidos_mensais", now, detailCSV)
	r.writeReportFile("summary_pedidos", now, summaryCSV)

	err = r.send(ctx, Email{
		From:    r.cfg.MailFrom,
		To:      r.cfg.MailTo,
		BCC:     r.cfg.MailBCC,
		Subject: "Relatório Mensal de Pedidos de Refeição",
		Body:    "Segue em anexo o relatório mensal de pedidos de refeições e o resumo por pessoa.",
		Attachments: []Attachment{
			{Filename: "pedidos_mensais.csv", Content: []byte(detailCSV)},
			{Filename: "summary_pedidos.csv", Content: []byte(summaryCSV)},
		},
	})
	if err != nil {
		r.notifier.Notify(fmt.Sprintf("Relatório mensal: falha no envio (%d pedidos retidos para nova tentativa).", len(orders)))
		return result, err
	}

	if !r.cfg.MonthlyRetainHistory {
		// Rotate mode: the advancing watermark stands in for clearing the
		// log, which itself stays append-only.
		if err := SetWatermark(context.Background(), r.db, ReportMonthly, windowEnd); err != nil {
			log.Printf("Error advancing monthly watermark: %v", err)
		}
	}
	result.Sent = true
	log.Printf("Monthly report sent: %d orders", len(orders))
	r.notifier.Notify(fmt.Sprintf("Relatório mensal enviado: %d pedidos.", len(orders)))
	return result, nil
}

// monthlyOrders picks the monthly data set according to the configured
// mode. Retain mode covers the billing-cycle window ending on the 25th.
// Rotate mode covers everything since the last monthly send, falling
// back to the full history on the first ever run.
func (r *Reporter) monthlyOrders(ctx context.Context, now time.Time) ([]Order, time.Time, error) {
	if r.cfg.MonthlyRetainHistory {
		window := ResolveMonthlyWindow(now, r.cfg.Location)
		orders, err := OrdersByWindow(ctx, r.db, window)
		return orders, window.To, err
	}

	watermark, haveWatermark, err := Watermark(ctx, r.db, ReportMonthly)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !haveWatermark {
		orders, err := AllOrders(ctx, r.db)
		return orders, now.UTC(), err
	}
	window := ReportWindow{From: watermark, To: now.UTC(), Kind: ReportMonthly}
	orders, err := OrdersByWindow(ctx, r.db, window)
	return orders, window.To, err
}

func (r *Reporter) send(ctx context.Context, e Email) error {
	sendCtx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	if err := r.mailer.Send(sendCtx, e); err != nil {
		log.Printf("Error sending %s: %v", e.Subject, err)
		return err
	}
	return nil
}

// writeReportFile keeps a dated copy of every generated CSV on disk,
// best-effort. Reports are regenerable from the order log, so a write
// failure is only logged.
func (r *Reporter) writeReportFile(prefix string, date time.Time, content string) {
	if err := os.MkdirAll(r.cfg.ReportOutputDir, 0755); err != nil {
		log.Printf("Error creating report dir: %v", err)
		return
	}
	filename := fmt.Sprintf("%s_%s.csv", prefix, date.Format("20060102"))
	path := filepath.Join(r.cfg.ReportOutputDir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		log.Printf("Error writing %s: %v", path, err)
	}
}
