package main

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T, db *sql.DB, mailer Mailer) (Config, http.Handler) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}
	cfg := Config{
		Location:             time.UTC,
		PublicDir:            t.TempDir(),
		ReportOutputDir:      t.TempDir(),
		MailFrom:             "noreply@example.com",
		MailTo:               "rh@example.com",
		AdminUsername:        "admin",
		AdminPasswordHash:    string(hash),
		SessionSecret:        "test-secret",
		MenuCutoffHour:       13,
		MonthlyRetainHistory: true,
	}
	reporter := NewReporter(db, mailer, cfg, nil)
	return cfg, NewRouter(cfg, db, reporter)
}

func TestSaveOrderHandlerPersistsValidPayload(t *testing.T) {
	db := newTestDB(t)
	_, router := newTestServer(t, db, &fakeMailer{})

	body := `{"nome":"Maria","empresa":"Metalburgo","almoco":"Frango","salada":"Mista","sobremesa":"Pudim","porcao":"Grande","carneExtra":"2","observacoes":"sem cebola"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pedidos/salvar", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	orders, err := AllOrders(context.Background(), db)
	if err != nil {
		t.Fatalf("AllOrders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 stored order, got %d", len(orders))
	}
	if orders[0].Nome != "Maria" || orders[0].CarneExtra != "2" || orders[0].Observacoes != "sem cebola" {
		t.Fatalf("stored order lost fields: %+v", orders[0])
	}
	if orders[0].SubmittedAt.IsZero() {
		t.Fatal("stored order has no submission time")
	}
}

func TestSaveOrderHandlerRejectsMissingFields(t *testing.T) {
	db := newTestDB(t)
	_, router := newTestServer(t, db, &fakeMailer{})

	body := `{"nome":"Maria"}` // almoco/salada/sobremesa/porcao missing
	req := httptest.NewRequest(http.MethodPost, "/api/pedidos/salvar", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if orders, _ := AllOrders(context.Background(), db); len(orders) != 0 {
		t.Fatalf("rejected payload reached the store: %d orders", len(orders))
	}
}

func TestSaveOrderHandlerRejectsMalformedJSON(t *testing.T) {
	db := newTestDB(t)
	_, router := newTestServer(t, db, &fakeMailer{})

	req := httptest.NewRequest(http.MethodPost, "/api/pedidos/salvar", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTriggerDailyReportEmptyIsNoop(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	_, router := newTestServer(t, db, mailer)

	req := httptest.NewRequest(http.MethodPost, "/api/pedidos/enviar-email", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 no-op, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(mailer.sent()) != 0 {
		t.Fatal("empty trigger must not send mail")
	}
}

func TestTriggerDailyReportSendsMail(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	_, router := newTestServer(t, db, mailer)

	insertTestOrder(t, db, "Maria", time.Now().UTC().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/api/pedidos/enviar-email", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(mailer.sent()) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent()))
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	db := newTestDB(t)
	_, router := newTestServer(t, db, &fakeMailer{})

	req := httptest.NewRequest(http.MethodGet, "/api/pedidos/download", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to login, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestAdminLoginAndDownload(t *testing.T) {
	db := newTestDB(t)
	_, router := newTestServer(t, db, &fakeMailer{})
	insertTestOrder(t, db, "Maria", time.Now().UTC().Add(-time.Hour))

	form := url.Values{"username": {"admin"}, "password": {"senha123"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected login redirect, got %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/pedidos/download", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 download, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, OrdersCSVHeader) {
		t.Fatalf("download is not the orders CSV: %q", body[:min(len(body), 80)])
	}
	if CSVRowCount(body) != 1 {
		t.Fatalf("expected 1 data row in download, got %d", CSVRowCount(body))
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	db := newTestDB(t)
	_, router := newTestServer(t, db, &fakeMailer{})

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed login must not set a cookie")
	}
}
