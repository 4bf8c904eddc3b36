package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Error messages reference JSON field names, not Go struct fields.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateOrder rejects malformed payloads at the boundary, before
// anything touches the store.
func validateOrder(req orderRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fields []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	return fmt.Errorf("%w: campos obrigatórios ausentes (%s)", ErrValidation, strings.Join(fields, ", "))
}

type orderRequest struct {
	Nome        string `json:"nome" validate:"required"`
	Empresa     string `json:"empresa"`
	Almoco      string `json:"almoco" validate:"required"`
	Salada      string `json:"salada" validate:"required"`
	Sobremesa   string `json:"sobremesa" validate:"required"`
	Porcao      string `json:"porcao" validate:"required"`
	CarneExtra  string `json:"carneExtra"`
	Observacoes string `json:"observacoes"`
}

func NewRouter(cfg Config, db *sql.DB, reporter *Reporter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/pedidos/salvar", saveOrderHandler(cfg, db))
	r.Get("/api/pedidos", listOrdersHandler(db))
	r.Post("/api/pedidos/enviar-email", triggerReportHandler(reporter, ReportDaily))
	r.Post("/api/pedidos/enviar-email-mensal", triggerReportHandler(reporter, ReportMonthly))
	r.Get("/api/cardapio/imagem", menuImageHandler(cfg))
	r.Get("/login", serveFileHandler(cfg.PublicDir, "login.html"))
	r.Post("/admin/login", loginHandler(cfg))
	r.Get("/admin/logout", logoutHandler())

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(AdminAuth(cfg.SessionSecret))
		r.Get("/admin/upload", serveFileHandler(cfg.PublicDir, "admin.html"))
		r.Post("/admin/upload", uploadMenuHandler(cfg))
		r.Get("/api/pedidos/download", downloadOrdersHandler(db))
	})

	// Static files (order form, menu page, images)
	r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func saveOrderHandler(cfg Config, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Pedido inválido.")
			return
		}
		if err := validateOrder(req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
		defer cancel()

		_, err := InsertOrder(ctx, db, Order{
			Nome:        req.Nome,
			Empresa:     req.Empresa,
			Almoco:      req.Almoco,
			Salada:      req.Salada,
			Sobremesa:   req.Sobremesa,
			Porcao:      req.Porcao,
			CarneExtra:  req.CarneExtra,
			Observacoes: req.Observacoes,
			SubmittedAt: time.Now().In(cfg.Location),
		})
		if err != nil {
			// Detail stays server-side; the submitter gets a generic failure.
			log.Printf("Error saving order: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Erro ao salvar o pedido.")
			return
		}
		writeMessage(w, http.StatusOK, "Pedido salvo com sucesso!")
	}
}

func listOrdersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
		defer cancel()

		orders, err := AllOrders(ctx, db)
		if err != nil {
			log.Printf("Error listing orders: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Erro ao buscar os pedidos.")
			return
		}
		// Newest first for the listing, the store itself is ascending.
		for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
			orders[i], orders[j] = orders[j], orders[i]
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

func triggerReportHandler(reporter *Reporter, kind ReportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			result ReportResult
			err    error
		)
		if kind == ReportMonthly {
			result, err = reporter.SendMonthlyReport(r.Context())
		} else {
			result, err = reporter.SendDailyReport(r.Context())
		}
		if err != nil {
			log.Printf("Error sending %s report: %v", kind, err)
			writeMessage(w, http.StatusInternalServerError, "Erro ao enviar e-mail.")
			return
		}
		if !result.Sent {
			writeMessage(w, http.StatusOK, "Nenhum pedido no período, e-mail não enviado.")
			return
		}
		writeMessage(w, http.StatusOK, "E-mail enviado com sucesso!")
	}
}

func menuImageHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := MenuImageName(time.Now().In(cfg.Location), cfg.MenuCutoffHour)
		// The image changes during the day; never cache it.
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, filepath.Join(cfg.PublicDir, "images", name))
	}
}

func downloadOrdersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
		defer cancel()

		orders, err := AllOrders(ctx, db)
		if err != nil {
			log.Printf("Error exporting orders: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Erro ao baixar o arquivo.")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="pedidos.csv"`)
		_, _ = w.Write([]byte(OrdersCSV(orders)))
	}
}

func serveFileHandler(publicDir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(publicDir, name))
	}
}
