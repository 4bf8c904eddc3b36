package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "session"

// Weekday form field names accepted by the upload endpoint. Each maps to
// the image file the menu handler serves for that day.
var uploadFields = []string{"segunda", "terca", "quarta", "quinta", "sexta"}

func loginHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "formulário inválido", http.StatusBadRequest)
			return
		}
		username := r.FormValue("username")
		password := r.FormValue("password")

		if username != cfg.AdminUsername ||
			bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(password)) != nil {
			http.Error(w, "Usuário ou senha incorretos.", http.StatusUnauthorized)
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": username,
			"exp": jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		})
		signed, err := token.SignedString([]byte(cfg.SessionSecret))
		if err != nil {
			log.Printf("Error signing session token: %v", err)
			http.Error(w, "erro interno", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    signed,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int((24 * time.Hour).Seconds()),
		})
		http.Redirect(w, r, "/admin/upload", http.StatusSeeOther)
	}
}

func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// AdminAuth gates administrative routes on a valid signed session cookie.
func AdminAuth(sessionSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(sessionSecret), nil
			})
			if err != nil || !token.Valid {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// uploadMenuHandler replaces weekday menu images. Files arrive as
// multipart fields named after the weekday and are stored under a fixed
// name, so whatever the admin uploads becomes that day's image.
func uploadMenuHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "Nenhum arquivo foi enviado.", http.StatusBadRequest)
			return
		}

		imagesDir := filepath.Join(cfg.PublicDir, "images")
		if err := os.MkdirAll(imagesDir, 0755); err != nil {
			log.Printf("Error creating images dir: %v", err)
			http.Error(w, "Erro no upload do arquivo.", http.StatusInternalServerError)
			return
		}

		saved := 0
		for _, field := range uploadFields {
			file, _, err := r.FormFile(field)
			if err != nil {
				continue // field not present in this request
			}
			dest := filepath.Join(imagesDir, field+".jpeg")
			if err := saveUpload(dest, file); err != nil {
				file.Close()
				log.Printf("Error saving %s image: %v", field, err)
				http.Error(w, "Erro no upload do arquivo.", http.StatusInternalServerError)
				return
			}
			file.Close()
			saved++
		}

		if saved == 0 {
			http.Error(w, "Nenhum arquivo foi enviado.", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "Imagens carregadas com sucesso! (%d)", saved)
	}
}

func saveUpload(dest string, src io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Sync()
}
