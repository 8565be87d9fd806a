package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover turns a panic in the handler chain into a JSON 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := wrapWriter(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Printf("panic: request_id=%s path=%s err=%v\n%s",
				chimw.GetReqID(r.Context()), r.URL.Path, rec, debug.Stack())
			if wrapped.wroteHeader {
				return
			}
			wrapped.Header().Set("Content-Type", "application/json")
			wrapped.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(wrapped).Encode(map[string]string{"message": "Internal Server Error"})
		}()
		next.ServeHTTP(wrapped, r)
	})
}
