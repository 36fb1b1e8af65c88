package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"records-api/controllers"
	"records-api/models"
	"records-api/uploads"
)

type Dependencies struct {
	Items       controllers.Records[models.Item]
	Users       controllers.Records[models.User]
	LegacyItems controllers.LegacyRecords
	Uploads     *uploads.Store
	Logger      *slog.Logger
}

func SetupRoutes(deps Dependencies) (*mux.Router, error) {
	page, err := controllers.NewItemsPage(deps.Items, deps.Logger)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog(deps.Logger), middleware.Recoverer)
	r.NotFoundHandler = controllers.NotFound()
	r.MethodNotAllowedHandler = controllers.MethodNotAllowed()

	resource(r, "/items", controllers.NewResource(models.ItemSchema, deps.Items, deps.Logger))
	resource(r, "/users", controllers.NewResource(models.UserSchema, deps.Users, deps.Logger))

	profile := controllers.NewProfile(deps.Users, deps.Uploads, deps.Logger)
	r.HandleFunc("/users/profile/{id}", profile.Get).Methods("GET")
	r.HandleFunc("/users/profile/{id}", profile.Patch).Methods("PATCH")
	r.HandleFunc("/users/profile/{id}", profile.DeleteImage).Methods("DELETE")

	upload := controllers.NewUpload(deps.Uploads, deps.Logger)
	r.HandleFunc("/upload", upload.Create).Methods("POST")

	legacy := controllers.NewLegacy(deps.LegacyItems, deps.Logger)
	r.HandleFunc("/api/test/items", legacy.Collection)
	r.HandleFunc("/api/test/items/{id}", legacy.Record)

	prefix := deps.Uploads.URLPrefix() + "/"
	r.PathPrefix(prefix).
		Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(deps.Uploads.Dir())))).
		Methods("GET", "HEAD")

	r.HandleFunc("/", page.Render).Methods("GET")
	return r, nil
}

func resource[T any](r *mux.Router, path string, h *controllers.Resource[T]) {
	r.HandleFunc(path, h.List).Methods("GET")
	r.HandleFunc(path, h.Create).Methods("POST")
	r.HandleFunc(path+"/{id}", h.Get).Methods("GET")
	r.HandleFunc(path+"/{id}", h.Replace).Methods("PUT")
	r.HandleFunc(path+"/{id}", h.Patch).Methods("PATCH")
	r.HandleFunc(path+"/{id}", h.Delete).Methods("DELETE")
}

func accessLog(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(r.Context(), "request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
