package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerFeedRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/config", handler.GetConfig)
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/snapshots", handler.ListSnapshots)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/{kind}", handler.GetLatest)
	mux.HandleFunc("GET /v1/schedules", handler.ListSchedules)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/config", RequireAdminToken(adminToken, http.HandlerFunc(handler.PostConfig)))
}
