// Package http exposes the ledger over a JSON API: entity CRUD, the
// ledger mutations with their running-total side effects, per-entity
// balances and the dashboard.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"harvestbook/internal/cache"
	"harvestbook/internal/core"
	"harvestbook/internal/middleware/ratelimit"
	"harvestbook/internal/middleware/security"
	"harvestbook/internal/middleware/trace"
	"harvestbook/internal/services"
)

// summaryCacheTTL bounds staleness when a mutation bypasses the API,
// e.g. a manual database edit.
const summaryCacheTTL = 30 * time.Second

type Server struct {
	http.Server

	svc       *services.LedgerService
	limiter   *ratelimit.Limiter
	ipx       *security.ClientIPExtractor
	summaries *cache.LRUCache[core.Summary]
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and returns a ready-to-run
// server. Mutating requests are rate limited per client IP; reads are
// not.
func NewServer(addr string, svc *services.LedgerService) *Server {
	s := &Server{
		svc:       svc,
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		ipx:       security.NewClientIPExtractor(),
		summaries: cache.NewLRUCache[core.Summary](64, summaryCacheTTL),
		started:   time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	traceMW := trace.NewMiddleware(s.ipx.ExtractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := traceMW.Middleware(headersMW.Middleware(s.limitMutations(mux)))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /farmers", s.handleListFarmers)
	mux.HandleFunc("POST /farmers", s.handleCreateFarmer)
	mux.HandleFunc("GET /farmers/{id}", s.handleGetFarmer)
	mux.HandleFunc("PUT /farmers/{id}", s.handleUpdateFarmer)
	mux.HandleFunc("DELETE /farmers/{id}", s.handleDeleteFarmer)
	mux.HandleFunc("GET /farmers/{id}/statement", s.handleFarmerStatement)

	mux.HandleFunc("GET /owners", s.handleListOwners)
	mux.HandleFunc("POST /owners", s.handleCreateOwner)
	mux.HandleFunc("GET /owners/{id}", s.handleGetOwner)
	mux.HandleFunc("PUT /owners/{id}", s.handleUpdateOwner)
	mux.HandleFunc("DELETE /owners/{id}", s.handleDeleteOwner)

	mux.HandleFunc("GET /machines", s.handleListMachines)
	mux.HandleFunc("POST /machines", s.handleCreateMachine)
	mux.HandleFunc("GET /machines/{id}", s.handleGetMachine)
	mux.HandleFunc("PUT /machines/{id}", s.handleUpdateMachine)
	mux.HandleFunc("DELETE /machines/{id}", s.handleDeleteMachine)

	mux.HandleFunc("GET /dealers", s.handleListDealers)
	mux.HandleFunc("POST /dealers", s.handleCreateDealer)
	mux.HandleFunc("GET /dealers/{id}", s.handleGetDealer)
	mux.HandleFunc("PUT /dealers/{id}", s.handleUpdateDealer)
	mux.HandleFunc("DELETE /dealers/{id}", s.handleDeleteDealer)

	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("POST /jobs", s.handleCreateJob)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("PUT /jobs/{id}", s.handleUpdateJob)
	mux.HandleFunc("DELETE /jobs/{id}", s.handleDeleteJob)
	mux.HandleFunc("PUT /jobs/{id}/discounts", s.handleAdjustJobDiscounts)

	mux.HandleFunc("GET /rentals", s.handleListRentals)
	mux.HandleFunc("POST /rentals", s.handleCreateRental)
	mux.HandleFunc("GET /rentals/{id}", s.handleGetRental)
	mux.HandleFunc("PUT /rentals/{id}", s.handleUpdateRental)
	mux.HandleFunc("DELETE /rentals/{id}", s.handleDeleteRental)

	mux.HandleFunc("GET /payments", s.handleListPayments)
	mux.HandleFunc("POST /payments", s.handleCreatePayment)
	mux.HandleFunc("GET /payments/{id}", s.handleGetPayment)
	mux.HandleFunc("DELETE /payments/{id}", s.handleDeletePayment)

	mux.HandleFunc("GET /rental-payments", s.handleListRentalPayments)
	mux.HandleFunc("POST /rental-payments", s.handleCreateRentalPayment)
	mux.HandleFunc("GET /rental-payments/{id}", s.handleGetRentalPayment)
	mux.HandleFunc("DELETE /rental-payments/{id}", s.handleDeleteRentalPayment)

	mux.HandleFunc("GET /advances", s.handleListAdvances)
	mux.HandleFunc("POST /advances", s.handleCreateAdvance)
	mux.HandleFunc("GET /advances/{id}", s.handleGetAdvance)
	mux.HandleFunc("DELETE /advances/{id}", s.handleDeleteAdvance)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /balances/farmers/{id}", s.handleFarmerBalance)
	mux.HandleFunc("GET /balances/owners/{id}", s.handleOwnerBalance)
	mux.HandleFunc("GET /balances/machines/{id}", s.handleMachineBalance)
	mux.HandleFunc("GET /balances/dealers/{id}", s.handleDealerBalance)

	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /dashboard/export", s.handleDashboardExport)

	mux.HandleFunc("GET /refdata/villages", s.handleListVillages)
	mux.HandleFunc("POST /refdata/villages", s.handleAddVillage)
	mux.HandleFunc("DELETE /refdata/villages/{name}", s.handleDeleteVillage)
	mux.HandleFunc("GET /refdata/machine-types", s.handleListMachineTypes)
	mux.HandleFunc("POST /refdata/machine-types", s.handleAddMachineType)
	mux.HandleFunc("DELETE /refdata/machine-types/{name}", s.handleDeleteMachineType)
}

// limitMutations applies the rate limiter to everything except reads,
// and drops cached summaries once a mutation has gone through.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.Allow(s.ipx.ExtractClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(envelope{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
		s.summaries.Purge()
	})
}

// Shutdown stops the rate limiter's cleanup goroutine and the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

// handleReady verifies the database answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.svc.Storage().Villages(ctx); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(envelope{Error: "storage not ready: " + err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
