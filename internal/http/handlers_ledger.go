package http

import (
	"net/http"
)

// ---- harvesting jobs ----

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svc.Storage().ListJobs(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, viewJob(j))
	}
	respondJSON(w, http.StatusOK, views)
}

// handleCreateJob prices and stores a job. The response carries the
// discount-adjusted amounts so clients can surface exceeds-gross
// warnings.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	j, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, amounts, err := s.svc.CreateJob(r.Context(), j)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	created, err := s.svc.Storage().GetJob(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, struct {
		Job     jobView        `json:"job"`
		Amounts jobAmountsView `json:"amounts"`
	}{viewJob(created), viewJobAmounts(amounts)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	j, err := s.svc.Storage().GetJob(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewJob(j))
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req jobRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	j, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	j.ID = id
	amounts, err := s.svc.UpdateJob(r.Context(), j)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	updated, err := s.svc.Storage().GetJob(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Job     jobView        `json:"job"`
		Amounts jobAmountsView `json:"amounts"`
	}{viewJob(updated), viewJobAmounts(amounts)})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.DeleteJob(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdjustJobDiscounts edits only the two discount fields. The
// exceeds-gross flags come back in the amounts so the caller can ask
// the operator to confirm.
func (s *Server) handleAdjustJobDiscounts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req discountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	fromOwner, err := parseOptionalMoney("discount_from_owner", req.DiscountFromOwner)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	toFarmer, err := parseOptionalMoney("discount_to_farmer", req.DiscountToFarmer)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	amounts, err := s.svc.AdjustJobDiscounts(r.Context(), id, fromOwner, toFarmer)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewJobAmounts(amounts))
}

// ---- machine rentals ----

func (s *Server) handleListRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := s.svc.Storage().ListRentals(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]rentalView, 0, len(rentals))
	for _, rental := range rentals {
		views = append(views, viewRental(rental))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateRental(w http.ResponseWriter, r *http.Request) {
	var req rentalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	rental, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.CreateRental(r.Context(), rental)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	created, err := s.svc.Storage().GetRental(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewRental(created))
}

func (s *Server) handleGetRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	rental, err := s.svc.Storage().GetRental(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewRental(rental))
}

func (s *Server) handleUpdateRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req rentalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	rental, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	rental.ID = id
	if err := s.svc.UpdateRental(r.Context(), rental); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	updated, err := s.svc.Storage().GetRental(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewRental(updated))
}

func (s *Server) handleDeleteRental(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.DeleteRental(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- payments ----

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.svc.Storage().ListPayments(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, viewPayment(p))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	p, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, _, err := s.svc.CreatePayment(r.Context(), p)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	created, err := s.svc.Storage().GetPayment(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewPayment(created))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	p, err := s.svc.Storage().GetPayment(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewPayment(p))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.DeletePayment(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- rental payments ----

func (s *Server) handleListRentalPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.svc.Storage().ListRentalPayments(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]rentalPaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, viewRentalPayment(p))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateRentalPayment(w http.ResponseWriter, r *http.Request) {
	var req rentalPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	p, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.CreateRentalPayment(r.Context(), p)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	created, err := s.svc.Storage().GetRentalPayment(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewRentalPayment(created))
}

func (s *Server) handleGetRentalPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	p, err := s.svc.Storage().GetRentalPayment(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewRentalPayment(p))
}

func (s *Server) handleDeleteRentalPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.DeleteRentalPayment(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- daily advances ----

func (s *Server) handleListAdvances(w http.ResponseWriter, r *http.Request) {
	advances, err := s.svc.Storage().ListAdvances(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]advanceView, 0, len(advances))
	for _, a := range advances {
		views = append(views, viewAdvance(a))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	a, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.CreateAdvance(r.Context(), a)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	created, err := s.svc.Storage().GetAdvance(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewAdvance(created))
}

func (s *Server) handleGetAdvance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	a, err := s.svc.Storage().GetAdvance(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewAdvance(a))
}

func (s *Server) handleDeleteAdvance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.DeleteAdvance(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- machine expenses ----

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Storage().ListExpenses(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, viewExpense(e))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	e, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.CreateExpense(r.Context(), e)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	created, err := s.svc.Storage().GetExpense(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, viewExpense(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	e, err := s.svc.Storage().GetExpense(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewExpense(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.DeleteExpense(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
