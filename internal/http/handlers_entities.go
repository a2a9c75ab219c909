package http

import (
	"net/http"
	"strings"

	"harvestbook/internal/core"
)

// ---- farmers ----

func (s *Server) handleListFarmers(w http.ResponseWriter, r *http.Request) {
	farmers, err := s.svc.Storage().ListFarmers(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]farmerView, 0, len(farmers))
	for _, f := range farmers {
		views = append(views, viewFarmer(f))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateFarmer(w http.ResponseWriter, r *http.Request) {
	var req farmerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	f := req.toCore()
	if err := f.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.Storage().CreateFarmer(r.Context(), f)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	f.ID = id
	respondJSON(w, http.StatusCreated, viewFarmer(f))
}

func (s *Server) handleGetFarmer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	f, err := s.svc.Storage().GetFarmer(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewFarmer(f))
}

func (s *Server) handleUpdateFarmer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req farmerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	f := req.toCore()
	f.ID = id
	if err := f.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.Storage().UpdateFarmer(r.Context(), f); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	updated, err := s.svc.Storage().GetFarmer(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewFarmer(updated))
}

func (s *Server) handleDeleteFarmer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.Storage().DeleteFarmer(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- machine owners ----

func (s *Server) handleListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := s.svc.Storage().ListOwners(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]ownerView, 0, len(owners))
	for _, o := range owners {
		views = append(views, viewOwner(o))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	o, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := o.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.Storage().CreateOwner(r.Context(), o)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	o.ID = id
	respondJSON(w, http.StatusCreated, viewOwner(o))
}

func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	o, err := s.svc.Storage().GetOwner(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOwner(o))
}

func (s *Server) handleUpdateOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req ownerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	o, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	o.ID = id
	if err := o.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.Storage().UpdateOwner(r.Context(), o); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	updated, err := s.svc.Storage().GetOwner(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOwner(updated))
}

func (s *Server) handleDeleteOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.Storage().DeleteOwner(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- machines ----

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.svc.Storage().ListMachines(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]machineView, 0, len(machines))
	for _, m := range machines {
		views = append(views, viewMachine(m))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	var req machineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	m, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	// An omitted owner rate is seeded from the owner's default.
	owner, err := s.svc.Storage().GetOwner(r.Context(), m.OwnerID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if m.OwnerRate.Cents == 0 {
		m.OwnerRate = owner.DefaultRate
	}
	if err := m.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.Storage().CreateMachine(r.Context(), m)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	m.ID = id
	respondJSON(w, http.StatusCreated, viewMachine(m))
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	m, err := s.svc.Storage().GetMachine(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewMachine(m))
}

func (s *Server) handleUpdateMachine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req machineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	m, err := req.toCore()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	m.ID = id
	if err := m.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.UpdateMachine(r.Context(), m); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	updated, err := s.svc.Storage().GetMachine(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewMachine(updated))
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.Storage().DeleteMachine(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- dealers ----

func (s *Server) handleListDealers(w http.ResponseWriter, r *http.Request) {
	dealers, err := s.svc.Storage().ListDealers(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	views := make([]dealerView, 0, len(dealers))
	for _, d := range dealers {
		views = append(views, viewDealer(d))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateDealer(w http.ResponseWriter, r *http.Request) {
	var req dealerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	d := req.toCore()
	if err := d.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	id, err := s.svc.Storage().CreateDealer(r.Context(), d)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	d.ID = id
	respondJSON(w, http.StatusCreated, viewDealer(d))
}

func (s *Server) handleGetDealer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	d, err := s.svc.Storage().GetDealer(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewDealer(d))
}

func (s *Server) handleUpdateDealer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req dealerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	d := req.toCore()
	d.ID = id
	if err := d.Validate(); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.Storage().UpdateDealer(r.Context(), d); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	updated, err := s.svc.Storage().GetDealer(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, viewDealer(updated))
}

func (s *Server) handleDeleteDealer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := s.svc.Storage().DeleteDealer(r.Context(), id); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- reference data ----

func (s *Server) handleListVillages(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Storage().Villages(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, names)
}

func (s *Server) handleAddVillage(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(r.Context(), w, core.ErrEmptyName)
		return
	}
	if err := s.svc.Storage().AddVillage(r.Context(), name); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, name)
}

func (s *Server) handleDeleteVillage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.svc.Storage().DeleteVillage(r.Context(), name); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMachineTypes(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Storage().MachineTypes(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, names)
}

func (s *Server) handleAddMachineType(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(r.Context(), w, core.ErrEmptyName)
		return
	}
	if err := s.svc.Storage().AddMachineType(r.Context(), name); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, name)
}

func (s *Server) handleDeleteMachineType(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.svc.Storage().DeleteMachineType(r.Context(), name); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
