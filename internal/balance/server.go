package balance

import (
	"encoding/json"
	"fmt"
	"net/http"

	"fundflow-go/internal/api"
	"fundflow-go/internal/database"
	"fundflow-go/internal/models"
	"fundflow-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server is the balance service itself: the external collaborator the saga
// and the reconciliation engine talk to, made runnable for local stacks.
type Server struct {
	db *database.Service
}

func NewServer(db *database.Service) *Server {
	return &Server{db: db}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /user/create", s.handleCreateUser)
	mux.HandleFunc("GET /user/balance/{userId}", s.handleGetBalance)
	mux.HandleFunc("POST /user/balance/update", s.handleUpdateBalance)
	mux.HandleFunc("POST /user/freeze", s.handleFreeze)
	mux.HandleFunc("POST /user/unfreeze", s.handleUnfreeze)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	api.RespondJSON(w, http.StatusOK, models.ApiResponse{
		Status:  "success",
		Message: "Balance Service is healthy",
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondError(w, fmt.Errorf("%w: invalid request body", store.ErrValidation))
		return
	}
	if req.Username == "" || req.Email == "" {
		api.RespondError(w, fmt.Errorf("%w: username and email are required", store.ErrValidation))
		return
	}

	user, err := s.db.CreateUser(r.Context(), uuid.New().String(), req.Username, req.Email)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	zap.L().Info("User created",
		zap.String("user_id", user.Id),
		zap.String("username", user.Username))

	api.RespondJSON(w, http.StatusCreated, models.ApiResponse{
		Status: "success",
		Data: models.UserBalanceSnapshot{
			UserId:   user.Id,
			Balance:  user.Balance,
			IsFrozen: user.IsFrozen,
		},
		Message: "User created successfully",
	})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	userId := r.PathValue("userId")
	if userId == "" {
		api.RespondError(w, fmt.Errorf("%w: missing user id", store.ErrValidation))
		return
	}

	user, err := s.db.GetUserById(r.Context(), userId)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, models.ApiResponse{
		Status: "success",
		Data: models.UserBalanceSnapshot{
			UserId:   user.Id,
			Balance:  user.Balance,
			IsFrozen: user.IsFrozen,
		},
	})
}

func (s *Server) handleUpdateBalance(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondError(w, fmt.Errorf("%w: invalid request body", store.ErrValidation))
		return
	}
	if req.UserId == "" {
		api.RespondError(w, fmt.Errorf("%w: userId is required", store.ErrValidation))
		return
	}

	if _, err := s.db.UpdateUserBalance(r.Context(), req.UserId, req.NewBalance); err != nil {
		api.RespondError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, models.ApiResponse{
		Status:  "success",
		Message: "Balance updated successfully",
	})
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	s.handleSetFrozen(w, r, true, "Account frozen successfully")
}

func (s *Server) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	s.handleSetFrozen(w, r, false, "Account unfrozen successfully")
}

func (s *Server) handleSetFrozen(w http.ResponseWriter, r *http.Request, frozen bool, message string) {
	var req models.FreezeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondError(w, fmt.Errorf("%w: invalid request body", store.ErrValidation))
		return
	}
	if req.UserId == "" {
		api.RespondError(w, fmt.Errorf("%w: userId is required", store.ErrValidation))
		return
	}

	if _, err := s.db.SetUserFrozen(r.Context(), req.UserId, frozen); err != nil {
		api.RespondError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, models.ApiResponse{
		Status:  "success",
		Message: message,
	})
}
