package demoapp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofrs/uuid"
)

type messageResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, messageResponse{Message: validationErr.Message, Field: validationErr.Field})
	case errors.Is(err, ErrEmailTaken):
		writeJSON(w, http.StatusConflict, messageResponse{Message: "Email already in use", Field: "email"})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal Server Error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid JSON body"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
		return uuid.Nil, false
	}
	return id, true
}

func (a *App) apiNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
}

func (a *App) apiHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *App) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, ok := a.store.authenticate(req.Email, req.Password)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid email or password"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": a.sessions.Create(u.ID),
		"user":  u,
	})
}

func (a *App) apiListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"users": a.store.allUsers()})
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (a *App) apiCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := a.store.createUser(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	a.logger.Info("Created user", slog.String("id", u.ID.String()), slog.String("email", u.Email))
	writeJSON(w, http.StatusCreated, u)
}

func (a *App) apiGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := a.store.user(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *App) apiDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == a.adminID {
		writeJSON(w, http.StatusForbidden, messageResponse{Message: "The admin user cannot be deleted"})
		return
	}
	if err := a.store.deleteUser(id); err != nil {
		writeError(w, err)
		return
	}
	a.sessions.DeleteUser(id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) apiListUserProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	products, err := a.store.userProducts(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
}

type assignProductRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

func (a *App) apiAssignProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req assignProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.store.assign(id, req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"userId": id, "productId": req.ProductID})
}

func (a *App) apiListProducts(w http.ResponseWriter, r *http.Request) {
	products := a.store.allProducts()
	writeJSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
}

func (a *App) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req Product
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.store.createProduct(Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *App) apiDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.deleteProduct(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) apiStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.stats())
}

func (a *App) apiSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": a.store.search(q)})
}

func (a *App) apiAdminOverview(w http.ResponseWriter, r *http.Request) {
	if !userFromContext(r.Context()).IsAdmin() {
		writeJSON(w, http.StatusForbidden, messageResponse{Message: "Forbidden"})
		return
	}
	stats := a.store.stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"users":    stats.Users,
		"products": stats.Products,
		"sessions": a.sessions.Len(),
	})
}

func (a *App) apiListReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": a.store.allReports()})
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
}

func (a *App) apiPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, messageResponse{Message: "Amount must be positive", Field: "amount"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     uuid.Must(uuid.NewV7()),
		"status": "accepted",
		"amount": req.Amount,
	})
}
