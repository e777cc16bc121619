package devbackend

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jrsteele09/atelier-portal/internal/utils"
	"github.com/jrsteele09/atelier-portal/roles"
	"github.com/rs/zerolog/log"
)

const (
	collectionCustomers = "clientes"
	collectionSellers   = "vendedores"
	collectionParts     = "pecas"
	collectionOrders    = "pedidos"
)

var collections = []string{collectionCustomers, collectionSellers, collectionParts, collectionOrders}

// customerAccess lists what a customer may do; sellers may do everything
var customerAccess = map[string]map[string]bool{
	collectionParts:     {http.MethodGet: true},
	collectionOrders:    {http.MethodGet: true, http.MethodPost: true},
	collectionCustomers: {http.MethodGet: true, http.MethodPut: true, http.MethodDelete: true},
}

// accountRoles maps the profile collections to the role of their accounts
var accountRoles = map[string]roles.Role{
	collectionCustomers: roles.RoleCustomer,
	collectionSellers:   roles.RoleStaff,
}

func (b *Backend) initRoutes() {
	b.mux = http.NewServeMux()
	b.mux.HandleFunc("POST /auth/login", b.loginHandler)
	b.mux.HandleFunc("POST /auth/register", b.registerHandler)
	b.mux.HandleFunc("GET /{collection}", b.requireBearer(b.listHandler))
	b.mux.HandleFunc("POST /{collection}", b.requireBearer(b.createHandler))
	b.mux.HandleFunc("GET /{collection}/{id}", b.requireBearer(b.getHandler))
	b.mux.HandleFunc("PUT /{collection}/{id}", b.requireBearer(b.updateHandler))
	b.mux.HandleFunc("DELETE /{collection}/{id}", b.requireBearer(b.deleteHandler))
	b.mux.HandleFunc("GET /{collection}/{id}/{field}", b.requireBearer(b.nestedHandler))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
	Role     string `json:"tipo"`
}

func (b *Backend) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida", nil)
		return
	}
	role, err := roles.Parse(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Tipo de usuário inválido", map[string]string{"tipo": "inválido"})
		return
	}

	user, ok := b.findUser(role, req.Email)
	if !ok {
		writeError(w, http.StatusNotFound, "Usuário não encontrado", nil)
		return
	}
	if !b.checkPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "Senha incorreta", nil)
		return
	}

	resp, err := b.authResponse(*user)
	if err != nil {
		log.Err(err).Msg("devbackend: failed to issue token")
		writeError(w, http.StatusInternalServerError, "Erro interno", nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type registerRequest struct {
	Name          string  `json:"nome"`
	Email         string  `json:"email"`
	Phone         *string `json:"telefone"`
	Password      string  `json:"senha"`
	Role          string  `json:"tipo"`
	Address       *string `json:"endereco"`
	AdmissionDate string  `json:"data_admissao"`
	IsAdmin       bool    `json:"is_admin"`
	AdminSecret   string  `json:"jwt_secret"`
}

func (b *Backend) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida", nil)
		return
	}

	fieldErrs := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fieldErrs["nome"] = "obrigatório"
	}
	if strings.TrimSpace(req.Email) == "" {
		fieldErrs["email"] = "obrigatório"
	}
	if len(req.Password) < 6 {
		fieldErrs["senha"] = "mínimo de 6 caracteres"
	}
	role, err := roles.Parse(req.Role)
	if err != nil {
		fieldErrs["tipo"] = "inválido"
	}
	if role == roles.RoleStaff && strings.TrimSpace(req.AdmissionDate) == "" {
		fieldErrs["data_admissao"] = "obrigatório"
	}
	if len(fieldErrs) > 0 {
		writeError(w, http.StatusBadRequest, "Dados inválidos", fieldErrs)
		return
	}

	if role == roles.RoleStaff && req.IsAdmin && req.AdminSecret != b.adminSecret {
		writeError(w, http.StatusForbidden, "Secret JWT inválido", nil)
		return
	}

	user, err := b.AddUser(User{
		Role:          role,
		Name:          strings.TrimSpace(req.Name),
		Email:         req.Email,
		Phone:         utils.Value(req.Phone),
		Address:       utils.Value(req.Address),
		AdmissionDate: req.AdmissionDate,
		IsAdmin:       role == roles.RoleStaff && req.IsAdmin,
	}, req.Password)
	if err != nil {
		writeError(w, http.StatusConflict, "Email já cadastrado", nil)
		return
	}

	if !b.loginOnRegister {
		writeJSON(w, http.StatusCreated, map[string]any{
			"mensagem": "Usuário registrado com sucesso",
			"id":       user.ID,
		})
		return
	}

	resp, err := b.authResponse(user)
	if err != nil {
		log.Err(err).Msg("devbackend: failed to issue token")
		writeError(w, http.StatusInternalServerError, "Erro interno", nil)
		return
	}
	resp["mensagem"] = "Usuário registrado com sucesso"
	writeJSON(w, http.StatusCreated, resp)
}

func (b *Backend) authResponse(u User) (map[string]any, error) {
	token, err := b.IssueToken(u)
	if err != nil {
		return nil, err
	}
	resp := map[string]any{
		"token": token,
		"tipo":  u.Role,
		"id":    u.ID,
		"nome":  u.Name,
		"email": u.Email,
	}
	if !b.omitAdminFlag {
		resp["is_admin"] = u.IsAdmin
	}
	return resp, nil
}

type principalHandler func(w http.ResponseWriter, r *http.Request, p Principal, collection string)

// requireBearer validates the bearer token and the caller's access to the collection
func (b *Backend) requireBearer(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := r.PathValue("collection")
		if _, ok := b.collectionExists(collection); !ok {
			writeError(w, http.StatusNotFound, "Recurso não encontrado", nil)
			return
		}

		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Token não fornecido", nil)
			return
		}
		principal, err := b.verifyToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Token inválido ou expirado", nil)
			return
		}

		if principal.Role == roles.RoleCustomer && !customerAccess[collection][r.Method] {
			writeError(w, http.StatusForbidden, "Acesso negado", nil)
			return
		}
		// Customers change and delete their own record only
		if principal.Role == roles.RoleCustomer && (r.Method == http.MethodPut || r.Method == http.MethodDelete) &&
			r.PathValue("id") != strconv.FormatInt(principal.UserID, 10) {
			writeError(w, http.StatusForbidden, "Acesso negado", nil)
			return
		}
		next(w, r, principal, collection)
	}
}

func (b *Backend) collectionExists(name string) (map[int64]map[string]any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	return c, ok
}

func (b *Backend) listHandler(w http.ResponseWriter, r *http.Request, _ Principal, collection string) {
	b.mu.RLock()
	records := make([]map[string]any, 0, len(b.collections[collection]))
	for _, rec := range b.collections[collection] {
		records = append(records, copyRecord(rec))
	}
	b.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return recordID(records[i]) < recordID(records[j])
	})
	writeJSON(w, http.StatusOK, records)
}

func (b *Backend) createHandler(w http.ResponseWriter, r *http.Request, _ Principal, collection string) {
	var rec map[string]any
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil || rec == nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida", nil)
		return
	}

	b.mu.Lock()
	b.nextID++
	rec["id"] = b.nextID
	b.collections[collection][b.nextID] = rec
	out := copyRecord(rec)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (b *Backend) getHandler(w http.ResponseWriter, r *http.Request, _ Principal, collection string) {
	rec, ok := b.lookup(collection, r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Registro não encontrado", nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (b *Backend) updateHandler(w http.ResponseWriter, r *http.Request, _ Principal, collection string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Registro não encontrado", nil)
		return
	}
	var changes map[string]any
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida", nil)
		return
	}

	b.mu.Lock()
	rec, ok := b.collections[collection][id]
	if ok {
		if err := b.syncAccountLocked(collection, id, changes); err != nil {
			b.mu.Unlock()
			writeError(w, http.StatusConflict, "Email já está em uso", nil)
			return
		}
		for k, v := range changes {
			if k != "id" {
				rec[k] = v
			}
		}
	}
	out := copyRecord(rec)
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Registro não encontrado", nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) deleteHandler(w http.ResponseWriter, r *http.Request, _ Principal, collection string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Registro não encontrado", nil)
		return
	}

	b.mu.Lock()
	_, ok := b.collections[collection][id]
	delete(b.collections[collection], id)
	if ok {
		b.removeAccountLocked(collection, id)
	}
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Registro não encontrado", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nestedHandler serves order details such as /pedidos/{id}/itens from the record's field
func (b *Backend) nestedHandler(w http.ResponseWriter, r *http.Request, _ Principal, collection string) {
	rec, ok := b.lookup(collection, r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Registro não encontrado", nil)
		return
	}
	value, ok := rec[r.PathValue("field")]
	if !ok {
		value = []any{}
	}
	writeJSON(w, http.StatusOK, value)
}

func (b *Backend) lookup(collection, rawID string) (map[string]any, bool) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.collections[collection][id]
	if !ok {
		return nil, false
	}
	return copyRecord(rec), true
}

func copyRecord(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func recordID(rec map[string]any) int64 {
	switch v := rec["id"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}


func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("devbackend: failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	body := map[string]any{"erro": msg}
	if len(fields) > 0 {
		body["erros"] = fields
	}
	writeJSON(w, status, body)
}
