package backend

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
)

// APIError is a classified backend failure. errors.Is matches it against its Kind.
type APIError struct {
	Kind        error             // One of the internal/errors sentinels
	Status      int               // HTTP status, 0 for transport failures
	Message     string            // Human readable message, from the backend when it sent one
	FieldErrors map[string]string // Field level messages (registration)
	Err         error             // Underlying transport error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func networkError(err error) *APIError {
	return &APIError{
		Kind:    apperrors.ErrNetwork,
		Message: "Sem resposta do servidor - verifique sua conexão.",
		Err:     err,
	}
}

// messageSet holds the fallback texts used when the backend sends no message
type messageSet struct {
	unauthorized string
	notFound     string
	conflict     string
	forbidden    string
	invalid      string
}

var (
	authMessages = messageSet{
		unauthorized: "Credenciais inválidas (senha incorreta).",
		notFound:     "Usuário não encontrado.",
		conflict:     "Email já cadastrado.",
		forbidden:    "Secret JWT inválido.",
		invalid:      "A requisição foi recusada pelo servidor.",
	}
	resourceMessages = messageSet{
		unauthorized: "Sessão expirada. Faça login novamente.",
		notFound:     "Registro não encontrado.",
		conflict:     "O registro conflita com um já existente.",
		forbidden:    "Acesso negado.",
		invalid:      "A requisição foi recusada pelo servidor.",
	}
)

// classify turns a non-2xx response into an APIError
func classify(status int, body []byte, msgs messageSet) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	apiErr := &APIError{Status: status, FieldErrors: eb.Erros}
	switch {
	case status == http.StatusUnauthorized:
		apiErr.Kind = apperrors.ErrInvalidCredentials
		apiErr.Message = msgs.unauthorized
	case status == http.StatusNotFound:
		apiErr.Kind = apperrors.ErrNotFound
		apiErr.Message = msgs.notFound
	case status == http.StatusConflict:
		apiErr.Kind = apperrors.ErrConflict
		apiErr.Message = msgs.conflict
	case status == http.StatusForbidden:
		apiErr.Kind = apperrors.ErrForbidden
		apiErr.Message = msgs.forbidden
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		apiErr.Kind = apperrors.ErrValidation
		apiErr.Message = msgs.invalid
	default:
		apiErr.Kind = apperrors.ErrServer
		apiErr.Message = fmt.Sprintf("Erro no servidor (%d). Tente novamente mais tarde.", status)
	}

	if eb.Erro != "" {
		apiErr.Message = eb.Erro
	} else if eb.Message != "" {
		apiErr.Message = eb.Message
	}
	return apiErr
}

// UserMessage picks the text shown to the user for an auth failure
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if apperrors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch {
	case apperrors.Is(err, apperrors.ErrIncompleteAuthData):
		return "Dados de autenticação incompletos recebidos do servidor."
	case apperrors.Is(err, apperrors.ErrOperationInFlight):
		return "Já existe um login em andamento."
	case apperrors.Is(err, apperrors.ErrSuperseded):
		return "Você saiu enquanto a requisição estava em andamento."
	case apperrors.Is(err, apperrors.ErrStorage):
		return "Não foi possível salvar a sessão. Tente novamente."
	}
	return "Erro ao fazer login."
}
