package handlers

import (
	"errors"
	"net/http"

	"jepet/middleware"
	"jepet/services/identity"
	"jepet/services/session"
	"jepet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const nextSignIn = "signin"

// respondError maps domain errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrAuthRequired):
		utils.JSONErrorNext(c, http.StatusUnauthorized, "Faça login para continuar.", "", nextSignIn)
	case errors.Is(err, session.ErrEmptyCart):
		utils.JSONError(c, http.StatusBadRequest, "Seu carrinho está vazio.", "")
	case errors.Is(err, session.ErrInvalidPayment):
		utils.JSONError(c, http.StatusBadRequest, "Dados de pagamento inválidos.", err.Error())
	case errors.Is(err, session.ErrInvalidInput):
		utils.JSONError(c, http.StatusBadRequest, "Dados inválidos.", err.Error())
	case errors.Is(err, session.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Não encontrado.", "")
	case errors.Is(err, session.ErrTooLate):
		utils.JSONError(c, http.StatusConflict, "Alterações só podem ser feitas com pelo menos 24 horas de antecedência.", "")
	case errors.Is(err, session.ErrAppointmentClosed):
		utils.JSONError(c, http.StatusConflict, "Este agendamento não pode mais ser alterado.", "")
	case errors.Is(err, session.ErrClosed):
		utils.JSONError(c, http.StatusServiceUnavailable, "Sessão encerrada. Tente novamente.", "")
	case identity.Code(err) != "":
		respondIdentityError(c, err)
	default:
		getLogger(c).Error("request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Ocorreu um erro inesperado.", "")
	}
}

func respondIdentityError(c *gin.Context, err error) {
	msg := identity.UserMessage(err)
	switch identity.Code(err) {
	case identity.CodeUserNotFound, identity.CodeWrongPassword, identity.CodeInvalidCredential:
		utils.JSONError(c, http.StatusUnauthorized, msg, "")
	case identity.CodeInvalidEmail, identity.CodeWeakPassword:
		utils.JSONError(c, http.StatusBadRequest, msg, "")
	case identity.CodeEmailInUse:
		utils.JSONError(c, http.StatusConflict, msg, "")
	case identity.CodeTooManyRequests:
		utils.JSONError(c, http.StatusTooManyRequests, msg, "")
	case identity.CodeRequiresRecentLogin, identity.CodeNoCurrentUser:
		utils.JSONErrorNext(c, http.StatusUnauthorized, msg, "", nextSignIn)
	case identity.CodeUserDisabled:
		utils.JSONError(c, http.StatusForbidden, msg, "")
	default:
		getLogger(c).Error("identity provider failure", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, msg, "")
	}
}

func respondErrorAuth(c *gin.Context) {
	respondError(c, session.ErrAuthRequired)
}

// storeOf fetches the device Store; the route is always behind DeviceSessionMiddleware.
func storeOf(c *gin.Context) *session.Store {
	st, ok := middleware.StoreFrom(c)
	if !ok {
		panic("handlers: route registered without device session middleware")
	}
	return st
}

// accepted answers a mutation whose remote half is still running.
func accepted(c *gin.Context, key string, value interface{}, task *session.Task) {
	c.JSON(http.StatusAccepted, gin.H{key: value, "task": task.Info()})
}
