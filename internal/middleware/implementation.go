package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/handlers"
	"github.com/akolanti/vellum/pkg/logger_i"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusBadRequest,
			errorMessage: "request is empty",
		}
		return re
	}
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set("X-Trace-Id", trace)
	re.writer.Header().Set("X-Trace-Id", trace)
	re.req = req.WithContext(ctx)
	return re
}

func authenticate(re requestResponseStruct) requestResponseStruct {
	if !IsValidBearerToken(re.req.Header.Get("Authorization"), re.logger) {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusUnauthorized,
			errorMessage: "Unauthorized",
		}
		return re
	}
	re.logger.Debug("Authorized")
	return re
}

func IsValidBearerToken(authHeader string, log *logger_i.Logger) bool {
	if config.NoAuthBypass {
		log.Warn("Auth bypass enabled")
		return true
	}
	if authHeader == "" {
		log.Warn("Empty authorization header")
		return false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Warn("No Bearer header")
		return false
	}
	if config.AuthToken == "" {
		log.Error("AUTH_TOKEN is not configured")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, "Bearer ")), []byte(config.AuthToken)) != 1 {
		log.Warn("Invalid authorization header")
		return false
	}
	return true
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Warn("Rate limit exceeded", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded",
		}
	}
	return re
}

func handleBadRequest(re requestResponseStruct) {
	trace := ""
	if re.req != nil {
		trace, _ = re.req.Context().Value(config.TRACE_ID_KEY).(string)
	}
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, trace, re.badRequest.errorMessage)
}
