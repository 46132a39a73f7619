package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	ctxKeyAPIKey = "api_key"
	ctxKeyRole   = "role"
)

func abortJSON(c *gin.Context, status int, msg, code string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

// JWTAuthMiddleware validates HMAC-signed bearer tokens. When issuer is set
// the iss claim must match it.
func JWTAuthMiddleware(secret, issuer string) gin.HandlerFunc {
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortJSON(c, http.StatusUnauthorized, "Authorization header required", "UNAUTHORIZED")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			abortJSON(c, http.StatusUnauthorized, "Invalid authorization header format", "UNAUTHORIZED")
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortJSON(c, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
			return
		}

		if apiKey, ok := claims["api_key"].(string); ok && apiKey != "" {
			c.Set(ctxKeyAPIKey, apiKey)
		} else if sub, err := claims.GetSubject(); err == nil && sub != "" {
			c.Set(ctxKeyAPIKey, sub)
		} else {
			c.Set(ctxKeyAPIKey, tokenString)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(ctxKeyRole, role)
		}

		c.Next()
	}
}

// RequireRole rejects requests whose token carries a different role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxKeyRole) != role {
			abortJSON(c, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
			return
		}
		c.Next()
	}
}

// RateLimiter manages rate limiting per API key
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rps      float64
	burst    int
	ttl      time.Duration
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    max(burst, 1),
		ttl:      time.Hour,
	}
}

// GetLimiter gets or creates the limiter for key. Limiters are forgotten
// after an hour and recreated on the next request.
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()
	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(rl.rps), rl.burst)
	rl.limiters[key] = limiter
	time.AfterFunc(rl.ttl, func() {
		rl.mu.Lock()
		delete(rl.limiters, key)
		rl.mu.Unlock()
	})

	return limiter
}

func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(ctxKeyAPIKey)
		if key == "" {
			key = c.ClientIP()
		}

		if !limiter.GetLimiter(key).Allow() {
			abortJSON(c, http.StatusTooManyRequests, "Rate limit exceeded", "RATE_LIMIT_EXCEEDED")
			return
		}

		c.Next()
	}
}

// MetricsMiddleware records request count and latency per route
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}

// RequestLogger writes one access log line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// ErrorHandlerMiddleware handles errors and returns standard format
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			log.Error().Err(err).Msg("Request error")

			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: err.Error(),
				Code:  "INTERNAL_ERROR",
			})
		}
	}
}
