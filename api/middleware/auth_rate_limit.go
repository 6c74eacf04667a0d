package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/warehouse-incentives/incentives-backend/api/responses"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

// maxPeekBytes bounds how much of a login body is buffered to find the
// picker id.
const maxPeekBytes = 64 << 10

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// RateLimitRule counts requests sharing a key. A rule whose key func returns
// "" does not apply to the request.
type RateLimitRule struct {
	Scope string
	Limit int
	Key   func(r *http.Request) string
}

// ByIP counts per client address.
func ByIP(limit int) RateLimitRule {
	return RateLimitRule{Scope: "ip", Limit: limit, Key: clientIP}
}

// ByPickerID counts per picker id named in the JSON body, case-insensitive.
// The id is hashed so raw ids never reach redis or the logs.
func ByPickerID(limit int) RateLimitRule {
	return RateLimitRule{Scope: "picker", Limit: limit, Key: func(r *http.Request) string {
		id := strings.ToLower(strings.TrimSpace(peekPickerID(r)))
		if id == "" {
			return ""
		}
		return hashValue(id)
	}}
}

// ByUser counts per authenticated user. It must run after Auth.
func ByUser(limit int) RateLimitRule {
	return RateLimitRule{Scope: "user", Limit: limit, Key: func(r *http.Request) string {
		if id := UserIDFromContext(r.Context()); id != 0 {
			return strconv.FormatUint(id, 10)
		}
		return ""
	}}
}

// AuthRateLimitPolicy is a named set of rules sharing one fixed window.
type AuthRateLimitPolicy struct {
	name   string
	window time.Duration
	rules  []RateLimitRule
}

// NewAuthRateLimitPolicy drops rules without a positive limit.
func NewAuthRateLimitPolicy(name string, window time.Duration, rules ...RateLimitRule) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	p := AuthRateLimitPolicy{name: name, window: window}
	for _, rule := range rules {
		if rule.Limit > 0 && rule.Key != nil {
			p.rules = append(p.rules, rule)
		}
	}
	return p
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && len(p.rules) > 0
}

// AuthRateLimit rejects with 429 once any rule exceeds its limit inside the
// policy window.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, rule := range policy.rules {
				key := rule.Key(r)
				if key == "" {
					continue
				}
				scoped := "rl:" + rule.Scope + ":" + policy.name + ":" + key
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(scoped), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(rule.Limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   policy.name,
							"scope":    rule.Scope,
							"key":      key,
							"attempts": count,
							"limit":    rule.Limit,
						}), "auth.rate_limit.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// peekPickerID reads the picker id from the body and restores the body for
// the handler.
func peekPickerID(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	var payload struct {
		PickerID string `json:"picker_id"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.PickerID
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}
