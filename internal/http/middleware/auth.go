package middleware

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

// AuthConfig holds identity-provider settings for JWT validation.
type AuthConfig struct {
	Region     string
	UserPoolID string
	ClientID   string // App client ID for audience validation

	// AllowDemoUser accepts an X-Demo-User header carrying a JSON identity
	// instead of a token. Development only; mirrors the original demo sign-in
	// and must never be enabled in production.
	AllowDemoUser bool
}

// userClaims represents the claims in an identity-provider JWT.
type userClaims struct {
	jwt.RegisteredClaims
	Email           string `json:"email"`
	TokenUse        string `json:"token_use"`
	ClientID        string `json:"client_id"`
	Name            string `json:"name"`
	CognitoUsername string `json:"cognito:username"`
}

// jwksCache caches the provider's signing keys.
type jwksCache struct {
	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// UserAuth validates bearer tokens issued by the external identity provider
// and places the resulting identity.User on the request context. Handlers
// downstream read it with identity.FromContext.
func UserAuth(cfg AuthConfig, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.Region == "" || cfg.UserPoolID == "" {
		if cfg.AllowDemoUser {
			return demoAuth(logger)
		}
		// Reject everything when the provider is not configured.
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeAuthError(w, "identity provider not configured")
			})
		}
	}

	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", cfg.Region, cfg.UserPoolID)
	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", issuer)
	cache := &jwksCache{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeAuthError(w, "missing authorization header")
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")

			// Parse the token header to get the key ID.
			token, _, err := jwt.NewParser().ParseUnverified(tokenString, &userClaims{})
			if err != nil {
				writeAuthError(w, "invalid token format")
				return
			}
			kid, ok := token.Header["kid"].(string)
			if !ok {
				writeAuthError(w, "missing key id in token")
				return
			}

			pubKey, err := cache.publicKey(jwksURL, kid)
			if err != nil {
				logger.Error("jwks lookup failed", "error", err)
				writeAuthError(w, "unable to verify token")
				return
			}

			claims := &userClaims{}
			validated, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return pubKey, nil
			}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
			if err != nil || !validated.Valid {
				writeAuthError(w, "invalid token")
				return
			}

			if cfg.ClientID != "" {
				if !audienceMatches(claims, cfg.ClientID) {
					writeAuthError(w, "invalid audience")
					return
				}
			}

			user := identity.User{
				ID:          claims.Subject,
				DisplayName: displayName(claims),
				Email:       claims.Email,
			}
			if user.ID == "" {
				writeAuthError(w, "token carries no subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}

func audienceMatches(claims *userClaims, clientID string) bool {
	// ID tokens carry the app client in aud; access tokens in client_id.
	if claims.TokenUse == "access" {
		return claims.ClientID == clientID
	}
	aud, _ := claims.GetAudience()
	for _, a := range aud {
		if a == clientID {
			return true
		}
	}
	return false
}

func displayName(claims *userClaims) string {
	if claims.Name != "" {
		return claims.Name
	}
	if claims.CognitoUsername != "" {
		return claims.CognitoUsername
	}
	return claims.Email
}

func demoAuth(logger *logging.Logger) func(http.Handler) http.Handler {
	logger.Warn("demo auth enabled; rejecting nothing but X-Demo-User is required")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-Demo-User")
			if raw == "" {
				writeAuthError(w, "missing X-Demo-User header")
				return
			}
			var user identity.User
			if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
				writeAuthError(w, "invalid X-Demo-User header")
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":{"kind":"authentication_required","message":%q}}`, msg)
}

// publicKey returns the cached signing key for kid, refreshing the JWKS when
// the cache is stale or the key is unknown.
func (c *jwksCache) publicKey(jwksURL, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	if time.Now().Before(c.expires) {
		if key, ok := c.keys[kid]; ok {
			c.mu.RUnlock()
			return key, nil
		}
	}
	c.mu.RUnlock()

	keys, err := fetchJWKS(jwksURL)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.keys = keys
	c.expires = time.Now().Add(1 * time.Hour)
	c.mu.Unlock()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	return key, nil
}

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// fetchJWKS fetches the JWKS from the given URL.
func fetchJWKS(url string) (map[string]*rsa.PublicKey, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed with status %d", resp.StatusCode)
	}

	var jwks jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		keys[key.Kid] = pubKey
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no valid RSA keys found in JWKS")
	}
	return keys, nil
}

// parseRSAPublicKey parses RSA public key components from base64url-encoded strings.
func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{N: n, E: e}, nil
}
