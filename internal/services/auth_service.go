package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// AuthService covers the thin slice of auth this backend owns: sessions
// live with the external identity provider, so sign-out just blacklists
// the presented access token until it would have expired anyway.
type AuthService struct {
	redis *redis.Client
}

func NewAuthService(redisClient *redis.Client) *AuthService {
	return &AuthService{
		redis: redisClient,
	}
}

// SignOut revokes the presented access token
// @Summary Sign out
// @Description Blacklist the presented access token until its natural expiry
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/signout [post]
func (s *AuthService) SignOut(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if s.redis != nil {
			key := fmt.Sprintf("blacklist:%s", token)
			expiry := time.Duration(viper.GetInt("auth.token_ttl_minutes")) * time.Minute
			if expiry <= 0 {
				expiry = time.Hour
			}
			if err := s.redis.Set(r.Context(), key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Signed out"})
}
