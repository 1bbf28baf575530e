package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthConfig(t *testing.T, password string) {
	t.Helper()
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)

	hash, err := HashPassword(password)
	require.NoError(t, err)
	viper.Set("admin.password_hash", hash)
}

func TestAuthHandler_Login(t *testing.T) {
	setupAuthConfig(t, "correct-horse")
	handler := NewAuthHandler(nil)

	t.Run("successful login", func(t *testing.T) {
		body, _ := json.Marshal(loginRequest{Password: "correct-horse"})
		r := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp authResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		body, _ := json.Marshal(loginRequest{Password: "wrong-horse"})
		r := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		handler.Login(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unconfigured password hash", func(t *testing.T) {
		viper.Set("admin.password_hash", "")
		defer setupAuthConfig(t, "correct-horse")

		body, _ := json.Marshal(loginRequest{Password: "correct-horse"})
		r := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)

	hashed, err := HashPassword("testpassword")
	require.NoError(t, err)
	assert.NotEmpty(t, hashed)

	assert.True(t, verifyPassword("testpassword", hashed))
	assert.False(t, verifyPassword("wrongpassword", hashed))
	assert.False(t, verifyPassword("testpassword", "not-a-valid-hash"))
}
