package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", "org-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "org-1", claims.OrgID)
}

func TestIssuer_Rejects(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer("other", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("user-1", "org-1")
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := issuer.Issue("user-1", "org-1")
	require.NoError(t, err)
	issuer.now = time.Now
	_, err = issuer.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Issue("", "org-1")
	assert.Error(t, err)
	_, err = NewIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", issuer.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "org": OrgID(c)})
	})

	token, err := issuer.Issue("user-1", "org-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"no bearer", token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusForbidden},
		{"ok", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.JSONEq(t, `{"user":"user-1","org":"org-1"}`, rec.Body.String())
			}
		})
	}
}
