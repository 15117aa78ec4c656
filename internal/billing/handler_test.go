package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"treinopp/internal/auth"
)

func TestRunFeeSweepHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := auth.HashSecret("sweep-secret")
	require.NoError(t, err)

	repo := new(MockFeeRepo)
	repo.On("MarkOverdue", mock.Anything, mock.Anything).Return(int64(1), nil)
	repo.On("ClaimDue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]DueFee{}, nil)
	repo.On("ReleaseClaims", mock.Anything, mock.Anything).Return(nil)

	h := NewHandler(NewSweeper(repo, new(MockNotifier), 0), hash)
	r := gin.New()
	r.POST("/internal/sweeps/fees", h.RunFeeSweep)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"Valid token", "sweep-secret", http.StatusOK},
		{"Wrong token", "guess", http.StatusUnauthorized},
		{"Missing token", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/sweeps/fees", nil)
			if tt.token != "" {
				req.Header.Set(SweepTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var result SweepResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
				assert.Equal(t, 1, result.Overdue)
			}
		})
	}
}

func TestRunFeeSweepHandlerWithoutConfiguredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewSweeper(new(MockFeeRepo), new(MockNotifier), 0), "")
	r := gin.New()
	r.POST("/internal/sweeps/fees", h.RunFeeSweep)

	req := httptest.NewRequest(http.MethodPost, "/internal/sweeps/fees", nil)
	req.Header.Set(SweepTokenHeader, "anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
