package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"PicSphere/internal/api/middleware"
	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/profiles"
	"PicSphere/internal/core/socialgraph"
)

// MockGraphService is a mock implementation of socialgraph.Service
type MockGraphService struct {
	mock.Mock
}

func (m *MockGraphService) Follow(ctx context.Context, actorID, targetID string) error {
	return m.Called(ctx, actorID, targetID).Error(0)
}

func (m *MockGraphService) Unfollow(ctx context.Context, actorID, targetID string) error {
	return m.Called(ctx, actorID, targetID).Error(0)
}

func (m *MockGraphService) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	args := m.Called(ctx, actorID, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGraphService) ListFollowedIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockGraphService) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockGraphService) Reconcile(ctx context.Context, opts socialgraph.ReconcileOptions) (*socialgraph.ReconcileReport, error) {
	args := m.Called(ctx, opts)
	report, _ := args.Get(0).(*socialgraph.ReconcileReport)
	return report, args.Error(1)
}

func (m *MockGraphService) Mode() socialgraph.EdgeWriteMode {
	return m.Called().Get(0).(socialgraph.EdgeWriteMode)
}

func newRouter(svc socialgraph.Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.SetTestUserID(r.Context(), "u1")))
		})
	})
	r.Post("/api/users/{userID}/follow", h.HandleFollow)
	r.Delete("/api/users/{userID}/follow", h.HandleUnfollow)
	r.Get("/api/users/{userID}/follow", h.HandleIsFollowing)
	r.Get("/api/users/{userID}/followers", h.HandleListFollowers)
	r.Get("/api/users/{userID}/following", h.HandleListFollowing)
	return r
}

func call(t *testing.T, h http.Handler, method, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleFollow(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"success", nil, http.StatusOK, ""},
		{"self follow", socialgraph.NewValidationError("userId", "cannot follow yourself"), http.StatusBadRequest, "InvalidRequest"},
		{"unknown user", fmt.Errorf("user u2: %w", profiles.ErrProfileNotFound), http.StatusNotFound, "ProfileNotFound"},
		{"partial edge", &socialgraph.PartialEdgeError{Op: "follow", ActorID: "u1", TargetID: "u2", Applied: "users/u2.followerUserId", Err: errors.New("write failed")}, http.StatusInternalServerError, "PartialEdge"},
		{"store down", &docstore.RemoteStoreError{Op: "mutate", Collection: "users", ID: "u1", Err: errors.New("unavailable")}, http.StatusBadGateway, "StoreUnavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockGraphService)
			svc.On("Follow", mock.Anything, "u1", "u2").Return(tt.err)

			status, body := call(t, newRouter(svc), http.MethodPost, "/api/users/u2/follow")

			assert.Equal(t, tt.wantStatus, status)
			if tt.wantError == "" {
				assert.Equal(t, true, body["following"])
			} else {
				assert.Equal(t, tt.wantError, body["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleUnfollowAndIsFollowing(t *testing.T) {
	svc := new(MockGraphService)
	svc.On("Unfollow", mock.Anything, "u1", "u2").Return(nil)
	svc.On("IsFollowing", mock.Anything, "u1", "u2").Return(false, nil)
	h := newRouter(svc)

	status, body := call(t, h, http.MethodDelete, "/api/users/u2/follow")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["following"])

	status, body = call(t, h, http.MethodGet, "/api/users/u2/follow")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["following"])
	svc.AssertExpectations(t)
}

func TestHandleLists(t *testing.T) {
	svc := new(MockGraphService)
	svc.On("ListFollowerIDs", mock.Anything, "u2").Return([]string{"u1", "u3"}, nil)
	svc.On("ListFollowedIDs", mock.Anything, "u2").Return(nil, nil)
	h := newRouter(svc)

	status, body := call(t, h, http.MethodGet, "/api/users/u2/followers")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"u1", "u3"}, body["userIds"])
	assert.Equal(t, float64(2), body["count"])

	status, body = call(t, h, http.MethodGet, "/api/users/u2/following")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{}, body["userIds"])
}
