package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bomcorte/blackfriday/internal/model"
)

func TestListUsers(t *testing.T) {
	th := newTestHandler(t)
	th.usersFake.users = []model.User{
		{ID: 1, Email: "admin@bomcorte.com.br", PasswordHash: "hash1", Role: model.RoleAdmin},
		{ID: 2, Email: "viewer@bomcorte.com.br", PasswordHash: "hash2", Role: model.RoleViewer},
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	rec := th.authed(t, model.RoleAdmin, th.ListUsers, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var users []UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "admin@bomcorte.com.br", users[0].Email)
	assert.NotContains(t, rec.Body.String(), "hash1", "password hashes never leave the API")
}

func TestCreateUser(t *testing.T) {
	postUser := func(body string) *http.Request {
		return httptest.NewRequest(http.MethodPost, "/api/v1/admin/users", strings.NewReader(body))
	}

	t.Run("creates with a bcrypt hash", func(t *testing.T) {
		th := newTestHandler(t)
		th.usersFake.createdID = 8

		rec := th.authed(t, model.RoleAdmin, th.CreateUser,
			postUser(`{"email":"editor@bomcorte.com.br","password":"long enough","role":"editor"}`))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(8), resp.ID)
		assert.Equal(t, model.RoleEditor, resp.Role)

		require.Len(t, th.usersFake.created, 1)
		created := th.usersFake.created[0]
		assert.NotEqual(t, "long enough", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("long enough")))

		require.Len(t, th.auditFake.entries, 1)
		assert.Equal(t, "create_user", th.auditFake.entries[0].Action)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want string
		}{
			{"bad email", `{"email":"nope","password":"long enough","role":"editor"}`, "invalid email"},
			{"short password", `{"email":"a@b.c","password":"short","role":"editor"}`, "at least 8"},
			{"unknown role", `{"email":"a@b.c","password":"long enough","role":"root"}`, "invalid role"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				th := newTestHandler(t)
				rec := th.authed(t, model.RoleAdmin, th.CreateUser, postUser(tt.body))
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.want)
				assert.Empty(t, th.usersFake.created)
			})
		}
	})
}

func TestUpdateUser(t *testing.T) {
	putUser := func(id, body string) *http.Request {
		r := httptest.NewRequest(http.MethodPut, "/api/v1/admin/users/"+id, strings.NewReader(body))
		r.SetPathValue("id", id)
		return r
	}

	t.Run("changes role", func(t *testing.T) {
		th := newTestHandler(t)
		rec := th.authed(t, model.RoleAdmin, th.UpdateUser, putUser("4", `{"role":"viewer"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"role": "viewer"}, th.usersFake.updates[4])
		require.Len(t, th.auditFake.entries, 1)
		assert.Equal(t, "update_user", th.auditFake.entries[0].Action)
	})

	t.Run("rehashes a new password", func(t *testing.T) {
		th := newTestHandler(t)
		rec := th.authed(t, model.RoleAdmin, th.UpdateUser, putUser("4", `{"password":"fresh password"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		hash, ok := th.usersFake.updates[4]["password_hash"].(string)
		require.True(t, ok)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("fresh password")))
	})

	t.Run("rejects short password", func(t *testing.T) {
		th := newTestHandler(t)
		rec := th.authed(t, model.RoleAdmin, th.UpdateUser, putUser("4", `{"password":"short"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		th := newTestHandler(t)
		rec := th.authed(t, model.RoleAdmin, th.UpdateUser, putUser("4", `{"role":"root"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty change set", func(t *testing.T) {
		th := newTestHandler(t)
		rec := th.authed(t, model.RoleAdmin, th.UpdateUser, putUser("4", `{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	deleteUser := func(id string) *http.Request {
		r := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/users/"+id, nil)
		r.SetPathValue("id", id)
		return r
	}

	t.Run("deletes with audit", func(t *testing.T) {
		th := newTestHandler(t)
		rec := th.authed(t, model.RoleAdmin, th.DeleteUser, deleteUser("4"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int64{4}, th.usersFake.deleted)
		require.Len(t, th.auditFake.entries, 1)
		assert.Equal(t, "delete_user", th.auditFake.entries[0].Action)
	})

	t.Run("refuses self-deletion", func(t *testing.T) {
		th := newTestHandler(t)
		// The session opened by authed uses user id 9.
		rec := th.authed(t, model.RoleAdmin, th.DeleteUser, deleteUser("9"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "cannot delete your own account")
		assert.Empty(t, th.usersFake.deleted)
	})
}
