package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	th := newTestHandler(t)

	tests := []struct {
		name string
		make func() (*Handler, error)
	}{
		{"nil leads", func() (*Handler, error) {
			return New(nil, th.contentFake, th.usersFake, th.auditFake, th.locsFake, nil, th.store)
		}},
		{"nil content", func() (*Handler, error) {
			return New(th.leadsFake, nil, th.usersFake, th.auditFake, th.locsFake, nil, th.store)
		}},
		{"nil users", func() (*Handler, error) {
			return New(th.leadsFake, th.contentFake, nil, th.auditFake, th.locsFake, nil, th.store)
		}},
		{"nil audit", func() (*Handler, error) {
			return New(th.leadsFake, th.contentFake, th.usersFake, nil, th.locsFake, nil, th.store)
		}},
		{"nil locations", func() (*Handler, error) {
			return New(th.leadsFake, th.contentFake, th.usersFake, th.auditFake, nil, nil, th.store)
		}},
		{"nil sessions", func() (*Handler, error) {
			return New(th.leadsFake, th.contentFake, th.usersFake, th.auditFake, th.locsFake, nil, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.make()
			assert.Error(t, err)
		})
	}

	t.Run("nil notifier is allowed", func(t *testing.T) {
		h, err := New(th.leadsFake, th.contentFake, th.usersFake, th.auditFake, th.locsFake, nil, th.store)
		require.NoError(t, err)
		assert.NotNil(t, h)

		rec := httptest.NewRecorder()
		h.CreateLead(rec, postLead(validLeadBody))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestWriteError(t *testing.T) {
	th := newTestHandler(t)
	rec := httptest.NewRecorder()
	th.writeError(rec, http.StatusTeapot, "boom")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"boom","code":418}`, rec.Body.String())
}

func TestSanitize(t *testing.T) {
	th := newTestHandler(t)

	tests := []struct {
		in   string
		want string
	}{
		{"  Ana  ", "Ana"},
		{"<b>Ana</b>", "Ana"},
		{"<script>alert(1)</script>", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.sanitize(tt.in), "input %q", tt.in)
	}
}

func TestParseIntParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&bad=x", nil)
	assert.Equal(t, 3, parseIntParam(r, "page", 1))
	assert.Equal(t, 1, parseIntParam(r, "bad", 1))
	assert.Equal(t, 1, parseIntParam(r, "missing", 1))
}
