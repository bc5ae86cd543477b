package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomcorte/blackfriday/internal/model"
)

func TestPublicContent(t *testing.T) {
	t.Run("returns the assembled content", func(t *testing.T) {
		th := newTestHandler(t)
		content := model.DefaultContent()
		content.MainTitle = "Black Friday BomCorte"
		th.contentFake.content = &content

		rec := httptest.NewRecorder()
		th.PublicContent(rec, httptest.NewRequest(http.MethodGet, "/api/v1/content", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got model.LandingPageContent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Black Friday BomCorte", got.MainTitle)
		assert.Equal(t, "#4c0519", got.ColorPalette.Primary)
	})
}

func TestSaveContent(t *testing.T) {
	t.Run("saves and audits", func(t *testing.T) {
		th := newTestHandler(t)
		body := `{"mainTitle":"Ofertas","showProductSection":false,"features":[],"products":[],"colorPalette":{"primary":"#000"}}`
		r := httptest.NewRequest(http.MethodPut, "/api/v1/admin/content", strings.NewReader(body))
		rec := th.authed(t, model.RoleEditor, th.SaveContent, r)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, th.contentFake.savedContent, 1)
		assert.Equal(t, "Ofertas", th.contentFake.savedContent[0].MainTitle)
		assert.False(t, th.contentFake.savedContent[0].ShowProductSection)

		require.Len(t, th.auditFake.entries, 1)
		assert.Equal(t, "update_landing_page_config", th.auditFake.entries[0].Action)
	})

	t.Run("invalid body", func(t *testing.T) {
		th := newTestHandler(t)
		r := httptest.NewRequest(http.MethodPut, "/api/v1/admin/content", strings.NewReader("{oops"))
		rec := th.authed(t, model.RoleEditor, th.SaveContent, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, th.contentFake.savedContent)
	})
}

func TestGetIntegrations(t *testing.T) {
	th := newTestHandler(t)
	th.contentFake.integrations = []model.Integration{
		{Type: model.IntegrationN8N, Name: "CRM", Active: true, Credentials: model.N8NCredentials{WebhookURL: "https://x"}},
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/integrations", nil)
	rec := th.authed(t, model.RoleViewer, th.GetIntegrations, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"CRM"`)
}

func TestSaveIntegrations(t *testing.T) {
	t.Run("saves and audits", func(t *testing.T) {
		th := newTestHandler(t)
		body := `[{"type":"n8n","name":"CRM","active":true,"credentials":{"webhook_url":"https://n8n/webhook"}}]`
		r := httptest.NewRequest(http.MethodPut, "/api/v1/admin/integrations", strings.NewReader(body))
		rec := th.authed(t, model.RoleEditor, th.SaveIntegrations, r)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, th.contentFake.savedIntegras, 1)
		require.Len(t, th.contentFake.savedIntegras[0], 1)
		creds, ok := th.contentFake.savedIntegras[0][0].N8N()
		require.True(t, ok)
		assert.Equal(t, "https://n8n/webhook", creds.WebhookURL)

		require.Len(t, th.auditFake.entries, 1)
		assert.Equal(t, "update_integrations", th.auditFake.entries[0].Action)
	})

	t.Run("unknown type is a 400 naming the type", func(t *testing.T) {
		th := newTestHandler(t)
		body := `[{"type":"zapier","name":"x","active":true,"credentials":{}}]`
		r := httptest.NewRequest(http.MethodPut, "/api/v1/admin/integrations", strings.NewReader(body))
		rec := th.authed(t, model.RoleEditor, th.SaveIntegrations, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "zapier")
		assert.Empty(t, th.contentFake.savedIntegras)
	})
}
