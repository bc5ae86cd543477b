package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomcorte/blackfriday/internal/model"
)

// fakeTx implements the slice of pgx.Tx that SaveContent touches. The
// embedded interface panics on anything else, which would flag an
// unexpected call.
type fakeTx struct {
	pgx.Tx
	failAfter  int // fail the Nth Exec (1-based); 0 never fails
	execCount  int
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execCount++
	if t.failAfter > 0 && t.execCount >= t.failAfter {
		return pgconn.CommandTag{}, errors.New("deadlock detected")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	DB
	tx       *fakeTx
	beginErr error
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

func TestNewConfigRepository(t *testing.T) {
	t.Run("requires database", func(t *testing.T) {
		_, err := NewConfigRepository(nil)
		assert.Error(t, err)
	})

	t.Run("creates repository", func(t *testing.T) {
		repo, err := NewConfigRepository(&fakeDB{})
		require.NoError(t, err)
		assert.NotNil(t, repo)
	})
}

func TestSaveContentTransaction(t *testing.T) {
	t.Run("writes every key and commits", func(t *testing.T) {
		tx := &fakeTx{}
		repo, err := NewConfigRepository(&fakeDB{tx: tx})
		require.NoError(t, err)

		err = repo.SaveContent(context.Background(), model.DefaultContent())
		require.NoError(t, err)
		assert.Equal(t, len(contentKeys), tx.execCount)
		assert.True(t, tx.committed)
	})

	t.Run("mid-write failure rolls back without committing", func(t *testing.T) {
		tx := &fakeTx{failAfter: 4}
		repo, err := NewConfigRepository(&fakeDB{tx: tx})
		require.NoError(t, err)

		err = repo.SaveContent(context.Background(), model.DefaultContent())
		require.Error(t, err)
		assert.Equal(t, 4, tx.execCount, "writing stops at the first failure")
		assert.False(t, tx.committed)
		assert.True(t, tx.rolledBack)
	})

	t.Run("begin failure surfaces", func(t *testing.T) {
		repo, err := NewConfigRepository(&fakeDB{beginErr: errors.New("pool exhausted")})
		require.NoError(t, err)

		err = repo.SaveContent(context.Background(), model.DefaultContent())
		assert.ErrorContains(t, err, "begin transaction")
	})
}

func TestAssembleContent(t *testing.T) {
	t.Run("empty table yields defaults", func(t *testing.T) {
		content := assembleContent(map[string]string{})
		def := model.DefaultContent()
		assert.Equal(t, def.ColorPalette, content.ColorPalette)
		assert.True(t, content.ShowProductSection)
		assert.Empty(t, content.Features)
		assert.Empty(t, content.Products)
	})

	t.Run("decodes the JSON array keys", func(t *testing.T) {
		content := assembleContent(map[string]string{
			"features": `[{"id":"f1","icon":"knife","text":"Fio premium"}]`,
			"products": `[{"id":"p1","name":"Faca do Chef","image":"https://cdn/x.jpg"}]`,
		})
		require.Len(t, content.Features, 1)
		assert.Equal(t, "Fio premium", content.Features[0].Text)
		require.Len(t, content.Products, 1)
		assert.Equal(t, "Faca do Chef", content.Products[0].Name)
	})

	t.Run("malformed JSON keeps the default", func(t *testing.T) {
		content := assembleContent(map[string]string{"features": "{not json"})
		assert.Empty(t, content.Features)
	})

	t.Run("boolean flag coercion", func(t *testing.T) {
		tests := []struct {
			raw  string
			want bool
		}{
			{"1", true},
			{"true", true},
			{"0", false},
			{"false", false},
			{"", false},
		}
		for _, tt := range tests {
			content := assembleContent(map[string]string{"show_product_section": tt.raw})
			assert.Equal(t, tt.want, content.ShowProductSection, "raw %q", tt.raw)
		}
	})

	t.Run("blank palette values fall back to defaults", func(t *testing.T) {
		content := assembleContent(map[string]string{
			"color_primary": "#000000",
			"color_accent":  "",
		})
		assert.Equal(t, "#000000", content.ColorPalette.Primary)
		assert.Equal(t, model.DefaultPalette().Accent, content.ColorPalette.Accent)
	})
}

func TestFlattenContent(t *testing.T) {
	content := model.DefaultContent()
	content.MainTitle = "Black Friday"
	content.ShowProductSection = false
	content.Features = []model.Feature{{ID: "f1", Icon: "knife", Text: "Fio premium"}}

	values, err := flattenContent(content)
	require.NoError(t, err)

	assert.Len(t, values, len(contentKeys))
	for _, key := range contentKeys {
		_, ok := values[key]
		assert.True(t, ok, "missing key %s", key)
	}
	assert.Equal(t, "Black Friday", values["main_title"])
	assert.Equal(t, "0", values["show_product_section"])
	assert.JSONEq(t, `[{"id":"f1","icon":"knife","text":"Fio premium"}]`, values["features"])
	assert.Equal(t, "[]", values["products"])
}

func TestContentRoundTrip(t *testing.T) {
	content := model.DefaultContent()
	content.MainTitle = "Ofertas"
	content.HighlightedTitle = "imperdíveis"
	content.ShowProductSection = true
	content.Products = []model.Product{{ID: "p1", Name: "Faca", Image: "https://cdn/faca.jpg"}}

	values, err := flattenContent(content)
	require.NoError(t, err)
	assert.Equal(t, content, assembleContent(values))
}
