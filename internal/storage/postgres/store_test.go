package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provenance/internal/storage"
	id "provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

func TestTranslate(t *testing.T) {
	t.Run("no rows is not found", func(t *testing.T) {
		assert.ErrorIs(t, translate(sql.ErrNoRows, "find asset"), sentinel.ErrNotFound)
	})

	t.Run("unique violation names the protected field", func(t *testing.T) {
		err := translate(&pq.Error{Code: "23505", Constraint: "assets_serial_key"}, "create asset")
		var uv *storage.UniqueViolation
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, "serial", uv.Field)
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})

	t.Run("unknown constraint falls back to its name", func(t *testing.T) {
		err := translate(&pq.Error{Code: "23505", Constraint: "mystery_key"}, "create")
		var uv *storage.UniqueViolation
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, "mystery_key", uv.Field)
	})

	t.Run("foreign key violation is invalid state", func(t *testing.T) {
		err := translate(&pq.Error{Code: "23503", Constraint: "assets_brand_id_fkey"}, "create asset")
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		assert.Contains(t, err.Error(), "assets_brand_id_fkey")
	})

	t.Run("other errors keep the operation", func(t *testing.T) {
		boom := errors.New("connection reset")
		err := translate(boom, "update deal")
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "update deal")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translate(nil, "noop"))
	})
}

func TestLikePatternEscapes(t *testing.T) {
	assert.Equal(t, "%SN-1%", likePattern("SN-1"))
	assert.Equal(t, `%100\%\_off\\%`, likePattern(`100%_off\`))
}

func TestNullID(t *testing.T) {
	assert.Nil(t, nullID[id.AccountID](nil))
	accountID := id.NewAccountID()
	assert.Equal(t, accountID.String(), nullID(&accountID))
}
