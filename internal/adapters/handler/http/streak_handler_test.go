package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

func TestGetStreak(t *testing.T) {
	t.Run("Success: current streak with stored history", func(t *testing.T) {
		e := setupEnv(t)
		e.settle(-1, true)
		e.settle(-2, true)
		e.task(0, domain.CategoryExercise, false)

		_, err := e.tracker.Update(e.t.Context(), e.userID, 9, nil)
		require.NoError(t, err)

		w := e.do(http.MethodGet, "/api/v1/streak", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.EqualValues(t, 2, got["current_streak"])
		assert.EqualValues(t, 9, got["max_streak"])
		assert.EqualValues(t, 0, got["restart_count"])
		assert.EqualValues(t, 0, got["streak_comeback"])
	})

	t.Run("Success: reading never records a break", func(t *testing.T) {
		e := setupEnv(t)
		_, err := e.tracker.Update(e.t.Context(), e.userID, 5, nil)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			w := e.do(http.MethodGet, "/api/v1/streak", "")
			require.Equal(t, http.StatusOK, w.Code)
		}

		h, err := e.tracker.Get(e.t.Context(), e.userID)
		require.NoError(t, err)
		assert.Zero(t, h.RestartCount)
	})

	t.Run("Fail: 503 when the local ledger fails", func(t *testing.T) {
		e := setupEnv(t)
		e.local.SetError(errors.New("corrupted value log"))

		w := e.do(http.MethodGet, "/api/v1/streak", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
