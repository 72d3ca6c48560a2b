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

func TestGetSnapshot(t *testing.T) {
	t.Run("Success: Returns 200 with an explicit window", func(t *testing.T) {
		e := setupEnv(t)
		e.task(-1, domain.CategoryExercise, true)
		e.settle(-1, true)
		e.settle(-2, true)

		w := e.do(http.MethodGet, "/api/v1/stats/snapshot?start_date=2026-10-01&end_date=2026-10-14", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var snap domain.StatisticsSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Equal(t, "2026-10-01", snap.StartDate)
		assert.Equal(t, "2026-10-14", snap.EndDate)
		assert.Equal(t, 2, snap.CurrentStreak)
		assert.Equal(t, 1, snap.CompletedTasks)
		assert.False(t, snap.NutritionTargetsAvailable)
	})

	t.Run("Success: Returns 200 with Smart Defaults (No dates provided)", func(t *testing.T) {
		e := setupEnv(t)

		w := e.do(http.MethodGet, "/api/v1/stats/snapshot", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"end_date":"2026-10-14"`)
	})

	t.Run("Security: 400 Bad Request on DoS Attempt (Range too big)", func(t *testing.T) {
		e := setupEnv(t)

		w := e.do(http.MethodGet, "/api/v1/stats/snapshot?start_date=2024-01-01&end_date=2026-01-01", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), domain.ErrInvalidWindow.Error())
	})

	t.Run("Validation: 400 Bad Request on Invalid Dates (Start > End)", func(t *testing.T) {
		e := setupEnv(t)

		w := e.do(http.MethodGet, "/api/v1/stats/snapshot?start_date=2026-10-10&end_date=2026-10-01", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Validation: 400 Bad Request on Malformed Date", func(t *testing.T) {
		e := setupEnv(t)

		w := e.do(http.MethodGet, "/api/v1/stats/snapshot?start_date=not-a-date", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
	})

	t.Run("Security: 401 Unauthorized if no User ID", func(t *testing.T) {
		e := setupEnv(t)

		w := e.doAs("", http.MethodGet, "/api/v1/stats/snapshot", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Fail: 503 when the local ledger fails", func(t *testing.T) {
		e := setupEnv(t)
		e.local.SetError(errors.New("disk I/O error"))

		w := e.do(http.MethodGet, "/api/v1/stats/snapshot", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "disk I/O error")
	})
}

func TestGetAchievementProgress(t *testing.T) {
	t.Run("Success: resolves every condition", func(t *testing.T) {
		e := setupEnv(t)
		for i := 1; i <= 3; i++ {
			e.task(-i, domain.CategoryMindfulness, true)
			e.settle(-i, true)
		}

		body := `{"conditions":[
			{"metric":"current_streak","target":3},
			{"metric":"completed_by_category","param":"mindfulness","target":10}
		]}`
		w := e.do(http.MethodPost, "/api/v1/achievements/progress", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got []struct {
			Metric   string `json:"metric"`
			Current  int    `json:"current"`
			Unlocked bool   `json:"unlocked"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, 3, got[0].Current)
		assert.True(t, got[0].Unlocked)
		assert.Equal(t, 3, got[1].Current)
		assert.False(t, got[1].Unlocked)
	})

	t.Run("Validation: 400 on missing conditions", func(t *testing.T) {
		e := setupEnv(t)

		w := e.do(http.MethodPost, "/api/v1/achievements/progress", `{"conditions":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = e.do(http.MethodPost, "/api/v1/achievements/progress", `{"conditions":[{"metric":"current_streak","target":0}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Validation: 400 on unknown metric", func(t *testing.T) {
		e := setupEnv(t)

		w := e.do(http.MethodPost, "/api/v1/achievements/progress", `{"conditions":[{"metric":"karma","target":1}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "karma")
	})
}
