package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/villarent/reservation-api/internal/models"
)

func TestBlockedDates(t *testing.T) {
	t.Run("Public list", func(t *testing.T) {
		env := newTestEnv(t)
		env.blocked.On("ListByVilla", mock.Anything, int64(7)).Return([]models.BlockedDate{
			{ID: 1, VillaID: 7, StartDate: models.NewDate(2025, 4, 1), EndDate: models.NewDate(2025, 4, 3)},
		}, nil)

		w := env.do(http.MethodGet, "/api/v1/villas/7/blocked-dates", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"startDate":"2025-04-01"`)
	})

	t.Run("Owner replaces", func(t *testing.T) {
		env := newTestEnv(t)
		_, owner := env.token(t, "owner@example.com", models.RoleOwner)
		env.villas.On("GetByID", mock.Anything, int64(7)).Return(testVilla(), nil)
		env.blocked.On("Replace", mock.Anything, int64(7), mock.Anything).Return([]models.BlockedDate{{ID: 5}}, nil)

		w := env.do(http.MethodPut, "/api/v1/owner/villas/7/blocked-dates", map[string]interface{}{
			"ranges": []map[string]interface{}{{"startDate": "2025-04-01", "endDate": "2025-04-03", "reason": "painting"}},
		}, map[string]string{"Authorization": owner})

		assert.Equal(t, http.StatusOK, w.Code)
		env.audit.AssertCalled(t, "Insert", mock.Anything, mock.MatchedBy(func(e *models.AuditEntry) bool {
			return e.Action == models.AuditBlockedDatesReplaced && e.EntityID == "7"
		}))
	})

	t.Run("Inverted range", func(t *testing.T) {
		env := newTestEnv(t)
		_, owner := env.token(t, "owner@example.com", models.RoleOwner)
		env.villas.On("GetByID", mock.Anything, int64(7)).Return(testVilla(), nil)

		w := env.do(http.MethodPut, "/api/v1/owner/villas/7/blocked-dates", map[string]interface{}{
			"ranges": []map[string]interface{}{{"startDate": "2025-04-03", "endDate": "2025-04-01"}},
		}, map[string]string{"Authorization": owner})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Other owner forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		_, other := env.token(t, "other@example.com", models.RoleOwner)
		env.villas.On("GetByID", mock.Anything, int64(7)).Return(testVilla(), nil)

		w := env.do(http.MethodPut, "/api/v1/owner/villas/7/blocked-dates", map[string]interface{}{"ranges": []interface{}{}},
			map[string]string{"Authorization": other})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
