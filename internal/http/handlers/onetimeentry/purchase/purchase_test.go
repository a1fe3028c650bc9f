package purchase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-access-control/internal/models"
	services "github.com/magabrotheeeer/gym-access-control/internal/services/onetimeentry"
	"github.com/magabrotheeeer/gym-access-control/internal/storage"
)

// MockService реализует интерфейс purchase.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Purchase(ctx context.Context, req models.DummyPurchase) (*services.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PurchaseResult), args.Error(1)
}

func TestPurchaseHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешная покупка",
			requestBody: models.DummyPurchase{UserID: 1, OneTimeEntryID: 1, Count: 2},
			setupMock: func(m *MockService) {
				m.On("Purchase", mock.Anything, mock.AnythingOfType("models.DummyPurchase")).
					Return(&services.PurchaseResult{UserID: 1, PurchasedIDs: []int{100, 101}, RemainingEntries: 2}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"remaining_entries":2`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "ошибка валидации",
			requestBody:    models.DummyPurchase{UserID: 1, OneTimeEntryID: 1, Count: -1},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field Count must be greater than 0"}`,
		},
		{
			name:        "позиция не найдена",
			requestBody: models.DummyPurchase{UserID: 1, OneTimeEntryID: 99},
			setupMock: func(m *MockService) {
				m.On("Purchase", mock.Anything, mock.AnythingOfType("models.DummyPurchase")).
					Return(nil, fmt.Errorf("services.onetimeentry.Purchase: %w", storage.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"user or one-time entry not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/one-time-entries/purchase", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
