package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
}

func TestNewWithDetails(t *testing.T) {
	err := NewWithDetails(http.StatusNotFound, "NOT_FOUND", "missing", "watchlist")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "watchlist", err.Details)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		statusCode int
		errorCode  string
	}{
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{"invalid symbol", ErrInvalidSymbol, http.StatusBadRequest, "INVALID_SYMBOL"},
		{"invalid image", ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE"},
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"watch not found", ErrWatchNotFound, http.StatusNotFound, "WATCH_NOT_FOUND"},
		{"no records", ErrNoRecordsFound, http.StatusUnprocessableEntity, "NO_RECORDS_FOUND"},
		{"quota exhausted", ErrQuotaExhausted, http.StatusTooManyRequests, "OCR_QUOTA_EXHAUSTED"},
		{"ocr failed", ErrOCRFailed, http.StatusInternalServerError, "OCR_FAILED"},
		{"pricing upstream", ErrPricingUpstream, http.StatusBadGateway, "PRICING_UPSTREAM_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
			assert.Equal(t, tt.errorCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("symbol", "must be 4 or 6 digits")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "symbol", detail.Field)
	assert.Equal(t, "must be 4 or 6 digits", detail.Message)
}

func TestOCRError(t *testing.T) {
	cause := stderrors.New("annotate: connection refused")
	err := OCRError(cause)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "OCR_FAILED", err.ErrorCode)
	assert.Equal(t, cause.Error(), err.Details)
}

func TestStorageError(t *testing.T) {
	err := StorageError("upsert", stderrors.New("database is locked"))
	assert.Equal(t, "STORAGE_ERROR", err.ErrorCode)
	assert.Contains(t, err.Message, "upsert")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrWatchNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "WATCH_NOT_FOUND")
}

func TestAppError(t *testing.T) {
	cause := stderrors.New("no such table: holdings")
	err := NewStorageError("query holdings", cause)

	assert.Equal(t, "[STORAGE] query holdings: no such table: holdings", err.Error())
	assert.True(t, stderrors.Is(err, cause))

	err.WithContext("symbol", "2330")
	assert.Equal(t, "2330", err.Context["symbol"])
}

func TestAppError_NoCause(t *testing.T) {
	err := NewAppValidationError("empty watchlist")
	assert.Equal(t, "[VALIDATION] empty watchlist", err.Error())
	assert.Nil(t, stderrors.Unwrap(err))
}

func TestAppErrorHelpers(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		errType ErrorType
	}{
		{"ocr", NewOCRError("annotate failed", nil), ErrTypeOCR},
		{"network", NewNetworkError("timeout", nil), ErrTypeNetwork},
		{"parsing", NewParsingError("bad row", nil), ErrTypeParsing},
		{"pricing", NewPricingError("provider down", nil), ErrTypePricing},
		{"not found", NewNotFoundError("quote"), ErrTypeNotFound},
		{"config", NewConfigError("bad port", nil), ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type)
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusTooManyRequests, TypeOCRQuota, "OCR Quota Exhausted", "quota", "/api/holdings/extract")
	pd.WithExtension("retry_after", 86400)

	data, err := pd.MarshalJSON()
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, `"type":"/errors/ocr/quota-exhausted"`)
	assert.Contains(t, body, `"status":429`)
	assert.Contains(t, body, `"retry_after":86400`)
}

func TestProblemDetails_OmitsEmptyFields(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "")
	data, err := pd.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "detail")
	assert.NotContains(t, string(data), "instance")
}

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{
		ErrNoTextDetected,
		ErrNoSymbolInRow,
		ErrOCRQuotaExceeded,
		ErrMarketClosed,
		ErrSymbolNotWatched,
		ErrUpstreamPricing,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, stderrors.Is(a, b), fmt.Sprintf("%v should not match %v", a, b))
		}
	}
}
