package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coinsight/coinsight-go/internal/models"
	"github.com/coinsight/coinsight-go/internal/utils"
)

// Envelope is the uniform response shape: a numeric transaction state plus
// either a data payload or a structured error.
type Envelope struct {
	TransactionState int         `json:"transaction_state"`
	Data             interface{} `json:"data,omitempty"`
	ErrorState       *ErrorState `json:"error_state,omitempty"`
}

// ErrorState describes a failed request.
type ErrorState struct {
	ErrorLoc string `json:"error_loc"`
	SubError string `json:"sub_error"`
	Message  string `json:"message"`
}

func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		TransactionState: http.StatusOK,
		Data:             data,
	})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		TransactionState: http.StatusCreated,
		Data:             data,
	})
}

// respondError maps the error taxonomy onto HTTP statuses and the envelope.
func respondError(c *gin.Context, errorLoc string, err error) {
	status := http.StatusInternalServerError
	subError := "InternalError"

	switch err.(type) {
	case *utils.ValidationError:
		status = http.StatusBadRequest
		subError = "ValidationError"
	case *utils.AuthenticationError:
		status = http.StatusUnauthorized
		subError = "AuthenticationError"
	case *utils.CredentialConflictError:
		status = http.StatusConflict
		subError = "CredentialConflictError"
	case *utils.ModelUnavailableError:
		status = http.StatusServiceUnavailable
		subError = "ModelUnavailableError"
	case *utils.DataQueryError:
		status = http.StatusInternalServerError
		subError = "DataQueryError"
	}

	c.JSON(status, Envelope{
		TransactionState: status,
		ErrorState: &ErrorState{
			ErrorLoc: errorLoc,
			SubError: subError,
			Message:  err.Error(),
		},
	})
}

// parseCoinNames reads the repeatable coin_names query parameter.
func parseCoinNames(c *gin.Context) ([]string, error) {
	coinNames := c.QueryArray("coin_names")
	if len(coinNames) == 0 {
		return nil, utils.NewValidationError("at least one coin_names parameter is required")
	}
	return coinNames, nil
}

// parseDateRange reads the optional start_date/end_date pair (YYYY-MM-DD).
// Supplying only one bound is rejected.
func parseDateRange(c *gin.Context) (*models.DateRange, error) {
	start := c.Query("start_date")
	end := c.Query("end_date")
	return buildDateRange(start, end)
}

func buildDateRange(start, end string) (*models.DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, utils.NewValidationError("start_date and end_date must be supplied together")
	}
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, utils.NewValidationErrorf("invalid start_date %q: expected YYYY-MM-DD", start)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, utils.NewValidationErrorf("invalid end_date %q: expected YYYY-MM-DD", end)
	}
	if endDate.Before(startDate) {
		return nil, utils.NewValidationError("end_date must not precede start_date")
	}
	return &models.DateRange{Start: startDate, End: endDate}, nil
}
