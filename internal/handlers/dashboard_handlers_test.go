package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectOrderStatusForUpdate = "SELECT status FROM orders WHERE id = ? FOR UPDATE"
	selectDeductItems          = "SELECT product_id, variant_id, name, quantity FROM order_items WHERE order_id = ?"
	selectRestockItems         = "SELECT product_id, variant_id, quantity FROM order_items WHERE order_id = ?"
)

func orderStatusContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/v1/admin/orders/55/status", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "55"}}
	return c, rec
}

func TestUpdateOrderStatusDeductsStockOnProcessing(t *testing.T) {
	// pending -> processing commits the stock that checkout only validated.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectOrderStatusForUpdate)).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectQuery(regexp.QuoteMeta(selectDeductItems)).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "variant_id", "name", "quantity"}).
			AddRow(10, nil, "Rose Lip Tint", 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET in_stock = in_stock - ? WHERE id = ? AND in_stock >= ?")).
		WithArgs(2, int64(10), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ?, updated_at = ? WHERE id = ?")).
		WithArgs("processing", sqlmock.AnyArg(), "55").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := &Handlers{DB: db}
	c, rec := orderStatusContext(t, `{"status":"processing"}`)
	h.UpdateOrderStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusFailsWhenStockMovedSinceCheckout(t *testing.T) {
	// Zero rows affected by the guarded UPDATE means the stock is gone;
	// the whole transition rolls back.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectOrderStatusForUpdate)).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectQuery(regexp.QuoteMeta(selectDeductItems)).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "variant_id", "name", "quantity"}).
			AddRow(10, nil, "Rose Lip Tint", 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET in_stock = in_stock - ? WHERE id = ? AND in_stock >= ?")).
		WithArgs(2, int64(10), 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	h := &Handlers{DB: db}
	c, rec := orderStatusContext(t, `{"status":"processing"}`)
	h.UpdateOrderStatus(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rose Lip Tint")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusRejectsSkippedStep(t *testing.T) {
	// Statuses move forward one step at a time; pending -> shipped is out.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectOrderStatusForUpdate)).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectRollback()

	h := &Handlers{DB: db}
	c, rec := orderStatusContext(t, `{"status":"shipped"}`)
	h.UpdateOrderStatus(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusRestocksOnCancelAfterProcessing(t *testing.T) {
	// A shipped order had its stock deducted; cancelling it gives the
	// quantities back.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectOrderStatusForUpdate)).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("shipped"))
	mock.ExpectQuery(regexp.QuoteMeta(selectRestockItems)).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "variant_id", "quantity"}).
			AddRow(nil, 31, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_variants SET in_stock = in_stock + ? WHERE id = ?")).
		WithArgs(1, int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ?, updated_at = ? WHERE id = ?")).
		WithArgs("cancelled", sqlmock.AnyArg(), "55").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := &Handlers{DB: db}
	c, rec := orderStatusContext(t, `{"status":"cancelled"}`)
	h.UpdateOrderStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := &Handlers{DB: db}
	c, rec := orderStatusContext(t, `{"status":"teleported"}`)
	h.UpdateOrderStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
