package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectDefaultAddress = "SELECT id, recipient, phone, line1, line2, city, state, postcode FROM addresses WHERE user_id = ? ORDER BY is_default DESC, created_at DESC LIMIT 1"

var cartLineColumns = []string{
	"product_id", "variant_id", "quantity",
	"p_name", "p_sku", "p_price", "p_sale_price", "p_in_stock",
	"vp_name", "v_sku", "v_color", "v_size", "v_price", "v_sale_price", "v_in_stock",
}

func checkoutContext(t *testing.T, db *sql.DB) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("userID", int64(7))
	return c, rec
}

func addressRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "recipient", "phone", "line1", "line2", "city", "state", "postcode"}).
		AddRow(1, "Aina Rahman", "+60123456789", "12 Jalan Mawar", nil, "Shah Alam", "Selangor", "40000")
}

func TestCheckoutRejectsInsufficientStockWithoutPersisting(t *testing.T) {
	// Requested quantity 5 against stock 2 must fail and write nothing —
	// ExpectationsWereMet proves no INSERT was ever issued.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectDefaultAddress)).
		WithArgs(int64(7)).
		WillReturnRows(addressRow())
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM cart_items.*FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cartLineColumns).
			AddRow(10, nil, 5, "Rose Lip Tint", nil, 500, nil, 2, nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectRollback()

	h := &Handlers{DB: db, Mailer: email.NewMailerFromEnv()}
	c, rec := checkoutContext(t, db)
	h.Checkout(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectDefaultAddress)).
		WithArgs(int64(7)).
		WillReturnRows(addressRow())
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM cart_items.*FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cartLineColumns))
	mock.ExpectRollback()

	h := &Handlers{DB: db, Mailer: email.NewMailerFromEnv()}
	c, rec := checkoutContext(t, db)
	h.Checkout(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart is empty")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutRequiresAnAddress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectDefaultAddress)).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	h := &Handlers{DB: db, Mailer: email.NewMailerFromEnv()}
	c, rec := checkoutContext(t, db)
	h.Checkout(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "address")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutCreatesOrderWithFrozenPricesAndTotals(t *testing.T) {
	// 500 × 2 = 1000 subtotal, 250 flat shipping (below 2500), 100 tax,
	// 1350 total. The order row carries the computed totals and the item
	// row freezes the unit price.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectDefaultAddress)).
		WithArgs(int64(7)).
		WillReturnRows(addressRow())
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM cart_items.*FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(cartLineColumns).
			AddRow(10, nil, 2, "Rose Lip Tint", nil, 500, nil, 5, nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectExec(`(?s)INSERT INTO orders`).
		WithArgs(int64(7), int64(1000), int64(250), int64(100), int64(1350),
			"Aina Rahman", "+60123456789", "12 Jalan Mawar", nil, "Shah Alam", "Selangor", "40000",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectExec(`(?s)INSERT INTO order_items`).
		WithArgs(int64(55), int64(10), nil, "Rose Lip Tint", nil, 2, int64(500), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Cart clearing is a separate statement after the commit.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = ?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Confirmation email lookup; erroring out just skips the mail.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM users WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	h := &Handlers{DB: db, Mailer: email.NewMailerFromEnv()}
	c, rec := checkoutContext(t, db)
	h.Checkout(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orderId":55`)
	assert.Contains(t, rec.Body.String(), `"totalAmount":1350`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
