package handlers

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectGuestRows = "SELECT id, product_id, variant_id, quantity FROM cart_items WHERE guest_token = ?"
	selectUserRow   = "SELECT id, quantity FROM cart_items WHERE user_id = ? AND product_id = ?"
	selectStock     = "SELECT in_stock FROM products WHERE id = ? AND product_type = 'simple' AND status = 'active'"
	updateQuantity  = "UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?"
	deleteByID      = "DELETE FROM cart_items WHERE id = ?"
	reownRow        = "UPDATE cart_items SET user_id = ?, guest_token = NULL, updated_at = ? WHERE id = ?"
)

func TestMergeGuestCartCombinesQuantities(t *testing.T) {
	// Guest has product 10 with qty 2; the user already has it with qty 1
	// and stock is ample. Expect a single user row with qty 3 and the guest
	// row deleted.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectGuestRows)).
		WithArgs("guest-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "variant_id", "quantity"}).
			AddRow(101, 10, nil, 2))
	mock.ExpectQuery(regexp.QuoteMeta(selectUserRow)).
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(201, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectStock)).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"in_stock"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(updateQuantity)).
		WithArgs(3, sqlmock.AnyArg(), int64(201)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteByID)).
		WithArgs(int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = MergeGuestCart(db, "guest-token", 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeGuestCartCapsAtStock(t *testing.T) {
	// User qty 2 + guest qty 2 with only 3 in stock: combined quantity is
	// capped at 3, never above.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectGuestRows)).
		WithArgs("guest-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "variant_id", "quantity"}).
			AddRow(101, 10, nil, 2))
	mock.ExpectQuery(regexp.QuoteMeta(selectUserRow)).
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}).AddRow(201, 2))
	mock.ExpectQuery(regexp.QuoteMeta(selectStock)).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"in_stock"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(updateQuantity)).
		WithArgs(3, sqlmock.AnyArg(), int64(201)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteByID)).
		WithArgs(int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = MergeGuestCart(db, "guest-token", 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeGuestCartReownsNewItems(t *testing.T) {
	// The user has no row for the guest's item: the guest row is re-owned
	// in place, not copied.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectGuestRows)).
		WithArgs("guest-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "variant_id", "quantity"}).
			AddRow(101, nil, 55, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, quantity FROM cart_items WHERE user_id = ? AND variant_id = ?")).
		WithArgs(int64(7), int64(55)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity"}))
	mock.ExpectExec(regexp.QuoteMeta(reownRow)).
		WithArgs(int64(7), sqlmock.AnyArg(), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = MergeGuestCart(db, "guest-token", 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeGuestCartEmptyGuestCartIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectGuestRows)).
		WithArgs("guest-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "variant_id", "quantity"}))
	mock.ExpectCommit()

	err = MergeGuestCart(db, "guest-token", 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeGuestCartRollsBackOnFailure(t *testing.T) {
	// A failure mid-merge rolls the transaction back; the caller logs and
	// continues with sign-in.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectGuestRows)).
		WithArgs("guest-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "variant_id", "quantity"}).
			AddRow(101, 10, nil, 2))
	mock.ExpectQuery(regexp.QuoteMeta(selectUserRow)).
		WithArgs(int64(7), int64(10)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = MergeGuestCart(db, "guest-token", 7)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
