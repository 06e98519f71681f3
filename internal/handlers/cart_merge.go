package handlers

import (
	"database/sql"
	"fmt"
	"time"
)

// guestRow is one guest cart row being considered for transfer.
type guestRow struct {
	id        int64
	productID *int64
	variantID *int64
	quantity  int
}

// MergeGuestCart transfers a guest's cart rows to a user.
//
// For each guest row: if the user already has a row for the same product or
// variant, the quantities are added, capped at current stock, and the guest
// row is deleted; otherwise the row is re-owned to the user. Either way no
// guest row survives a successful merge — ownership transfers, it is never
// duplicated.
//
// The whole transfer runs in one transaction so a failure leaves both carts
// untouched. Callers treat the returned error as non-fatal to sign-in.
func MergeGuestCart(db *sql.DB, guestToken string, userID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		"SELECT id, product_id, variant_id, quantity FROM cart_items WHERE guest_token = ?",
		guestToken)
	if err != nil {
		return fmt.Errorf("load guest rows: %w", err)
	}

	var guestRows []guestRow
	for rows.Next() {
		var r guestRow
		if err := rows.Scan(&r.id, &r.productID, &r.variantID, &r.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan guest row: %w", err)
		}
		guestRows = append(guestRows, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate guest rows: %w", err)
	}
	rows.Close()

	now := time.Now()
	for _, gr := range guestRows {
		var refClause string
		var refArg interface{}
		if gr.productID != nil {
			refClause = "product_id = ?"
			refArg = *gr.productID
		} else {
			refClause = "variant_id = ?"
			refArg = *gr.variantID
		}

		var userItemID int64
		var userQty int
		err := tx.QueryRow(
			"SELECT id, quantity FROM cart_items WHERE user_id = ? AND "+refClause,
			userID, refArg,
		).Scan(&userItemID, &userQty)

		switch {
		case err == sql.ErrNoRows:
			// Re-own the guest row.
			_, err := tx.Exec(
				"UPDATE cart_items SET user_id = ?, guest_token = NULL, updated_at = ? WHERE id = ?",
				userID, now, gr.id)
			if err != nil {
				return fmt.Errorf("re-own row %d: %w", gr.id, err)
			}
		case err != nil:
			return fmt.Errorf("lookup user row: %w", err)
		default:
			// Combine quantities, capped at current stock, then drop the
			// guest row.
			stock, err := resolveStock(tx, gr.productID, gr.variantID)
			if err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("stock check: %w", err)
			}
			combined := userQty + gr.quantity
			if err == nil && combined > stock {
				combined = stock
			}

			if _, err := tx.Exec(
				"UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?",
				combined, now, userItemID); err != nil {
				return fmt.Errorf("combine row %d: %w", userItemID, err)
			}
			if _, err := tx.Exec("DELETE FROM cart_items WHERE id = ?", gr.id); err != nil {
				return fmt.Errorf("delete guest row %d: %w", gr.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
