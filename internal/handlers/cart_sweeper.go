package handlers

import (
	"log"
	"time"
)

// ProcessStaleGuestCarts deletes guest cart rows that have not been touched
// within ttl. Guest carts have no account to expire with, so a background
// worker calls this on a ticker; user carts are never swept.
func (h *Handlers) ProcessStaleGuestCarts(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	result, err := h.DB.Exec(
		"DELETE FROM cart_items WHERE guest_token IS NOT NULL AND updated_at < ?",
		cutoff)
	if err != nil {
		log.Printf("guest cart sweep: delete failed: %v", err)
		return
	}

	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		log.Printf("guest cart sweep: removed %d stale rows", affected)
	}
}
