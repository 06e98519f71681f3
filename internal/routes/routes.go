package routes

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/handlers"
	"github.com/glowora/glowora-api/internal/middleware"
)

// CORSMiddleware allows the storefront origin (CORS_ORIGIN, defaulting to
// the local Vite dev server) to call us with credentials, which the guest
// cart cookie needs.
func CORSMiddleware() gin.HandlerFunc {
	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())

	// Uploaded media is served straight off disk.
	router.Static("/uploads", "./uploads")

	v1 := router.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/verify-email", h.VerifyEmail)
		v1.POST("/auth/resend-code", h.ResendVerification)
		v1.POST("/auth/forgot-password", h.RequestPasswordReset)
		v1.POST("/auth/reset-password", h.ResetPassword)

		// --- Catalog Routes (Public) ---
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:slug", h.GetProductBySlug)
		v1.GET("/brands", h.GetAllBrands)
		v1.GET("/categories", h.GetAllCategories)
		v1.GET("/collections", h.GetAllCollections)
		v1.GET("/collections/:slug", h.GetCollectionBySlug)

		// --- Cart Routes (guest or logged-in) ---
		// ResolveIdentity accepts a JWT when present and otherwise mints
		// a guest cookie, so the same handlers serve both kinds of cart.
		cart := v1.Group("/cart")
		cart.Use(middleware.ResolveIdentity())
		{
			cart.GET("", h.GetCart)
			cart.POST("/items", h.AddToCart)
			cart.PUT("/items/:id", h.UpdateCartItem)
			cart.DELETE("/items/:id", h.DeleteCartItem)
		}

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.RequireUser())
		{
			auth.GET("/me", h.GetProfile)

			auth.GET("/addresses", h.GetMyAddresses)
			auth.POST("/addresses", h.CreateAddress)
			auth.PUT("/addresses/:id", h.UpdateAddress)
			auth.DELETE("/addresses/:id", h.DeleteAddress)

			auth.POST("/checkout", h.Checkout)
			auth.GET("/orders", h.GetMyOrders)
			auth.GET("/orders/:id", h.GetOrderDetails)
			auth.POST("/orders/:id/cancel", h.CancelOrder)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireUser())
		admin.Use(middleware.RequireAdmin(h.DB))
		{
			admin.GET("/products", h.AdminListProducts)
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/products/:id/variants", h.AddVariant)
			admin.PUT("/variants/:id", h.UpdateVariant)
			admin.DELETE("/variants/:id", h.DeleteVariant)

			admin.POST("/brands", h.CreateBrand)
			admin.PUT("/brands/:id", h.UpdateBrand)
			admin.DELETE("/brands/:id", h.DeleteBrand)

			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.POST("/collections", h.CreateCollection)
			admin.PUT("/collections/:id", h.UpdateCollection)
			admin.DELETE("/collections/:id", h.DeleteCollection)
			admin.POST("/collections/:id/products", h.AddProductToCollection)
			admin.DELETE("/collections/:id/products/:product_id", h.RemoveProductFromCollection)

			admin.GET("/orders", h.AdminListOrders)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)

			admin.POST("/upload", h.UploadFile)
			admin.GET("/media", h.ListMedia)
			admin.DELETE("/media/:id", h.DeleteMedia)

			admin.GET("/dashboard-stats", h.GetAdminStats)
		}
	}

	return router
}
