package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSMiddleware allows the comma-separated origins to call the API with
// bearer credentials. A "*" origin disables credentials, which browsers
// would reject anyway.
func CORSMiddleware(origins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
		ExposeHeaders:    "Content-Disposition",
		AllowCredentials: origins != "*",
	})
}
