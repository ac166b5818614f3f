// handlers/listing_routes.go
package handlers

import (
	"earn-service/services"

	"github.com/gofiber/fiber/v2"
)

// SetupListingRoutes mounts the listing API. userCtx guards routes that need a caller.
func SetupListingRoutes(
	app *fiber.App,
	userCtx fiber.Handler,
	listingService *services.ListingService,
	submissionService *services.SubmissionService,
	announceService *services.AnnounceService,
) {
	api := app.Group("/api")

	// 🔓 Public routes — no user context, but still behind Gateway auth
	api.Get("/listings/:slug", listingService.GetListingBySlug)
	api.Get("/listings/:id/comments", listingService.GetListingComments)

	// 🔐 Sponsor routes
	api.Post("/listings", userCtx, listingService.CreateListing)
	api.Post("/listings/:id/publish", userCtx, listingService.PublishListing)
	api.Post("/listings/:id/publish/schedule", userCtx, listingService.SchedulePublish)
	api.Post("/listings/:id/publish/cancel", userCtx, listingService.CancelScheduledPublish)
	api.Get("/listings/:id/submissions", userCtx, submissionService.GetListingSubmissions)
	api.Put("/submissions/:id/winner", userCtx, submissionService.SelectWinner)

	// 🏆 Winner announcement
	api.Post("/listings/announce/:id", userCtx, announceService.AnnounceWinners)

	// 🔐 Talent routes
	api.Post("/listings/:id/submissions", userCtx, submissionService.CreateSubmission)
}
