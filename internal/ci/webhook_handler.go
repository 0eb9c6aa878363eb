package ci

import (
	"fmt"
	"log"
	"strings"

	"weighbridge-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// PushEvent - the subset of a git push webhook payload the dispatcher reads
type PushEvent struct {
	Ref        string `json:"ref"`
	Repository struct {
		Name string `json:"name"`
	} `json:"repository"`
	Pusher struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"pusher"`
}

func (e PushEvent) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}

// POST /webhook
// Receives a push event, logs it and fires a notification mail when a
// recipient is configured. Mail failures are logged, never surfaced: the CI
// sender only needs to know the event was received.
func WebhookHandler(cfg *config.Config, mailer Mailer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var event PushEvent
		if err := c.BodyParser(&event); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid webhook payload")
		}

		log.Printf("Webhook: push to %s/%s by %s", event.Repository.Name, event.Branch(), event.Pusher.Name)

		if cfg.CINotifyEmail != "" && mailer != nil {
			subject := fmt.Sprintf("CI: push to %s/%s", event.Repository.Name, event.Branch())
			body := fmt.Sprintf("Push to %s (%s) by %s <%s>.",
				event.Repository.Name, event.Branch(), event.Pusher.Name, event.Pusher.Email)
			if err := mailer.Send(cfg.CINotifyEmail, subject, body); err != nil {
				log.Println("CI mail could not be sent:", err)
			}
		}

		return c.JSON(fiber.Map{"message": "Webhook received"})
	}
}
