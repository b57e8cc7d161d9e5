package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/orders"
	"github.com/campushop/campushop/internal/telegram"
	"github.com/campushop/campushop/internal/webserver"
)

// telegramWebhook receives bot updates. Telegram retries non-200 answers,
// so every handled update returns 200 regardless of outcome; failures are
// reported to the operator through the callback answer instead.
func telegramWebhook(c echo.Context) error {
	var update telegram.Update
	if err := c.Bind(&update); err != nil {
		zap.L().Warn("webhook: unparseable update", zap.Error(err))
		return c.NoContent(http.StatusOK)
	}
	cb := update.CallbackQuery
	if cb == nil {
		return c.NoContent(http.StatusOK)
	}

	tg := telegram.Get()
	answer := func(text string) {
		if tg == nil {
			return
		}
		if err := tg.AnswerCallback(cb.ID, text); err != nil {
			zap.L().Warn("webhook: answer callback failed", zap.Error(err))
		}
	}

	token, valid := telegram.ParseActionToken(cb.Data)
	if !valid {
		answer("")
		return c.NoContent(http.StatusOK)
	}
	if token.Discriminator != telegram.DiscriminatorOrder {
		// other token families (login approvals) are not handled here
		answer("")
		return c.NoContent(http.StatusOK)
	}
	action, known := orders.ParseAction(token.Subaction)
	if !known {
		answer("Unknown action")
		return c.NoContent(http.StatusOK)
	}

	outcome, err := webserver.GetApp(c).OrderService().Resolve(c.Request().Context(), token.ID, action, "telegram")
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			answer("Order not found")
			return c.NoContent(http.StatusOK)
		}
		zap.L().Error("webhook: resolve failed",
			zap.String("order_id", token.ID), zap.String("action", string(action)), zap.Error(err))
		answer("Failed, use the admin panel")
		return c.NoContent(http.StatusOK)
	}

	if outcome.Already {
		answer("Already processed")
		return c.NoContent(http.StatusOK)
	}

	answer("Order " + string(outcome.Order.Status))
	if tg != nil && cb.Message != nil {
		if err := tg.EditOutcome(cb.Message.Chat.ID, cb.Message.MessageID, cb.Message.Text, outcome.Order); err != nil {
			zap.L().Warn("webhook: message edit failed",
				zap.String("order_id", token.ID), zap.Error(err))
		}
	}
	return c.NoContent(http.StatusOK)
}
