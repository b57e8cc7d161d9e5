package telegram

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/campushop/campushop/config"
	"github.com/campushop/campushop/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Service wraps the Telegram Bot API for the operator channel: interactive
// new-order alerts, outcome edits, and plain operational messages.
//
// Alert dispatch runs through a worker pool and never blocks or fails the
// order path; a dropped alert only costs the operator the button shortcut,
// the order stays actionable from the admin panel.
type Service struct {
	apiBase string
	token   string
	chatID  int64
	pool    *ants.Pool
}

func New(cfg config.TelegramConfig) (*Service, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "telegram: dispatch pool")
	}
	svc := &Service{
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		pool:    pool,
	}
	setGlobalService(svc)
	return svc, nil
}

// package-level instance so route handlers and jobs can reach the running
// service, same arrangement as the rest of the app services
var (
	globalSvc     *Service
	globalSvcLock sync.RWMutex
)

func setGlobalService(s *Service) {
	globalSvcLock.Lock()
	defer globalSvcLock.Unlock()
	globalSvc = s
}

// Get returns the running service instance or nil if not initialized.
func Get() *Service {
	globalSvcLock.RLock()
	defer globalSvcLock.RUnlock()
	return globalSvc
}

// Release drains and stops the dispatch pool.
func (s *Service) Release() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Release()
}

// OrderCreated queues the interactive alert for one sub-order. Implements
// the order service's Notifier.
func (s *Service) OrderCreated(o *domain.Order) {
	if s == nil {
		return
	}
	order := *o
	err := s.pool.Submit(func() {
		if err := s.sendOrderAlert(&order); err != nil {
			zap.L().Warn("telegram: order alert failed",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	})
	if err != nil {
		zap.L().Warn("telegram: dispatch pool rejected alert",
			zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) sendOrderAlert(o *domain.Order) error {
	text := FormatOrderAlert(o)
	keyboard := inlineKeyboard{InlineKeyboard: [][]inlineButton{{
		{Text: "✅ Approve", CallbackData: OrderActionToken("approve", o.ID)},
		{Text: "❌ Reject", CallbackData: OrderActionToken("reject", o.ID)},
	}}}
	return s.call("sendMessage", map[string]interface{}{
		"chat_id":      s.chatID,
		"text":         text,
		"reply_markup": keyboard,
	})
}

// FormatOrderAlert renders the operator notification for one order.
func FormatOrderAlert(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 New order [%s]\n", o.Seller)
	fmt.Fprintf(&b, "Order: %s\n", o.ID)
	fmt.Fprintf(&b, "Date: %s\n\n", o.Date)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%dx %s — %.2f\n", it.Quantity, it.Name, it.Price*float64(it.Quantity))
	}
	fmt.Fprintf(&b, "\nDelivery: %s", o.DeliveryMethod)
	if o.RoomNumber != "" {
		fmt.Fprintf(&b, " (room %s)", o.RoomNumber)
	}
	fmt.Fprintf(&b, "\nPayment: %s\n", o.PaymentMethod)
	var subtotal float64
	for _, it := range o.Items {
		subtotal += it.Price * float64(it.Quantity)
	}
	if fee := o.Total - subtotal; fee > 0 {
		fmt.Fprintf(&b, "Delivery fee: %.2f\n", fee)
	}
	fmt.Fprintf(&b, "Total: %.2f", o.Total)
	if !domain.IsHouseSeller(o.Seller) && o.PaymentMethod == domain.PaymentIban {
		b.WriteString("\n\n⚠️ IBAN payment: contact the seller directly for account details.")
	}
	return b.String()
}

// EditOutcome rewrites an alert message with its terminal outcome. Sending
// the edit without reply_markup drops the buttons, so a stale message
// cannot re-trigger the action.
func (s *Service) EditOutcome(chatID int64, messageID int, original string, o *domain.Order) error {
	if s == nil {
		return errors.New("telegram service not initialized")
	}
	outcome := "✅ APPROVED"
	if o.Status == domain.OrderRejected {
		outcome = "❌ REJECTED"
	}
	text := original
	if text == "" {
		text = FormatOrderAlert(o)
	}
	return s.call("editMessageText", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text + "\n\n" + outcome,
	})
}

// AnswerCallback acknowledges a callback query so the client stops showing
// its pending indicator.
func (s *Service) AnswerCallback(callbackID, text string) error {
	if s == nil {
		return errors.New("telegram service not initialized")
	}
	return s.call("answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
		"text":              text,
	})
}

// SendText sends a plain message to the operator chat (jobs, reminders).
func (s *Service) SendText(text string) error {
	if s == nil {
		return errors.New("telegram service not initialized")
	}
	return s.call("sendMessage", map[string]interface{}{
		"chat_id": s.chatID,
		"text":    text,
	})
}

func (s *Service) call(method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "telegram: encode %s", method)
	}
	url := fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.token, method)
	var respBody []byte
	var code int
	err = gout.POST(url).
		SetTimeout(10 * time.Second).
		SetHeader(gout.H{"Content-Type": "application/json"}).
		SetBody(body).
		BindBody(&respBody).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "telegram: %s", method)
	}
	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return errors.Wrapf(err, "telegram: decode %s response", method)
	}
	if !resp.Ok {
		return errors.Errorf("telegram: %s: %s (status %d)", method, resp.Description, code)
	}
	return nil
}
