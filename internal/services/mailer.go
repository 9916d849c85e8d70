package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	types "github.com/yungbote/storefront-backend/internal/domain"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/sendgrid"
)

// Mailer sends the storefront's transactional email.
type Mailer interface {
	OrderConfirmation(ctx context.Context, u *types.User, o *types.Order, site types.SiteSettings) error
	OrderStatus(ctx context.Context, u *types.User, o *types.Order, site types.SiteSettings) error
	ReturnUpdate(ctx context.Context, u *types.User, rr *types.ReturnRequest, site types.SiteSettings) error
}

type mailer struct {
	log     *logger.Logger
	client  sendgrid.Client
	metrics *observability.Metrics
}

func NewMailer(log *logger.Logger, client sendgrid.Client, metrics *observability.Metrics) Mailer {
	return &mailer{log: log.With("service", "Mailer"), client: client, metrics: metrics}
}

var orderEmail = template.Must(template.New("order").Funcs(template.FuncMap{"money": formatCents}).Parse(`
<h2>{{.Heading}}</h2>
<p>Order <strong>{{.Order.OrderNumber}}</strong> is now <strong>{{.Order.Status}}</strong>.</p>
{{if .Order.TrackingNumber}}<p>Tracking number: {{.Order.TrackingNumber}}</p>{{end}}
<table>
{{range .Order.Items}}<tr><td>{{.Name}}{{if .VariantName}} ({{.VariantName}}){{end}}</td><td>x{{.Quantity}}</td><td>{{money .LineTotalCents $.Currency}}</td></tr>
{{end}}</table>
<p>Subtotal {{money .Order.SubtotalCents .Currency}}<br>
Shipping {{money .Order.ShippingCents .Currency}}<br>
Tax {{money .Order.TaxCents .Currency}}<br>
<strong>Total {{money .Order.TotalCents .Currency}}</strong></p>
<p>{{.StoreName}}</p>`))

// formatCents is a plain "12.34 USD" rendering for email bodies.
func formatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(currency))
}

func (m *mailer) send(ctx context.Context, kind string, u *types.User, site types.SiteSettings, subject, text, html string, args map[string]string) error {
	if u == nil || strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%s email: recipient has no address", kind)
	}
	req := sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: u.Email, Name: strings.TrimSpace(u.FirstName + " " + u.LastName)}},
		Subject:    subject,
		Text:       text,
		HTML:       html,
		Categories: []string{kind},
		CustomArgs: args,
	}
	if site.SupportEmail != "" {
		req.ReplyTo = &sendgrid.EmailAddress{Email: site.SupportEmail, Name: site.StoreName}
	}
	if _, err := m.client.Send(ctx, req); err != nil {
		m.metrics.IncEmail(kind, "error")
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	m.metrics.IncEmail(kind, "sent")
	return nil
}

func (m *mailer) renderOrder(heading string, o *types.Order, site types.SiteSettings) (string, error) {
	currency := o.Currency
	if currency == "" {
		currency = site.Currency
	}
	var buf bytes.Buffer
	err := orderEmail.Execute(&buf, map[string]any{
		"Heading":   heading,
		"Order":     o,
		"Currency":  currency,
		"StoreName": site.StoreName,
	})
	return buf.String(), err
}

func (m *mailer) OrderConfirmation(ctx context.Context, u *types.User, o *types.Order, site types.SiteSettings) error {
	html, err := m.renderOrder("Thanks for your order", o, site)
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	text := fmt.Sprintf("Thanks for your order %s. Total %s.", o.OrderNumber, formatCents(o.TotalCents, o.Currency))
	return m.send(ctx, "order_confirmation", u, site,
		fmt.Sprintf("%s order %s confirmed", site.StoreName, o.OrderNumber),
		text, html, map[string]string{"order_id": o.ID.String()})
}

func (m *mailer) OrderStatus(ctx context.Context, u *types.User, o *types.Order, site types.SiteSettings) error {
	html, err := m.renderOrder("Your order was updated", o, site)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}
	text := fmt.Sprintf("Order %s is now %s.", o.OrderNumber, o.Status)
	if o.TrackingNumber != "" {
		text += " Tracking number: " + o.TrackingNumber + "."
	}
	return m.send(ctx, "order_status", u, site,
		fmt.Sprintf("%s order %s: %s", site.StoreName, o.OrderNumber, o.Status),
		text, html, map[string]string{"order_id": o.ID.String(), "status": o.Status})
}

func (m *mailer) ReturnUpdate(ctx context.Context, u *types.User, rr *types.ReturnRequest, site types.SiteSettings) error {
	text := fmt.Sprintf("Your return request is now %s.", rr.Status)
	if rr.Status == types.ReturnStatusRefunded && rr.RefundCents > 0 {
		currency := site.Currency
		if rr.Order != nil && rr.Order.Currency != "" {
			currency = rr.Order.Currency
		}
		text += " Refund: " + formatCents(rr.RefundCents, currency) + "."
	}
	if rr.AdminNotes != "" {
		text += "\n\n" + rr.AdminNotes
	}
	return m.send(ctx, "return_update", u, site,
		fmt.Sprintf("%s return update: %s", site.StoreName, rr.Status),
		text, "", map[string]string{"return_id": rr.ID.String(), "status": rr.Status})
}
