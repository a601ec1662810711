package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
	"github.com/shopspring/decimal"
)

// MaxMessageLen is the chunk size used for Telegram messages.
const MaxMessageLen = 4000

func Period(start, end time.Time) string {
	if start.Equal(end) {
		return start.Format(models.DateLayout)
	}
	return start.Format(models.DateLayout) + "-" + end.Format(models.DateLayout)
}

// OrderReport renders a report as Telegram Markdown.
func OrderReport(orders []models.ReportedOrder, period string, filter models.StatusCategory) string {
	label := filter.Label()
	if len(orders) == 0 {
		return fmt.Sprintf("📅 Період: %s\n❌ Замовлень зі статусом '%s' не знайдено.", period, label)
	}

	total := decimal.Zero
	for _, ro := range orders {
		total = total.Add(ro.Order.TotalPrice)
	}

	lines := []string{
		fmt.Sprintf("%s **ЗВІТ: %s**", icon(filter), strings.ToUpper(label)),
		fmt.Sprintf("📅 Дата події: %s", period),
		fmt.Sprintf("📊 **Всього замовлень: %d шт.**", len(orders)),
		fmt.Sprintf("💵 **На суму: %s UAH**", Money(total)),
		"──────────────────",
	}
	for i, ro := range orders {
		lines = append(lines, orderBlock(i+1, ro), "─ ─ ─ ─ ─")
	}
	return strings.Join(lines, "\n")
}

func icon(filter models.StatusCategory) string {
	switch filter.Kind {
	case models.CategoryShipped:
		return "🚚"
	case models.CategoryCompleted:
		return "💰"
	default:
		return "📋"
	}
}

func orderBlock(n int, ro models.ReportedOrder) string {
	o := ro.Order
	client := "Без імені"
	if o.Client != nil && strings.TrimSpace(o.Client.FullName) != "" {
		client = o.Client.FullName
	}
	ttn := o.TrackingNumber()
	if ttn == "" {
		ttn = "-"
	}
	status := o.Status.Title
	if status == "" {
		status = "Невідомо"
	}

	return fmt.Sprintf(
		"**%d. Замовлення #%s** | 👤 %s\n📦 %s | 💰 %s грн\n🎫 ТТН: `%s`\nℹ️ (В CRM зараз: %s)\n🕒 %s: %s",
		n, o.DisplayID(), client,
		productsSummary(o.Products), o.TotalPrice.StringFixed(2),
		ttn,
		status,
		ro.EventKind, ro.EventDate.Format(models.DateLayout),
	)
}

func productsSummary(products []models.Product) string {
	switch len(products) {
	case 0:
		return "Без товару"
	case 1:
		return products[0].Title
	default:
		return fmt.Sprintf("%s (+%d)", products[0].Title, len(products)-1)
	}
}

// Money formats an amount with two decimals and spaces between thousands.
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// Split cuts text into chunks of at most limit runes, preferring line breaks.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLen
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
