package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/garystarr-surgi/invoice-lock/internal/lock"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var printer = message.NewPrinter(language.English)

type noticeData struct {
	Customer string
	Level    string
	Invoice  string
	Days     int
	DueDate  string
	Amount   string
	Currency string
	Action   string
	Today    string
}

type digestRow struct {
	Customer string
	Status   string
	Days     string
}

type digestData struct {
	Today string
	Rows  []digestRow
}

// FormatAmount renders amount with grouping and two decimals.
func FormatAmount(amount decimal.Decimal) string {
	digits, frac, _ := strings.Cut(amount.StringFixed(2), ".")
	var b strings.Builder
	if rest, ok := strings.CutPrefix(digits, "-"); ok {
		b.WriteByte('-')
		digits = rest
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// CurrencyCode normalises an ISO 4217 code, keeping unknown codes as given.
func CurrencyCode(code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code
	}
	return unit.String()
}

func displayName(c lock.CustomerLock) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Code
}

// RenderLockNotice builds the email sent when a customer changes tier.
func RenderLockNotice(n lock.Notice) (Email, error) {
	name := displayName(n.Customer)
	data := noticeData{
		Customer: name,
		Invoice:  n.Invoice.Number,
		Days:     n.DaysOverdue,
		DueDate:  n.Invoice.DueAt.Format(time.DateOnly),
		Amount:   FormatAmount(n.Invoice.Outstanding),
		Currency: CurrencyCode(n.Invoice.Currency),
		Today:    n.AsOf.Format(time.DateOnly),
	}
	var subject string
	switch n.Tier {
	case lock.TierSoft:
		subject = fmt.Sprintf("Customer %s soft locked at %d days overdue", name, n.DaysOverdue)
		data.Level = "soft"
		data.Action = "Please coordinate with Accounting. Customer access is limited until resolved."
	case lock.TierHard:
		subject = fmt.Sprintf("Customer %s locked at %d+ days overdue", name, n.DaysOverdue)
		data.Level = "hard"
		data.Action = "Customer is fully locked. Please escalate with Accounting."
	default:
		return Email{}, fmt.Errorf("notify: no lock notice for tier %q", n.Tier)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, "lock_notice.html", data); err != nil {
		return Email{}, fmt.Errorf("notify: render lock notice: %w", err)
	}
	return Email{
		To:        []string{n.Customer.AccountManagerEmail},
		Subject:   subject,
		HTMLBody:  body.String(),
		Reference: n.RunID,
	}, nil
}

// RenderDigest builds the weekly summary for one account manager.
func RenderDigest(d lock.DigestEntry) (Email, error) {
	data := digestData{Today: d.AsOf.Format(time.DateOnly)}
	for _, c := range d.Customers {
		days := "-"
		if c.DaysOverdue != nil {
			days = printer.Sprint(*c.DaysOverdue)
		}
		data.Rows = append(data.Rows, digestRow{Customer: displayName(c), Status: c.Status.Label(), Days: days})
	}
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, "digest.html", data); err != nil {
		return Email{}, fmt.Errorf("notify: render digest: %w", err)
	}
	noun := "customers"
	if len(d.Customers) == 1 {
		noun = "customer"
	}
	return Email{
		To:        []string{d.ManagerEmail},
		Subject:   fmt.Sprintf("Locked customer summary: %d %s as of %s", len(d.Customers), noun, data.Today),
		HTMLBody:  body.String(),
		Reference: "digest:" + data.Today,
	}, nil
}
