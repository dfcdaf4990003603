package notify

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dirawatch/internal/models"
)

var printer = message.NewPrinter(language.English)

// BuildMessage renders the alert text for a listing
func BuildMessage(listing *models.Listing, kind models.NotificationType, dropPct *float64) string {
	var b strings.Builder

	switch {
	case kind == models.NotificationPriceDrop && dropPct != nil:
		fmt.Fprintf(&b, "PRICE DROP: %.1f%% off\n", *dropPct)
	case kind == models.NotificationHighScore:
		fmt.Fprintf(&b, "HIGH SCORE LISTING (score %.0f/100)\n", listing.DealScore)
	default:
		b.WriteString("New listing\n")
	}
	b.WriteString("\n")
	b.WriteString(listing.Title + "\n")

	if listing.Address != "" {
		b.WriteString("Address: " + listing.Address + "\n")
	}
	if models.Positive(listing.Price) {
		line := "Price: " + formatShekels(*listing.Price)
		if models.Positive(listing.PricePerSqm) {
			line += fmt.Sprintf(" (%s/sqm)", formatShekels(*listing.PricePerSqm))
		}
		b.WriteString(line + "\n")
	}

	var details []string
	if models.Positive(listing.Rooms) {
		details = append(details, fmt.Sprintf("%g rooms", *listing.Rooms))
	}
	if models.Positive(listing.SizeSqm) {
		details = append(details, fmt.Sprintf("%.0f sqm", *listing.SizeSqm))
	}
	if listing.Floor != nil {
		floor := fmt.Sprintf("floor %d", *listing.Floor)
		if listing.TotalFloors != nil && *listing.TotalFloors > 0 {
			floor += fmt.Sprintf("/%d", *listing.TotalFloors)
		}
		details = append(details, floor)
	}
	if len(details) > 0 {
		b.WriteString(strings.Join(details, " | ") + "\n")
	}

	var features []string
	if listing.HasParking {
		features = append(features, "parking")
	}
	if listing.HasElevator {
		features = append(features, "elevator")
	}
	if listing.HasBalcony {
		features = append(features, "balcony")
	}
	if listing.HasMamad {
		features = append(features, "mamad")
	}
	if len(features) > 0 {
		b.WriteString("Features: " + strings.Join(features, ", ") + "\n")
	}

	fmt.Fprintf(&b, "\nDeal score: %.0f/100\n", listing.DealScore)
	b.WriteString("Source: " + listing.Source + "\n")
	if listing.URL != "" {
		b.WriteString("Link: " + listing.URL + "\n")
	}
	if link := whatsAppLink(listing); link != "" {
		b.WriteString("WhatsApp: " + link + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// whatsAppLink builds a wa.me link from a local 0-prefixed phone number
func whatsAppLink(listing *models.Listing) string {
	phone := listing.ContactPhone
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "0") {
		phone = "972" + phone[1:]
	}
	text := fmt.Sprintf("Hi, I saw your listing on %s - %s", listing.Source, listing.Address)
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(text)
}

// formatShekels renders 2150000 as "₪2,150,000"
func formatShekels(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return printer.Sprintf("-₪%d", -n)
	}
	return printer.Sprintf("₪%d", n)
}
