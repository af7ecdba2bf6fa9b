package notify

import (
	"fmt"
	"strings"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// Messages carry derived fields only. Contact data stays in the lead record.

func leadLink(baseURL, leadID string) string {
	return strings.TrimRight(baseURL, "/") + "/marketplace/leads/" + leadID
}

func priceText(lead *entity.Lead) string {
	if lead.BasePrice == nil {
		return "-"
	}
	return lead.BasePrice.StringFixed(2)
}

func leadAvailableMessage(lead *entity.Lead, baseURL string) entity.Message {
	title := "New lead available: " + lead.Specialty
	if lead.Region != "" {
		title += " (" + lead.Region + ")"
	}
	return entity.Message{
		Kind:  entity.NotificationLeadAvailable,
		Title: title,
		Body:  lead.Summary,
		Link:  leadLink(baseURL, lead.ID),
		Metadata: map[string]string{
			"lead_id":       lead.ID,
			"specialty":     lead.Specialty,
			"region":        lead.Region,
			"urgency":       string(lead.Urgency),
			"quality_score": fmt.Sprint(lead.QualityScore),
			"base_price":    priceText(lead),
		},
	}
}

func leadAcceptedMessage(lead *entity.Lead, baseURL string) entity.Message {
	return entity.Message{
		Kind:  entity.NotificationLeadAccepted,
		Title: "Lead accepted into the marketplace",
		Body:  fmt.Sprintf("Lead %s (%s, score %d) is listed at %s.", lead.ID, lead.Specialty, lead.QualityScore, priceText(lead)),
		Link:  leadLink(baseURL, lead.ID),
		Metadata: map[string]string{
			"lead_id":    lead.ID,
			"specialty":  lead.Specialty,
			"base_price": priceText(lead),
		},
	}
}

func purchaseConfirmedMessage(lead *entity.Lead, p *entity.Purchase, baseURL string) entity.Message {
	return entity.Message{
		Kind:  entity.NotificationPurchaseConfirmed,
		Title: "Purchase confirmed",
		Body:  fmt.Sprintf("You bought a %s lead for %s. The contact details are now available to you.", lead.Specialty, p.PricePaid.StringFixed(2)),
		Link:  leadLink(baseURL, lead.ID),
		Metadata: map[string]string{
			"lead_id":     lead.ID,
			"purchase_id": p.ID,
			"price_paid":  p.PricePaid.StringFixed(2),
		},
	}
}

func leadSoldMessage(lead *entity.Lead, p *entity.Purchase, baseURL string) entity.Message {
	return entity.Message{
		Kind:  entity.NotificationLeadSold,
		Title: "Lead sold",
		Body:  fmt.Sprintf("Lead %s was sold to %s for %s.", lead.ID, p.BuyerID, p.PricePaid.StringFixed(2)),
		Link:  leadLink(baseURL, lead.ID),
		Metadata: map[string]string{
			"lead_id":     lead.ID,
			"purchase_id": p.ID,
			"buyer_id":    p.BuyerID,
			"price_paid":  p.PricePaid.StringFixed(2),
		},
	}
}
