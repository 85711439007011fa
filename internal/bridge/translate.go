package bridge

import (
	"fmt"

	"storebridge/internal/bridge/models"
	"storebridge/internal/store"
)

// normalize extracts the trusted transaction from a verification result, or
// returns the rejection cause. The verdict is a closed variant; an unknown
// state is a programming defect.
func normalize(res store.VerificationResult) (store.Transaction, error) {
	switch res.State {
	case store.StateVerified:
		return res.Transaction, nil
	case store.StateUnverified:
		cause := res.Cause
		if cause == nil {
			cause = fmt.Errorf("verification rejected without cause")
		}
		return store.Transaction{}, cause
	default:
		panic(fmt.Sprintf("unhandled verification state %d", res.State))
	}
}

// translate converts a verified store transaction into the outbound
// normalized representation, carrying the raw signed receipt through opaquely.
func translate(t store.Transaction) models.Transaction {
	return models.Transaction{
		ID:           t.ID,
		OriginalID:   t.OriginalID,
		ProductID:    t.ProductID,
		PurchaseDate: t.PurchaseDate,
		Receipt:      t.Receipt,
		Finished:     t.Finished,
	}
}

func translateProduct(p store.Product) models.Product {
	out := models.Product{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		Price:        p.Price,
		DisplayPrice: p.DisplayPrice,
		CurrencyCode: p.CurrencyCode,
	}
	if p.Subscription != nil {
		out.Subscription = &models.Subscription{
			GroupID:                 p.Subscription.GroupID,
			EligibleWinBackOfferIDs: p.Subscription.EligibleWinBackOfferIDs,
			HasIntroductoryOffer:    p.Subscription.HasIntroductoryOffer,
		}
	}
	return out
}
