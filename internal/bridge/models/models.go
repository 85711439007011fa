// Package models holds the bridge's outbound data model: the normalized
// shapes handed to the application, decoupled from the store's own records.
package models

import "time"

// Transaction is the normalized transaction representation pushed to the
// application. Only verified store transactions are ever translated into one.
type Transaction struct {
	ID           int64     `json:"id"`
	OriginalID   int64     `json:"original_id"`
	ProductID    string    `json:"product_id"`
	PurchaseDate time.Time `json:"purchase_date"`

	// Receipt is the raw signed payload backing the transaction, passed
	// through opaquely.
	Receipt string `json:"receipt,omitempty"`

	Finished bool `json:"finished"`
}

// Product is the normalized product descriptor.
type Product struct {
	ID           string        `json:"id"`
	DisplayName  string        `json:"display_name"`
	Description  string        `json:"description,omitempty"`
	Price        float64       `json:"price"`
	DisplayPrice string        `json:"display_price"`
	CurrencyCode string        `json:"currency_code"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// Subscription is the subscription facet of a product descriptor.
type Subscription struct {
	GroupID                 string   `json:"group_id"`
	EligibleWinBackOfferIDs []string `json:"eligible_win_back_offer_ids,omitempty"`
	HasIntroductoryOffer    bool     `json:"has_introductory_offer"`
}

// PromotionalOffer references a signed promotional offer supplied by the
// application.
type PromotionalOffer struct {
	ID        string `json:"id"`
	Signature string `json:"signature"`
}

// PurchaseOptions are the optional knobs on a purchase request. Every field
// is best-effort: malformed or platform-unsupported options are dropped
// silently, never rejected.
type PurchaseOptions struct {
	// AppAccountToken must parse as a UUID to be honored.
	AppAccountToken string `json:"app_account_token,omitempty"`

	PromotionalOffer *PromotionalOffer `json:"promotional_offer,omitempty"`

	WinBackOfferID string `json:"win_back_offer_id,omitempty"`
}

// OutcomeKind tags a PurchaseOutcome.
type OutcomeKind string

const (
	// OutcomeSuccess means the purchase completed and verified.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomePending means the purchase awaits external action; the eventual
	// result, if any, arrives via the live transaction listener.
	OutcomePending OutcomeKind = "pending"
	// OutcomeCancelled means the user backed out.
	OutcomeCancelled OutcomeKind = "cancelled"
)

// PurchaseOutcome is the terminal result of a purchase call.
type PurchaseOutcome struct {
	Kind OutcomeKind `json:"kind"`

	// Transaction is set only for OutcomeSuccess.
	Transaction *Transaction `json:"transaction,omitempty"`
}
