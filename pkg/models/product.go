package models

// ProductRef is a reference to a catalog product as used in a selection list.
// The ID is stable within one selection but not globally unique: the same
// catalog product may appear multiple times in an order, each occurrence
// removable on its own.
type ProductRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"` // data URI, local path, or HTTPS URL
	Price string `json:"price,omitempty"`
	SKU   string `json:"sku,omitempty"`
	// Quantity is optional; zero means "not specified" and the renderer
	// omits the multiplier instead of defaulting to 1.
	Quantity int `json:"quantity,omitempty"`
}

// ExtractedLine is one (sku, name, quantity) triple pulled from a receipt by
// the AI extraction service. Produced transiently per upload, consumed once
// by the matcher, never persisted.
type ExtractedLine struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
