package pharmacy

import "time"

// Transaction is one pharmacy point-of-sale transaction. The pharmacy
// system is an upstream collaborator; this package only reads.
type Transaction struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Items       []Item    `json:"items"`
	TotalAmount float64   `json:"total_amount"`
	Tax         float64   `json:"tax"`
	Status      string    `json:"status"`
	SoldAt      time.Time `json:"sold_at"`
}

// Item is one dispensed line within a transaction.
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	UnitRate float64 `json:"unit_rate"`
	Amount   float64 `json:"amount"`
}
