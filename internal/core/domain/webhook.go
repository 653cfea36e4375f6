package domain

// TransferEvent is one fungible-token transfer reported by the indexer.
type TransferEvent struct {
	Memo       string `json:"memo"`
	Amount     string `json:"amount"`
	OldOwnerID string `json:"old_owner_id"`
	NewOwnerID string `json:"new_owner_id"`
}

// TransferNotification is a parsed indexer delivery.
type TransferNotification struct {
	BlockHash       string
	ReceiptID       string
	TransactionHash string
	Event           string
	Standard        string
	Version         string
	Events          []TransferEvent
}
