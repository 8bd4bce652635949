package chain

// ContractVersion identifies the on-chain registry contract schema this
// client speaks. Bump when the contract ABI changes.
const ContractVersion = "v0.1.0"

// Registration carries the parameters of a registerContent call.
type Registration struct {
	ContentHash     string `json:"content_hash"`
	ContentURI      string `json:"content_uri"`
	CreationType    uint8  `json:"creation_type"`
	PlatformSource  string `json:"platform_source"`
	CreationContext string `json:"creation_context"`
}

// ContentMetadata mirrors the tuple returned by getContentDetails.
type ContentMetadata struct {
	Creator         string `json:"creator"`
	Timestamp       uint64 `json:"timestamp"`
	CreationType    uint8  `json:"creation_type"`
	Status          uint8  `json:"status"`
	CreationContext string `json:"creation_context"`
	VouchCount      uint64 `json:"vouch_count"`
	PlatformSource  string `json:"platform_source"`
	ContentURI      string `json:"content_uri"`
}

// Receipt is the acknowledgement of a submitted contract call.
type Receipt struct {
	TxHash string `json:"tx_hash"`
}
