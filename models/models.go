package models

// DemoUsage bounds daily AI usage for unverified users. Date is a
// "2006-01-02" day key; the counters reset when it no longer matches today.
type DemoUsage struct {
	Date   string `json:"date"`
	Count  int    `json:"count"`
	LastTS int64  `json:"last_ts"`
}

// UserRecord is one entry of the user ledger (paid_users.json), keyed by the
// stringified Telegram user id.
type UserRecord struct {
	Username     string            `json:"username"`
	Verified     bool              `json:"verified"`
	PurchaseDate string            `json:"purchase_date,omitempty"`
	Cache        map[string]string `json:"cache"`
	DemoAI       *DemoUsage        `json:"demo_ai,omitempty"`
}

// AssetEntry is one entry of the global asset cache (kit_assets.json),
// keyed by logical asset name. FileID is always non-empty for a stored entry.
type AssetEntry struct {
	FileID    string `json:"file_id"`
	UpdatedAt string `json:"updated_at"`
}

// Logical asset names accepted by the asset cache.
const (
	AssetPrompts      = "prompts"
	AssetGuide        = "guide"
	AssetPresentation = "presentation"
	AssetBotTemplate  = "bot_template"
	AssetSBPQR        = "sbp_qr"
)

// Payload kinds for broadcast content.
const (
	PayloadText      = "text"
	PayloadPhoto     = "photo"
	PayloadDocument  = "document"
	PayloadVideo     = "video"
	PayloadAnimation = "animation"
	PayloadAudio     = "audio"
	PayloadVoice     = "voice"
)

// BroadcastPayload is the normalized broadcast content: exactly one kind,
// media kinds carry a FileID and an optional caption, text carries Text.
type BroadcastPayload struct {
	Kind    string
	Text    string
	FileID  string
	Caption string
}
