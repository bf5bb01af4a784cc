package store

import "time"

type Asset struct {
	AssetName string `json:"asset_name"`
	SizeBytes int64  `json:"size_bytes"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Validated bool   `json:"validated"`
	Order     int    `json:"order"`
}

type QuarantineEntry struct {
	AssetName     string    `json:"asset_name"`
	Reason        string    `json:"reason"`
	QuarantinedAt time.Time `json:"quarantined_at"`
}
