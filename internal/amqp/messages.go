package amqp

import (
	"encoding/json"
	"time"
)

// MaxTopTickers bounds the tickers listed in a RankingPublishedMessage.
const MaxTopTickers = 10

// RankingPublishedMessage announces a finished ranking run.
// It carries a summary only; consumers read the exported files for detail.
type RankingPublishedMessage struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Funds       int       `json:"funds"`
	TopTickers  []string  `json:"top_tickers"`
	Files       []string  `json:"files,omitempty"`
	SheetRange  string    `json:"sheet_range,omitempty"`
}

// NewRankingPublishedMessage builds a message from the ranked tickers, best first.
func NewRankingPublishedMessage(runID string, tickers, files []string, sheetRange string) *RankingPublishedMessage {
	top := tickers
	if len(top) > MaxTopTickers {
		top = top[:MaxTopTickers]
	}
	return &RankingPublishedMessage{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Funds:       len(tickers),
		TopTickers:  append([]string{}, top...),
		Files:       files,
		SheetRange:  sheetRange,
	}
}

// ToJSON converts the message to JSON bytes
func (m *RankingPublishedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RankingPublishedMessageFromJSON creates a message from JSON bytes
func RankingPublishedMessageFromJSON(data []byte) (*RankingPublishedMessage, error) {
	var msg RankingPublishedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
