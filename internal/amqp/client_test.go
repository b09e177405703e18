package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type recordingChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	deadline bool
	err      error
}

func (r *recordingChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	_, r.deadline = ctx.Deadline()
	r.exchange = exchange
	r.key = key
	r.msg = msg
	return r.err
}

func TestPublishRankingPublished(t *testing.T) {
	ch := &recordingChannel{}
	c := newClient(ch, "srank", "srank.rankings", nil)

	msg := NewRankingPublishedMessage("run-1", []string{"HGLG11", "KNRI11"}, []string{"files/a.json"}, "")
	if err := c.PublishRankingPublished(context.Background(), msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if ch.exchange != "srank" || ch.key != "srank.rankings" {
		t.Errorf("unexpected routing: exchange=%q key=%q", ch.exchange, ch.key)
	}
	if !ch.deadline {
		t.Error("publish should run with a timeout")
	}
	if ch.msg.ContentType != "application/json" || ch.msg.DeliveryMode != amqp091.Persistent {
		t.Errorf("unexpected publishing: %+v", ch.msg)
	}
	if ch.msg.MessageId != "run-1" {
		t.Errorf("message id = %q", ch.msg.MessageId)
	}

	got, err := RankingPublishedMessageFromJSON(ch.msg.Body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Funds != 2 || got.TopTickers[0] != "HGLG11" || got.Files[0] != "files/a.json" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestPublishRankingPublished_Error(t *testing.T) {
	boom := errors.New("channel closed")
	c := newClient(&recordingChannel{err: boom}, "x", "q", nil)

	err := c.PublishRankingPublished(context.Background(), NewRankingPublishedMessage("r", nil, nil, ""))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}

func TestNewRankingPublishedMessage_TruncatesTop(t *testing.T) {
	var tickers []string
	for i := 0; i < 25; i++ {
		tickers = append(tickers, fmt.Sprintf("T%02d11", i))
	}
	msg := NewRankingPublishedMessage("run", tickers, nil, "'S-Rank'!A1:I26")

	if msg.Funds != 25 {
		t.Errorf("Funds = %d, want 25", msg.Funds)
	}
	if len(msg.TopTickers) != MaxTopTickers || msg.TopTickers[0] != "T0011" {
		t.Errorf("TopTickers = %v", msg.TopTickers)
	}
	if time.Since(msg.GeneratedAt) > time.Minute {
		t.Errorf("GeneratedAt not set: %v", msg.GeneratedAt)
	}
}

func TestRankingPublishedMessageFromJSON_Invalid(t *testing.T) {
	if _, err := RankingPublishedMessageFromJSON([]byte("{")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
