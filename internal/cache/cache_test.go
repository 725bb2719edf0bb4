package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestReportCache(t *testing.T) {
	mr, client := newRedis(t)
	c := NewReportCache(client, time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, "p-1")
	if err != nil || got != nil {
		t.Fatalf("empty cache: %v, %v", got, err)
	}

	avg := 2.5
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	envelope := &model.ReportEnvelope{
		PurchaseID:  "p-1",
		SurveyID:    "s-1",
		GeneratedAt: &at,
		Report: &model.Report{
			Rating:        model.RatingStats{Count: 2, Average: &avg, Frequencies: []model.Frequency{{2, 1}, {3, 1}}},
			Categories:    []model.CategoryNode{},
			TextQuestions: []model.TextQuestion{},
		},
	}
	if err := c.Set(ctx, envelope); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("purchase:p-1:report"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	got, err = c.Get(ctx, "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Report.Rating.Count != 2 || *got.Report.Rating.Average != 2.5 || !got.GeneratedAt.Equal(at) {
		t.Fatalf("envelope = %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if got, _ := c.Get(ctx, "p-1"); got != nil {
		t.Fatal("entry should expire")
	}
}

func TestSurveyCache(t *testing.T) {
	_, client := newRedis(t)
	c := NewSurveyCache(client, time.Minute)
	ctx := context.Background()

	survey := &model.Survey{ID: "s-1", Slug: "team-health", MaxRating: 4, Cost: model.MustMoney("9.99")}
	if err := c.Set(ctx, survey); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Slug != "team-health" || !got.Cost.Equal(survey.Cost.Decimal) {
		t.Fatalf("survey = %+v", got)
	}

	if err := c.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := c.Get(ctx, "s-1"); got != nil {
		t.Fatal("survey should be gone")
	}
}
