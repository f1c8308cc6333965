package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCalendarValidation(t *testing.T) {
	svc := NewService(&cannedGenerator{})
	ctx := context.Background()

	_, err := svc.GenerateCalendar(ctx, CalendarRequest{Month: 13, NumDays: 10, FoodStyles: []string{"Italian"}})
	assert.ErrorIs(t, err, ErrBadMonth)

	_, err = svc.GenerateCalendar(ctx, CalendarRequest{Month: 5, NumDays: 3, FoodStyles: []string{"Italian"}})
	assert.ErrorIs(t, err, ErrBadDayCount)

	_, err = svc.GenerateCalendar(ctx, CalendarRequest{Month: 5, NumDays: 10})
	assert.ErrorIs(t, err, ErrNoFoodStyle)
}

func TestGenerateCalendarParsesAndFiltersEntries(t *testing.T) {
	gen := &cannedGenerator{response: "```json\n[" +
		`{"date":"2026-04-01","topic":"Spring menu","post_idea":"Showcase the new salads","instagram_feature":"Reel","hashtags":"#spring"},` +
		`{"date":"","topic":"broken","post_idea":"","instagram_feature":"","hashtags":""},` +
		`{"date":"2026-04-02","topic":"Behind the scenes","post_idea":"Kitchen tour","instagram_feature":"Story","hashtags":"#bts"}` +
		"]\n```"}
	svc := NewService(gen)

	res, err := svc.GenerateCalendar(context.Background(), CalendarRequest{
		Month: 4, Year: 2026, NumDays: 7,
		FoodStyles:     []string{"Italian", "Vegan"},
		PromotionFocus: "Easter specials",
	})
	require.NoError(t, err)
	require.Len(t, res.Calendar, 2)
	assert.Equal(t, "Spring menu", res.Calendar[0].Topic)
	assert.Contains(t, res.Message, "2 days of content for April 2026")

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Italian, Vegan")
	assert.Contains(t, gen.prompts[0], "Promotions/Themes: Easter specials")
	assert.Contains(t, gen.prompts[0], "April, 2026")
}

func TestGenerateCalendarModelFailure(t *testing.T) {
	svc := NewService(&cannedGenerator{err: errors.New("timeout")})
	_, err := svc.GenerateCalendar(context.Background(), CalendarRequest{
		Month: 4, Year: 2026, NumDays: 7, FoodStyles: []string{"Thai"},
	})
	assert.ErrorIs(t, err, ErrCalendarSync)

	svc = NewService(&cannedGenerator{response: "not json"})
	_, err = svc.GenerateCalendar(context.Background(), CalendarRequest{
		Month: 4, Year: 2026, NumDays: 7, FoodStyles: []string{"Thai"},
	})
	assert.ErrorIs(t, err, ErrCalendarSync)
}
