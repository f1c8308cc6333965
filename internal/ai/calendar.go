package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

var (
	ErrBadMonth     = errors.New("month must be between 1 and 12")
	ErrBadDayCount  = errors.New("number of days must be between 7 and 31")
	ErrNoFoodStyle  = errors.New("at least one food style must be selected")
	ErrCalendarSync = errors.New("content calendar generation failed")
)

type CalendarRequest struct {
	Month          int      `json:"month"`
	Year           int      `json:"year"`
	NumDays        int      `json:"num_days"`
	FoodStyles     []string `json:"food_style"`
	PromotionFocus string   `json:"promotion_focus,omitempty"`
}

type CalendarEntry struct {
	Date             string `json:"date"`
	Topic            string `json:"topic"`
	PostIdea         string `json:"post_idea"`
	InstagramFeature string `json:"instagram_feature"`
	Hashtags         string `json:"hashtags"`
}

type CalendarResult struct {
	Calendar []CalendarEntry `json:"calendar"`
	Message  string          `json:"message"`
}

// GenerateCalendar produces a themed posting calendar. Unlike captions there
// is no sensible fallback content, so model failures surface as errors.
func (s *Service) GenerateCalendar(ctx context.Context, req CalendarRequest) (*CalendarResult, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, ErrBadMonth
	}
	if req.NumDays < 7 || req.NumDays > 31 {
		return nil, ErrBadDayCount
	}
	if len(req.FoodStyles) == 0 {
		return nil, ErrNoFoodStyle
	}

	raw, err := s.gen.Generate(ctx, buildCalendarPrompt(req))
	if err != nil {
		logger.Errorf("calendar generation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrCalendarSync, err)
	}

	var entries []CalendarEntry
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &entries); err != nil {
		logger.Errorf("calendar response was not valid JSON: %v", err)
		return nil, fmt.Errorf("%w: unparseable model response", ErrCalendarSync)
	}

	// Entries missing required fields are dropped rather than failing the
	// whole calendar.
	valid := entries[:0]
	for _, e := range entries {
		if e.Date == "" || e.Topic == "" || e.PostIdea == "" {
			logger.Warnf("calendar entry missing required fields, skipping: %+v", e)
			continue
		}
		valid = append(valid, e)
	}

	monthName := time.Month(req.Month).String()
	return &CalendarResult{
		Calendar: valid,
		Message:  fmt.Sprintf("Generated %d days of content for %s %d", len(valid), monthName, req.Year),
	}, nil
}

func buildCalendarPrompt(req CalendarRequest) string {
	promotion := req.PromotionFocus
	if promotion == "" {
		promotion = "None"
	}
	return fmt.Sprintf(`Generate a %d-day social media content calendar for a food delivery service focusing on %s cuisine for %s, %d.
Include topics, post ideas, and suggested Instagram features (e.g., Reel, Story, Carousel, Static Post).
Consider the following:
- Promotions/Themes: %s
- Include a mix of engaging, informative, and promotional content.
- Suggest relevant hashtags.
- Structure the output as a JSON array of daily entries, with each entry having 'date', 'topic', 'post_idea', 'instagram_feature', 'hashtags'.
- Example format:
`+"```json"+`
[
  {
    "date": "YYYY-MM-DD",
    "topic": "Topic Name",
    "post_idea": "Detailed post description",
    "instagram_feature": "Reel/Story/Carousel/Static Post",
    "hashtags": "#food #delivery #delicious"
  }
]
`+"```",
		req.NumDays,
		strings.Join(req.FoodStyles, ", "),
		time.Month(req.Month).String(),
		req.Year,
		promotion,
	)
}
