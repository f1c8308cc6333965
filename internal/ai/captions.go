package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

// CaptionRequest carries the full option surface of the caption composer
// form.
type CaptionRequest struct {
	MediaPaths     []string `json:"media_path"`
	MediaType      string   `json:"media_type"`
	Style          string   `json:"style"`
	CustomPrompt   string   `json:"custom_prompt,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	BusinessGoals  string   `json:"business_goals,omitempty"`
	NumVariants    int      `json:"num_variants"`

	ContentTone       string `json:"content_tone,omitempty"`
	HashtagPreference string `json:"hashtag_preference,omitempty"`
	IncludeCTA        bool   `json:"include_cta"`
	CTAType           string `json:"cta_type,omitempty"`
	CustomCTA         string `json:"custom_cta,omitempty"`
	IncludeQuestions  bool   `json:"include_questions"`
	PostTiming        string `json:"post_timing,omitempty"`
	LocationContext   string `json:"location_context,omitempty"`
	SeasonalContext   string `json:"seasonal_context,omitempty"`
	BrandVoice        string `json:"brand_voice,omitempty"`
}

type Caption struct {
	Text            string `json:"text"`
	EngagementScore int    `json:"engagement_score"`
	Hashtags        string `json:"hashtags"`
}

type CaptionResult struct {
	Captions    []Caption `json:"captions"`
	Fallback    bool      `json:"fallback,omitempty"`
	Warning     string    `json:"warning,omitempty"`
	GeneratedAt time.Time `json:"timestamp"`
}

type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

const maxCaptionVariants = 5

// GenerateCaptions asks the model for caption variants. When the model is
// unreachable or returns garbage, deterministic fallback captions built from
// the request options are returned instead of an error.
func (s *Service) GenerateCaptions(ctx context.Context, req CaptionRequest) (*CaptionResult, error) {
	if len(req.MediaPaths) == 0 {
		return nil, fmt.Errorf("media_path is required")
	}
	if req.NumVariants <= 0 {
		req.NumVariants = 3
	}
	if req.NumVariants > maxCaptionVariants {
		req.NumVariants = maxCaptionVariants
	}

	prompt := req.CustomPrompt
	if prompt == "" && req.Style != "custom" {
		prompt = buildCaptionPrompt(req)
	}

	raw, err := s.gen.Generate(ctx, prompt)
	if err == nil {
		var captions []Caption
		if jsonErr := json.Unmarshal([]byte(ExtractJSON(raw)), &captions); jsonErr == nil && len(captions) > 0 {
			if len(captions) > req.NumVariants {
				captions = captions[:req.NumVariants]
			}
			return &CaptionResult{Captions: captions, GeneratedAt: time.Now().UTC()}, nil
		}
		err = fmt.Errorf("model response was not a caption list")
	}

	logger.Warnf("caption generation degraded to fallback: %v", err)
	return &CaptionResult{
		Captions:    fallbackCaptions(req),
		Fallback:    true,
		Warning:     "Generated enhanced fallback captions due to processing error",
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func buildCaptionPrompt(req CaptionRequest) string {
	var b strings.Builder
	line := func(label, value, fallback string) {
		if value == "" {
			value = fallback
		}
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	fmt.Fprintf(&b, "Generate %d social media caption variants for a %s post.\n",
		req.NumVariants, strings.ToLower(nonEmpty(req.MediaType, "image")))
	line("Target Audience", req.TargetAudience, "General audience")
	line("Business Goals", req.BusinessGoals, "Increase engagement")
	line("Content Tone", req.ContentTone, "Friendly & Casual")
	line("Hashtag Strategy", req.HashtagPreference, "Medium (10-15 hashtags)")
	line("Call-to-Action", yesNo(req.IncludeCTA), "")
	if req.IncludeCTA {
		line("CTA Type", req.CTAType, "")
		line("Custom CTA", req.CustomCTA, "")
	}
	line("Engagement Questions", yesNo(req.IncludeQuestions), "")
	line("Post Timing", req.PostTiming, "Regular Day")
	line("Location", req.LocationContext, "")
	line("Seasonal Context", req.SeasonalContext, "Current Season")
	line("Brand Voice", req.BrandVoice, "")

	b.WriteString(`
Create captions that:
1. Hook the audience in the first line
2. Include relevant emojis naturally based on content tone
3. Add appropriate call-to-action elements
4. Use hashtag strategy as specified
5. Encourage engagement through questions if requested
6. Match the target audience's interests and language
7. Align with the business goals
8. Reflect the brand voice if provided

Respond with a JSON array where each entry has 'text', 'engagement_score' and 'hashtags'.
`)
	return b.String()
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

var audienceHashtags = map[string]string{
	"Food Lovers":           "#foodie #delicious #yummy #tasty #foodporn #instafood #foodstagram #cooking #recipe #dining",
	"Young Adults (18-25)":  "#trending #viral #lifestyle #mood #aesthetic #vibe #goals #lit #fire #bestlife",
	"Professionals (25-35)": "#success #motivation #business #professional #career #networking #goals #hustle #growth #leadership",
	"Parents":               "#family #parenting #kids #love #blessed #familytime #memories #grateful #momlife #dadlife",
	"Fitness Enthusiasts":   "#fitness #workout #health #gym #strong #fitlife #wellness #motivation #training #exercise",
}

const defaultHashtags = "#amazing #content #engagement #socialmedia #love #instagood #photooftheday #follow #like"

var ctaTexts = map[string]string{
	"Like & Share":    "Double tap if you agree and share with someone who needs to see this! 💫",
	"Visit Website":   "Check out our website for more amazing content! 🌐",
	"Order Now":       "Order now and experience the difference! 🛒",
	"Follow for More": "Follow us for more amazing content like this! ➡️",
	"Save Post":       "Save this post for later reference! 📌",
	"Comment Below":   "Drop your thoughts in the comments below! 💬",
	"Tag Friends":     "Tag your friends who need to see this! 👥",
}

func fallbackCaptions(req CaptionRequest) []Caption {
	hashtags, ok := audienceHashtags[req.TargetAudience]
	if !ok {
		hashtags = defaultHashtags
	}
	trimmed := hashtags
	if len(trimmed) > 150 {
		trimmed = trimmed[:150]
	}

	var cta string
	if req.IncludeCTA {
		if text, ok := ctaTexts[req.CTAType]; ok {
			cta = text
		} else if req.CustomCTA != "" {
			cta = req.CustomCTA
		}
	}

	var question string
	if req.IncludeQuestions {
		question = "What's your take on this? Let us know in the comments! 🤔"
	}

	audience := nonEmpty(req.TargetAudience, "you")
	goals := nonEmpty(req.BusinessGoals, "amazing results")

	return []Caption{
		{
			Text:            squeeze(fmt.Sprintf("🌟 Creating something special just for %s! %s %s %s", audience, question, cta, trimmed)),
			EngagementScore: 85,
			Hashtags:        hashtags,
		},
		{
			Text:            squeeze(fmt.Sprintf("✨ When passion meets purpose... 🚀 Working towards: %s 💪 %s %s", goals, cta, trimmed)),
			EngagementScore: 80,
			Hashtags:        hashtags,
		},
		{
			Text:            squeeze(fmt.Sprintf("💫 Every moment tells a story. What's yours? Perfect for %s who appreciates quality content! 🙌 %s %s", nonEmpty(req.TargetAudience, "everyone"), cta, trimmed)),
			EngagementScore: 82,
			Hashtags:        hashtags,
		},
	}
}

var spaceRun = regexp.MustCompile(`\s+`)

func squeeze(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

var jsonFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON strips a markdown code fence if the model wrapped its answer in
// one, otherwise returns the input trimmed.
func ExtractJSON(s string) string {
	if m := jsonFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}
