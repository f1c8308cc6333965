package graph

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// containerPollInterval and containerPollTimeout pace the wait for an
// Instagram media container to finish server-side processing.
const (
	containerPollInterval = 2 * time.Second
	containerPollTimeout  = 90 * time.Second
)

var ErrContainerTimeout = errors.New("instagram media container not ready in time")

// Publisher pushes scheduled posts out to both platforms.
type Publisher struct {
	client   *Client
	ig       *Instagram
	fb       *Facebook
	pollTick time.Duration
	pollMax  time.Duration
}

func NewPublisher(client *Client, ig *Instagram, fb *Facebook) *Publisher {
	return &Publisher{
		client:   client,
		ig:       ig,
		fb:       fb,
		pollTick: containerPollInterval,
		pollMax:  containerPollTimeout,
	}
}

type idResponse struct {
	ID string `json:"id"`
}

// PublishInstagram creates a media container, waits for processing to finish
// and publishes it. It returns the published media id.
func (p *Publisher) PublishInstagram(ctx context.Context, mediaURL, mediaType, caption string) (string, error) {
	accountID, err := p.ig.AccountID(ctx)
	if err != nil {
		return "", err
	}

	params := url.Values{"caption": {caption}}
	if strings.EqualFold(mediaType, "video") {
		params.Set("media_type", "REELS")
		params.Set("video_url", mediaURL)
	} else {
		params.Set("image_url", mediaURL)
	}

	var container idResponse
	if err := p.client.Post(ctx, accountID+"/media", params, &container); err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}

	if err := p.waitForContainer(ctx, container.ID); err != nil {
		return "", err
	}

	var published idResponse
	publishParams := url.Values{"creation_id": {container.ID}}
	if err := p.client.Post(ctx, accountID+"/media_publish", publishParams, &published); err != nil {
		return "", fmt.Errorf("publish media container: %w", err)
	}
	return published.ID, nil
}

func (p *Publisher) waitForContainer(ctx context.Context, containerID string) error {
	deadline := time.Now().Add(p.pollMax)
	for {
		var status struct {
			StatusCode string `json:"status_code"`
		}
		params := url.Values{"fields": {"status_code"}}
		if err := p.client.Get(ctx, containerID, params, &status); err != nil {
			return err
		}
		switch status.StatusCode {
		case "FINISHED", "PUBLISHED", "":
			return nil
		case "ERROR":
			return fmt.Errorf("instagram media container %s failed processing", containerID)
		}
		if time.Now().After(deadline) {
			return ErrContainerTimeout
		}
		select {
		case <-time.After(p.pollTick):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// PublishFacebook posts to the page feed, attaching images via /photos and
// text or link posts via /feed. It returns the created post id.
func (p *Publisher) PublishFacebook(ctx context.Context, mediaURL, mediaType, caption string) (string, error) {
	token, err := p.fb.PageToken(ctx)
	if err != nil {
		return "", err
	}

	var path string
	params := url.Values{"access_token": {token}}
	switch {
	case mediaURL == "":
		path = p.fb.pageID + "/feed"
		params.Set("message", caption)
	case strings.EqualFold(mediaType, "video"):
		path = p.fb.pageID + "/videos"
		params.Set("file_url", mediaURL)
		params.Set("description", caption)
	default:
		path = p.fb.pageID + "/photos"
		params.Set("url", mediaURL)
		params.Set("message", caption)
	}

	var resp struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := p.client.Post(ctx, path, params, &resp); err != nil {
		return "", fmt.Errorf("publish facebook post: %w", err)
	}
	if resp.PostID != "" {
		return resp.PostID, nil
	}
	return resp.ID, nil
}
