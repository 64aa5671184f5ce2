package footage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Candidate is one downloadable clip offered by the footage provider
type Candidate struct {
	ID           string
	DownloadURL  string
	DurationHint float64
	Width        int
	Height       int
}

// Provider resolves a keyword to downloadable footage candidates
type Provider interface {
	Search(ctx context.Context, keyword string) ([]Candidate, error)
}

// PexelsClient queries the Pexels video search API
type PexelsClient struct {
	APIKey     string
	PerPage    int
	MinClipSec float64
	MaxClipSec float64
	Client     *http.Client
}

func NewPexelsClient(apiKey string, perPage int, minClipSec, maxClipSec float64) *PexelsClient {
	return &PexelsClient{
		APIKey:     apiKey,
		PerPage:    perPage,
		MinClipSec: minClipSec,
		MaxClipSec: maxClipSec,
		Client:     http.DefaultClient,
	}
}

type pexelsResponse struct {
	Videos []struct {
		ID         int     `json:"id"`
		Duration   float64 `json:"duration"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		VideoFiles []struct {
			Link    string `json:"link"`
			Quality string `json:"quality"`
			Width   int    `json:"width"`
		} `json:"video_files"`
	} `json:"videos"`
}

func (p *PexelsClient) Search(ctx context.Context, keyword string) ([]Candidate, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("pexels API key is required")
	}

	endpoint := fmt.Sprintf(
		"https://api.pexels.com/videos/search?query=%s&per_page=%d&orientation=landscape&size=medium",
		url.QueryEscape(keyword), p.PerPage,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pexels error: %s - %s", resp.Status, string(msg))
	}

	var parsed pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse pexels response: %w", err)
	}

	var candidates []Candidate
	for _, v := range parsed.Videos {
		if v.Duration < p.MinClipSec || v.Duration > p.MaxClipSec {
			continue
		}

		// Prefer an HD rendition, fall back to whatever is offered
		link := ""
		for _, f := range v.VideoFiles {
			if f.Quality == "hd" && f.Width >= 1280 {
				link = f.Link
				break
			}
		}
		if link == "" && len(v.VideoFiles) > 0 {
			link = v.VideoFiles[0].Link
		}
		if link == "" {
			continue
		}

		candidates = append(candidates, Candidate{
			ID:           strconv.Itoa(v.ID),
			DownloadURL:  link,
			DurationHint: v.Duration,
			Width:        v.Width,
			Height:       v.Height,
		})
	}
	return candidates, nil
}
