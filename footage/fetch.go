package footage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// ErrInsufficientFootage is fatal: no silent video can be produced without
// footage, so the run must fail instead of degrading.
var ErrInsufficientFootage = errors.New("insufficient footage")

// VideoTool is the slice of the video engine the fetcher needs
type VideoTool interface {
	Normalize(ctx context.Context, in, out string, width, height, fps int) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Fetcher resolves keywords to a pool of normalized clips
type Fetcher struct {
	provider Provider
	tool     VideoTool
	client   *http.Client
	cfg      config.FootageConfig
	width    int
	height   int
	fps      int
}

func NewFetcher(provider Provider, tool VideoTool, cfg *config.Config) *Fetcher {
	return &Fetcher{
		provider: provider,
		tool:     tool,
		client:   http.DefaultClient,
		cfg:      cfg.Footage,
		width:    cfg.Assembly.Width,
		height:   cfg.Assembly.Height,
		fps:      cfg.Assembly.FPS,
	}
}

type selected struct {
	candidate Candidate
	keyword   string
}

// FetchClips gathers enough footage to cover targetTotalSeconds: one
// candidate per keyword in order, the generic fallback keyword last, capped
// at the configured clip count. Downloads and normalization run concurrently
// up to a small bound; a clip that fails either step is dropped, not fatal.
func (f *Fetcher) FetchClips(ctx context.Context, keywords []string, targetTotalSeconds float64, workDir string) ([]types.Clip, error) {
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, err
	}

	picks := f.selectCandidates(ctx, keywords, targetTotalSeconds)
	if len(picks) == 0 {
		return nil, fmt.Errorf("%w: no candidates for any keyword", ErrInsufficientFootage)
	}

	// Download + normalize in parallel; order is preserved via index slots
	results := make([]*types.Clip, len(picks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.DownloadParallel)
	for i, pick := range picks {
		i, pick := i, pick
		g.Go(func() error {
			clip, err := f.prepareClip(gctx, pick, workDir, i)
			if err != nil {
				log.Printf("[footage] ⚠️  clip %s (%q) dropped: %v", pick.candidate.ID, pick.keyword, err)
				return nil // per-clip failure is tier-internal
			}
			results[i] = clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	clips := make([]types.Clip, 0, len(results))
	for _, c := range results {
		if c != nil {
			clips = append(clips, *c)
		}
	}

	if len(clips) < f.cfg.MinClips {
		return nil, fmt.Errorf("%w: %d usable clips after normalization (need %d)",
			ErrInsufficientFootage, len(clips), f.cfg.MinClips)
	}

	log.Printf("[footage] ✅ %d normalized clips ready", len(clips))
	return clips, nil
}

// selectCandidates walks keywords in order, taking one unseen candidate per
// keyword, until the duration hints cover the target or the cap is reached.
func (f *Fetcher) selectCandidates(ctx context.Context, keywords []string, targetTotalSeconds float64) []selected {
	all := append(append([]string{}, keywords...), f.cfg.FallbackKeyword)

	var picks []selected
	seen := make(map[string]bool)
	accumulated := 0.0

	for _, keyword := range all {
		if len(picks) >= f.cfg.MaxClips || accumulated >= targetTotalSeconds {
			break
		}
		candidates, err := f.provider.Search(ctx, keyword)
		if err != nil {
			log.Printf("[footage] ⚠️  search %q failed: %v", keyword, err)
			continue
		}
		for _, c := range candidates {
			if seen[c.DownloadURL] {
				continue
			}
			seen[c.DownloadURL] = true
			picks = append(picks, selected{candidate: c, keyword: keyword})
			accumulated += c.DurationHint
			break // one clip per keyword keeps the pool visually varied
		}
	}

	// Not enough material yet: drain more candidates from the fallback pool
	if accumulated < targetTotalSeconds && len(picks) < f.cfg.MaxClips {
		if candidates, err := f.provider.Search(ctx, f.cfg.FallbackKeyword); err == nil {
			for _, c := range candidates {
				if len(picks) >= f.cfg.MaxClips || accumulated >= targetTotalSeconds {
					break
				}
				if seen[c.DownloadURL] {
					continue
				}
				seen[c.DownloadURL] = true
				picks = append(picks, selected{candidate: c, keyword: f.cfg.FallbackKeyword})
				accumulated += c.DurationHint
			}
		}
	}

	return picks
}

func (f *Fetcher) prepareClip(ctx context.Context, pick selected, workDir string, idx int) (*types.Clip, error) {
	rawPath := filepath.Join(workDir, fmt.Sprintf("raw_%02d.mp4", idx))
	if err := f.download(ctx, pick.candidate.DownloadURL, rawPath); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer os.Remove(rawPath)

	normPath := filepath.Join(workDir, fmt.Sprintf("clip_%02d.mp4", idx))
	if err := f.tool.Normalize(ctx, rawPath, normPath, f.width, f.height, f.fps); err != nil {
		os.Remove(normPath)
		return nil, fmt.Errorf("normalize: %w", err)
	}

	dur, err := f.tool.ProbeDuration(ctx, normPath)
	if err != nil {
		os.Remove(normPath)
		return nil, fmt.Errorf("probe: %w", err)
	}

	return &types.Clip{
		SourceID:    pick.candidate.ID,
		FilePath:    normPath,
		DurationSec: dur,
		Width:       f.width,
		Height:      f.height,
		Codec:       "h264",
		Keyword:     pick.keyword,
	}, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status %s", resp.Status)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return err
	}
	n, err := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if err != nil {
		os.Remove(outPath)
		return err
	}
	if closeErr != nil {
		os.Remove(outPath)
		return closeErr
	}
	if n == 0 {
		os.Remove(outPath)
		return errors.New("downloaded file is empty")
	}
	return nil
}
