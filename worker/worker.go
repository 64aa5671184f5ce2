package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/pipeline"
	"github.com/AndreiCalugar/NewsGenerator/store"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// Task is the payload carried on the video generation queue
type Task struct {
	ScriptID *uint    `json:"script_id,omitempty"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Keywords []string `json:"keywords,omitempty"`
}

// KeywordExtractor supplies footage keywords for a script
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, scriptText string) []string
}

// Worker pops video tasks from Redis and runs the pipeline for each.
// A semaphore caps concurrent renders since each one pins ffmpeg.
type Worker struct {
	cfg       *config.Config
	rdb       *redis.Client
	store     *store.Store
	pipe      *pipeline.Pipeline
	keywords  KeywordExtractor
	renderSem chan struct{}
}

func New(cfg *config.Config, rdb *redis.Client, st *store.Store, pipe *pipeline.Pipeline, keywords KeywordExtractor) *Worker {
	return &Worker{
		cfg:       cfg,
		rdb:       rdb,
		store:     st,
		pipe:      pipe,
		keywords:  keywords,
		renderSem: make(chan struct{}, cfg.Worker.RenderSlots),
	}
}

// Enqueue pushes a task onto the video generation queue
func Enqueue(ctx context.Context, rdb *redis.Client, queue string, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, payload).Err()
}

// Listen blocks on the queue until the context is cancelled
func (w *Worker) Listen(ctx context.Context) {
	queue := w.cfg.Worker.Queue
	log.Printf("[worker] listening on %s", queue)
	for {
		result, err := w.rdb.BRPop(ctx, 0, queue).Result()
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[worker] shutting down")
				return
			}
			log.Printf("[worker] ⚠️ pop failed: %v", err)
			continue
		}
		// result[0] is the queue name, result[1] is the payload
		var task Task
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			log.Printf("[worker] ⚠️ bad payload dropped: %v", err)
			continue
		}
		if err := w.process(ctx, task); err != nil {
			log.Printf("[worker] ⚠️ task %q failed: %v", task.Title, err)
		}
	}
}

// process runs one video generation task end to end
func (w *Worker) process(ctx context.Context, task Task) error {
	select {
	case w.renderSem <- struct{}{}:
		defer func() { <-w.renderSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	keywords := task.Keywords
	if len(keywords) == 0 {
		keywords = w.keywords.ExtractKeywords(ctx, task.Text)
	}
	script := types.Script{Title: task.Title, Text: task.Text}

	result, err := w.pipe.Run(ctx, script, keywords)
	if err != nil {
		var fatalErr *pipeline.FatalError
		if errors.As(err, &fatalErr) {
			log.Printf("[worker] run aborted: %s at stage %s", fatalErr.Kind, fatalErr.Stage)
		}
		return err
	}

	if _, err := w.store.SaveVideo(task.ScriptID, result, strings.Join(keywords, ",")); err != nil {
		log.Printf("[worker] ⚠️ video rendered but not recorded: %v", err)
	}
	log.Printf("[worker] ✅ task %q done: %s", task.Title, result.Standard.VideoPath)
	return nil
}
