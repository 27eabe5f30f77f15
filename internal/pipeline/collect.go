// Package pipeline wires inputs, workers, and writers into runnable
// stages.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"starguard/internal/input/githubapi"
	"starguard/internal/logger"
	"starguard/pkg/models"
)

// CollectPipeline fetches a repository's stargazers, enriches each one
// with its user profile, and writes the resulting star events.
type CollectPipeline struct {
	client    *githubapi.Client
	writer    EventWriter
	owner     string
	repo      string
	workers   int
	batchSize int
}

// NewCollectPipeline creates a collect pipeline.
func NewCollectPipeline(client *githubapi.Client, writer EventWriter, owner, repo string, workers, batchSize int) *CollectPipeline {
	return &CollectPipeline{
		client:    client,
		writer:    writer,
		owner:     owner,
		repo:      repo,
		workers:   workers,
		batchSize: batchSize,
	}
}

// Run fetches, enriches, and writes all star events. Events are written
// in starred_at order regardless of enrichment completion order.
func (p *CollectPipeline) Run(ctx context.Context) (int, error) {
	if p.workers <= 0 {
		p.workers = 8
	}
	if p.batchSize <= 0 {
		p.batchSize = 500
	}

	stargazers, err := p.client.GetStargazers(ctx, p.owner, p.repo)
	if err != nil {
		return 0, err
	}
	logger.Infof("Fetched %d stargazers for %s/%s", len(stargazers), p.owner, p.repo)

	jobs := make(chan githubapi.Stargazer, p.workers*2)
	results := make(chan *models.StarEvent, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.enrichLoop(ctx, jobs, results)
		}()
	}

	go func() {
		defer close(jobs)
		for _, sg := range stargazers {
			select {
			case jobs <- sg:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	events := make([]*models.StarEvent, 0, len(stargazers))
	for ev := range results {
		events = append(events, ev)
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].StarredAt.Equal(events[j].StarredAt) {
			return events[i].StarredAt.Before(events[j].StarredAt)
		}
		return events[i].Username < events[j].Username
	})

	for start := 0; start < len(events); start += p.batchSize {
		end := start + p.batchSize
		if end > len(events) {
			end = len(events)
		}
		if err := p.writer.WriteEvents(events[start:end]); err != nil {
			return start, err
		}
	}

	logger.Infof("Collected %d star events", len(events))
	return len(events), nil
}

func (p *CollectPipeline) enrichLoop(ctx context.Context, jobs <-chan githubapi.Stargazer, out chan<- *models.StarEvent) {
	for sg := range jobs {
		if ctx.Err() != nil {
			return
		}
		ev, err := p.client.EnrichEvent(ctx, sg)
		if err != nil {
			// Keep the star itself; the detectors treat a profile
			// without account age as unenriched.
			logger.Warnf("Failed to enrich %s: %v", sg.User.Login, err)
			ev = &models.StarEvent{
				Username:  sg.User.Login,
				StarredAt: sg.StarredAt.UTC(),
				Status:    models.StatusUnknown,
			}
			time.Sleep(200 * time.Millisecond)
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Close releases pipeline resources.
func (p *CollectPipeline) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
