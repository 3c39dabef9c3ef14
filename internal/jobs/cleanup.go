package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reelway/media-server-go/internal/config"
	"github.com/reelway/media-server-go/internal/repository"
)

// CleanupJob deletes pairing records that are past their retention window.
// Expiry is enforced on read, so this sweep is storage hygiene only.
type CleanupJob struct {
	pairingRepo repository.DevicePairingRepository
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(pairingRepo repository.DevicePairingRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		pairingRepo: pairingRepo,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.pairingRepo.DeleteExpired(ctx, config.PairingRetention)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup expired pairings")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up expired pairings")
	}
}
