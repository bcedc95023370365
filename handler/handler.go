package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/service"
)

type ServiceDependencies struct {
	PipelineService service.PipelineService
	DeckService     service.DeckService
}

func LectureJobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.LectureJobMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal lecture job message")
		return err
	}

	return deps.PipelineService.Process(ctx, job)
}

func DeckJobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.DeckJobMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal deck job message")
		return err
	}

	return deps.DeckService.Process(ctx, job)
}

// DeckJobFailureHandler runs after the deck consumer's retry budget is spent,
// right before the message is dead-lettered. It marks the job FAILED so the
// status API does not report PROCESSING forever.
func DeckJobFailureHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies, cause error) {
	var job dto.DeckJobMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal dead-lettered deck job message")
		return
	}
	if err := deps.DeckService.FailBuild(ctx, job, cause); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("job_id", job.JobID.String()).Msg("failed to mark deck job failed")
	}
}
