package cron

import (
	"context"
	"fmt"

	"github.com/zauberjournal/journal-api/internal/icons"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

const IconRefreshJobName = "icon_cache_refresh"

type iconCache interface {
	Invalidate(ctx context.Context)
	Load(ctx context.Context) icons.LoadResult
}

type IconRefreshJobParams struct {
	Logger *logger.Logger
	Cache  iconCache
}

// NewIconRefreshJob builds the job that drops and refetches the icon table.
func NewIconRefreshJob(params IconRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("icon cache required")
	}
	return &iconRefreshJob{logg: params.Logger, cache: params.Cache}, nil
}

type iconRefreshJob struct {
	logg  *logger.Logger
	cache iconCache
}

func (j *iconRefreshJob) Name() string { return IconRefreshJobName }

func (j *iconRefreshJob) Run(ctx context.Context) error {
	j.cache.Invalidate(ctx)
	res := j.cache.Load(ctx)

	switch res.State {
	case icons.StateFailed:
		return fmt.Errorf("icon refresh (%s): %w", res.Kind, res.Err)
	case icons.StateNotLoaded:
		j.logg.Info(ctx, "icon refresh deferred to in-flight load")
	default:
		j.logg.Info(j.logg.WithField(ctx, "count", res.Count), "icon refresh complete")
	}
	return nil
}
