package composite

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/utils"
)

// Job is one independent render: a frame and the layers to put on it. Jobs must not share
// images that are written to; frames and user images are only read.
type Job struct {
	Name   string
	Frame  *rimage.Image
	Layers []Layer
}

// RenderBatch renders every job concurrently. Results are in job order. The first failure cancels
// jobs that have not started, and all failures are returned combined.
func (c *Compositor) RenderBatch(ctx context.Context, jobs []Job) ([]*rimage.Image, error) {
	results := make([]*rimage.Image, len(jobs))
	fs := make([]utils.SimpleFunc, 0, len(jobs))
	for i, job := range jobs {
		fs = append(fs, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := c.Render(job.Frame, job.Layers)
			if err != nil {
				return errors.Wrapf(err, "job %d (%s)", i, job.Name)
			}
			results[i] = out
			return nil
		})
	}
	elapsed, err := utils.RunInParallel(ctx, fs)
	c.logger.Debugw("batch rendered", "jobs", len(jobs), "elapsed", elapsed)
	if err != nil {
		return nil, err
	}
	return results, nil
}
