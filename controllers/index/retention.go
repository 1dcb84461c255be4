package index

import (
	"context"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/metrics"
	"github.com/redhatinsights/es-index-lifecycle/controllers/utils"
	"golang.org/x/sync/errgroup"
	"sort"
	"sync/atomic"
	"time"
)

const DefaultDaysToKeep = 5

type CleanupOptions struct {
	//DaysToKeep moves the cutoff back from today's midnight UTC, nil means DefaultDaysToKeep.
	//Zero keeps only the indices created today.
	DaysToKeep *int

	//MinIndexesToKeep is accepted for compatibility but not enforced yet
	MinIndexesToKeep int
}

//RetentionCutoff is midnight UTC, daysToKeep days before now, in epoch millis
func RetentionCutoff(now time.Time, daysToKeep int) int64 {
	return utils.ToMillis(utils.StartOfDay(now.AddDate(0, 0, -daysToKeep)))
}

//Days is a convenience for setting CleanupOptions.DaysToKeep
func Days(days int) *int {
	return &days
}

func (o CleanupOptions) days() int {
	if o.DaysToKeep == nil {
		return DefaultDaysToKeep
	}
	return *o.DaysToKeep
}

type indexCreationDate struct {
	name    string
	created int64
}

//GetIndicesOlderThan returns the indices matching prefix* created before cutoffMillis,
//most recently created first
func (m *Manager) GetIndicesOlderThan(ctx context.Context, prefix string, cutoffMillis int64) ([]string, error) {
	if prefix == "" {
		return nil, invalidArgument("index prefix is required")
	}

	pattern := prefix + "*"
	creationDates, err := m.client.GetCreationDates(ctx, pattern)
	if elasticsearch.IsNotFound(err) {
		return []string{}, nil
	} else if err != nil {
		log.Error(err, "Unable to get index creation dates", "pattern", pattern)
		return nil, operationError(ErrClusterQuery, "get index settings", pattern, err)
	}

	var old []indexCreationDate
	for name, created := range creationDates {
		if created < cutoffMillis {
			old = append(old, indexCreationDate{name: name, created: created})
		}
	}

	sort.Slice(old, func(i, j int) bool {
		if old[i].created == old[j].created {
			return old[i].name > old[j].name
		}
		return old[i].created > old[j].created
	})

	names := make([]string, 0, len(old))
	for _, index := range old {
		names = append(names, index.name)
	}
	return names, nil
}

//CleanupOldIndices deletes the indices matching prefix* created before the retention cutoff,
//except those bound to the alias named prefix. Deletes run concurrently and all of them finish
//before the first failure, if any, is returned.
func (m *Manager) CleanupOldIndices(ctx context.Context, prefix string, opts CleanupOptions) (err error) {
	start := time.Now()
	var deleted int64
	defer func() {
		metrics.SweepFinished(prefix, start, int(deleted), err)
	}()

	days := opts.days()
	if days < 0 {
		return invalidArgument("days to keep must not be negative, got %d", days)
	}
	if opts.MinIndexesToKeep > 0 {
		log.Debug("Minimum number of indices to keep is not enforced", "prefix", prefix, "minIndexesToKeep", opts.MinIndexesToKeep)
	}

	cutoff := RetentionCutoff(m.now(), days)
	old, err := m.GetIndicesOlderThan(ctx, prefix, cutoff)
	if err != nil {
		return err
	}
	if len(old) == 0 {
		log.Debug("No indices older than the retention cutoff", "prefix", prefix, "cutoff", utils.FromMillis(cutoff))
		return nil
	}

	aliased, err := m.GetIndicesForAlias(ctx, prefix)
	if err != nil {
		return err
	}

	toDelete := utils.Difference(old, aliased)
	if skipped := len(old) - len(toDelete); skipped > 0 {
		log.Info("Keeping old indices that are still aliased", "prefix", prefix, "aliased", aliased)
	}

	var deletes errgroup.Group
	for _, name := range toDelete {
		name := name
		deletes.Go(func() error {
			if err := m.DeleteIndex(ctx, name); err != nil {
				return err
			}
			atomic.AddInt64(&deleted, 1)
			return nil
		})
	}

	err = deletes.Wait()
	if err != nil {
		log.Error(err, "Retention sweep did not delete every old index",
			"prefix", prefix, "candidates", toDelete, "deleted", atomic.LoadInt64(&deleted))
		return err
	}

	log.Info("Retention sweep finished", "prefix", prefix, "deleted", toDelete, "cutoff", utils.FromMillis(cutoff))
	return nil
}
