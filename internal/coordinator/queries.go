package coordinator

import (
	"context"

	"github.com/gatepass/gatepass/internal/local"
	"github.com/gatepass/gatepass/internal/models"
	"github.com/gatepass/gatepass/internal/remote"
)

// FindVisitorByNationalID returns the latest visitor registered with the
// Aadhar number, or nil. It is used to pre-fill returning visitors.
func (c *Coordinator) FindVisitorByNationalID(ctx context.Context, aadhar string) (*models.Visitor, error) {
	if aadhar == "" {
		return nil, nil
	}
	if c.connected() {
		var v *models.Visitor
		err := c.call(ctx, "find_visitor", func(ctx context.Context) error {
			var err error
			v, err = c.gw.FindVisitorByNationalID(ctx, aadhar)
			return err
		})
		if err == nil {
			return v, nil
		}
		c.log.Warn(ctx, "backend visitor lookup failed, using local mirror", "error", err)
	}

	visitors, err := c.localVisitors(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, v := range visitors {
		if v.AadharNumber == aadhar {
			return v, nil
		}
	}
	return nil, nil
}

// WeeklyVisitCounts returns visits per weekday, Sunday first, of the current
// week. An empty orgID counts every organization.
func (c *Coordinator) WeeklyVisitCounts(ctx context.Context, orgID string) ([7]int, error) {
	now := c.now()
	if c.connected() {
		var counts [7]int
		err := c.call(ctx, "weekly_visits", func(ctx context.Context) error {
			var err error
			counts, err = c.gw.WeeklyVisitCounts(ctx, orgID, now)
			return err
		})
		if err == nil {
			return counts, nil
		}
		c.log.Warn(ctx, "backend weekly counts failed, using local mirror", "error", err)
	}

	visitors, err := c.localVisitors(ctx, orgID)
	if err != nil {
		return [7]int{}, err
	}
	dates := make([]string, len(visitors))
	for i, v := range visitors {
		dates[i] = v.VisitDate
	}
	return remote.Histogram(dates, now), nil
}

// VisitorStats counts all visits and today's visits. An empty orgID counts
// every organization.
func (c *Coordinator) VisitorStats(ctx context.Context, orgID string) (remote.Stats, error) {
	now := c.now()
	if c.connected() {
		var stats remote.Stats
		err := c.call(ctx, "visitor_stats", func(ctx context.Context) error {
			var err error
			stats, err = c.gw.VisitorStats(ctx, orgID, now)
			return err
		})
		if err == nil {
			return stats, nil
		}
		c.log.Warn(ctx, "backend visitor stats failed, using local mirror", "error", err)
	}

	visitors, err := c.localVisitors(ctx, orgID)
	if err != nil {
		return remote.Stats{}, err
	}
	today := now.Format(models.DateLayout)
	stats := remote.Stats{Total: len(visitors)}
	for _, v := range visitors {
		if v.VisitDate == today {
			stats.Today++
		}
	}
	return stats, nil
}

func (c *Coordinator) localVisitors(ctx context.Context, orgID string) ([]*models.Visitor, error) {
	return local.NewCollection[*models.Visitor](c.store).Find(ctx, models.Filter{OrganizationID: orgID})
}
