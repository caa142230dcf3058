package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storeadmin/internal/model"
)

const latestUsersLimit = 5

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Dashboard собирает данные аналитической панели параллельными запросами.
func (s *Service) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	var (
		dates      []time.Time
		categories []model.CategoryProducts
		users      []model.LatestUser
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		dates, err = s.repo.GetOrderDates(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.repo.GetCategoryProductCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.repo.GetLatestUsers(gctx, latestUsersLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if categories == nil {
		categories = []model.CategoryProducts{}
	}
	if users == nil {
		users = []model.LatestUser{}
	}

	return &model.Dashboard{
		MonthlyOrders: countOrdersByMonth(dates),
		CategoryData:  categories,
		LatestUsers:   users,
	}, nil
}

// countOrdersByMonth считает заказы по месяцу UTC, месяцы без заказов пропускаются.
func countOrdersByMonth(dates []time.Time) []model.MonthlyOrders {
	var counts [12]int
	for _, d := range dates {
		counts[d.UTC().Month()-1]++
	}

	res := []model.MonthlyOrders{}
	for i, c := range counts {
		if c == 0 {
			continue
		}
		res = append(res, model.MonthlyOrders{Name: monthNames[i], Orders: c})
	}
	return res
}
