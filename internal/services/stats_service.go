package services

import (
	"context"

	"github.com/joshua-takyi/eventhub/internal/models"
)

type StatsService struct {
	statsRepo models.StatsRepo
}

func NewStatsService(statsRepo models.StatsRepo) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

// HotelStats counts a hotel's events, bookings and confirmed bookings at
// read time. Hotels see their own; admins see any.
func (ss *StatsService) HotelStats(ctx context.Context, p models.Principal, hotelId string) (*models.HotelStats, error) {
	scoped, err := hotelScope(p, hotelId, models.CapViewHotelStats)
	if err != nil {
		return nil, err
	}
	return ss.statsRepo.GetHotelStats(ctx, scoped)
}
