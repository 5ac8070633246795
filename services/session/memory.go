package session

import (
	"time"

	appointmentsRepo "jepet/database/repository/appointments"
	ordersRepo "jepet/database/repository/orders"
	profileRepo "jepet/database/repository/profile"
	"jepet/services/identity"
	"jepet/services/localcache"
	"jepet/services/payment"

	"go.uber.org/zap"
)

// MemoryDeps wires every backend in-process. Nothing survives a restart.
func MemoryDeps(logger *zap.Logger, checkoutDelay time.Duration) Deps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Deps{
		Identity:     identity.NewMemoryBackend(),
		Profiles:     profileRepo.NewMemoryProfileRepo(),
		Orders:       ordersRepo.NewMemoryOrderRepo(),
		Appointments: appointmentsRepo.NewMemoryAppointmentRepo(),
		Cache:        localcache.NewMemoryCache(),
		Payments:     payment.NewSimulator(logger, checkoutDelay),
		Logger:       logger,
		Location:     time.UTC,
	}
}
