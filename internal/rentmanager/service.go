package rentmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/internal/metrics"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

// Service walks the Rent Manager listings, shapes each entity into a record
// and hands it to the configured sinks. Calls are strictly sequential.
type Service struct {
	logger   *zap.Logger
	client   *Client
	sinks    []Sink
	now      func() time.Time
	newRunID func() string
}

// NewService constructs the sync service. Records are always logged; sinks are optional.
func NewService(logger *zap.Logger, client *Client, sinks ...Sink) *Service {
	return &Service{
		logger:   logger,
		client:   client,
		sinks:    sinks,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// SyncProperties shapes every active property together with its details,
// owners and images. A failed detail call degrades the record to defaults;
// only a failed property listing aborts the run.
func (s *Service) SyncProperties(ctx context.Context) (*model.SyncSummary, error) {
	sum := s.newSummary(model.KindProperty)
	log := s.logger.With(zap.String("run_id", sum.RunID), zap.String("kind", sum.Kind))

	props, err := s.client.ActiveProperties(ctx)
	if err != nil {
		log.Error("rentmanager.properties_fetch_failed", zap.Error(err))
		return nil, fmt.Errorf("sync properties: %w", err)
	}

	for _, raw := range props {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Seen++

		p := mapPropertyBase(raw)
		if p.PropertyID == 0 {
			log.Debug("rentmanager.property_skipped", zap.String("reason", "property ID not found"))
			s.skip(sum)
			continue
		}

		degraded := s.enrichProperty(ctx, log, &p)
		s.emit(ctx, log, sum, p.PropertyID, degraded, p)
	}

	s.finish(log, sum)
	return sum, nil
}

func (s *Service) enrichProperty(ctx context.Context, log *zap.Logger, p *model.Property) bool {
	degraded := false
	id := zap.Int64("property_id", p.PropertyID)

	if details, err := s.client.PropertyDetails(ctx, p.PropertyID); err != nil {
		log.Warn("rentmanager.property_details_failed", id, zap.Error(err))
		degraded = true
	} else {
		applyPropertyDetails(p, details)
	}

	if owners, err := s.client.PropertyOwners(ctx, p.PropertyID); err != nil {
		log.Warn("rentmanager.property_owners_failed", id, zap.Error(err))
		p.OwnerDetails = []model.Owner{{}}
		degraded = true
	} else {
		p.OwnerDetails = mapOwners(owners)
	}

	if images, err := s.client.PropertyImages(ctx, p.PropertyID); err != nil {
		log.Warn("rentmanager.property_images_failed", id, zap.Error(err))
		p.ImageDetails = []model.Image{{}}
		degraded = true
	} else {
		p.ImageDetails = mapImages(images)
	}

	return degraded
}

// SyncUnits shapes every online-listing unit together with its search
// details. Unit type names come from /UnitTypes; if that call fails the
// names stay empty.
func (s *Service) SyncUnits(ctx context.Context) (*model.SyncSummary, error) {
	sum := s.newSummary(model.KindUnit)
	log := s.logger.With(zap.String("run_id", sum.RunID), zap.String("kind", sum.Kind))

	unitTypes, err := s.client.UnitTypes(ctx)
	if err != nil {
		log.Warn("rentmanager.unit_types_fetch_failed", zap.Error(err))
		unitTypes = map[int64]string{}
	} else {
		log.Debug("rentmanager.unit_types", zap.Any("unit_types", unitTypes))
	}

	units, err := s.client.OnlineListings(ctx)
	if err != nil {
		log.Error("rentmanager.units_fetch_failed", zap.Error(err))
		return nil, fmt.Errorf("sync units: %w", err)
	}

	for _, raw := range units {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Seen++

		u := mapUnitBase(raw)
		if u.UnitID == 0 {
			log.Debug("rentmanager.unit_skipped", zap.String("reason", "unit ID not found"))
			s.skip(sum)
			continue
		}

		degraded := false
		if details, err := s.client.UnitDetails(ctx, u.UnitID); err != nil {
			log.Warn("rentmanager.unit_details_failed", zap.Int64("unit_id", u.UnitID), zap.Error(err))
			degraded = true
		} else {
			applyUnitDetails(&u, details, unitTypes)
		}

		s.emit(ctx, log, sum, u.UnitID, degraded, u)
	}

	s.finish(log, sum)
	return sum, nil
}

func (s *Service) newSummary(kind string) *model.SyncSummary {
	return &model.SyncSummary{
		RunID:     s.newRunID(),
		Kind:      kind,
		StartedAt: s.now().UTC(),
	}
}

func (s *Service) skip(sum *model.SyncSummary) {
	sum.Skipped++
	metrics.IncRecord(sum.Kind, "skipped")
}

// emit logs the shaped record and delivers it to every sink. Sink failures
// are counted, not returned.
func (s *Service) emit(ctx context.Context, log *zap.Logger, sum *model.SyncSummary, id int64, degraded bool, data any) {
	rec := model.Record{
		RunID:    sum.RunID,
		Kind:     sum.Kind,
		ID:       id,
		SyncedAt: s.now().UTC(),
		Degraded: degraded,
		Data:     data,
	}

	log.Info("rentmanager."+sum.Kind+"_synced",
		zap.Int64("id", id),
		zap.Bool("degraded", degraded),
		zap.Any("record", data))

	for _, sink := range s.sinks {
		if err := sink.Emit(ctx, rec); err != nil {
			log.Warn("rentmanager.sink_failed",
				zap.String("sink", sink.Name()),
				zap.Int64("id", id),
				zap.Error(err))
			metrics.IncSinkError(sink.Name())
			sum.SinkErrors++
		}
	}

	sum.Synced++
	metrics.IncRecord(sum.Kind, "synced")
	if degraded {
		sum.Degraded++
		metrics.IncRecord(sum.Kind, "degraded")
	}
}

func (s *Service) finish(log *zap.Logger, sum *model.SyncSummary) {
	sum.Duration = s.now().UTC().Sub(sum.StartedAt)
	log.Info("rentmanager.sync_completed",
		zap.Int("seen", sum.Seen),
		zap.Int("synced", sum.Synced),
		zap.Int("skipped", sum.Skipped),
		zap.Int("degraded", sum.Degraded),
		zap.Int("sink_errors", sum.SinkErrors),
		zap.Duration("duration", sum.Duration))
}
