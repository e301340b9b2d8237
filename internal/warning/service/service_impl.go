package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/stockledger/internal/config"
	obsmetrics "github.com/smallbiznis/stockledger/internal/observability/metrics"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	"github.com/smallbiznis/stockledger/internal/warning/domain"
	"github.com/smallbiznis/stockledger/pkg/log/ctxlogger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Store      domain.Store
	Config     *config.WarningConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	store      domain.Store
	config     *config.WarningConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Warner {
	return &Service{
		log:        p.Log.Named("warning.service"),
		store:      p.Store,
		config:     p.Config,
		obsMetrics: p.ObsMetrics,
	}
}

// Warn surfaces w the first time its key is seen in the current session.
// Later calls are silent; only store failures are returned.
func (s *Service) Warn(ctx context.Context, w domain.Warning) error {
	w.Name = strings.TrimSpace(w.Name)
	w.Key = strings.TrimSpace(w.Key)
	if w.Name == "" || w.Key == "" {
		return domain.ErrInvalidWarning
	}

	cfg := s.config.Get()
	if cfg.IsSilenced(w.Name) {
		return nil
	}

	session := SessionOf(ctx)
	first, err := s.store.Acknowledge(ctx, session, w, cfg.SessionTTL)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	s.obsMetrics.IncWarning(w.Name)
	domain.CollectorFromContext(ctx).Add(w)
	ctxlogger.WithContext(ctx, s.log).Warn("user warning",
		zap.String("name", w.Name),
		zap.String("key", w.Key),
		zap.String("message", w.Message),
	)
	return nil
}

// SessionOf is the context session, else the context user, else anonymous.
func SessionOf(ctx context.Context) string {
	if session, ok := txcontext.SessionFromContext(ctx); ok {
		return session
	}
	if user, ok := txcontext.UserFromContext(ctx); ok {
		return "user:" + user
	}
	return domain.AnonymousSession
}
