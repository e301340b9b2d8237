package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/stockledger/internal/observability/metrics"
	"github.com/smallbiznis/stockledger/pkg/db"
	"github.com/smallbiznis/stockledger/pkg/log/ctxlogger"
	"github.com/smallbiznis/stockledger/pkg/repository"
	"github.com/smallbiznis/stockledger/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	obsMetrics *obsmetrics.Metrics

	accountrepo repository.Repository[ledgerdomain.Account]
	moverepo    repository.Repository[ledgerdomain.Move]
	linerepo    repository.Repository[ledgerdomain.MoveLine]
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		obsMetrics: p.ObsMetrics,

		accountrepo: repository.ProvideStore[ledgerdomain.Account](p.DB),
		moverepo:    repository.ProvideStore[ledgerdomain.Move](p.DB),
		linerepo:    repository.ProvideStore[ledgerdomain.MoveLine](p.DB),
	}
}

func (s *Service) PostMove(ctx context.Context, move *ledgerdomain.Move) error {
	if move == nil || move.CompanyID == 0 {
		return ledgerdomain.ErrInvalidCompany
	}
	if move.PeriodID == 0 {
		return ledgerdomain.ErrInvalidPeriod
	}
	move.Origin = strings.TrimSpace(move.Origin)
	if move.Origin == "" {
		return ledgerdomain.ErrInvalidOrigin
	}
	if move.Date.IsZero() {
		return ledgerdomain.ErrInvalidDate
	}
	if len(move.Lines) < 2 {
		return ledgerdomain.ErrInvalidMoveLines
	}
	if err := ledgerdomain.ValidateBalanced(move.Lines); err != nil {
		return err
	}

	accountIDs := make([]snowflake.ID, 0, len(move.Lines))
	for _, line := range move.Lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accounts, err := s.GetAccounts(ctx, accountIDs)
	if err != nil {
		return err
	}
	for i, line := range move.Lines {
		account, ok := accounts[line.AccountID]
		if !ok {
			return fmt.Errorf("%w: %s", ledgerdomain.ErrAccountNotFound, line.AccountID)
		}
		if account.RequiresParty() && line.PartyID == nil {
			return fmt.Errorf("%w: line %d on account %s", ledgerdomain.ErrMissingPartyOnLine, i, account.Code)
		}
	}

	if move.Metadata == nil {
		move.Metadata = datatypes.JSONMap{}
	}
	if cid := correlation.ExtractCorrelationID(ctx); cid != "" {
		move.Metadata["correlation_id"] = cid
	}

	err = db.Transaction(ctx, s.db, func(ctx context.Context) error {
		now := time.Now().UTC()
		move.ID = s.genID.Generate()
		move.State = ledgerdomain.MoveStatePosted
		move.Date = move.Date.UTC()
		move.CreatedAt = now
		if err := s.moverepo.Create(ctx, move); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return fmt.Errorf("%w: %s", ledgerdomain.ErrDuplicateMove, move.Origin)
			}
			return err
		}

		lines := make([]*ledgerdomain.MoveLine, 0, len(move.Lines))
		for i := range move.Lines {
			line := &move.Lines[i]
			line.ID = s.genID.Generate()
			line.MoveID = move.ID
			line.CreatedAt = now
			lines = append(lines, line)
		}
		return s.linerepo.BatchCreate(ctx, lines)
	})
	if err != nil {
		return err
	}

	s.obsMetrics.IncLedgerMove()
	ctxlogger.WithContext(ctx, s.log).Info("ledger move posted",
		zap.String("move_id", move.ID.String()),
		zap.String("origin", move.Origin),
		zap.Int("lines", len(move.Lines)),
	)
	return nil
}

func (s *Service) GetMoveByOrigin(ctx context.Context, origin string) (*ledgerdomain.Move, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil, ledgerdomain.ErrInvalidOrigin
	}

	move, err := s.moverepo.FindOne(ctx, &ledgerdomain.Move{Origin: origin})
	if err != nil {
		return nil, err
	}
	if move == nil {
		return nil, ledgerdomain.ErrMoveNotFound
	}

	lines, err := s.linerepo.Find(ctx, &ledgerdomain.MoveLine{MoveID: move.ID}, repository.OrderBy("id ASC"))
	if err != nil {
		return nil, err
	}
	move.Lines = make([]ledgerdomain.MoveLine, 0, len(lines))
	for _, line := range lines {
		move.Lines = append(move.Lines, *line)
	}
	return move, nil
}

func (s *Service) GetAccounts(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]*ledgerdomain.Account, error) {
	result := make(map[snowflake.ID]*ledgerdomain.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	items, err := s.accountrepo.Find(ctx, nil, repository.In("id", uniqueIDs(ids)))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
