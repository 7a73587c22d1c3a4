package invest

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"server-invest-app/config"
	"server-invest-app/internal/app/dgraph"
	"server-invest-app/internal/app/notify"
	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/dao"
	"server-invest-app/internal/db"
	"server-invest-app/internal/model"
)

// LevelStore persists admin overrides of the commission table.
type LevelStore interface {
	List(ctx context.Context) ([]model.CommissionLevel, error)
	Save(ctx context.Context, levels []model.CommissionLevel) error
}

type Service struct {
	Activator *Activator
	Sweeper   *Sweeper
	Users     *Registrar
	Team      UserRepo
	Levels    LevelStore
	Rates     referral.RateSource
	// Base is the configured table admin overrides are applied to.
	Base referral.Table
}

// BaseTable builds the commission table from referral.levels.
func BaseTable() (referral.Table, error) {
	cfg := config.Referral
	if len(cfg.Levels) == 0 {
		return referral.NewTable(referral.DefaultPercentages, cfg.AmountScale())
	}

	pcts := make(map[int]decimal.Decimal, len(cfg.Levels))
	for _, l := range cfg.Levels {
		p, err := decimal.NewFromString(l.Percentage)
		if err != nil {
			return referral.Table{}, errors.Wrapf(err, "level %d percentage", l.Level)
		}
		pcts[l.Level] = p
	}
	return referral.NewTable(pcts, cfg.AmountScale())
}

// NewService wires the distribution engine from config. db.Init must have run;
// dgraph.Open too when the chain source is dgraph.
func NewService() (*Service, error) {
	cfg := config.Referral

	base, err := BaseTable()
	if err != nil {
		return nil, errors.WithMessage(err, "commission table")
	}
	rates := referral.LevelRates{Base: base, Load: dao.CommissionLevel.List}

	var opts []referral.Option
	var mirror Mirror
	if cfg.ChainSource == "dgraph" {
		if dgraph.Dg == nil {
			return nil, errors.New("chain source dgraph requires a dgraph connection")
		}
		graph := dgraph.NewGraph(dgraph.Dg)
		opts = append(opts, referral.WithChainSource(graph))
		mirror = graph
		log.Info("referral chain resolved through dgraph")
	}
	if config.Notify.Enabled {
		opts = append(opts, referral.WithNotifier(
			notify.NewWebhook(config.Notify.URL, config.Notify.Secret, 5*time.Second)))
	}

	store := referral.NewSQLStore(db.MysqlCli, time.Duration(cfg.Timeout)*time.Second)
	dist := referral.NewDistributor(store, rates, opts...)

	return &Service{
		Activator: &Activator{Packages: dao.Package, Distributor: dist, Days: cfg.PackageDays},
		Sweeper: &Sweeper{
			Packages:    dao.Package,
			Distributor: dist,
			Grace:       time.Duration(cfg.SweepGrace) * time.Second,
			Batch:       cfg.SweepBatch,
		},
		Users:  &Registrar{DB: db.MysqlCli, Prefix: cfg.CodePrefix, Mirror: mirror},
		Team:   dao.User,
		Levels: dao.CommissionLevel,
		Rates:  rates,
		Base:   base,
	}, nil
}

// ExpireDue expires positions and packages whose term has passed.
func ExpireDue(ctx context.Context, now time.Time) error {
	n, err := dao.Activation.ExpireDue(ctx, now)
	if err != nil {
		return errors.Wrap(err, "expire bot activations")
	}
	m, err := dao.Package.ExpireDue(ctx, now)
	if err != nil {
		return errors.Wrap(err, "expire packages")
	}
	if n > 0 || m > 0 {
		log.Infof("expired bot activations: %d, packages: %d", n, m)
	}
	return nil
}
