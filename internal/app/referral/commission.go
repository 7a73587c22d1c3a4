package referral

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"server-invest-app/internal/model"
)

var hundred = decimal.New(100, 0)

// DefaultPercentages is the commission table used when nothing else is configured.
var DefaultPercentages = map[int]decimal.Decimal{
	1: decimal.RequireFromString("2.00"),
	2: decimal.RequireFromString("0.75"),
	3: decimal.RequireFromString("0.50"),
	4: decimal.RequireFromString("0.25"),
	5: decimal.RequireFromString("0.15"),
	6: decimal.RequireFromString("0.10"),
}

// Table is an immutable snapshot of per-level percentages of principal.
type Table struct {
	pct   [MaxLevel]decimal.Decimal
	scale int32
}

// NewTable builds a table from a full set of levels. scale is the number of
// decimal places amounts are rounded to.
func NewTable(pcts map[int]decimal.Decimal, scale int32) (Table, error) {
	t := Table{scale: scale}
	if scale < 0 {
		return t, errors.Errorf("negative scale %d", scale)
	}
	for level := 1; level <= MaxLevel; level++ {
		p, ok := pcts[level]
		if !ok {
			return t, errors.Errorf("missing percentage for level %d", level)
		}
		t.pct[level-1] = p
	}
	for level := range pcts {
		if level < 1 || level > MaxLevel {
			return t, errors.Errorf("level %d out of range", level)
		}
	}
	return t, t.validate()
}

func DefaultTable() Table {
	t, _ := NewTable(DefaultPercentages, 2)
	return t
}

func (t Table) validate() error {
	for i, p := range t.pct {
		if p.IsNegative() || p.GreaterThan(hundred) {
			return errors.Errorf("level %d percentage %s out of range", i+1, p)
		}
	}
	return nil
}

// Override returns a copy with the given levels replaced.
func (t Table) Override(levels []model.CommissionLevel) (Table, error) {
	for _, l := range levels {
		if l.Level < 1 || l.Level > MaxLevel {
			return t, errors.Errorf("level %d out of range", l.Level)
		}
		t.pct[l.Level-1] = l.Percentage
	}
	return t, t.validate()
}

func (t Table) Scale() int32 {
	return t.scale
}

// Percentage returns zero for levels outside 1..MaxLevel.
func (t Table) Percentage(level int) decimal.Decimal {
	if level < 1 || level > MaxLevel {
		return decimal.Zero
	}
	return t.pct[level-1]
}

// Amount is principal * percentage / 100, rounded half-up once at the end.
func (t Table) Amount(level int, principal decimal.Decimal) decimal.Decimal {
	return principal.Mul(t.Percentage(level)).Div(hundred).Round(t.scale)
}

// Levels lists the table as rows, level order.
func (t Table) Levels() []model.CommissionLevel {
	levels := make([]model.CommissionLevel, 0, MaxLevel)
	for i, p := range t.pct {
		levels = append(levels, model.CommissionLevel{Level: i + 1, Percentage: p})
	}
	return levels
}

// RateSource yields the commission table in effect right now.
type RateSource interface {
	Table(ctx context.Context) (Table, error)
}

// StaticRates always returns the same table.
type StaticRates Table

func (s StaticRates) Table(context.Context) (Table, error) {
	return Table(s), nil
}

// LevelRates layers admin-stored levels over a base table.
type LevelRates struct {
	Base Table
	Load func(ctx context.Context) ([]model.CommissionLevel, error)
}

func (r LevelRates) Table(ctx context.Context) (Table, error) {
	if r.Load == nil {
		return r.Base, nil
	}
	levels, err := r.Load(ctx)
	if err != nil {
		return Table{}, errors.Wrap(err, "load commission levels")
	}
	return r.Base.Override(levels)
}
