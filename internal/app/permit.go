package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
)

// PermitCheck is the outcome of a successful permit validation.
type PermitCheck struct {
	ID        domain.PermitID
	Code      string
	Used      int
	Total     int
	Remaining int
}

// PermitValidator answers whether a permit may still be redeemed.
type PermitValidator struct {
	permits core.PermitStore
}

func NewPermitValidator(permits core.PermitStore) *PermitValidator {
	return &PermitValidator{permits: permits}
}

// Validate resolves a permit by its code.
func (v *PermitValidator) Validate(ctx context.Context, code string) (PermitCheck, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return PermitCheck{}, domain.ErrPermitInvalid
	}
	p, err := v.permits.FindPermitByCode(ctx, code)
	return check(p, err)
}

// ValidateID re-validates a permit already bound to a connection.
func (v *PermitValidator) ValidateID(ctx context.Context, id domain.PermitID) (PermitCheck, error) {
	p, err := v.permits.FindPermit(ctx, id)
	return check(p, err)
}

func check(p domain.Permit, err error) (PermitCheck, error) {
	if errors.Is(err, domain.ErrPermitNotFound) {
		return PermitCheck{}, domain.ErrPermitInvalid
	}
	if err != nil {
		return PermitCheck{}, fmt.Errorf("load permit: %w", err)
	}
	c := PermitCheck{ID: p.ID, Code: p.Code, Used: p.Used, Total: p.Total, Remaining: p.Remaining()}
	switch {
	case p.Disabled:
		return c, domain.ErrPermitInvalid
	case p.Exhausted():
		return c, domain.ErrPermitExhausted
	}
	return c, nil
}
