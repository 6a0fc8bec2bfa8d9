package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPermitValidator_Validate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockPermitStore(ctrl)
	v := NewPermitValidator(mockStore)
	ctx := context.Background()

	t.Run("should accept a permit with remaining uses", func(t *testing.T) {
		req := require.New(t)
		mockStore.EXPECT().
			FindPermitByCode(gomock.Any(), "ABC123").
			Return(domain.Permit{ID: 9, Code: "ABC123", Used: 1, Total: 3}, nil).
			Times(1)

		c, err := v.Validate(ctx, " ABC123 ")

		req.NoError(err)
		req.Equal(domain.PermitID(9), c.ID)
		req.Equal(2, c.Remaining)
	})

	t.Run("should report exhaustion with current usage", func(t *testing.T) {
		req := require.New(t)
		mockStore.EXPECT().
			FindPermitByCode(gomock.Any(), "USED").
			Return(domain.Permit{ID: 4, Used: 3, Total: 3}, nil)

		c, err := v.Validate(ctx, "USED")

		req.ErrorIs(err, domain.ErrPermitExhausted)
		req.Equal(3, c.Used)
	})

	t.Run("should reject unknown and disabled permits", func(t *testing.T) {
		req := require.New(t)
		mockStore.EXPECT().FindPermitByCode(gomock.Any(), "NOPE").Return(domain.Permit{}, domain.ErrPermitNotFound)
		mockStore.EXPECT().FindPermit(gomock.Any(), domain.PermitID(4)).Return(domain.Permit{ID: 4, Total: 3, Disabled: true}, nil)

		_, err := v.Validate(ctx, "NOPE")
		req.ErrorIs(err, domain.ErrPermitInvalid)

		_, err = v.ValidateID(ctx, 4)
		req.ErrorIs(err, domain.ErrPermitInvalid)
	})

	t.Run("should not call the store for a blank code", func(t *testing.T) {
		mockStore.EXPECT().FindPermitByCode(gomock.Any(), gomock.Any()).Times(0)

		_, err := v.Validate(ctx, "   ")
		require.ErrorIs(t, err, domain.ErrPermitInvalid)
	})

	t.Run("should wrap store failures", func(t *testing.T) {
		boom := errors.New("conn reset")
		mockStore.EXPECT().FindPermit(gomock.Any(), domain.PermitID(1)).Return(domain.Permit{}, boom)

		_, err := v.ValidateID(ctx, 1)
		require.ErrorIs(t, err, boom)
		require.Equal(t, domain.CodeInternal, domain.Code(err))
	})
}
