package l1_service

import (
	"context"
	"sectorrotation/internal/domain"
	mock_repository "sectorrotation/internal/repository/mocks"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_holdingsServiceHandler_TopHoldings(t *testing.T) {
	t.Run("ranks by weight and truncates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		holdingsRepository := mock_repository.NewMockHoldingsRepository(ctrl)
		handler := holdingsServiceHandler{
			HoldingsRepository: holdingsRepository,
		}

		holdingsRepository.EXPECT().
			List(gomock.Any(), "XLK").
			Return([]domain.Holding{
				{Symbol: "NVDA", Name: "NVIDIA Corp", Weight: 14.2},
				{Symbol: "AAPL", Name: "Apple Inc", Weight: 15.1},
				{Symbol: "AVGO", Name: "Broadcom Inc", Weight: 5.0},
				{Symbol: "AMD", Name: "Advanced Micro Devices", Weight: 5.0},
			}, nil)

		holdings, err := handler.TopHoldings(context.Background(), "XLK", 3)
		require.NoError(t, err)

		require.Equal(t, "", cmp.Diff([]domain.Holding{
			{Rank: 1, Symbol: "AAPL", Name: "Apple Inc", Weight: 15.1},
			{Rank: 2, Symbol: "NVDA", Name: "NVIDIA Corp", Weight: 14.2},
			{Rank: 3, Symbol: "AMD", Name: "Advanced Micro Devices", Weight: 5.0},
		}, holdings))
	})
}
