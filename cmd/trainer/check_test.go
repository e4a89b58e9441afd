package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
)

func TestResolveCheckValidatesInput(t *testing.T) {
	ok := models.PriceCheckRequest{Month: 10, CommodityName: "Onion", MarketName: "Okhla", ActualPrice: 45}

	check, err := resolveCheck(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, models.Onion, check.Commodity)
	assert.Equal(t, models.Okhla, check.Market)

	cases := map[string]func(r *models.PriceCheckRequest){
		"month zero":     func(r *models.PriceCheckRequest) { r.Month = 0 },
		"month 13":       func(r *models.PriceCheckRequest) { r.Month = 13 },
		"negative price": func(r *models.PriceCheckRequest) { r.ActualPrice = -5 },
		"price too high": func(r *models.PriceCheckRequest) { r.ActualPrice = 2e6 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := ok
			mutate(&r)
			_, err := resolveCheck(context.Background(), r)
			assert.ErrorContains(t, err, "invalid check")
		})
	}

	r := ok
	r.MarketName = "Nowhere"
	_, err = resolveCheck(context.Background(), r)
	assert.ErrorIs(t, err, models.ErrUnknownMarket)
}
