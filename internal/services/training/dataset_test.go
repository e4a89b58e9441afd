package training

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MandiPulse/internal/domain/models"
)

func TestReadHistoryWithIDs(t *testing.T) {
	csv := "month,commodity_id,market_id,mandi_avg,observed_price,is_anomaly,transport_issue,weather_impact\n" +
		"10,1,5,30.0,45.0,1,1,0\n" +
		"3,0,0,52.5,53,0,0,0\n"

	rows, err := ReadHistory(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.HistoryRow{
		Month: 10, Commodity: models.Onion, Market: models.Okhla,
		MandiAvg: 30, ObservedPrice: 45, IsAnomaly: true, TransportIssue: true,
	}, rows[0])
	assert.False(t, rows[1].IsAnomaly)
}

func TestReadHistoryWithNames(t *testing.T) {
	csv := "\ufeffMonth,Commodity,Market,mandi_avg,observed_price,is_anomaly,transport_issue,weather_impact\n" +
		"7,Tomato,INA Market,40,41,false,false,true\n"

	rows, err := ReadHistory(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.Tomato, rows[0].Commodity)
	assert.Equal(t, models.INAMarket, rows[0].Market)
	assert.True(t, rows[0].WeatherImpact)
}

func TestReadHistoryRejects(t *testing.T) {
	header := "month,commodity_id,market_id,mandi_avg,observed_price,is_anomaly,transport_issue,weather_impact\n"
	cases := map[string]string{
		"empty":           "",
		"header only":     header,
		"missing column":  "month,commodity_id,market_id,mandi_avg\n1,0,0,1\n",
		"no market":       "month,commodity_id,mandi_avg,observed_price,is_anomaly,transport_issue,weather_impact\n1,0,1,1,0,0,0\n",
		"bad month":       header + "13,0,0,1,1,0,0,0\n",
		"bad commodity":   header + "1,9,0,1,1,0,0,0\n",
		"bad price":       header + "1,0,0,x,1,0,0,0\n",
		"bad flag":        header + "1,0,0,1,1,maybe,0,0\n",
		"unknown by name": "month,commodity,market,mandi_avg,observed_price,is_anomaly,transport_issue,weather_impact\n1,Saffron,Okhla,1,1,0,0,0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadHistory(strings.NewReader(body))
			assert.ErrorIs(t, err, ErrBadDataset)
		})
	}
}
