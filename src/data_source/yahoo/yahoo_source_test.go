package yahoo

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/logger"
	"bubble-model/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	bodies map[string]string
	urls   []string
	params []map[string]string
	err    error
}

func (f *fakeNetwork) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	f.urls = append(f.urls, url)
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	for symbol, body := range f.bodies {
		if strings.HasSuffix(url, "/"+symbol) {
			return []byte(body), nil
		}
	}
	return nil, errors.New("not found")
}

// Jan, Feb, Mar 2004 bars at New York midnight; Feb adjclose is null.
const gspcChart = `{"chart":{"result":[{"meta":{"symbol":"^GSPC","gmtoffset":-18000},
"timestamp":[1072933200,1075611600,1078117200],
"indicators":{"quote":[{"close":[1131.13,1144.94,1126.21]}],
"adjclose":[{"adjclose":[1131.13,null,1126.21]}]}}],"error":null}}`

const tnxChart = `{"chart":{"result":[{"meta":{"symbol":"^TNX","gmtoffset":-18000},
"timestamp":[1072933200,1075611600,1078117200],
"indicators":{"quote":[{"close":[4.0,5.0,4.0]}],
"adjclose":[{"adjclose":[4.0,5.0,4.0]}]}}],"error":null}}`

func newTestSource(net *fakeNetwork, data models.MDataConfig) *YahooFinanceSource {
	return NewYahooFinanceSource(data, models.MYahooConfig{}, net, logger.NewLoggerTo(io.Discard, "ERROR", "Yahoo"))
}

func TestLoadAssets(t *testing.T) {
	net := &fakeNetwork{bodies: map[string]string{"^GSPC": gspcChart, "^TNX": tnxChart}}
	src := newTestSource(net, models.MDataConfig{
		Assets: []models.MAssetSource{
			{Name: "equity", Symbol: "^GSPC"},
			{Name: "bonds", Symbol: "^TNX", Invert: true},
		},
	})

	assert.Equal(t, "yahoo", src.Name())

	table, err := src.LoadAssets(context.Background())
	require.NoError(t, err)

	require.Len(t, table.Times, 2)
	assert.True(t, table.Times[0].Equal(time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, table.Times[1].Equal(time.Date(2004, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []float64{1131.13, 1126.21}, table.Columns["equity"])
	assert.Equal(t, []float64{0.25, 0.25}, table.Columns["bonds"])

	require.Len(t, net.urls, 2)
	assert.Equal(t, DefaultBaseURL+"/v8/finance/chart/^GSPC", net.urls[0])
	assert.Equal(t, "1mo", net.params[0]["interval"])
	assert.Equal(t, "max", net.params[0]["range"])
}

func TestCloseColumn(t *testing.T) {
	net := &fakeNetwork{bodies: map[string]string{"^GSPC": gspcChart}}
	src := newTestSource(net, models.MDataConfig{Column: "Close"})

	ts, err := src.FetchSeries(context.Background(), models.MAssetSource{Name: "equity", Symbol: "^GSPC"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1131.13, 1144.94, 1126.21}, ts.Values)
	assert.Equal(t, "equity", ts.Name)
}

func TestQueryParamsUseDateRange(t *testing.T) {
	start := time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2004, 3, 31, 0, 0, 0, 0, time.UTC)
	src := newTestSource(&fakeNetwork{}, models.MDataConfig{Range: models.MDateRange{Start: &start, End: &end}})

	params := src.queryParams()
	assert.Equal(t, "1072915200", params["period1"])
	assert.Equal(t, "1080777600", params["period2"])
	assert.NotContains(t, params, "range")
}

func TestFetchErrors(t *testing.T) {
	var dsErr *helpers.DataSourceError
	var cfgErr *helpers.ConfigurationError

	src := newTestSource(&fakeNetwork{err: errors.New("boom")}, models.MDataConfig{})
	_, err := src.FetchSeries(context.Background(), models.MAssetSource{Name: "equity", Symbol: "^GSPC"})
	assert.True(t, errors.As(err, &dsErr))

	_, err = src.FetchSeries(context.Background(), models.MAssetSource{Name: "equity"})
	assert.True(t, errors.As(err, &cfgErr))

	apiErr := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`
	src = newTestSource(&fakeNetwork{bodies: map[string]string{"NOPE": apiErr}}, models.MDataConfig{})
	_, err = src.FetchSeries(context.Background(), models.MAssetSource{Name: "x", Symbol: "NOPE"})
	require.True(t, errors.As(err, &dsErr))
	assert.ErrorContains(t, err, "No data found")
}
