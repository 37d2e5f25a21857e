package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	datasource "bubble-model/src/data_source"
	"bubble-model/src/helpers"
	"bubble-model/src/interfaces"
	"bubble-model/src/logger"
	"bubble-model/src/models"
	"bubble-model/src/utils"
)

const (
	DefaultBaseURL  = "https://query1.finance.yahoo.com"
	DefaultInterval = "1mo"
)

type YahooFinanceSource struct {
	Data    models.MDataConfig
	Yahoo   models.MYahooConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return "yahoo"
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(data models.MDataConfig, yahoo models.MYahooConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *YahooFinanceSource {
	if yahoo.BaseURL == "" {
		yahoo.BaseURL = DefaultBaseURL
	}
	if yahoo.Interval == "" {
		yahoo.Interval = DefaultInterval
	}
	return &YahooFinanceSource{
		Data:    data,
		Yahoo:   yahoo,
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// LoadAssets downloads every configured symbol and joins them like the CSV loader.
func (s *YahooFinanceSource) LoadAssets(ctx context.Context) (*models.MAssetTable, error) {
	series := make(map[string]models.MTimeSeries, len(s.Data.Assets))
	for _, asset := range s.Data.Assets {
		ts, err := s.FetchSeries(ctx, asset)
		if err != nil {
			return nil, err
		}
		series[asset.Name] = ts
	}

	opts := datasource.TableOptions{Range: s.Data.Range}
	if s.Data.TradingDaysOnly {
		opts.Calendar = utils.GetCalendar(s.Data.Calendar)
	}
	return datasource.BuildAssetTable(series, opts)
}

// -----------------------------------------------------------------------------

// FetchSeries downloads the history of one asset, inverted when configured.
func (s *YahooFinanceSource) FetchSeries(ctx context.Context, asset models.MAssetSource) (models.MTimeSeries, error) {
	if asset.Symbol == "" {
		return models.MTimeSeries{}, helpers.NewConfigurationError(fmt.Sprintf("asset '%s' has no yahoo symbol", asset.Name), nil)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s", s.Yahoo.BaseURL, asset.Symbol)
	respBytes, err := s.Network.Get(ctx, url, s.queryParams())
	if err != nil {
		return models.MTimeSeries{}, helpers.NewDataSourceError(fmt.Sprintf("download of %s failed", asset.Symbol), err)
	}

	ts, err := s.parseChartResponse(asset.Symbol, respBytes)
	if err != nil {
		return models.MTimeSeries{}, helpers.NewDataSourceError(fmt.Sprintf("bad chart response for %s", asset.Symbol), err)
	}
	ts.Name = asset.Name
	if asset.Invert {
		ts = datasource.InvertSeries(ts)
	}

	s.Logger.Info("Fetched %s (%s): %d points", asset.Name, asset.Symbol, len(ts.Times))
	return ts, nil
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) queryParams() map[string]string {
	params := map[string]string{
		"interval":       s.Yahoo.Interval,
		"includePrePost": "false",
		"events":         "div,splits",
	}

	r := s.Data.Range
	switch {
	case r.Start != nil || r.End != nil:
		start := time.Unix(0, 0)
		if r.Start != nil {
			start = *r.Start
		}
		end := time.Now()
		if r.End != nil {
			// period2 is exclusive
			end = r.End.AddDate(0, 0, 1)
		}
		params["period1"] = strconv.FormatInt(start.Unix(), 10)
		params["period2"] = strconv.FormatInt(end.Unix(), 10)
	case s.Yahoo.Range != "":
		params["range"] = s.Yahoo.Range
	default:
		params["range"] = "max"
	}
	return params
}

// -----------------------------------------------------------------------------

type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string `json:"currency"`
				Symbol               string `json:"symbol"`
				ExchangeName         string `json:"exchangeName"`
				Gmtoffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				DataGranularity      string `json:"dataGranularity"`
				Range                string `json:"range"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"` // Use pointers to handle null
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

// parseChartResponse turns a chart payload into a date-indexed series. The
// value column follows the data config: "Adj Close" when Yahoo supplies it,
// otherwise the close.
func (s *YahooFinanceSource) parseChartResponse(symbol string, data []byte) (models.MTimeSeries, error) {
	var resp YahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.MTimeSeries{}, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return models.MTimeSeries{}, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return models.MTimeSeries{}, fmt.Errorf("no result in response for %s", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return models.MTimeSeries{}, fmt.Errorf("no timestamps in response for %s", symbol)
	}

	var values []*float64
	useAdj := s.Data.Column == "" || s.Data.Column == datasource.DefaultColumn
	if useAdj && len(result.Indicators.AdjClose) > 0 {
		values = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		values = result.Indicators.Quote[0].Close
	}
	if values == nil {
		return models.MTimeSeries{}, fmt.Errorf("no quote data in response for %s", symbol)
	}
	if len(values) != len(result.Timestamp) {
		return models.MTimeSeries{}, fmt.Errorf("data alignment error for %s", symbol)
	}

	type dataPoint struct {
		t time.Time
		v float64
	}
	points := make([]dataPoint, 0, len(values))
	seen := make(map[time.Time]bool)

	// Bars are stamped at local midnight; shift by the exchange offset to get the trading date.
	offset := int64(result.Meta.Gmtoffset)
	for i, ts := range result.Timestamp {
		if values[i] == nil || *values[i] <= 0 {
			s.Logger.Debug("Skipping empty point for %s at index %d", symbol, i)
			continue
		}
		local := time.Unix(ts+offset, 0).UTC()
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		if seen[date] {
			// Yahoo appends the running month as an extra bar; keep the first.
			continue
		}
		seen[date] = true
		points = append(points, dataPoint{t: date, v: *values[i]})
	}

	if len(points) == 0 {
		return models.MTimeSeries{}, fmt.Errorf("no valid data points for %s", symbol)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	out := models.MTimeSeries{
		Name:   symbol,
		Times:  make([]time.Time, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		out.Times[i] = p.t
		out.Values[i] = p.v
	}
	return out, nil
}
