package etfholdings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://financialmodelingprep.com"

type Client struct {
	HttpClient *http.Client
	ApiKey     string
	BaseURL    string
}

// Holder is one constituent of an ETF as reported by the etf-holder
// endpoint. WeightPercentage is in percent, e.g. 22.5
type Holder struct {
	Asset            string  `json:"asset"`
	Name             string  `json:"name"`
	Isin             string  `json:"isin"`
	Cusip            string  `json:"cusip"`
	SharesNumber     float64 `json:"sharesNumber"`
	WeightPercentage float64 `json:"weightPercentage"`
	MarketValue      float64 `json:"marketValue"`
	Updated          string  `json:"updated"`
}

func (c Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c Client) GetHolders(ctx context.Context, etfSymbol string) ([]Holder, error) {
	u := fmt.Sprintf(
		"%s/api/v3/etf-holder/%s?apikey=%s",
		c.baseURL(),
		url.PathEscape(etfSymbol),
		url.QueryEscape(c.ApiKey),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpClient := c.HttpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	response, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}

	if response.StatusCode != http.StatusOK {
		type errResponse struct {
			Error string `json:"Error Message"`
		}
		errJson := errResponse{}
		err = json.Unmarshal(responseBytes, &errJson)
		if err != nil || errJson.Error == "" {
			return nil, fmt.Errorf("failed with status code %d", response.StatusCode)
		}
		return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, errJson.Error)
	}

	var holders []Holder
	err = json.Unmarshal(responseBytes, &holders)
	if err != nil {
		return nil, fmt.Errorf("failed to decode holders for %s: %w", etfSymbol, err)
	}

	return holders, nil
}
