package nbrb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mkazlouski/budget-bank/internal/config"
)

// Client fetches official exchange rates from the National Bank of the
// Republic of Belarus daily XML feed.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new NBRB client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.RatesURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// USDRate retrieves how many BYN one USD buys.
func (c *Client) USDRate(ctx context.Context) (decimal.Decimal, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	rate, err := c.parseXMLResponse(body, "USD")
	if err != nil {
		return decimal.Zero, err
	}

	c.log.Infof("Retrieved USD rate: %s", rate)
	return rate, nil
}

// fetch downloads the daily rates document
func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	// Log the raw XML response for debugging
	c.log.Debugf("NBRB XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts the rate for the given char code from the
// DailyExRates document
func (c *Client) parseXMLResponse(rawBody []byte, charCode string) (decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse XML: %v", err)
	}

	for _, cur := range doc.FindElements("//DailyExRates/Currency") {
		code := cur.FindElement("./CharCode")
		if code == nil || code.Text() != charCode {
			continue
		}
		rateElement := cur.FindElement("./Rate")
		if rateElement == nil {
			return decimal.Zero, fmt.Errorf("rate element not found for %s", charCode)
		}
		rate, err := decimal.NewFromString(rateElement.Text())
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse rate: %v", err)
		}

		scale := decimal.NewFromInt(1)
		if scaleElement := cur.FindElement("./Scale"); scaleElement != nil {
			scale, err = decimal.NewFromString(scaleElement.Text())
			if err != nil || scale.Sign() <= 0 {
				return decimal.Zero, fmt.Errorf("failed to parse scale: %v", err)
			}
		}
		return rate.Div(scale), nil
	}

	return decimal.Zero, fmt.Errorf("no %s rate found in XML", charCode)
}
