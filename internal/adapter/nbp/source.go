package nbp

import (
	"context"
	"errors"
	"time"

	"kantor-wallet/internal/core/ports"
)

// Source adapts Client to ports.RateSource.
type Source struct {
	client *Client
}

// NewSource creates a rate source backed by the NBP API client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Current fetches the most recent publication.
func (s *Source) Current(ctx context.Context) (*ports.RatePublication, error) {
	table, err := s.client.Current(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	return toPublication(table), nil
}

// ByDate fetches the publication effective on the given date.
func (s *Source) ByDate(ctx context.Context, date time.Time) (*ports.RatePublication, error) {
	table, err := s.client.ByDate(ctx, date)
	if err != nil {
		return nil, translateErr(err)
	}
	return toPublication(table), nil
}

func translateErr(err error) error {
	if errors.Is(err, ErrNoPublication) {
		return ports.ErrNoPublication
	}
	return err
}

func toPublication(t *Table) *ports.RatePublication {
	pub := &ports.RatePublication{
		TableNo:       t.No,
		EffectiveDate: t.EffectiveDate.Time(),
		Quotes:        make([]ports.RateQuote, 0, len(t.Rates)),
	}
	for _, r := range t.Rates {
		pub.Quotes = append(pub.Quotes, ports.RateQuote{
			Code: r.Code,
			Name: r.Currency,
			Mid:  r.Mid,
		})
	}
	return pub
}
