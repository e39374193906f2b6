package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/codec"
)

// History fetches stored messages for channel (the default channel when
// empty). Transport failures are returned as-is; nothing is retried.
func (c *Client) History(ctx context.Context, channel string, opts HistoryOptions) (*HistoryResult, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	channel = c.channelOr(channel)
	url, err := codec.HistoryURL(c.origin, c.keys.Subscribe, channel, opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.port.Get(ctx, url)
	if err != nil {
		return nil, NewClientError("history", channel, err)
	}

	result, err := codec.DecodeHistory(resp.Body)
	if err != nil {
		return nil, NewClientError("history", channel, err)
	}

	c.logger.Debug("History fetched",
		zap.String("channel", channel),
		zap.Int("messages", len(result.Messages)),
		zap.String("start", result.Start),
		zap.String("end", result.End))
	return result, nil
}

// Time returns the bus's current time-token, which can be used as a resume
// cursor or a history bound.
func (c *Client) Time(ctx context.Context) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}

	resp, err := c.port.Get(ctx, codec.TimeURL(c.origin))
	if err != nil {
		return "", NewClientError("time", "request failed", err)
	}

	tt, err := codec.DecodeTime(resp.Body)
	if err != nil {
		return "", NewClientError("time", "bad response", err)
	}
	return tt, nil
}
