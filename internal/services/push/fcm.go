package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var _ Gateway = (*FCMGateway)(nil)

// FCMGateway delivers through Firebase Cloud Messaging, one multicast call
// per dispatch.
type FCMGateway struct {
	client *messaging.Client
}

func NewFCMGateway(ctx context.Context, credentialsFile string) (*FCMGateway, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return &FCMGateway{client: client}, nil
}

func (g *FCMGateway) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*GatewayResult, error) {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	br, err := g.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send multicast: %w", err)
	}

	res := &GatewayResult{Succeeded: br.SuccessCount}
	for i, sr := range br.Responses {
		if sr.Success {
			continue
		}
		// Unregistered tokens are dead for good; everything else counts as a
		// transient failure worth retrying on the next publish.
		if messaging.IsUnregistered(sr.Error) {
			res.InvalidTokens = append(res.InvalidTokens, tokens[i])
		} else {
			res.FailedTokens = append(res.FailedTokens, tokens[i])
		}
	}
	return res, nil
}
