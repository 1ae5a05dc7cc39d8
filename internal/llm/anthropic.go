package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alan/review-miner/internal/config"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// statusOverloaded is returned by the Anthropic API when capacity is exhausted
const statusOverloaded = 529

// AnthropicTransport calls Claude models through AWS Bedrock or the Anthropic API
type AnthropicTransport struct {
	client anthropic.Client
}

// NewAnthropicTransport builds a transport for the configured provider.
// SDK-level retries are disabled because the Gateway owns retry policy.
func NewAnthropicTransport(ctx context.Context, s config.LLMSettings, extra ...option.RequestOption) (*AnthropicTransport, error) {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithHTTPClient(newHTTPClient(s.ConnectTimeout)),
	}
	if s.ReadTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(s.ReadTimeout))
	}

	switch s.Provider {
	case config.ProviderBedrock:
		loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.Region)}
		if s.Profile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(s.Profile))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		opts = append(opts, bedrock.WithConfig(awsCfg))
	case config.ProviderAnthropic:
		opts = append(opts, option.WithAPIKey(s.APIKey))
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", s.Provider)
	}

	opts = append(opts, extra...)
	return &AnthropicTransport{client: anthropic.NewClient(opts...)}, nil
}

func newHTTPClient(connectTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if connectTimeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
		transport.TLSHandshakeTimeout = connectTimeout
	}
	return &http.Client{Transport: transport}
}

// Invoke sends a single user message and concatenates the text blocks of the reply
func (t *AnthropicTransport) Invoke(ctx context.Context, req Request) (*Response, error) {
	message, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == statusOverloaded) {
			return nil, fmt.Errorf("%w: %w", ErrThrottled, err)
		}
		return nil, err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Response{
		Text:         strings.TrimSpace(text.String()),
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}, nil
}
