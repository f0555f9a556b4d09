package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/devpackage/msdectl/interfaces"
	"github.com/devpackage/msdectl/models"
	"github.com/rs/zerolog"
)

// ServerBinary is the release script of the game server inside its container.
const ServerBinary = "/usr/local/bin/merigo/msde/bin/msde"

// Chunked retrieval limits.
const (
	SliceWidth = 3500
	MaxSlices  = 50

	truncationMarker = "<> ..."
)

// ErrServerNotRunning is returned when the game server container is missing.
var ErrServerNotRunning = errors.New("game server is not running")

// Client evaluates expressions on the game server through the exec channel.
type Client struct {
	Container string

	runtime interfaces.ContainerRuntime
	logger  zerolog.Logger

	mu          sync.Mutex
	containerID string
}

func NewClient(runtime interfaces.ContainerRuntime, logger zerolog.Logger) *Client {
	return &Client{
		Container: models.PrimaryService,
		runtime:   runtime,
		logger:    logger,
	}
}

func (c *Client) resolve(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.containerID != "" {
		return c.containerID, nil
	}
	id, err := c.runtime.ContainerID(ctx, c.Container)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrServerNotRunning, err)
	}
	c.containerID = id
	return id, nil
}

// Raw runs expr and returns the undecoded output.
func (c *Client) Raw(ctx context.Context, expr string) ([]byte, error) {
	id, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.runtime.Exec(ctx, id, []string{ServerBinary, "rpc", expr})
	if err != nil {
		return nil, fmt.Errorf("rpc %q: %w", expr, err)
	}
	return out, nil
}

// Call runs expr and returns the decoded text.
func (c *Client) Call(ctx context.Context, expr string) (string, error) {
	out, err := c.Raw(ctx, expr)
	if err != nil {
		return "", err
	}
	text := Decode(out)
	c.logger.Debug().Str("expr", expr).Str("result", text).Msg("rpc")
	return text, nil
}

// CallResult runs expr and parses its result tuple.
func (c *Client) CallResult(ctx context.Context, expr string) (models.RemoteCallResult, error) {
	return CallResult(ctx, c, expr)
}

// CallResult parses the outcome of a tuple-returning expression.
func CallResult(ctx context.Context, caller interfaces.Caller, expr string) (models.RemoteCallResult, error) {
	text, err := caller.Call(ctx, expr)
	if err != nil {
		return models.RemoteCallResult{}, err
	}
	return Parse(text)
}

// FetchChunked evaluates a string-valued expression whose inspected value may
// exceed what one exec returns. A value cut off with the truncation marker is
// re-read in SliceWidth wide slices until an empty slice ends it.
func FetchChunked(ctx context.Context, caller interfaces.Caller, expr string) (string, error) {
	first, err := caller.Call(ctx, Inspect(expr))
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(first, truncationMarker) {
		return Unquote(first), nil
	}

	var b strings.Builder
	for i := 0; i < MaxSlices; i++ {
		text, err := caller.Call(ctx, Inspect(SliceExpr(expr, i)))
		if err != nil {
			return "", fmt.Errorf("fetch slice %d: %w", i, err)
		}
		if strings.HasSuffix(text, truncationMarker) {
			return "", fmt.Errorf("%w: slice %d truncated", ErrProtocol, i)
		}

		slice := Unescape(trimQuotes(text))
		if slice == "" {
			return b.String(), nil
		}
		// ranges are inclusive, so every slice after the first repeats the
		// previous slice's last character
		if i > 0 {
			_, size := utf8.DecodeRuneInString(slice)
			slice = slice[size:]
		}
		b.WriteString(slice)
	}
	return "", fmt.Errorf("%w: %q after %d slices", ErrTooManySlices, expr, MaxSlices)
}

// SliceExpr selects the i-th inclusive slice of a string expression.
func SliceExpr(expr string, i int) string {
	return fmt.Sprintf("String.slice(%s, %d..%d)", expr, i*SliceWidth, (i+1)*SliceWidth)
}

// Inspect prints the value of expr in its literal form.
func Inspect(expr string) string {
	return "IO.inspect(" + expr + ")"
}

func trimQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
