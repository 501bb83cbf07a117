package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Loader loads a product image from a reference string (data URI, local
// path, or remote URL).
type Loader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Relay fetches a remote image server-side and returns it as a data URI.
// Used as the second tier of the fallback chain when a direct load fails.
type Relay interface {
	Fetch(ctx context.Context, imageURL string) (string, error)
}

// ChainLoader resolves image references with a two-tier fallback chain:
// a direct load first, then the relay if one is configured. Data URIs and
// local paths load directly and never touch the network.
type ChainLoader struct {
	client *http.Client
	relay  Relay
}

// NewChainLoader creates a loader. The relay may be nil, in which case
// remote load failures are terminal.
func NewChainLoader(relay Relay) *ChainLoader {
	return &ChainLoader{
		client: &http.Client{Timeout: 30 * time.Second},
		relay:  relay,
	}
}

// Load resolves a single image reference.
func (l *ChainLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return DecodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		img, err := l.loadRemote(ctx, ref)
		if err == nil {
			return img, nil
		}
		if l.relay == nil {
			return nil, err
		}
		dataURI, relayErr := l.relay.Fetch(ctx, ref)
		if relayErr != nil {
			return nil, fmt.Errorf("direct load failed (%v); relay failed: %w", err, relayErr)
		}
		return DecodeDataURI(dataURI)
	default:
		img, err := imaging.Open(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to open local image %s: %w", ref, err)
		}
		return img, nil
	}
}

func (l *ChainLoader) loadRemote(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image: HTTP %d", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image from %s: %w", imageURL, err)
	}
	return img, nil
}

// DecodeDataURI decodes a data: URI into an image. Both base64 and
// percent-encoded payloads are supported.
func DecodeDataURI(uri string) (image.Image, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("not a data URI")
	}

	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URI: missing comma")
	}

	meta := uri[len("data:"):comma]
	payload := uri[comma+1:]

	var data []byte
	if strings.Contains(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
		}
		data = decoded
	} else {
		unescaped, err := url.QueryUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape data URI payload: %w", err)
		}
		data = []byte(unescaped)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI image: %w", err)
	}
	return img, nil
}

// FormatSize renders a byte count in a human-readable form.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
