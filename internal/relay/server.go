package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Server is the image-fetch relay: it downloads a remote image on behalf of
// a client that cannot load it directly and returns the bytes as a data
// URI. Requests for anything other than public HTTPS URLs are rejected.
type Server struct {
	client  *http.Client
	maxSize int64
}

// NewServer creates a relay server with a 10MB response cap.
func NewServer() *Server {
	return &Server{
		client:  &http.Client{Timeout: 30 * time.Second},
		maxSize: 10 << 20,
	}
}

type relayRequest struct {
	ImageURL string `json:"imageUrl"`
}

type relayResponse struct {
	DataURL string `json:"dataUrl,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ServeHTTP handles POST {"imageUrl": ...} -> {"dataUrl": ...} | {"error": ...}.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, relayResponse{Error: "method not allowed"})
		return
	}

	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
		writeJSON(w, http.StatusBadRequest, relayResponse{Error: "image URL is required"})
		return
	}

	if err := ValidateImageURL(req.ImageURL); err != nil {
		writeJSON(w, http.StatusBadRequest, relayResponse{Error: fmt.Sprintf("invalid image URL: %v", err)})
		return
	}

	dataURL, err := s.fetch(r.Context(), req.ImageURL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, relayResponse{Error: "failed to fetch image"})
		return
	}

	writeJSON(w, http.StatusOK, relayResponse{DataURL: dataURL})
}

func (s *Server) fetch(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxSize))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}

// ValidateImageURL rejects URLs that could reach internal infrastructure:
// anything non-HTTPS, loopback, private (RFC 1918), link-local, or the
// unspecified address. Hostname-level checks happen before any fetch.
func ValidateImageURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL")
	}

	if parsed.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed")
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("missing hostname")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("loopback host not allowed")
	}

	if ip := net.ParseIP(host); ip != nil {
		switch {
		case ip.IsLoopback():
			return fmt.Errorf("loopback address not allowed")
		case ip.IsPrivate():
			return fmt.Errorf("private address not allowed")
		case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
			return fmt.Errorf("link-local address not allowed")
		case ip.IsUnspecified():
			return fmt.Errorf("unspecified address not allowed")
		}
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, body relayResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
