package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/wikilink"
)

const maxMarkdownSize = 5 << 20 // 5 MB

var (
	textMIMEs = map[string]bool{
		"text/markdown":   true,
		"text/x-markdown": true,
		"text/plain":      true,
	}

	// Keeps Unicode letters so titles in any script survive.
	unsafeFilenameRe = regexp.MustCompile(`[^\p{L}\p{N} ._()-]`)
)

func (s *Server) importMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultID, err := req.RequireString("vault_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", "")

	var data []byte
	if strings.HasPrefix(rawURL, "data:") {
		data, err = decodeDataURI(rawURL)
	} else {
		data, err = fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validateText(data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if filename == "" {
		filename = filenameFromURL(rawURL)
	}
	filename = sanitizeFilename(filename)

	res, err := s.svc.ImportNotes(ctx, vaultID, []importer.File{{Name: filename, Content: string(data)}})
	if err != nil {
		return toolError(err, "vault "+vaultID), nil
	}
	return jsonResult(res), nil
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI carrying text.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if mime != "" && !textMIMEs[mime] {
		return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxMarkdownSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", len(data), maxMarkdownSize)
	}
	return data, nil
}

// fetchHTTP downloads a file from an HTTP/HTTPS URL with security checks.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMarkdownSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxMarkdownSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxMarkdownSize)
	}

	ct := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if ct != "" && ct != "application/octet-stream" && !textMIMEs[ct] {
		return nil, fmt.Errorf("unsupported content type: %s", ct)
	}
	return data, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

// filenameFromURL takes the last path segment of a URL, falling back to a
// UUID for data URIs and bare hosts.
func filenameFromURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := path.Base(parsed.Path)
			if base != "" && base != "." && base != "/" {
				if unescaped, err := url.PathUnescape(base); err == nil {
					base = unescaped
				}
				return base
			}
		}
	}
	return uuid.New().String() + ".md"
}

// sanitizeFilename strips path separators and unsafe characters and makes
// sure the name ends in ".md".
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.TrimSpace(unsafeFilenameRe.ReplaceAllString(name, "_"))
	if name == "" || name == "." || wikilink.StripMarkdownSuffix(name) == "" {
		name = uuid.New().String()
	}
	if !wikilink.IsMarkdown(name) {
		name += ".md"
	}
	return name
}

// validateText rejects content that is not UTF-8 text.
func validateText(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("content is not valid UTF-8 text")
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return fmt.Errorf("content looks binary")
	}
	return nil
}
