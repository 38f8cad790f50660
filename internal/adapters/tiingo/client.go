package tiingo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/qmoney/internal/domain"
	"github.com/alejandrodnm/qmoney/internal/ports"
)

const (
	defaultBaseURL = "https://api.tiingo.com"

	// Tiingo free tier: 50 req/hora por símbolo nuevo, 1000 req/día.
	// El limiter solo evita ráfagas cuando se usan varios workers.
	defaultRatePerSec = 5
	defaultBurst      = 5

	baseRetryWait = 500 * time.Millisecond
	maxErrorBody  = 200
)

// Config es la configuración explícita del cliente. El token nunca es global.
type Config struct {
	BaseURL    string
	Token      string
	RatePerSec float64       // <= 0 usa el default
	Burst      int           // <= 0 usa el default
	MaxRetries int           // 0 = sin reintentos
	Timeout    time.Duration // 0 = sin timeout (default de net/http)
}

// Client es el HTTP client de Tiingo con rate limiting y reintentos opcionales.
type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	maxRetries int
}

var _ ports.PriceProvider = (*Client)(nil)

// NewClient crea un Client con la configuración dada.
// Si BaseURL está vacío, usa la URL de producción.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		maxRetries: cfg.MaxRetries,
	}
}

// get hace un GET con rate limiting y decodifica el JSON en out.
// Un body vacío deja out sin tocar.
func (c *Client) get(ctx context.Context, u string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// Solo reintenta errores de transporte, 429 y 5xx.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			err = redact(err)
			if attempt == c.maxRetries {
				return fmt.Errorf("%w: request failed after %d retries: %w", domain.ErrNetwork, c.maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == c.maxRetries {
				return fmt.Errorf("%w: status %d after %d retries", domain.ErrNetwork, resp.StatusCode, c.maxRetries)
			}
			slog.Warn("retrying tiingo request", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		return c.decode(resp, out)
	}
	return fmt.Errorf("%w: exhausted %d retries", domain.ErrNetwork, c.maxRetries)
}

// decode cierra el body y clasifica la respuesta.
func (c *Client) decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, c.bodyExcerpt(resp.Body))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: client error %d: %s", domain.ErrNetwork, resp.StatusCode, c.bodyExcerpt(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode response: %w", domain.ErrParse, err)
	}
	return nil
}

// bodyExcerpt lee el inicio del body de un error para el mensaje, sin el token.
// El mensaje acaba en logs, stderr y en el historial SQLite.
func (c *Client) bodyExcerpt(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	s := strings.TrimSpace(string(body))
	if c.token != "" {
		s = strings.ReplaceAll(s, c.token, "REDACTED")
	}
	return s
}

// redact quita la URL (que lleva el token) de los errores de net/http.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
