// Package notify canal de alertas de stock bajo sobre shoutrrr (smtp://, slack://, telegram://, generic://...).
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/application/ports"
)

var _ ports.Notifier = (*Notifier)(nil)

// Sender abstrae el envío para probar el notificador sin servicios reales.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender envía con la librería shoutrrr.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// Notifier envía un único mensaje por lote a cada URL configurada.
// El limitador impone un intervalo mínimo entre lotes entregados; los lotes suprimidos no se encolan.
type Notifier struct {
	mu      sync.Mutex
	urls    []string
	sender  Sender
	limiter *rate.Limiter
	title   string
	log     zerolog.Logger
}

// NewNotifier construye el notificador. cooldown <= 0 desactiva el limitador.
func NewNotifier(urls []string, cooldown time.Duration, sender Sender, title string, log zerolog.Logger) *Notifier {
	n := &Notifier{
		urls:   urls,
		sender: sender,
		title:  title,
		log:    log.With().Str("component", "notify").Logger(),
	}
	if cooldown > 0 {
		n.limiter = rate.NewLimiter(rate.Every(cooldown), 1)
	}
	return n
}

// Enabled indica si hay al menos un canal configurado.
func (n *Notifier) Enabled() bool { return len(n.urls) > 0 }

// NotifyLowStock envía el lote a todos los canales. sent=true si al menos un canal aceptó el mensaje;
// error solo si fallaron todos. Los fallos parciales se registran y no se reintentan.
func (n *Notifier) NotifyLowStock(ctx context.Context, batchID string, items []dto.ForecastDTO) (bool, error) {
	if !n.Enabled() || len(items) == 0 {
		return false, nil
	}
	// El token del limitador se consume solo tras una entrega; mu evita que dos lotes pasen con el mismo token.
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.limiter != nil && n.limiter.Tokens() < 1 {
		return false, nil
	}

	msg := FormatMessage(n.title, items)
	var errs []error
	delivered := 0
	for _, url := range n.urls {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := n.sender.Send(url, msg); err != nil {
			n.log.Warn().Err(err).Str("batch_id", batchID).Str("service", serviceName(url)).Msg("canal de notificación falló")
			errs = append(errs, fmt.Errorf("%s: %w", serviceName(url), err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		// Sin entrega no corre el enfriamiento: el siguiente intento puede salir de inmediato.
		return false, errors.Join(errs...)
	}
	if n.limiter != nil {
		n.limiter.Allow()
	}
	return true, nil
}

// FormatMessage arma el texto de la alerta: una línea por artículo, primero los recién bajos.
func FormatMessage(title string, items []dto.ForecastDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %d artículo(s) requieren reposición\n", title, len(items))
	for _, newly := range []bool{true, false} {
		for _, it := range items {
			if it.NewlyLow != newly {
				continue
			}
			fmt.Fprintf(&b, "- %s (%s): %d uds, %d día(s) hasta stock bajo, reponer %s",
				it.Name, it.ProductID, it.CurrentQuantity, it.PredictedDaysUntilLow, formatQty(it.RecommendedReorderQty))
			if it.NewlyLow {
				b.WriteString(" [RECIÉN BAJO]")
			}
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

// serviceName esquema de la URL, para no registrar credenciales.
func serviceName(url string) string {
	if i := strings.Index(url, "://"); i > 0 {
		return url[:i]
	}
	return "desconocido"
}
