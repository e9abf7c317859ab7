package appstate

import (
	"strings"

	"github.com/vmedis/go-mobile-shell/menuaccess"
)

// NavigationRequest is the one-shot message the embedded web surface sends
// when remote content asks for in-app navigation to a report screen. Route
// may be a native route identifier or the web app's own path form.
type NavigationRequest struct {
	StatsID string            `json:"statsId"`
	Route   string            `json:"route"`
	Filters map[string]string `json:"filterParams"`
}

// webRouteToNative translates the web app's stats-card paths to native route
// identifiers.
var webRouteToNative = map[string]string{
	// Penjualan & Kasir
	"/mobile/laporan-penjualan-obat":   "lappenjualanobat",
	"/mobile/laporan-pembayaran-kasir": "lappembayarankasir",

	// Customer
	"/mobile/laporan-registrasi-pasien": "lapregistrasipasien",
	"/mobile/laporan-kunjungan-pasien":  "lapkunjunganpasien",

	// Obat
	"/mobile/laporan-obat-expired":    "lapobatexpired",
	"/mobile/laporan-obat-stok-habis": "lapobatstokhabis",
	"/mobile/laporan-stok-opname":     "lapstokopname",

	// Keuangan
	"/mobile/laporan-hutang-obat":    "laphutangobat",
	"/mobile/laporan-piutang-obat":   "lappiutangobat",
	"/mobile/laporan-piutang-klinik": "lappiutangklinik",
}

// NativeRoute resolves a navigation request's route to a native route
// identifier, translating web paths when needed.
func NativeRoute(route string) (string, bool) {
	if route == "" {
		return "", false
	}
	if strings.HasPrefix(route, "/") {
		native, ok := webRouteToNative[route]
		return native, ok
	}
	return strings.ToLower(route), true
}

// HandleNavigation validates an inbound navigation request and, when the
// route names a real destination and someone is logged in, delivers an
// EventNavigate to subscribers. Returns whether the request was honoured.
func (c *Controller) HandleNavigation(req NavigationRequest) bool {
	route, ok := NativeRoute(req.Route)
	if !ok || !menuaccess.IsValidRoute(route) {
		c.log.Warn().Str("route", req.Route).Msg("navigation request to unknown route refused")
		return false
	}

	c.mu.Lock()
	if c.state != StateLoggedIn {
		c.mu.Unlock()
		c.log.Warn().Str("route", route).Msg("navigation request while logged out refused")
		return false
	}
	event := Event{Kind: EventNavigate, State: c.state, Route: route, Filters: req.Filters}
	c.mu.Unlock()

	c.notify([]Event{event})
	c.log.Debug().Str("route", route).Msg("navigation request honoured")
	return true
}
