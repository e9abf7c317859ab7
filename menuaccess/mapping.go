package menuaccess

import "strings"

// routeToURL maps internal route identifiers to the backend's canonical
// menu-URL strings, as served by the MenuGroupUser access query. A route
// without an entry here can never be authorised for a regular user.
var routeToURL = map[string]string{
	// Laporan Apotek
	"lappembelianobat":   "/laporan-transaksi-pembelian-obat",
	"laphutangobat":      "/laporan-transaksi-bayar-hutang",
	"lappenjualanobat":   "/laporan-penjualan-obat",
	"lappiutangobat":     "/laporan-piutang-obat",
	"lapobatstokhabis":   "/obathabis",
	"lapobatexpired":     "/obatexpired",
	"lapobatterlaris":    "/lap-obatlaris",
	"lapstokopname":      "/laporan-stokopname",
	"lapstokobat":        "/lap-stok",
	"lappergantianshift": "/laporan-gantishift",

	// Pendaftaran Klinik
	"lapregistrasipasien": "/laporan-master-pasien",
	"lapkunjunganpasien":  "/laporan-transaksi-kunjungan",

	// Pelayanan Klinik
	"lapjanjidengandokter": "/janji",

	// Billing Kasir
	"lappiutangklinik":          "/kln-piutang",
	"lappembayarankasir":        "/kln-lap-bayar-kasir",
	"lappenjualanobatklinik":    "/laporan-penjualan-obat-klinik",
	"laptagihanjaminan":         "/laporan-tagihan-jaminan-pasien",
	"lappendapatanpetugasmedis": "/laporan-pendapatan-petugas-medis",

	// Laporan Keuangan
	"lapneracaumum": "/laporan-neraca-normal",
	"laplabarugi":   "/laporan-laba-rugi",

	// Sistem
	"lapmanajemenuser":  "/manajemen-user",
	"lappengaturanbank": "/pengaturan-bank",

	// Customer / VMart
	"customers": "/customer",

	// Transaksi
	"pembelianobat": "/pembelian-obat",
	"penjualanobat": "/penjualan-obat",
	"gantishift":    "/gantishift",
	"mutasi":        "/mutasi",

	// Utilitas
	"stokopname": "/stokopname",

	// Tab bar destinations
	"home":     "/dashboard",
	"products": "/obat",
	"orders":   "/keuangan",
	"forecast": "/forecast",
}

// URLFor resolves an internal route identifier to the backend menu-URL.
// Lookup is case-insensitive on the route.
func URLFor(route string) (string, bool) {
	url, ok := routeToURL[strings.ToLower(route)]
	return url, ok
}

// HasMapping reports whether the route resolves to a backend URL at all.
func HasMapping(route string) bool {
	_, ok := URLFor(route)
	return ok
}
